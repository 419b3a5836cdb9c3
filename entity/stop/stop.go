package stop

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity"
)

// stopBuffer compute阶段算出、apply阶段提交的状态变化
type stopBuffer struct {
	valid  bool              // 本阶段是否有状态变化
	status entity.StopStatus // 新状态
	grant  bool              // 是否授予记录车辆通行权
}

// Stop 停车线实体
// 功能：维护一条停车线的通行权状态机（EMPTY -> WAITING -> CLEARING -> EMPTY），
// 记录最先到达的车辆，并依据其他停车线的状态决定何时授予通行权
type Stop struct {
	ctx entity.ITaskContext

	// 静态属性
	id             int32
	group          int32 // 所属进口道0~3
	turn           bool  // 是否为左转停车线
	pos            entity.Position
	avoidDeadlocks bool

	// 运行时数据
	status      entity.StopStatus
	lastVehicle int32 // 正在等待或穿越的车辆ID
	waitTime    int32 // 停车线已被占用时，车辆继续登记的次数

	// 初始化后计算一次的关联停车线
	checkEmpty       []entity.IStop // 必须全部为EMPTY
	checkNotClearing []entity.IStop // 必须都不为CLEARING

	buffer stopBuffer
}

func newStop(ctx entity.ITaskContext, id, group int32, turn bool, pos entity.Position, avoidDeadlocks bool) *Stop {
	return &Stop{
		ctx:            ctx,
		id:             id,
		group:          group,
		turn:           turn,
		pos:            pos,
		avoidDeadlocks: avoidDeadlocks,
		status:         entity.StopEmpty,
		lastVehicle:    entity.NoVehicle,
	}
}

func (s *Stop) ID() int32 {
	return s.id
}

func (s *Stop) Kind() entity.AgentKind {
	return entity.KindStop
}

func (s *Stop) Group() int32 {
	return s.group
}

func (s *Stop) Turn() bool {
	return s.turn
}

func (s *Stop) Position() entity.Position {
	return s.pos
}

func (s *Stop) Status() entity.StopStatus {
	return s.status
}

func (s *Stop) WaitTime() int32 {
	return s.waitTime
}

func (s *Stop) LastVehicle() int32 {
	return s.lastVehicle
}

// CheckEmpty 授予通行权前必须为EMPTY的停车线
func (s *Stop) CheckEmpty() []entity.IStop {
	return s.checkEmpty
}

// CheckNotClearing 授予通行权前必须不为CLEARING的停车线
func (s *Stop) CheckNotClearing() []entity.IStop {
	return s.checkNotClearing
}

// computeStopsToCheck 计算需要关注的其他停车线（所有停车线创建后调用一次）
// 功能：确定授予通行权前需要检查的停车线
// 算法说明：
// 1. check_empty：右侧进口道(g+3)的所有停车线；左转停车线还需检查对向进口道(g+2)的所有停车线
// 2. check_not_clearing：左侧进口道(g+1)的所有停车线；直行停车线还需检查对向进口道(g+2)的左转停车线
func (s *Stop) computeStopsToCheck(m entity.IStopManager) {
	g := s.group
	s.checkEmpty = append([]entity.IStop{}, m.Group(g+3)...)
	if s.turn {
		s.checkEmpty = append(s.checkEmpty, m.Group(g+2)...)
	}
	s.checkNotClearing = append([]entity.IStop{}, m.Group(g+1)...)
	if !s.turn {
		s.checkNotClearing = append(s.checkNotClearing, m.Group(g+2)[entity.StopIndexTurn])
	}
}

// NotifyApproach 车辆到达停车线前一格时登记
// 说明：空闲时记录该车辆并进入WAITING；已在WAITING时等待计数+1；CLEARING时忽略
func (s *Stop) NotifyApproach(vehicleID int32) {
	switch s.status {
	case entity.StopEmpty:
		s.setStatus(entity.StopWaiting)
		s.lastVehicle = vehicleID
	case entity.StopWaiting:
		s.waitTime++
	}
}

// computeRightOfWay right_of_way阶段的compute：普通通行权规则
// 功能：只读取其他停车线的状态，计算本停车线的状态变化
// 算法说明：
// 1. WAITING：check_empty全部为EMPTY、check_not_clearing都不为CLEARING且出口格空闲时，授予通行权并转为CLEARING
// 2. CLEARING：记录的车辆已驶离路口时转为EMPTY
func (s *Stop) computeRightOfWay() {
	s.buffer = stopBuffer{}
	switch s.status {
	case entity.StopWaiting:
		if lo.EveryBy(s.checkEmpty, isEmpty) && lo.NoneBy(s.checkNotClearing, isClearing) && s.exitClear() {
			s.buffer = stopBuffer{valid: true, status: entity.StopClearing, grant: true}
		}
	case entity.StopClearing:
		if s.vehicle().HasCleared() {
			s.buffer = stopBuffer{valid: true, status: entity.StopEmpty}
		}
	}
}

// computeAvoidDeadlocks avoid_deadlocks阶段的compute：按进口道优先级打破死锁
// 功能：进口道编号越小优先级越高；对WAITING的停车线，
// 所有更高优先级进口道都为EMPTY、所有更低优先级进口道都没有CLEARING且出口格空闲时，授予通行权
// 说明：优先级是全序，总存在唯一的最高可行进口道，从而打破四向循环等待
func (s *Stop) computeAvoidDeadlocks() {
	s.buffer = stopBuffer{}
	if !s.avoidDeadlocks || s.status != entity.StopWaiting {
		return
	}
	m := s.ctx.StopManager()
	for g := int32(0); g < entity.NumStopGroups; g++ {
		switch {
		case g < s.group:
			if !lo.EveryBy(m.Group(g), isEmpty) {
				return
			}
		case g > s.group:
			if lo.SomeBy(m.Group(g), isClearing) {
				return
			}
		}
	}
	if !s.exitClear() {
		return
	}
	s.buffer = stopBuffer{valid: true, status: entity.StopClearing, grant: true}
}

// applyRightOfWay right_of_way阶段的apply
func (s *Stop) applyRightOfWay() {
	s.commit(entity.IVehicle.GrantPassage)
}

// applyAvoidDeadlocks avoid_deadlocks阶段的apply
func (s *Stop) applyAvoidDeadlocks() {
	s.commit(entity.IVehicle.GrantDeadlockPassage)
}

// commit 提交compute得到的状态变化，必要时授予记录车辆通行权
func (s *Stop) commit(grant func(entity.IVehicle)) {
	if !s.buffer.valid {
		return
	}
	b := s.buffer
	s.buffer = stopBuffer{}
	s.setStatus(b.status)
	if b.grant {
		grant(s.vehicle())
	}
	if s.status == entity.StopEmpty {
		s.waitTime = 0
		s.lastVehicle = entity.NoVehicle
	}
}

func (s *Stop) setStatus(status entity.StopStatus) {
	if s.status.Next() != status {
		log.Panicf("stop %d: illegal status transition %v -> %v", s.id, s.status, status)
	}
	log.Debugf("stop %d (group %d, turn=%v): %v -> %v, vehicle %d", s.id, s.group, s.turn, s.status, status, s.lastVehicle)
	s.status = status
}

func (s *Stop) vehicle() entity.IVehicle {
	if s.lastVehicle == entity.NoVehicle {
		log.Panicf("stop %d is %v without vehicle", s.id, s.status)
	}
	return s.ctx.VehicleManager().Get(s.lastVehicle)
}

// exitClear 记录车辆的穿越出口格上没有其他车辆
// 说明：出口格只能由穿越路口的车辆进入，共用出口的两条停车线互斥，
// 因此授予时空闲的出口在整个穿越过程中保持空闲
func (s *Stop) exitClear() bool {
	v := s.vehicle()
	return lo.NoneBy(s.ctx.Grid().At(v.CrossingExit()), func(a entity.IAgent) bool {
		return a.Kind() == entity.KindVehicle && a.ID() != v.ID()
	})
}

func isEmpty(s entity.IStop) bool {
	return s.Status() == entity.StopEmpty
}

func isClearing(s entity.IStop) bool {
	return s.Status() == entity.StopClearing
}
