package stop

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/scheduler"
)

// StopManager Stop管理器
// 功能：创建路口的8条停车线并按进口道分组，预计算每条停车线的关联停车线，将阶段钩子注册到调度器
type StopManager struct {
	ctx entity.ITaskContext

	data   map[int32]*Stop
	stops  []*Stop
	groups [entity.NumStopGroups][]entity.IStop
}

// NewManager 创建Stop管理器实例
func NewManager(ctx entity.ITaskContext) *StopManager {
	return &StopManager{
		ctx:   ctx,
		data:  make(map[int32]*Stop),
		stops: make([]*Stop, 0, entity.NumStops),
	}
}

// Init 初始化停车线
// 参数：positions-8条停车线的坐标，第i条属于进口道i/2，i为奇数时是左转停车线；avoidDeadlocks-是否启用死锁规避
// 算法说明：
// 1. 按顺序创建停车线（ID即下标）并放到网格上，停车线总是其格子中的第一个参与者
// 2. 所有停车线创建完成后，计算各自需要检查的停车线
func (m *StopManager) Init(positions [entity.NumStops]entity.Position, avoidDeadlocks bool) {
	if len(m.stops) > 0 {
		log.Panic("stops already initialized")
	}
	for i, pos := range positions {
		id := int32(i)
		group := id / entity.StopsPerGroup
		turn := id%entity.StopsPerGroup == entity.StopIndexTurn
		pos = m.ctx.Grid().Wrap(pos)
		s := newStop(m.ctx, id, group, turn, pos, avoidDeadlocks)
		m.ctx.Grid().Place(s, pos)
		m.data[id] = s
		m.stops = append(m.stops, s)
		m.groups[group] = append(m.groups[group], s)
	}
	for _, s := range m.stops {
		s.computeStopsToCheck(m)
	}
	log.Infof("%d stops initialized, avoid_deadlocks=%v", len(m.stops), avoidDeadlocks)
}

// Get 根据ID获取Stop实例，如果不存在则panic
func (m *StopManager) Get(id int32) entity.IStop {
	if s, ok := m.data[id]; !ok {
		log.Panicf("no id %d in stop data", id)
		return nil
	} else {
		return s
	}
}

// GetOrError 根据ID获取Stop实例，如果不存在则返回错误
func (m *StopManager) GetOrError(id int32) (entity.IStop, error) {
	if s, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in stop data", id)
	} else {
		return s, nil
	}
}

func (m *StopManager) Group(g int32) []entity.IStop {
	g %= entity.NumStopGroups
	if g < 0 {
		g += entity.NumStopGroups
	}
	return m.groups[g]
}

func (m *StopManager) Stops() []entity.IStop {
	return lo.Map(m.stops, func(s *Stop, _ int) entity.IStop { return s })
}

// AvgWaitTime 所有等待计数大于0的停车线的平均等待计数，没有则为0
func (m *StopManager) AvgWaitTime() float64 {
	waiting := lo.FilterMap(m.stops, func(s *Stop, _ int) (float64, bool) {
		return float64(s.waitTime), s.waitTime > 0
	})
	if len(waiting) == 0 {
		return 0
	}
	return lo.Sum(waiting) / float64(len(waiting))
}

// Register 将停车线的阶段钩子注册到调度器
// 说明：停车线不参与move阶段
func (m *StopManager) Register(s *scheduler.Scheduler) {
	scheduler.Register(s, entity.KindStop, scheduler.HookTable[*Stop]{
		scheduler.StageRightOfWay: {
			Compute: (*Stop).computeRightOfWay,
			Apply:   (*Stop).applyRightOfWay,
		},
		scheduler.StageAvoidDeadlocks: {
			Compute: (*Stop).computeAvoidDeadlocks,
			Apply:   (*Stop).applyAvoidDeadlocks,
		},
	}, func() []*Stop { return m.stops })
}
