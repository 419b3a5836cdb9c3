package vehicle

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/scheduler"
)

// VehicleManager Vehicle管理器
// 功能：持有车辆表（ID->车辆），负责创建车辆并将车辆的阶段钩子注册到调度器
// 说明：停车线只保存车辆ID，通过本管理器解析
type VehicleManager struct {
	ctx entity.ITaskContext

	data     map[int32]*Vehicle
	vehicles []*Vehicle

	nextID int32
}

// NewManager 创建Vehicle管理器实例
// 说明：车辆ID从停车线数量开始分配，与停车线ID不重叠
func NewManager(ctx entity.ITaskContext) *VehicleManager {
	return &VehicleManager{
		ctx:      ctx,
		data:     make(map[int32]*Vehicle),
		vehicles: make([]*Vehicle, 0),
		nextID:   entity.NumStops,
	}
}

// Add 在pos处创建一辆车并放到网格上
// 参数：pos-初始坐标，direction-初始朝向，turn-是否位于左转车道，maxVelocity-最大速度
// 返回：新创建的车辆
func (m *VehicleManager) Add(pos entity.Position, direction entity.Direction, turn bool, maxVelocity int32) *Vehicle {
	if maxVelocity <= 0 {
		log.Panicf("invalid max velocity %d", maxVelocity)
	}
	pos = m.ctx.Grid().Wrap(pos)
	v := newVehicle(m.ctx, m.nextID, pos, direction, turn, maxVelocity)
	m.nextID++
	m.ctx.Grid().Place(v, pos)
	m.data[v.id] = v
	m.vehicles = append(m.vehicles, v)
	log.Debugf("vehicle %d spawned at %v heading %v (turn=%v)", v.id, pos, direction, turn)
	return v
}

// Get 根据ID获取Vehicle实例，如果不存在则panic
func (m *VehicleManager) Get(id int32) entity.IVehicle {
	if v, ok := m.data[id]; !ok {
		log.Panicf("no id %d in vehicle data", id)
		return nil
	} else {
		return v
	}
}

// GetOrError 根据ID获取Vehicle实例，如果不存在则返回错误
func (m *VehicleManager) GetOrError(id int32) (entity.IVehicle, error) {
	if v, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in vehicle data", id)
	} else {
		return v, nil
	}
}

// Vehicles 所有车辆，按ID升序
func (m *VehicleManager) Vehicles() []entity.IVehicle {
	return lo.Map(m.vehicles, func(v *Vehicle, _ int) entity.IVehicle { return v })
}

// Register 将车辆的阶段钩子注册到调度器
// 说明：车辆在right_of_way阶段没有compute，只在apply中响应停车线已提交的通行权
func (m *VehicleManager) Register(s *scheduler.Scheduler) {
	scheduler.Register(s, entity.KindVehicle, scheduler.HookTable[*Vehicle]{
		scheduler.StageMove: {
			Compute: (*Vehicle).computeMove,
			Apply:   (*Vehicle).applyMove,
		},
		scheduler.StageRightOfWay: {
			Apply: (*Vehicle).applyCrossing,
		},
		scheduler.StageAvoidDeadlocks: {
			Apply: (*Vehicle).applyDeadlockCrossing,
		},
	}, func() []*Vehicle { return m.vehicles })
}
