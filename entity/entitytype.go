package entity

import "fmt"

// 路口常量
const (
	NumStopGroups    = 4 // 进口道（停车组）数量，按北、东、南、西编号0~3
	StopsPerGroup    = 2 // 每个进口道的停车线数量（直行+左转）
	NumStops         = NumStopGroups * StopsPerGroup
	NumLanes         = NumStops // 进入车道数量，与停车线一一对应
	CrossingSteps    = 6        // 穿越路口所需步数
	NotCrossing      = -1       // 未在穿越路口
	NoVehicle        = -1       // 停车线未记录车辆
	StopIndexThrough = 0        // 组内直行停车线的下标
	StopIndexTurn    = 1        // 组内左转停车线的下标
)

// Position 网格坐标，所有运算结果都需经过网格的环面归一化
type Position struct {
	X, Y int32
}

// Add 坐标平移（不做环面归一化）
func (p Position) Add(dx, dy int32) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// AgentKind 参与者类型标签，调度器按该标签查找阶段钩子表
type AgentKind int32

const (
	KindStop AgentKind = iota
	KindVehicle
)

func (k AgentKind) String() string {
	switch k {
	case KindStop:
		return "stop"
	case KindVehicle:
		return "vehicle"
	default:
		return fmt.Sprintf("AgentKind(%d)", int32(k))
	}
}

// StopStatus 停车线状态，只允许 EMPTY -> WAITING -> CLEARING -> EMPTY
type StopStatus int32

const (
	StopEmpty StopStatus = iota + 1
	StopWaiting
	StopClearing
)

func (s StopStatus) String() string {
	switch s {
	case StopEmpty:
		return "EMPTY"
	case StopWaiting:
		return "WAITING"
	case StopClearing:
		return "CLEARING"
	default:
		return fmt.Sprintf("StopStatus(%d)", int32(s))
	}
}

// Next 状态机中唯一合法的后继状态
func (s StopStatus) Next() StopStatus {
	switch s {
	case StopEmpty:
		return StopWaiting
	case StopWaiting:
		return StopClearing
	default:
		return StopEmpty
	}
}

// 网格上的参与者
type IAgent interface {
	ID() int32
	Kind() AgentKind
}

// entity/vehicle/vehicle.go的依赖倒置
type IVehicle interface {
	IAgent

	Position() Position      // 当前坐标
	Direction() Direction    // 当前朝向
	Turn() bool              // 是否位于左转车道
	Velocity() int32         // 当前速度
	MaxVelocity() int32      // 最大速度
	IntersectionStep() int32 // 穿越路口已用步数，-1表示未在穿越
	Color() string           // 显示颜色
	CrossingExit() Position  // 从当前位置穿越路口后到达的出口格

	GrantPassage()         // 停车线授予通行权（普通规则）
	GrantDeadlockPassage() // 停车线授予通行权（死锁规避规则）
	HasCleared() bool      // 是否已驶离路口
}

// entity/stop/stop.go的依赖倒置
type IStop interface {
	IAgent

	Group() int32       // 所属进口道
	Turn() bool         // 是否为左转停车线
	Position() Position // 停车线坐标
	Status() StopStatus // 当前状态
	WaitTime() int32    // 排队等待计数
	LastVehicle() int32 // 记录的车辆ID，NoVehicle表示无

	NotifyApproach(vehicleID int32) // 车辆到达停车线
}

// entity/grid/grid.go的依赖倒置
type IGrid interface {
	Width() int32
	Height() int32
	Wrap(pos Position) Position       // 环面归一化
	// 沿(dx, dy)平移并归一化，同时返回是否跨越了边界
	Translate(pos Position, dx, dy int32) (Position, bool)
	Place(agent IAgent, pos Position) // 放置参与者
	Move(agent IAgent, pos Position)  // 移动参与者
	IsEmpty(pos Position) bool        // 格子是否为空
	At(pos Position) []IAgent         // 格子上的所有参与者（按放入顺序）
}
