package vehicle

import (
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity"
)

// 车辆显示颜色，按车辆ID取模
var palette = []string{
	"#2f4f4f", // dark slate gray
	"#191970", // midnight blue
	"#4682b4", // steel blue
	"#98fb98", // pale green
	"#2e8b57", // sea green
	"#9acd32", // yellow green
	"#4b0082", // indigo
	"#dc143c", // crimson
	"#ff8c00", // dark orange
	"#ff69b4", // deep pink
}

// moveBuffer move阶段compute写入、apply提交的结果
type moveBuffer struct {
	velocity int32
	pos      *entity.Position // nil表示本步不移动
}

// Vehicle 车辆实体
// 功能：按跟驰规则在车道上行驶，在停车线前停车并向停车线登记，获得通行权后用固定的6步穿越路口
type Vehicle struct {
	ctx entity.ITaskContext

	// 静态属性
	id          int32
	color       string
	turn        bool  // 是否位于左转车道
	maxVelocity int32 // 最大速度（格/步）

	// 运行时数据
	pos              entity.Position
	direction        entity.Direction
	velocity         int32
	intersectionStep int32 // -1表示未在穿越路口，0~5为已穿越的步数

	buffer        moveBuffer
	deadlockGrant bool // 本步由死锁规避规则授予通行权
}

// newVehicle 创建车辆，调用方负责将其放到网格上
func newVehicle(
	ctx entity.ITaskContext,
	id int32,
	pos entity.Position,
	direction entity.Direction,
	turn bool,
	maxVelocity int32,
) *Vehicle {
	return &Vehicle{
		ctx:              ctx,
		id:               id,
		color:            palette[int(id)%len(palette)],
		turn:             turn,
		maxVelocity:      maxVelocity,
		pos:              pos,
		direction:        direction,
		intersectionStep: entity.NotCrossing,
	}
}

func (v *Vehicle) ID() int32 {
	return v.id
}

func (v *Vehicle) Kind() entity.AgentKind {
	return entity.KindVehicle
}

func (v *Vehicle) Position() entity.Position {
	return v.pos
}

func (v *Vehicle) Direction() entity.Direction {
	return v.direction
}

func (v *Vehicle) Turn() bool {
	return v.turn
}

func (v *Vehicle) Velocity() int32 {
	return v.velocity
}

func (v *Vehicle) MaxVelocity() int32 {
	return v.maxVelocity
}

func (v *Vehicle) IntersectionStep() int32 {
	return v.intersectionStep
}

func (v *Vehicle) Color() string {
	return v.color
}

// GrantPassage 停车线授予通行权，车辆从下一个apply开始穿越路口
func (v *Vehicle) GrantPassage() {
	if v.intersectionStep != entity.NotCrossing {
		log.Panicf("vehicle %d granted passage while crossing (step %d)", v.id, v.intersectionStep)
	}
	v.intersectionStep = 0
}

// GrantDeadlockPassage 由死锁规避规则授予通行权，车辆在同一阶段的apply中即迈出第一步
func (v *Vehicle) GrantDeadlockPassage() {
	v.GrantPassage()
	v.deadlockGrant = true
}

// HasCleared 是否已驶离路口
func (v *Vehicle) HasCleared() bool {
	return v.intersectionStep == entity.NotCrossing
}

// computeMove move阶段的compute：跟驰模型
// 功能：沿当前方向扫描前方至多velocity+1个格子，找到最近的占用格并据此确定速度与下一位置
// 算法说明：
// 1. 正在穿越路口的车辆不参与跟驰，由right_of_way阶段负责移动
// 2. 前方无占用：加速，速度不超过最大速度
// 3. 最近占用格距离为d：减速为d-1，恰好停在其后一格
// 4. 距离为1且占用者是停车线：向停车线登记到达，本步不移动
// 5. 否则按新速度前进，跨越边界的左转车辆需回到原车道（见ahead）
func (v *Vehicle) computeMove() {
	v.buffer = moveBuffer{velocity: v.velocity}
	if v.intersectionStep != entity.NotCrossing {
		return
	}

	velocity := v.velocity
	distance, neighbor := v.nearestAhead(v.velocity + 1)
	if neighbor == nil {
		velocity = min(velocity+1, v.maxVelocity)
	} else {
		velocity = distance - 1
		if distance == 1 && neighbor.Kind() == entity.KindStop {
			v.ctx.StopManager().Get(neighbor.ID()).NotifyApproach(v.id)
			v.buffer.velocity = velocity
			return
		}
	}
	next := v.ahead(velocity)
	v.buffer = moveBuffer{velocity: velocity, pos: &next}
}

// applyMove move阶段的apply：提交computeMove的结果
func (v *Vehicle) applyMove() {
	if v.buffer.velocity < 0 || v.buffer.velocity > v.maxVelocity {
		log.Panicf("vehicle %d velocity %d out of [0, %d]", v.id, v.buffer.velocity, v.maxVelocity)
	}
	v.velocity = v.buffer.velocity
	if v.buffer.pos != nil {
		v.moveTo(*v.buffer.pos)
	}
	v.buffer = moveBuffer{velocity: v.velocity}
}

// applyCrossing right_of_way阶段的apply：穿越路口
// 功能：获准通行的车辆每步前进一格，不受跟驰约束
// 算法说明：
// 1. 左转车辆在第3、4步各左转45°，完成左转
// 2. 沿（可能刚旋转过的）方向前进一格
// 3. 步数+1，到达6时复位为-1，表示已驶离路口
func (v *Vehicle) applyCrossing() {
	if v.intersectionStep == entity.NotCrossing {
		return
	}
	next, direction := v.crossingMove(v.pos, v.direction, v.intersectionStep)
	v.direction = direction
	v.moveTo(next)

	v.intersectionStep++
	if v.intersectionStep == entity.CrossingSteps {
		v.intersectionStep = entity.NotCrossing
		log.Debugf("vehicle %d cleared intersection at %v heading %v", v.id, v.pos, v.direction)
	}
}

// CrossingExit 从当前位置（或当前穿越进度）走完穿越路径后到达的出口格
// 说明：停车线授予通行权前据此确认出口没有被排队车辆占用
func (v *Vehicle) CrossingExit() entity.Position {
	pos, direction := v.pos, v.direction
	for step := max(v.intersectionStep, 0); step < entity.CrossingSteps; step++ {
		pos, direction = v.crossingMove(pos, direction, step)
	}
	return pos
}

// crossingMove 穿越路口的第step步：左转车辆在第3、4步各左转45°，再沿方向前进一格
func (v *Vehicle) crossingMove(pos entity.Position, direction entity.Direction, step int32) (entity.Position, entity.Direction) {
	if v.turn && (step == 3 || step == 4) {
		direction = direction.TurnLeft()
	}
	dx, dy := direction.Modifiers(1)
	next, _ := v.ctx.Grid().Translate(pos, dx, dy)
	return next, direction
}

// applyDeadlockCrossing avoid_deadlocks阶段的apply：仅对本阶段由死锁规避获准的车辆生效
func (v *Vehicle) applyDeadlockCrossing() {
	if !v.deadlockGrant {
		return
	}
	v.deadlockGrant = false
	v.applyCrossing()
}

// nearestAhead 前方第1..n格中最近的其他参与者及其距离，没有则返回(0, nil)
// 说明：格子中有停车线时总是返回停车线
func (v *Vehicle) nearestAhead(n int32) (int32, entity.IAgent) {
	grid := v.ctx.Grid()
	for k := int32(1); k <= n; k++ {
		for _, a := range grid.At(v.ahead(k)) {
			if a != entity.IAgent(v) {
				return k, a
			}
		}
	}
	return 0, nil
}

// ahead 沿当前方向前方第k格的坐标
// 说明：左转车辆转弯后位于右侧车道，跨越网格边界时需平移一条车道回到左侧车道，
// 平移方向由跨越的边界决定
func (v *Vehicle) ahead(k int32) entity.Position {
	grid := v.ctx.Grid()
	dx, dy := v.direction.Modifiers(k)
	pos, crossed := grid.Translate(v.pos, dx, dy)
	if crossed && v.turn {
		pos = grid.Wrap(correctLane(v.pos.Add(dx, dy), pos))
	}
	return pos
}

func (v *Vehicle) moveTo(pos entity.Position) {
	v.ctx.Grid().Move(v, pos)
	v.pos = pos
}

// correctLane 根据跨越的边界，将归一化后的坐标横向平移一条车道
func correctLane(raw, wrapped entity.Position) entity.Position {
	switch {
	case raw.X > wrapped.X: // 向东越过右边界
		wrapped.Y--
	case raw.X < wrapped.X: // 向西越过左边界
		wrapped.Y++
	case raw.Y > wrapped.Y: // 向南越过下边界
		wrapped.X++
	default: // 向北越过上边界
		wrapped.X--
	}
	return wrapped
}
