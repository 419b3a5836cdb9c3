package scheduler

import (
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/clock"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity"
)

var log = logrus.WithField("module", "scheduler")

// Stage 每步内的一个命名阶段，每个阶段拆分为计算（compute）与应用（apply）两个子阶段
type Stage string

const (
	StageMove           Stage = "move"            // 车辆跟驰与移动
	StageRightOfWay     Stage = "right_of_way"    // 停车线通行权仲裁，已获准车辆穿越路口
	StageAvoidDeadlocks Stage = "avoid_deadlocks" // 按优先级打破死锁
)

// DefaultStages 四向停车路口的阶段顺序
var DefaultStages = []Stage{StageMove, StageRightOfWay, StageAvoidDeadlocks}

// Hooks 一个参与者类型在某个阶段的两个钩子，任一为nil表示空操作
type Hooks[T any] struct {
	Compute func(T) // 只读当前状态并计算结果
	Apply   func(T) // 提交compute得到的结果
}

// HookTable 参与者类型的阶段钩子表，表中缺失的阶段即为空操作
type HookTable[T any] map[Stage]Hooks[T]

type group interface {
	kind() entity.AgentKind
	compute(stage Stage)
	apply(stage Stage)
}

type kindGroup[T any] struct {
	k      entity.AgentKind
	agents func() []T
	table  HookTable[T]
}

func (g *kindGroup[T]) kind() entity.AgentKind {
	return g.k
}

func (g *kindGroup[T]) compute(stage Stage) {
	if h, ok := g.table[stage]; ok && h.Compute != nil {
		for _, a := range g.agents() {
			h.Compute(a)
		}
	}
}

func (g *kindGroup[T]) apply(stage Stage) {
	if h, ok := g.table[stage]; ok && h.Apply != nil {
		for _, a := range g.agents() {
			h.Apply(a)
		}
	}
}

// Scheduler 分阶段同时激活调度器
// 功能：每步按声明顺序执行各阶段；每个阶段先对所有参与者执行compute，再对所有参与者执行apply
// 说明：
//   - 同一阶段内所有compute看到的都是阶段开始时的状态，apply只提交已经算好的结果
//   - 同一子阶段内按参与者类型（entity.AgentKind升序）依次访问，类型内按注册顺序访问
//   - 每完成一个阶段虚拟时钟推进 1/阶段数，完成所有阶段后步数+1
type Scheduler struct {
	stages []Stage
	clock  *clock.Clock
	groups []group
}

// New 创建调度器
// 参数：stages-阶段列表（按执行顺序），不能为空且不能重复
// 返回：调度器实例，内部持有与阶段数匹配的时钟
func New(stages ...Stage) *Scheduler {
	if len(stages) == 0 {
		log.Panic("scheduler: no stage")
	}
	if len(slices.Compact(slices.Sorted(slices.Values(stages)))) != len(stages) {
		log.Panicf("scheduler: duplicated stage in %v", stages)
	}
	return &Scheduler{
		stages: slices.Clone(stages),
		clock:  clock.New(len(stages)),
		groups: make([]group, 0),
	}
}

// Register 注册一类参与者及其阶段钩子表
// 参数：s-调度器，kind-参与者类型，table-阶段钩子表，agents-返回该类型当前所有参与者的函数
// 说明：每个类型只能注册一次；agents在每个子阶段开始时调用，以便后加入的参与者参与调度
func Register[T any](s *Scheduler, kind entity.AgentKind, table HookTable[T], agents func() []T) {
	for _, g := range s.groups {
		if g.kind() == kind {
			log.Panicf("scheduler: kind %v already registered", kind)
		}
	}
	for stage := range table {
		if !slices.Contains(s.stages, stage) {
			log.Panicf("scheduler: kind %v has hooks for unknown stage %q", kind, stage)
		}
	}
	s.groups = append(s.groups, &kindGroup[T]{k: kind, agents: agents, table: table})
	slices.SortStableFunc(s.groups, func(a, b group) int {
		return int(a.kind()) - int(b.kind())
	})
}

// Step 执行一步
func (s *Scheduler) Step() {
	for _, stage := range s.stages {
		for _, g := range s.groups {
			g.compute(stage)
		}
		for _, g := range s.groups {
			g.apply(stage)
		}
		s.clock.AdvanceStage()
		log.Debugf("step %d: stage %s complete", s.clock.Step(), stage)
	}
	s.clock.Tick()
}

// Stages 阶段列表
func (s *Scheduler) Stages() []Stage {
	return s.stages
}

// Clock 调度器的虚拟时钟
func (s *Scheduler) Clock() *clock.Clock {
	return s.clock
}
