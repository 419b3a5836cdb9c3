package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/scheduler"
)

// cell在compute中读取左邻居的值，在apply中提交
type cell struct {
	value, next int
	left        *cell
}

func ring(values ...int) []*cell {
	cells := make([]*cell, len(values))
	for i, v := range values {
		cells[i] = &cell{value: v}
	}
	for i := range cells {
		cells[i].left = cells[(i+len(cells)-1)%len(cells)]
	}
	return cells
}

func values(cells []*cell) []int {
	res := make([]int, len(cells))
	for i, c := range cells {
		res[i] = c.value
	}
	return res
}

func TestSimultaneousActivation(t *testing.T) {
	cells := ring(1, 2, 3, 4)
	s := scheduler.New(scheduler.StageMove)
	scheduler.Register(s, entity.KindVehicle, scheduler.HookTable[*cell]{
		scheduler.StageMove: {
			Compute: func(c *cell) { c.next = c.left.value },
			Apply:   func(c *cell) { c.value = c.next },
		},
	}, func() []*cell { return cells })

	// every cell sees its neighbor's value from the start of the stage
	s.Step()
	assert.Equal(t, []int{4, 1, 2, 3}, values(cells))
	s.Step()
	assert.Equal(t, []int{3, 4, 1, 2}, values(cells))
	assert.Equal(t, int32(2), s.Clock().Step())
}

func TestStageOrderAndKinds(t *testing.T) {
	var trace []string
	record := func(s string) func(int) {
		return func(int) { trace = append(trace, s) }
	}
	s := scheduler.New(scheduler.DefaultStages...)
	// vehicles registered first, stops still visited first
	scheduler.Register(s, entity.KindVehicle, scheduler.HookTable[int]{
		scheduler.StageMove:       {Compute: record("v.move.c"), Apply: record("v.move.a")},
		scheduler.StageRightOfWay: {Apply: record("v.row.a")},
	}, func() []int { return []int{8} })
	scheduler.Register(s, entity.KindStop, scheduler.HookTable[int]{
		scheduler.StageRightOfWay:     {Compute: record("s.row.c"), Apply: record("s.row.a")},
		scheduler.StageAvoidDeadlocks: {Compute: record("s.ad.c"), Apply: record("s.ad.a")},
	}, func() []int { return []int{0} })

	s.Step()
	assert.Equal(t, []string{
		"v.move.c", "v.move.a",
		"s.row.c", "s.row.a", "v.row.a",
		"s.ad.c", "s.ad.a",
	}, trace)
}

func TestClockAdvance(t *testing.T) {
	s := scheduler.New(scheduler.DefaultStages...)
	var times []float64
	scheduler.Register(s, entity.KindStop, scheduler.HookTable[int]{
		scheduler.StageMove:           {Compute: func(int) { times = append(times, s.Clock().T()) }},
		scheduler.StageRightOfWay:     {Compute: func(int) { times = append(times, s.Clock().T()) }},
		scheduler.StageAvoidDeadlocks: {Compute: func(int) { times = append(times, s.Clock().T()) }},
	}, func() []int { return []int{0} })

	s.Step()
	assert.InDeltaSlice(t, []float64{0, 1.0 / 3, 2.0 / 3}, times, 1e-9)
	assert.Equal(t, 1.0, s.Clock().T())
	assert.Equal(t, int32(1), s.Clock().Step())
}

func TestRegisterLate(t *testing.T) {
	agents := []int{}
	count := 0
	s := scheduler.New(scheduler.StageMove)
	scheduler.Register(s, entity.KindVehicle, scheduler.HookTable[int]{
		scheduler.StageMove: {Apply: func(int) { count++ }},
	}, func() []int { return agents })
	s.Step()
	assert.Equal(t, 0, count)
	agents = append(agents, 1, 2)
	s.Step()
	assert.Equal(t, 2, count)
}

func TestSchedulerPanics(t *testing.T) {
	assert.Panics(t, func() { scheduler.New() })
	assert.Panics(t, func() { scheduler.New(scheduler.StageMove, scheduler.StageMove) })

	s := scheduler.New(scheduler.StageMove)
	table := scheduler.HookTable[int]{}
	scheduler.Register(s, entity.KindStop, table, func() []int { return nil })
	assert.Panics(t, func() {
		scheduler.Register(s, entity.KindStop, table, func() []int { return nil })
	})
	assert.Panics(t, func() {
		scheduler.Register(s, entity.KindVehicle, scheduler.HookTable[int]{
			scheduler.StageRightOfWay: {},
		}, func() []int { return nil })
	})
}
