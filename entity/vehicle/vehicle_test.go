package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/clock"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity/grid"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity/stop"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/scheduler"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/utils/config"
)

type testContext struct {
	grid      *grid.Grid
	vehicles  *VehicleManager
	stops     *stop.StopManager
	scheduler *scheduler.Scheduler
}

func (c *testContext) Clock() *clock.Clock                    { return c.scheduler.Clock() }
func (c *testContext) Grid() entity.IGrid                     { return c.grid }
func (c *testContext) VehicleManager() entity.IVehicleManager { return c.vehicles }
func (c *testContext) StopManager() entity.IStopManager       { return c.stops }
func (c *testContext) RuntimeConfig() *config.RuntimeConfig   { return nil }

// 20x20网格，中心(10,10)
var stopPositions = [entity.NumStops]entity.Position{
	{X: 9, Y: 8}, {X: 10, Y: 8},
	{X: 12, Y: 9}, {X: 12, Y: 10},
	{X: 11, Y: 12}, {X: 10, Y: 12},
	{X: 8, Y: 11}, {X: 8, Y: 10},
}

// newTestContext 创建20x20的测试环境，withStops为true时放置停车线并参与调度
func newTestContext(withStops bool) *testContext {
	ctx := &testContext{
		grid:      grid.New(20, 20),
		scheduler: scheduler.New(scheduler.DefaultStages...),
	}
	ctx.vehicles = NewManager(ctx)
	ctx.stops = stop.NewManager(ctx)
	if withStops {
		ctx.stops.Init(stopPositions, false)
		ctx.stops.Register(ctx.scheduler)
	}
	ctx.vehicles.Register(ctx.scheduler)
	return ctx
}

func (c *testContext) step(n int) {
	for range n {
		c.scheduler.Step()
	}
}

// obstacle 不移动的占位参与者
type obstacle struct{}

func (obstacle) ID() int32              { return 100 }
func (obstacle) Kind() entity.AgentKind { return entity.KindVehicle }

func TestAdd(t *testing.T) {
	ctx := newTestContext(false)
	v := ctx.vehicles.Add(entity.Position{X: -1, Y: 21}, entity.East, true, 3)
	assert.Equal(t, int32(entity.NumStops), v.ID())
	assert.Equal(t, entity.Position{X: 19, Y: 1}, v.Position())
	assert.Equal(t, int32(entity.NotCrossing), v.IntersectionStep())
	assert.Equal(t, int32(0), v.Velocity())
	assert.Equal(t, int32(3), v.MaxVelocity())
	assert.Equal(t, palette[8], v.Color())
	assert.True(t, v.HasCleared())

	w := ctx.vehicles.Add(entity.Position{X: 5, Y: 5}, entity.North, false, 3)
	assert.Equal(t, int32(entity.NumStops+1), w.ID())
	assert.Equal(t, palette[9], w.Color())
	assert.Equal(t, []entity.IVehicle{v, w}, ctx.vehicles.Vehicles())

	_, err := ctx.vehicles.GetOrError(3)
	assert.Error(t, err)
	assert.Panics(t, func() { ctx.vehicles.Get(3) })
	assert.Panics(t, func() { ctx.vehicles.Add(entity.Position{}, entity.North, false, 0) })
}

func TestAccelerate(t *testing.T) {
	ctx := newTestContext(false)
	v := ctx.vehicles.Add(entity.Position{X: 0, Y: 3}, entity.East, false, 3)

	want := []struct {
		velocity int32
		x        int32
	}{{1, 1}, {2, 3}, {3, 6}, {3, 9}}
	for _, w := range want {
		ctx.step(1)
		assert.Equal(t, w.velocity, v.Velocity())
		assert.Equal(t, entity.Position{X: w.x, Y: 3}, v.Position())
	}
}

func TestFollow(t *testing.T) {
	ctx := newTestContext(false)
	ctx.grid.Place(obstacle{}, entity.Position{X: 4, Y: 3})
	v := ctx.vehicles.Add(entity.Position{X: 0, Y: 3}, entity.East, false, 5)

	ctx.step(2)
	assert.Equal(t, int32(2), v.Velocity())
	assert.Equal(t, entity.Position{X: 3, Y: 3}, v.Position())

	// 前车紧邻，速度降为0
	ctx.step(3)
	assert.Equal(t, int32(0), v.Velocity())
	assert.Equal(t, entity.Position{X: 3, Y: 3}, v.Position())
}

func TestDecelerateToGap(t *testing.T) {
	ctx := newTestContext(false)
	ctx.grid.Place(obstacle{}, entity.Position{X: 9, Y: 3})
	v := ctx.vehicles.Add(entity.Position{X: 0, Y: 3}, entity.East, false, 3)

	ctx.step(3) // v=3, x=6
	require.Equal(t, entity.Position{X: 6, Y: 3}, v.Position())
	// 前方第3格被占用，d=3，速度2
	ctx.step(1)
	assert.Equal(t, int32(2), v.Velocity())
	assert.Equal(t, entity.Position{X: 8, Y: 3}, v.Position())
}

func TestFollowSimultaneous(t *testing.T) {
	ctx := newTestContext(false)
	back := ctx.vehicles.Add(entity.Position{X: 0, Y: 3}, entity.East, false, 1)
	front := ctx.vehicles.Add(entity.Position{X: 1, Y: 3}, entity.East, false, 1)

	// 后车在compute时看到前车仍在(1,3)
	ctx.step(1)
	assert.Equal(t, entity.Position{X: 0, Y: 3}, back.Position())
	assert.Equal(t, entity.Position{X: 2, Y: 3}, front.Position())

	ctx.step(1)
	assert.Equal(t, entity.Position{X: 1, Y: 3}, back.Position())
	assert.Equal(t, entity.Position{X: 3, Y: 3}, front.Position())
}

func TestWrap(t *testing.T) {
	ctx := newTestContext(false)
	v := ctx.vehicles.Add(entity.Position{X: 19, Y: 3}, entity.East, false, 1)
	ctx.step(1)
	assert.Equal(t, entity.Position{X: 0, Y: 3}, v.Position())

	w := ctx.vehicles.Add(entity.Position{X: 5, Y: 0}, entity.North, false, 1)
	ctx.step(1)
	assert.Equal(t, entity.Position{X: 5, Y: 19}, w.Position())
}

func TestLaneCorrection(t *testing.T) {
	cases := []struct {
		name      string
		pos       entity.Position
		direction entity.Direction
		want      entity.Position
	}{
		{"east", entity.Position{X: 19, Y: 11}, entity.East, entity.Position{X: 0, Y: 10}},
		{"west", entity.Position{X: 0, Y: 9}, entity.West, entity.Position{X: 19, Y: 10}},
		{"south", entity.Position{X: 9, Y: 19}, entity.South, entity.Position{X: 10, Y: 0}},
		{"north", entity.Position{X: 11, Y: 0}, entity.North, entity.Position{X: 10, Y: 19}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := newTestContext(false)
			v := ctx.vehicles.Add(c.pos, c.direction, true, 1)
			ctx.step(1)
			assert.Equal(t, c.want, v.Position())
		})
	}

	// 直行车辆不平移
	ctx := newTestContext(false)
	v := ctx.vehicles.Add(entity.Position{X: 19, Y: 11}, entity.East, false, 1)
	ctx.step(1)
	assert.Equal(t, entity.Position{X: 0, Y: 11}, v.Position())
}

func TestNotifyStop(t *testing.T) {
	ctx := newTestContext(false)
	ctx.stops.Init(stopPositions, false) // 停车线不参与调度，不会授予通行权
	v := ctx.vehicles.Add(entity.Position{X: 9, Y: 6}, entity.South, false, 3)
	s := ctx.stops.Get(0)

	ctx.step(1)
	assert.Equal(t, entity.Position{X: 9, Y: 7}, v.Position())
	assert.Equal(t, entity.StopEmpty, s.Status())

	ctx.step(1)
	assert.Equal(t, entity.Position{X: 9, Y: 7}, v.Position())
	assert.Equal(t, int32(0), v.Velocity())
	assert.Equal(t, entity.StopWaiting, s.Status())
	assert.Equal(t, v.ID(), s.LastVehicle())
	assert.Equal(t, int32(0), s.WaitTime())

	ctx.step(2)
	assert.Equal(t, entity.Position{X: 9, Y: 7}, v.Position())
	assert.Equal(t, int32(2), s.WaitTime())
}

func TestStopAheadSlowsDown(t *testing.T) {
	ctx := newTestContext(false)
	ctx.stops.Init(stopPositions, false)
	v := ctx.vehicles.Add(entity.Position{X: 9, Y: 2}, entity.South, false, 3)
	// (9,3) v=1，(9,5) v=2，随后(9,8)的停车线d=3，速度2
	ctx.step(3)
	assert.Equal(t, entity.Position{X: 9, Y: 7}, v.Position())
	assert.Equal(t, int32(2), v.Velocity())
	assert.Equal(t, entity.StopEmpty, ctx.stops.Get(0).Status())
}

func TestCrossThrough(t *testing.T) {
	ctx := newTestContext(true)
	v := ctx.vehicles.Add(entity.Position{X: 9, Y: 7}, entity.South, false, 3)
	s := ctx.stops.Get(0)

	// 第1步登记并获准，同一步的right_of_way即迈出第一步
	ctx.step(1)
	assert.Equal(t, entity.StopClearing, s.Status())
	assert.Equal(t, int32(1), v.IntersectionStep())
	assert.Equal(t, entity.Position{X: 9, Y: 8}, v.Position())

	ctx.step(4)
	assert.Equal(t, int32(5), v.IntersectionStep())
	assert.Equal(t, entity.Position{X: 9, Y: 12}, v.Position())
	assert.Equal(t, entity.StopClearing, s.Status())

	ctx.step(1)
	assert.True(t, v.HasCleared())
	assert.Equal(t, entity.Position{X: 9, Y: 13}, v.Position())
	assert.Equal(t, entity.South, v.Direction())

	ctx.step(1)
	assert.Equal(t, entity.StopEmpty, s.Status())
	assert.Equal(t, int32(entity.NoVehicle), s.LastVehicle())
}

func TestCrossTurn(t *testing.T) {
	ctx := newTestContext(true)
	v := ctx.vehicles.Add(entity.Position{X: 10, Y: 7}, entity.South, true, 3)

	want := []struct {
		pos       entity.Position
		direction entity.Direction
	}{
		{entity.Position{X: 10, Y: 8}, entity.South},
		{entity.Position{X: 10, Y: 9}, entity.South},
		{entity.Position{X: 10, Y: 10}, entity.South},
		{entity.Position{X: 11, Y: 11}, entity.SouthEast},
		{entity.Position{X: 12, Y: 11}, entity.East},
		{entity.Position{X: 13, Y: 11}, entity.East},
	}
	for i, w := range want {
		ctx.step(1)
		assert.Equal(t, w.pos, v.Position(), "tick %d", i+1)
		assert.Equal(t, w.direction, v.Direction(), "tick %d", i+1)
	}
	assert.True(t, v.HasCleared())
}

func TestCrossingExit(t *testing.T) {
	ctx := newTestContext(true)
	through := ctx.vehicles.Add(entity.Position{X: 9, Y: 7}, entity.South, false, 3)
	turn := ctx.vehicles.Add(entity.Position{X: 10, Y: 7}, entity.South, true, 3)
	assert.Equal(t, entity.Position{X: 9, Y: 13}, through.CrossingExit())
	assert.Equal(t, entity.Position{X: 13, Y: 11}, turn.CrossingExit())

	// 穿越过程中出口不变
	ctx.step(4)
	require.Equal(t, int32(4), turn.IntersectionStep())
	assert.Equal(t, entity.SouthEast, turn.Direction())
	assert.Equal(t, entity.Position{X: 9, Y: 13}, through.CrossingExit())
	assert.Equal(t, entity.Position{X: 13, Y: 11}, turn.CrossingExit())

	ctx.step(2)
	assert.True(t, through.HasCleared())
	assert.True(t, turn.HasCleared())
	assert.Equal(t, entity.Position{X: 9, Y: 13}, through.Position())
	assert.Equal(t, entity.Position{X: 13, Y: 11}, turn.Position())
}

func TestGrantWhileCrossing(t *testing.T) {
	ctx := newTestContext(false)
	v := ctx.vehicles.Add(entity.Position{X: 1, Y: 1}, entity.South, false, 1)
	v.GrantPassage()
	assert.Equal(t, int32(0), v.IntersectionStep())
	assert.Panics(t, func() { v.GrantPassage() })
}

func TestDeadlockGrantMovesOnce(t *testing.T) {
	ctx := newTestContext(false)
	v := ctx.vehicles.Add(entity.Position{X: 1, Y: 1}, entity.South, false, 1)
	v.GrantDeadlockPassage()
	v.applyDeadlockCrossing()
	assert.Equal(t, int32(1), v.IntersectionStep())
	assert.Equal(t, entity.Position{X: 1, Y: 2}, v.Position())
	// 之后的avoid_deadlocks阶段不再推进
	v.applyDeadlockCrossing()
	assert.Equal(t, int32(1), v.IntersectionStep())
}
