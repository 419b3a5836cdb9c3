package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/tsinghua-fib-lab/fourway-stop-sim/clock"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity/grid"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity/stop"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/scheduler"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/utils/config"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/utils/output"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/utils/randengine"
)

// Context 四向停车路口模型
// 功能：包含一次仿真的所有组件和状态，负责构建网格、停车线与车辆，持有调度器并记录每步指标
// 说明：仿真推进与RPC读取可能并发，由读写锁保护
type Context struct {
	mtx sync.RWMutex

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig
	// 车道抽样的随机数引擎
	rand *randengine.Engine

	// 分阶段调度器，持有时钟
	scheduler *scheduler.Scheduler
	// 环面网格
	grid *grid.Grid

	// Vehicle管理器
	vehicleManager *vehicle.VehicleManager
	// Stop管理器
	stopManager *stop.StopManager

	// 每步记录的平均等待时间序列
	series *output.Series
	// 额外的输出目标
	writers []output.Writer
}

// NewContext 创建新的路口模型
// 功能：校验配置并初始化模型的所有组件
// 参数：c-配置对象
// 返回：初始化完成的Context实例，配置非法或车辆无法放置时返回错误
// 算法说明：
// 1. 校验配置并生成运行时配置
// 2. 创建网格、调度器与管理器，按中心偏移表放置8条停车线并预计算关联停车线
// 3. 按随机选择的车道生成车辆
func NewContext(c config.Config) (*Context, error) {
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		return nil, err
	}
	ctx := newContext(rc)
	for range rc.M.Vehicles {
		if err := ctx.spawn(ctx.chooseLane()); err != nil {
			return nil, err
		}
	}
	log.Infof("Grid: %dx%d", rc.M.Width, rc.M.Height)
	log.Infof("Stop: %v", len(ctx.stopManager.Stops()))
	log.Infof("Vehicle: %v", len(ctx.vehicleManager.Vehicles()))
	return ctx, nil
}

// newContext 创建不含车辆的模型
func newContext(rc *config.RuntimeConfig) *Context {
	ctx := &Context{
		runtimeConfig: rc,
		rand:          randengine.New(rc.M.Seed),
		scheduler:     scheduler.New(scheduler.DefaultStages...),
		grid:          grid.New(rc.M.Width, rc.M.Height),
		series:        output.NewSeries(),
	}
	ctx.stopManager = stop.NewManager(ctx)
	ctx.vehicleManager = vehicle.NewManager(ctx)

	// 停车线先于车辆放置，总是其格子中的第一个参与者
	ctx.stopManager.Init(stopPositions(rc), rc.M.AvoidDeadlocks)

	ctx.stopManager.Register(ctx.scheduler)
	ctx.vehicleManager.Register(ctx.scheduler)
	return ctx
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.scheduler.Clock()
}

func (ctx *Context) Grid() entity.IGrid {
	return ctx.grid
}

func (ctx *Context) VehicleManager() entity.IVehicleManager {
	return ctx.vehicleManager
}

func (ctx *Context) StopManager() entity.IStopManager {
	return ctx.stopManager
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// AddWriter 添加指标输出目标，Close时一并关闭
func (ctx *Context) AddWriter(w output.Writer) {
	ctx.mtx.Lock()
	defer ctx.mtx.Unlock()
	ctx.writers = append(ctx.writers, w)
}

// Step 推进一步
// 功能：先记录当前的平均等待时间，再由调度器依次执行move、right_of_way、avoid_deadlocks三个阶段
func (ctx *Context) Step() {
	ctx.mtx.Lock()
	defer ctx.mtx.Unlock()

	clk := ctx.Clock()
	r := output.Record{
		Step:        clk.Step(),
		T:           clk.T(),
		AvgWaitTime: ctx.stopManager.AvgWaitTime(),
	}
	if err := ctx.series.Write(context.Background(), r); err != nil {
		log.Errorf("record metric at step %d: %v", r.Step, err)
	}
	for _, w := range ctx.writers {
		if err := w.Write(context.Background(), r); err != nil {
			log.Errorf("write metric at step %d: %v", r.Step, err)
		}
	}
	ctx.scheduler.Step()
}

// AvgWaitTime 当前的平均等待时间：所有等待计数大于0的停车线的平均值，没有则为0
func (ctx *Context) AvgWaitTime() float64 {
	ctx.mtx.RLock()
	defer ctx.mtx.RUnlock()
	return ctx.stopManager.AvgWaitTime()
}

// Metrics 已记录的指标序列
func (ctx *Context) Metrics() []output.Record {
	return ctx.series.Records()
}

// LatestMetric 最近一次记录的平均等待时间，尚未记录时为0
func (ctx *Context) LatestMetric() float64 {
	r, _ := ctx.series.Latest()
	return r.AvgWaitTime
}

// Close 写出并关闭所有输出目标
func (ctx *Context) Close(c context.Context) error {
	ctx.mtx.Lock()
	defer ctx.mtx.Unlock()
	var firstErr error
	for _, w := range ctx.writers {
		if err := w.Close(c); err != nil {
			log.Errorf("close writer: %v", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("close writer: %w", err)
			}
		}
	}
	ctx.writers = nil
	return firstErr
}
