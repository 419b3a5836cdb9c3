package task

import (
	"context"
	"flag"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// heartbeat 每隔log.heartbeat_interval步输出一次状态
func (ctx *Context) heartbeat() {
	interval := int32(*heartBeatInterval)
	if interval <= 0 {
		return
	}
	clk := ctx.Clock()
	if step := clk.Step(); step%interval == 0 {
		log.Infof("STEP: %d (t=%.2f, avg_wait_time=%.3f)", step, clk.T(), ctx.AvgWaitTime())
	}
}

// Run 运行
// 功能：循环推进仿真，直到完成control.step.total步（为0时不限步数）或c被取消
// 返回：关闭输出目标时的错误
// 说明：c取消时当前步会先完成；输出目标用不受取消影响的上下文关闭，保证缓存的记录写出
func (ctx *Context) Run(c context.Context) error {
	total := ctx.runtimeConfig.C.Step.Total
	log.Infof("engine start: total=%d avoid_deadlocks=%v", total, ctx.runtimeConfig.M.AvoidDeadlocks)
LOOP:
	for total == 0 || ctx.Clock().Step() < total {
		select {
		case <-c.Done():
			log.Infof("engine interrupted at step %d: %v", ctx.Clock().Step(), c.Err())
			break LOOP
		default:
		}
		ctx.Step()
		log.Debugf("step %d complete", ctx.Clock().Step())
		ctx.heartbeat()
	}
	log.Infof("engine complete")
	return ctx.Close(context.WithoutCancel(c))
}
