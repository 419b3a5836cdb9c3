package clock

import (
	"fmt"
	"sync"
)

// Clock 仿真虚拟时钟
// 功能：记录分阶段调度的虚拟时间，每完成一个阶段推进 1/阶段数，每完成一轮所有阶段步数+1
// 说明：T为小数时间，Step为已完成的完整步数；读写由锁保护，以便RPC在仿真推进时读取
type Clock struct {
	mtx sync.RWMutex

	StageTime float64 // 每个阶段推进的时间 = 1/阶段数

	t    float64 // 当前虚拟时间
	step int32   // 已完成的完整步数
}

// New 根据阶段数创建新的时钟实例
// 功能：初始化时钟，阶段数必须为正
// 参数：numStages-每步包含的阶段数
// 返回：初始化完成的时钟实例
func New(numStages int) *Clock {
	if numStages <= 0 {
		log.Panicf("clock: invalid number of stages %d", numStages)
	}
	c := &Clock{
		StageTime: 1 / float64(numStages),
	}
	c.Init()
	return c
}

// Init 重置时钟状态
func (c *Clock) Init() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.t = 0
	c.step = 0
}

// AdvanceStage 完成一个阶段，时间推进 StageTime
func (c *Clock) AdvanceStage() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.t += c.StageTime
}

// Tick 完成一个完整步（所有阶段），步数+1
// 说明：浮点累加会产生误差，因此在整步边界将时间对齐为步数
func (c *Clock) Tick() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.step++
	c.t = float64(c.step)
}

// T 当前虚拟时间
func (c *Clock) T() float64 {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.t
}

// Step 已完成的完整步数
func (c *Clock) Step() int32 {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.step
}

// String 获取时钟的字符串表示
func (c *Clock) String() string {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return fmt.Sprintf("step=%d t=%.3f", c.step, c.t)
}
