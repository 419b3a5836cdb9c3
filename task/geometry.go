package task

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/utils/config"
)

var (
	ErrLaneFull = errors.New("spawn lane is full")
	errNoMetric = errors.New("no metric recorded yet")
)

// 停车线相对网格中心的偏移，下标即停车线ID
// 说明：每两条为一个进口道（上、右、下、左），偶数为右侧直行车道，奇数为左侧左转车道
//
//	 ┃0 1  ┃
//	━┛     ┗━
//	         2
//	7   •    3
//	6
//	━┓     ┏━
//	 ┃  5 4┃
var stopOffsets = [entity.NumStops][2]int32{
	{-1, -2}, {0, -2}, // 上
	{2, -1}, {2, 0},   // 右
	{1, 2}, {0, 2},    // 下
	{-2, 1}, {-2, 0},  // 左
}

// 每个进口道车辆的行驶方向
var laneDirections = [entity.NumStopGroups]string{"S", "W", "N", "E"}

// stopPositions 8条停车线的坐标
func stopPositions(rc *config.RuntimeConfig) [entity.NumStops]entity.Position {
	var res [entity.NumStops]entity.Position
	for i, o := range stopOffsets {
		res[i] = entity.Position{X: rc.CenterX + o[0], Y: rc.CenterY + o[1]}
	}
	return res
}

// laneStart 进入车道的起点与行驶方向
// 参数：lane-车道编号0~7，车道i与停车线i对齐，奇数车道为左转车道
// 返回：起点坐标（位于网格边缘）、行驶方向
func laneStart(rc *config.RuntimeConfig, lane int32) (entity.Position, entity.Direction, error) {
	if lane < 0 || lane >= entity.NumLanes {
		return entity.Position{}, 0, fmt.Errorf("invalid lane %d", lane)
	}
	direction, err := entity.ParseDirection(laneDirections[lane/2])
	if err != nil {
		return entity.Position{}, 0, err
	}
	cx, cy, w, h := rc.CenterX, rc.CenterY, rc.M.Width, rc.M.Height
	var pos entity.Position
	switch lane {
	case 0:
		pos = entity.Position{X: cx - 1, Y: 0}
	case 1:
		pos = entity.Position{X: cx, Y: 0}
	case 2:
		pos = entity.Position{X: w - 1, Y: cy - 1}
	case 3:
		pos = entity.Position{X: w - 1, Y: cy}
	case 4:
		pos = entity.Position{X: cx + 1, Y: h - 1}
	case 5:
		pos = entity.Position{X: cx, Y: h - 1}
	case 6:
		pos = entity.Position{X: 0, Y: cy + 1}
	case 7:
		pos = entity.Position{X: 0, Y: cy}
	}
	return pos, direction, nil
}

// isTurnLane 奇数车道为左转车道
func isTurnLane(lane int32) bool {
	return lane%entity.StopsPerGroup == entity.StopIndexTurn
}

// chooseLane 随机选择进入车道，配置了车道权重时按权重抽样
func (ctx *Context) chooseLane() int32 {
	if w := ctx.runtimeConfig.M.LaneWeights; len(w) > 0 {
		return ctx.rand.DiscreteDistribution(w)
	}
	return ctx.rand.Choice(entity.NumLanes)
}

// spawn 在车道lane上生成一辆车
// 算法说明：
// 1. 从车道起点出发，若格子被占用则沿行驶方向前进一格，直到找到空格
// 2. 车辆只能停在停车线之前，走到停车线仍无空格时返回ErrLaneFull
func (ctx *Context) spawn(lane int32) error {
	pos, direction, err := laneStart(ctx.runtimeConfig, lane)
	if err != nil {
		return err
	}
	dx, dy := direction.Modifiers(1)
	for !ctx.grid.IsEmpty(pos) {
		if lo.SomeBy(ctx.grid.At(pos), isStop) {
			return fmt.Errorf("%w: lane %d", ErrLaneFull, lane)
		}
		pos, _ = ctx.grid.Translate(pos, dx, dy)
	}
	ctx.vehicleManager.Add(pos, direction, isTurnLane(lane), ctx.runtimeConfig.M.MaxVelocity)
	return nil
}

func isStop(a entity.IAgent) bool {
	return a.Kind() == entity.KindStop
}
