package config

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

const (
	MinVehicles    = 1
	MaxVehicles    = 20
	MinMaxVelocity = 1
	MaxMaxVelocity = 10
	// 路口占据中心±2的方框，再加上两侧的进入车道
	MinGridSize = 8
	NumLanes    = 8

	defaultOutputBatch = 100
)

var (
	ErrVehicles    = errors.New("vehicle count out of range")
	ErrMaxVelocity = errors.New("max velocity out of range")
	ErrGridSize    = errors.New("invalid grid size")
	ErrLaneWeights = errors.New("invalid lane weights")
	ErrOutput      = errors.New("invalid output config")
)

// RuntimeConfig 运行时配置
// 功能：存储校验后的配置信息以及由配置推导出的网格中心
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
	M   Model   // 模型配置

	CenterX int32 // 网格中心x = width/2
	CenterY int32 // 网格中心y = height/2
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：校验配置边界并创建运行时配置对象
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针，配置非法时返回错误
// 算法说明：
// 1. 校验车辆数、最大速度范围
// 2. 校验网格宽高（必须为正且能容纳路口），且任一进入车道都能容纳全部车辆
// 3. 校验车道权重（8个非负数且和为正）
// 4. 校验可选的输出配置并补全默认值
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	m := config.Model
	if m.Vehicles < MinVehicles || m.Vehicles > MaxVehicles {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrVehicles, m.Vehicles, MinVehicles, MaxVehicles)
	}
	if m.MaxVelocity < MinMaxVelocity || m.MaxVelocity > MaxMaxVelocity {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrMaxVelocity, m.MaxVelocity, MinMaxVelocity, MaxMaxVelocity)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d must be positive", ErrGridSize, m.Width, m.Height)
	}
	if m.Width < MinGridSize || m.Height < MinGridSize {
		return nil, fmt.Errorf("%w: %dx%d smaller than %d", ErrGridSize, m.Width, m.Height, MinGridSize)
	}
	if n := LaneCapacity(m.Width, m.Height); m.Vehicles > n {
		return nil, fmt.Errorf("%w: %d vehicles exceed lane capacity %d of %dx%d grid", ErrVehicles, m.Vehicles, n, m.Width, m.Height)
	}
	if len(m.LaneWeights) > 0 {
		if len(m.LaneWeights) != NumLanes {
			return nil, fmt.Errorf("%w: %d lane weights, want %d", ErrLaneWeights, len(m.LaneWeights), NumLanes)
		}
		if lo.SomeBy(m.LaneWeights, func(w float64) bool { return w < 0 }) || lo.Sum(m.LaneWeights) <= 0 {
			return nil, fmt.Errorf("%w: %v", ErrLaneWeights, m.LaneWeights)
		}
	}
	if config.Control.Step.Total < 0 {
		return nil, fmt.Errorf("negative step total %d", config.Control.Step.Total)
	}
	if o := config.Output; o != nil {
		if o.URI == "" || o.DB == "" || o.Col == "" {
			return nil, fmt.Errorf("%w: uri, db and col are required", ErrOutput)
		}
		if o.Batch <= 0 {
			o.Batch = defaultOutputBatch
		}
	}

	rc := &RuntimeConfig{
		All:     config,
		C:       config.Control,
		M:       m,
		CenterX: m.Width / 2,
		CenterY: m.Height / 2,
	}
	return rc, nil
}

// LaneCapacity 最短进入车道上停车线之前的格子数
// 说明：车辆只在停车线之前生成，车辆数不超过该值时所有车辆随机落在同一车道也能放下。
// 网格中心为(width/2, height/2)，停车线距中心2格，
// 四个进口道停车线前的格子数分别为 cy-2、width-cx-3、height-cy-3、cx-2
func LaneCapacity(width, height int32) int32 {
	cx, cy := width/2, height/2
	return min(cy-2, width-cx-3, height-cy-3, cx-2)
}
