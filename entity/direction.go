package entity

import (
	"errors"
	"fmt"
	"math"
)

// Direction 8方向罗盘朝向，从北开始顺时针编号0~7
// 说明：值类型，复制即完整复制状态
type Direction int32

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest

	NumDirections = 8
)

var ErrInvalidDirection = errors.New("invalid direction label")

var directionLabels = [NumDirections]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// 每个方向的单位位移，y轴向南增长
var directionUnits = [NumDirections][2]int32{
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
}

// ParseDirection 将方向标签（N, NE, E, ...）转换为Direction
func ParseDirection(label string) (Direction, error) {
	for i, l := range directionLabels {
		if l == label {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, label)
}

// Angle 朝向角（弧度），0表示朝北，顺时针增长
func (d Direction) Angle() float64 {
	return 2 * math.Pi * float64(d.index()) / NumDirections
}

// TurnLeft 向左旋转45°
func (d Direction) TurnLeft() Direction {
	return Direction((d.index() + NumDirections - 1) % NumDirections)
}

// Modifiers 按速度v缩放后的单位位移(dx, dy)
func (d Direction) Modifiers(v int32) (dx, dy int32) {
	u := directionUnits[d.index()]
	return u[0] * v, u[1] * v
}

func (d Direction) String() string {
	return directionLabels[d.index()]
}

func (d Direction) index() int32 {
	return ((int32(d) % NumDirections) + NumDirections) % NumDirections
}
