package grid

import (
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity"
)

var log = logrus.WithField("module", "grid")

// Grid 环面网格
// 功能：二维网格，两个坐标轴都首尾相接，每个格子可以容纳多个参与者
// 说明：格子内参与者按放入顺序保存；停车线先于车辆放入且不会移动，因此总在格子首位
type Grid struct {
	width, height int32

	cells [][]entity.IAgent                 // 下标 y*width+x
	where map[entity.IAgent]entity.Position // 参与者->当前坐标
}

// New 创建宽width高height的环面网格，宽高必须为正
func New(width, height int32) *Grid {
	if width <= 0 || height <= 0 {
		log.Panicf("invalid grid size %dx%d", width, height)
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([][]entity.IAgent, width*height),
		where:  make(map[entity.IAgent]entity.Position),
	}
}

func (g *Grid) Width() int32 {
	return g.width
}

func (g *Grid) Height() int32 {
	return g.height
}

// Wrap 环面归一化：每个坐标分别对宽、高取非负模
func (g *Grid) Wrap(pos entity.Position) entity.Position {
	return entity.Position{X: mod(pos.X, g.width), Y: mod(pos.Y, g.height)}
}

// Translate 沿位移(dx, dy)平移并归一化
// 返回：归一化后的坐标，以及平移是否跨越了网格边界
func (g *Grid) Translate(pos entity.Position, dx, dy int32) (entity.Position, bool) {
	raw := pos.Add(dx, dy)
	wrapped := g.Wrap(raw)
	return wrapped, raw != wrapped
}

// Place 将参与者放到pos（归一化后），参与者不能已在网格上
func (g *Grid) Place(agent entity.IAgent, pos entity.Position) {
	if _, ok := g.where[agent]; ok {
		log.Panicf("%v %d already placed", agent.Kind(), agent.ID())
	}
	pos = g.Wrap(pos)
	i := g.index(pos)
	g.cells[i] = append(g.cells[i], agent)
	g.where[agent] = pos
}

// Move 将参与者移动到pos（归一化后），参与者被追加到目标格子末尾
func (g *Grid) Move(agent entity.IAgent, pos entity.Position) {
	old, ok := g.where[agent]
	if !ok {
		log.Panicf("%v %d not on grid", agent.Kind(), agent.ID())
	}
	pos = g.Wrap(pos)
	if old == pos {
		return
	}
	i := g.index(old)
	g.cells[i] = slices.DeleteFunc(g.cells[i], func(a entity.IAgent) bool { return a == agent })
	j := g.index(pos)
	g.cells[j] = append(g.cells[j], agent)
	g.where[agent] = pos
}

// IsEmpty 格子是否为空
func (g *Grid) IsEmpty(pos entity.Position) bool {
	return len(g.cells[g.index(g.Wrap(pos))]) == 0
}

// At 格子上的所有参与者，按放入顺序
// 说明：返回的是内部切片，调用方不能修改
func (g *Grid) At(pos entity.Position) []entity.IAgent {
	return g.cells[g.index(g.Wrap(pos))]
}

func (g *Grid) index(pos entity.Position) int32 {
	return pos.Y*g.width + pos.X
}

func mod(a, n int32) int32 {
	return ((a % n) + n) % n
}
