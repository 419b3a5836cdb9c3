package task

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/entity"
	"google.golang.org/protobuf/types/known/structpb"
)

// VehicleState 车辆的显示状态
type VehicleState struct {
	ID               int32   `json:"id"`
	X                int32   `json:"x"`
	Y                int32   `json:"y"`
	Angle            float64 `json:"angle"`
	Direction        string  `json:"direction"`
	Color            string  `json:"color"`
	Turn             bool    `json:"turn"`
	Velocity         int32   `json:"velocity"`
	MaxVelocity      int32   `json:"max_velocity"`
	IntersectionStep int32   `json:"intersection_step"`
}

// StopState 停车线的显示状态
type StopState struct {
	ID          int32  `json:"id"`
	Group       int32  `json:"group"`
	Turn        bool   `json:"turn"`
	X           int32  `json:"x"`
	Y           int32  `json:"y"`
	Status      string `json:"status"`
	WaitTime    int32  `json:"wait_time"`
	LastVehicle int32  `json:"last_vehicle"`
}

// Snapshot 某一时刻的模型状态
type Snapshot struct {
	Step        int32          `json:"step"`
	T           float64        `json:"t"`
	AvgWaitTime float64        `json:"avg_wait_time"`
	Vehicles    []VehicleState `json:"vehicles"`
	Stops       []StopState    `json:"stops"`
}

// Snapshot 生成当前模型状态的快照
func (ctx *Context) Snapshot() *Snapshot {
	ctx.mtx.RLock()
	defer ctx.mtx.RUnlock()
	clk := ctx.Clock()
	return &Snapshot{
		Step:        clk.Step(),
		T:           clk.T(),
		AvgWaitTime: ctx.stopManager.AvgWaitTime(),
		Vehicles: lo.Map(ctx.vehicleManager.Vehicles(), func(v entity.IVehicle, _ int) VehicleState {
			pos := v.Position()
			return VehicleState{
				ID:               v.ID(),
				X:                pos.X,
				Y:                pos.Y,
				Angle:            v.Direction().Angle(),
				Direction:        v.Direction().String(),
				Color:            v.Color(),
				Turn:             v.Turn(),
				Velocity:         v.Velocity(),
				MaxVelocity:      v.MaxVelocity(),
				IntersectionStep: v.IntersectionStep(),
			}
		}),
		Stops: lo.Map(ctx.stopManager.Stops(), func(s entity.IStop, _ int) StopState {
			pos := s.Position()
			return StopState{
				ID:          s.ID(),
				Group:       s.Group(),
				Turn:        s.Turn(),
				X:           pos.X,
				Y:           pos.Y,
				Status:      s.Status().String(),
				WaitTime:    s.WaitTime(),
				LastVehicle: s.LastVehicle(),
			}
		}),
	}
}

// ToStruct 转换为protobuf Struct，字段名与json标签一致
func (s *Snapshot) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"step":          s.Step,
		"t":             s.T,
		"avg_wait_time": s.AvgWaitTime,
		"vehicles": lo.Map(s.Vehicles, func(v VehicleState, _ int) any {
			return map[string]any{
				"id":                v.ID,
				"x":                 v.X,
				"y":                 v.Y,
				"angle":             v.Angle,
				"direction":         v.Direction,
				"color":             v.Color,
				"turn":              v.Turn,
				"velocity":          v.Velocity,
				"max_velocity":      v.MaxVelocity,
				"intersection_step": v.IntersectionStep,
			}
		}),
		"stops": lo.Map(s.Stops, func(st StopState, _ int) any {
			return map[string]any{
				"id":           st.ID,
				"group":        st.Group,
				"turn":         st.Turn,
				"x":            st.X,
				"y":            st.Y,
				"status":       st.Status,
				"wait_time":    st.WaitTime,
				"last_vehicle": st.LastVehicle,
			}
		}),
	})
}
