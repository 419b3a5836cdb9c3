package entity

import (
	"github.com/tsinghua-fib-lab/fourway-stop-sim/clock"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/utils/config"
)

type ITaskContext interface {
	Clock() *clock.Clock
	Grid() IGrid
	VehicleManager() IVehicleManager
	StopManager() IStopManager
	RuntimeConfig() *config.RuntimeConfig
}
