package entity

// Manager依赖倒置

// entity/vehicle/manager.go的依赖倒置
type IVehicleManager interface {
	// 输入Vehicle ID，查找Vehicle，如果不存在则panic
	Get(id int32) IVehicle
	// 输入Vehicle ID，查找Vehicle，如果不存在则返回error
	GetOrError(id int32) (IVehicle, error)
	// 所有车辆，按ID升序
	Vehicles() []IVehicle
}

// entity/stop/manager.go的依赖倒置
type IStopManager interface {
	// 输入Stop ID，查找Stop，如果不存在则panic
	Get(id int32) IStop
	// 输入Stop ID，查找Stop，如果不存在则返回error
	GetOrError(id int32) (IStop, error)
	// 进口道g的停车线（[直行, 左转]），g按模4归一化
	Group(g int32) []IStop
	// 所有停车线，按ID升序
	Stops() []IStop
}
