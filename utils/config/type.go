package config

// Model 交叉口模型配置
// 功能：定义四向停车路口模型的构造参数
// 说明：车辆数、网格大小、最大速度、是否启用死锁规避，以及随机种子
type Model struct {
	Vehicles       int32  `yaml:"vehicles"`                  // 车辆数（1~20）
	Width          int32  `yaml:"width"`                     // 网格宽度
	Height         int32  `yaml:"height"`                    // 网格高度
	MaxVelocity    int32  `yaml:"max_velocity"`              // 车辆最大速度（1~10格/步）
	AvoidDeadlocks bool   `yaml:"avoid_deadlocks,omitempty"` // 是否启用按优先级的死锁规避阶段
	Seed           uint64 `yaml:"seed,omitempty"`            // 车道随机分配的种子
	// 8条进入车道的抽样权重，为空则等概率
	LaneWeights []float64 `yaml:"lane_weights,omitempty"`
}

// ControlStep 指定模拟步数的配置项
type ControlStep struct {
	Total int32 `yaml:"total"` // 总步数，0表示一直运行直到被中断
}

// Control 模拟器控制配置
type Control struct {
	Step ControlStep `yaml:"step"`
}

// Output 指标序列输出配置（MongoDB）
// 功能：将每步记录的平均等待时间写入MongoDB集合
type Output struct {
	URI   string `yaml:"uri"`             // MongoDB连接字符串
	DB    string `yaml:"db"`              // 数据库名
	Col   string `yaml:"col"`             // 集合名
	Batch int    `yaml:"batch,omitempty"` // 批量写入大小，默认100
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
// 说明：包含模型、控制、输出等所有配置项
type Config struct {
	Model   Model   `yaml:"model"`            // 模型
	Control Control `yaml:"control"`          // 模拟过程控制
	Output  *Output `yaml:"output,omitempty"` // 输出（可选）
}
