package clock

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName   = "fourway.clock.v1.ClockService"
	NowProcedure  = "/" + ServiceName + "/Now"
	StepProcedure = "/" + ServiceName + "/Step"
)

var log = logrus.WithField("module", "clock")

// Register 将ClockService注册到mux
// 功能：注册时钟服务的RPC处理器
// 参数：mux-HTTP路由
// 说明：使时钟可以通过Connect协议被外部查询
func (c *Clock) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	mux.Handle(NowProcedure, connect.NewUnaryHandler(NowProcedure, c.Now, opts...))
	mux.Handle(StepProcedure, connect.NewUnaryHandler(StepProcedure, c.StepRPC, opts...))
}

// Now 获取当前虚拟时间
// 功能：RPC接口，返回当前虚拟时间（可能处于某步的阶段之间）
func (c *Clock) Now(ctx context.Context, in *connect.Request[emptypb.Empty]) (*connect.Response[wrapperspb.DoubleValue], error) {
	return connect.NewResponse(wrapperspb.Double(c.T())), nil
}

// StepRPC 获取已完成的步数
func (c *Clock) StepRPC(ctx context.Context, in *connect.Request[emptypb.Empty]) (*connect.Response[wrapperspb.Int32Value], error) {
	return connect.NewResponse(wrapperspb.Int32(c.Step())), nil
}
