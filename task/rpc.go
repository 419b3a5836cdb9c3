package task

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName              = "fourway.simulation.v1.SimulationService"
	GetSnapshotProcedure     = "/" + ServiceName + "/GetSnapshot"
	GetAvgWaitTimeProcedure  = "/" + ServiceName + "/GetAvgWaitTime"
	GetLatestMetricProcedure = "/" + ServiceName + "/GetLatestMetric"
)

// Register 将SimulationService与ClockService注册到mux
func (ctx *Context) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	ctx.Clock().Register(mux, opts...)
	mux.Handle(GetSnapshotProcedure, connect.NewUnaryHandler(GetSnapshotProcedure, ctx.GetSnapshot, opts...))
	mux.Handle(GetAvgWaitTimeProcedure, connect.NewUnaryHandler(GetAvgWaitTimeProcedure, ctx.GetAvgWaitTime, opts...))
	mux.Handle(GetLatestMetricProcedure, connect.NewUnaryHandler(GetLatestMetricProcedure, ctx.GetLatestMetric, opts...))
}

// GetSnapshot 获取当前模型状态快照
func (ctx *Context) GetSnapshot(c context.Context, in *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	s, err := ctx.Snapshot().ToStruct()
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(s), nil
}

// GetAvgWaitTime 获取当前的平均等待时间
func (ctx *Context) GetAvgWaitTime(c context.Context, in *connect.Request[emptypb.Empty]) (*connect.Response[wrapperspb.DoubleValue], error) {
	return connect.NewResponse(wrapperspb.Double(ctx.AvgWaitTime())), nil
}

// GetLatestMetric 获取指标序列中最近一次记录的平均等待时间
func (ctx *Context) GetLatestMetric(c context.Context, in *connect.Request[emptypb.Empty]) (*connect.Response[wrapperspb.DoubleValue], error) {
	if ctx.series.Len() == 0 {
		return nil, connect.NewError(connect.CodeUnavailable, errNoMetric)
	}
	return connect.NewResponse(wrapperspb.Double(ctx.LatestMetric())), nil
}
