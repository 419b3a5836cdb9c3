package clock_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/clock"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestClockStages(t *testing.T) {
	c := clock.New(3)
	assert.InDelta(t, 1.0/3, c.StageTime, 1e-12)

	c.AdvanceStage()
	assert.InDelta(t, 1.0/3, c.T(), 1e-12)
	assert.Equal(t, int32(0), c.Step())
	c.AdvanceStage()
	c.AdvanceStage()
	c.Tick()
	assert.Equal(t, 1.0, c.T())
	assert.Equal(t, int32(1), c.Step())

	c.Init()
	assert.Equal(t, 0.0, c.T())
	assert.Equal(t, int32(0), c.Step())
}

func TestClockNewPanics(t *testing.T) {
	assert.Panics(t, func() { clock.New(0) })
}

func TestClockRPC(t *testing.T) {
	c := clock.New(2)
	c.AdvanceStage()
	c.AdvanceStage()
	c.Tick()
	c.AdvanceStage()

	mux := http.NewServeMux()
	c.Register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	now := connect.NewClient[emptypb.Empty, wrapperspb.DoubleValue](server.Client(), server.URL+clock.NowProcedure)
	res, err := now.CallUnary(context.Background(), connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)
	assert.InDelta(t, 1.5, res.Msg.GetValue(), 1e-12)

	step := connect.NewClient[emptypb.Empty, wrapperspb.Int32Value](server.Client(), server.URL+clock.StepProcedure)
	stepRes, err := step.CallUnary(context.Background(), connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)
	assert.Equal(t, int32(1), stepRes.Msg.GetValue())
}
