package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/hactar.go/pkg/board"
	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
)

func TestObserveTaskAccumulatesRuns(t *testing.T) {
	e := NewExporter(":0", "dev")
	e.ObserveTask(1, framework.TaskMetrics{Name: "Chat", RunCount: 3, MaxStack: 64, MaxDurationUs: 12})
	e.ObserveTask(1, framework.TaskMetrics{Name: "Chat", RunCount: 2, MaxStack: 32, MaxDurationUs: 5})
	e.ObserveTask(7, framework.TaskMetrics{RunCount: 1})

	require.Equal(t, 5.0, testutil.ToFloat64(e.TaskRuns.WithLabelValues("Chat")))
	require.Equal(t, 32.0, testutil.ToFloat64(e.TaskStack.WithLabelValues("Chat")))
	require.Equal(t, 5.0, testutil.ToFloat64(e.TaskDuration.WithLabelValues("Chat")))
	require.Equal(t, 1.0, testutil.ToFloat64(e.TaskRuns.WithLabelValues("task7")))
}

func TestObserveDispatchAddsIncrease(t *testing.T) {
	e := NewExporter(":0", "dev")
	e.ObserveDispatch(msg.Keyboard, 4, 0)
	e.ObserveDispatch(msg.Keyboard, 10, 1)
	e.ObserveDispatch(msg.Keyboard, 10, 1)

	require.Equal(t, 10.0, testutil.ToFloat64(e.Dispatched.WithLabelValues("Keyboard")))
	require.Equal(t, 1.0, testutil.ToFloat64(e.Dropped.WithLabelValues("Keyboard")))
}

func TestHandler(t *testing.T) {
	e := NewExporter(":0", "dev")
	battery := board.NewBattery()
	e.WatchBattery(battery)
	e.ObserveTask(0, framework.TaskMetrics{Name: "Render", RunCount: 1})

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `hactar_task_runs_total{device="dev",task="Render"} 1`)
	require.Contains(t, body, "hactar_battery_percent 99")
}

func TestRun(t *testing.T) {
	e := NewExporter("127.0.0.1:0", "dev")
	addr, err := e.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(ctx) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr.String() + "/metrics")
		return err == nil
	}, time.Second, 10*time.Millisecond)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, body)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}
