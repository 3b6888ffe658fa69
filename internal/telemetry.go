package internal

import (
	"context"
	"sync"
)

// telemetry.go
// Lightweight telemetry hook layer used by the submission engine.
// By default the emitter is a no-op; service wiring or tests may register
// their own via RegisterTelemetryEmitter.

type telemetryEmitter func(ctx context.Context, name string, labels map[string]string, value any)

var (
	teleMu   sync.Mutex
	teleImpl telemetryEmitter = func(ctx context.Context, name string, labels map[string]string, value any) {
		// noop by default
	}
)

// RegisterTelemetryEmitter registers a custom emitter function. Passing nil
// restores the no-op emitter.
func RegisterTelemetryEmitter(fn telemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(ctx context.Context, name string, labels map[string]string, value any) {}
		return
	}
	teleImpl = fn
}

func emit(ctx context.Context, name string, labels map[string]string, value any) {
	teleMu.Lock()
	fn := teleImpl
	teleMu.Unlock()
	fn(ctx, name, labels, value)
}

// EmitLatency records a latency measure (milliseconds) for a named stage.
// name: "formlogic_stage_latency_ms" with label {"stage": "<solve|validate|project|evaluate>"}
func EmitLatency(ctx context.Context, stage string, ms int64) {
	emit(ctx, "formlogic_stage_latency_ms", map[string]string{"stage": stage}, ms)
}

// EmitSolverPasses records how many passes the visibility solver needed.
// name: "formlogic_solver_passes" with labels {"form_id": "<id>", "state": "<solver state>"}
func EmitSolverPasses(ctx context.Context, formID, state string, passes int) {
	emit(ctx, "formlogic_solver_passes", map[string]string{"form_id": formID, "state": state}, passes)
}

// EmitRejection counts rejected submissions by dominant error kind.
// name: "formlogic_rejections_total" with labels {"form_id": "<id>", "kind": "<error type>"}
func EmitRejection(ctx context.Context, formID, kind string) {
	emit(ctx, "formlogic_rejections_total", map[string]string{"form_id": formID, "kind": kind}, 1)
}
