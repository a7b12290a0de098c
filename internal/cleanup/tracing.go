package cleanup

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"alm/internal/osal"
)

const (
	traceScopeCleanup = "alm.cleanup"
	traceSpanSweep    = "alm.cleanup.sweep"

	traceAttrTaskID = "alm.task_id"
)

// startSweepSpan opens a span for one sweepAndDeleteTask call, the C8
// fixed-point loop for a single task. Uses the global TracerProvider the
// way react/tracing.go does, so a caller that never configures one gets the
// no-op implementation for free.
func startSweepSpan(ctx context.Context, taskID osal.TaskID) (context.Context, trace.Span) {
	return otel.Tracer(traceScopeCleanup).Start(ctx, traceSpanSweep,
		trace.WithAttributes(attribute.String(traceAttrTaskID, taskID.String())))
}

func endSweepSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
