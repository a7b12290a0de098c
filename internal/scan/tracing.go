package scan

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"alm/internal/registry"
)

const (
	traceScopeScan       = "alm.scan"
	traceSpanControlStep = "alm.scan.control_step"

	traceAttrAppIndex = "alm.app_index"
	traceAttrRequest  = "alm.control_request"
)

// startControlSpan opens a span for one C6 invocation: one app index
// processed at one expired grace timer. Uses the global TracerProvider the
// way react/tracing.go does, so a caller that never configures one gets the
// no-op implementation for free.
func startControlSpan(ctx context.Context, appIndex int, req registry.ControlRequest) (context.Context, trace.Span) {
	return otel.Tracer(traceScopeScan).Start(ctx, traceSpanControlStep,
		trace.WithAttributes(
			attribute.Int(traceAttrAppIndex, appIndex),
			attribute.Int(traceAttrRequest, int(req)),
		))
}

func endControlSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
