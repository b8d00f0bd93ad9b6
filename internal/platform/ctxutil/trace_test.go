package ctxutil

import (
	"context"
	"testing"
)

func TestTraceDataRoundTrip(t *testing.T) {
	ctx := context.Background()
	if GetTraceData(ctx) != nil || RequestID(ctx) != "" {
		t.Fatalf("empty context must carry no trace data")
	}
	ctx = WithTraceData(ctx, &TraceData{TraceID: "t-1", RequestID: "r-1"})
	td := GetTraceData(ctx)
	if td == nil || td.TraceID != "t-1" {
		t.Fatalf("trace data lost: %+v", td)
	}
	if got := RequestID(ctx); got != "r-1" {
		t.Fatalf("RequestID: want=r-1 got=%q", got)
	}
}
