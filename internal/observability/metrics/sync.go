package metrics

import (
	"time"

	obserrors "github.com/communeo/communeo-api/internal/observability/errors"
	"github.com/communeo/communeo-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// SyncMetric captures one platform publish attempt for metric emission.
type SyncMetric struct {
	Result   string
	Duration time.Duration
	Err      error
}

// EmitEventSync emits standardised APLO publish metrics.
func EmitEventSync(sink statsd.Sink, in SyncMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"result": in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("aplo.publish", 1, tags)

	if in.Duration > 0 {
		sink.Timing("aplo.publish_duration", in.Duration, CloneTags(tags))
	}
}

// EmitSyncCycle emits per-tick metrics for the APLO sync runner.
func EmitSyncCycle(sink statsd.Sink, batch int, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.Gauge("aplo.batch_size", float64(batch), nil)
	sink.Timing("aplo.cycle_duration", elapsed, nil)
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
