package engine

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hexward/hexward/internal/types"
)

const meterName = "github.com/hexward/hexward/internal/engine"

// instruments are recorded against the global meter provider, which is a
// no-op until the host program installs one.
type instruments struct {
	scans      metric.Int64Counter
	files      metric.Int64Counter
	cacheHits  metric.Int64Counter
	rescans    metric.Int64Counter
	infections metric.Int64Counter
	denied     metric.Int64Counter
}

func newInstruments() instruments {
	meter := otel.Meter(meterName)
	scans, _ := meter.Int64Counter("hexward_scans_total", metric.WithDescription("top-level scans by outcome"))
	files, _ := meter.Int64Counter("hexward_files_scanned_total")
	hits, _ := meter.Int64Counter("hexward_cache_hits_total")
	rescans, _ := meter.Int64Counter("hexward_rescans_total", metric.WithDescription("files matched against the signature store"))
	infections, _ := meter.Int64Counter("hexward_infections_total")
	denied, _ := meter.Int64Counter("hexward_denied_total")
	return instruments{
		scans:      scans,
		files:      files,
		cacheHits:  hits,
		rescans:    rescans,
		infections: infections,
		denied:     denied,
	}
}

func verdictAttr(v types.Verdict) metric.AddOption {
	return metric.WithAttributes(attribute.String("kind", v.Kind.String()))
}

func outcomeAttr(aborted bool) metric.AddOption {
	outcome := "completed"
	if aborted {
		outcome = "aborted"
	}
	return metric.WithAttributes(attribute.String("outcome", outcome))
}
