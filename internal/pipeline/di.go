package pipeline

import (
	"github.com/foxseedlab/jimakun/internal/archive"
	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/latency"
	"github.com/foxseedlab/jimakun/internal/metrics"
	"github.com/foxseedlab/jimakun/internal/recognizer"
	"github.com/foxseedlab/jimakun/internal/transcript"
	"github.com/foxseedlab/jimakun/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*prometheus.Registry, error) {
		return prometheus.NewRegistry(), nil
	})
	do.Provide(injector, func(i do.Injector) (*metrics.Metrics, error) {
		return metrics.NewMetrics(do.MustInvoke[*prometheus.Registry](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (*transcript.Store, error) {
		return transcript.NewStore(), nil
	})
	do.Provide(injector, func(i do.Injector) (*latency.Tracker, error) {
		c := do.MustInvoke[*config.Config](i)
		return latency.NewTracker(c.LatencyHistorySize), nil
	})
	do.Provide(injector, func(i do.Injector) (*Pipeline, error) {
		return New(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[audio.Source](i),
			do.MustInvoke[recognizer.Factory](i),
			do.MustInvoke[*transcript.Store](i),
			do.MustInvoke[*latency.Tracker](i),
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[archive.Repository](i),
			do.MustInvoke[webhook.Sender](i),
		), nil
	})
}
