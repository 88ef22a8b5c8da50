package recognizer

import (
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/recognizer"
	"github.com/samber/do/v2"
)

// EngineConfig carries the engine parameters shared by the real adapter and
// the stub.
type EngineConfig struct {
	ModelDir          string
	SampleRate        int
	NumThreads        int
	TrailingSilenceMs int
	MinUtteranceMs    int
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (recognizer.Factory, error) {
		c := do.MustInvoke[*config.Config](i)
		engineCfg := EngineConfig{
			ModelDir:          c.ModelDir,
			SampleRate:        c.SampleRate,
			NumThreads:        c.RecognizerThreads,
			TrailingSilenceMs: c.EndpointTrailingSilenceMs,
			MinUtteranceMs:    c.EndpointMinUtteranceMs,
		}
		return recognizer.Factory(func() (recognizer.Recognizer, error) {
			return NewSherpaRecognizer(engineCfg)
		}), nil
	})
}
