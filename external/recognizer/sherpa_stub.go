//go:build !sherpa

package recognizer

import (
	"github.com/foxseedlab/jimakun/internal/recognizer"
)

// noopRecognizer stands in when the sherpa build tag is off. It consumes audio
// and never emits a hypothesis, which keeps the pipeline runnable in builds
// and environments without the onnxruntime toolchain.
type noopRecognizer struct {
	fedSamples uint64
}

func NewSherpaRecognizer(_ EngineConfig) (recognizer.Recognizer, error) {
	return &noopRecognizer{}, nil
}

func (r *noopRecognizer) Feed(pcm []int16) ([]recognizer.Hypothesis, error) {
	r.fedSamples += uint64(len(pcm))
	return nil, nil
}

func (r *noopRecognizer) Reset() {}

func (r *noopRecognizer) Close() error { return nil }
