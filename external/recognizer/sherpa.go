//go:build sherpa

package recognizer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/foxseedlab/jimakun/internal/recognizer"
	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
)

// Model directory layout of the streaming zipformer transducer releases.
var modelFiles = map[string]string{
	"encoder": "encoder.onnx",
	"decoder": "decoder.onnx",
	"joiner":  "joiner.onnx",
	"tokens":  "tokens.txt",
}

// SherpaRecognizer adapts a sherpa-onnx online transducer to the streaming
// recognizer contract. Endpointing is delegated to the engine's trailing
// silence rules, configured rather than hard-coded.
type SherpaRecognizer struct {
	rec        *sherpa.OnlineRecognizer
	stream     *sherpa.OnlineStream
	sampleRate int

	fedSamples  uint64
	windowStart uint64
	lastPartial string
}

func NewSherpaRecognizer(cfg EngineConfig) (recognizer.Recognizer, error) {
	paths := make(map[string]string, len(modelFiles))
	for name, file := range modelFiles {
		p := filepath.Join(cfg.ModelDir, file)
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("model file %s not found in %s: %w", name, cfg.ModelDir, err)
		}
		paths[name] = p
	}

	conf := sherpa.OnlineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{SampleRate: cfg.SampleRate, FeatureDim: 80},
		ModelConfig: sherpa.OnlineModelConfig{
			Transducer: sherpa.OnlineTransducerModelConfig{
				Encoder: paths["encoder"],
				Decoder: paths["decoder"],
				Joiner:  paths["joiner"],
			},
			Tokens:     paths["tokens"],
			NumThreads: cfg.NumThreads,
			Provider:   "cpu",
		},
		DecodingMethod:          "greedy_search",
		EnableEndpoint:          1,
		Rule1MinTrailingSilence: float32(cfg.TrailingSilenceMs) * 3 / 1000,
		Rule2MinTrailingSilence: float32(cfg.TrailingSilenceMs) / 1000,
		Rule3MinUtteranceLength: float32(cfg.MinUtteranceMs) / 1000,
	}

	rec := sherpa.NewOnlineRecognizer(&conf)
	if rec == nil {
		return nil, fmt.Errorf("failed to create sherpa-onnx recognizer from %s", cfg.ModelDir)
	}
	stream := sherpa.NewOnlineStream(rec)
	if stream == nil {
		sherpa.DeleteOnlineRecognizer(rec)
		return nil, fmt.Errorf("failed to create sherpa-onnx stream")
	}

	slog.Info("sherpa-onnx recognizer loaded", "model_dir", cfg.ModelDir, "sample_rate", cfg.SampleRate, "threads", cfg.NumThreads)
	return &SherpaRecognizer{rec: rec, stream: stream, sampleRate: cfg.SampleRate}, nil
}

func (r *SherpaRecognizer) Feed(pcm []int16) ([]recognizer.Hypothesis, error) {
	samples := make([]float32, len(pcm))
	for i, s := range pcm {
		samples[i] = float32(s) / 32768.0
	}
	r.stream.AcceptWaveform(r.sampleRate, samples)
	r.fedSamples += uint64(len(pcm))

	for r.rec.IsReady(r.stream) {
		r.rec.Decode(r.stream)
	}

	var updates []recognizer.Hypothesis
	text := r.rec.GetResult(r.stream).Text

	if r.rec.IsEndpoint(r.stream) {
		updates = append(updates, recognizer.Hypothesis{
			Text:        text,
			IsFinal:     true,
			StartSample: r.windowStart,
			EndSample:   r.fedSamples,
		})
		r.rec.Reset(r.stream)
		r.windowStart = r.fedSamples
		r.lastPartial = ""
		return updates, nil
	}

	if text != "" && text != r.lastPartial {
		updates = append(updates, recognizer.Hypothesis{
			Text:        text,
			IsFinal:     false,
			StartSample: r.windowStart,
			EndSample:   r.fedSamples,
		})
		r.lastPartial = text
	}
	return updates, nil
}

func (r *SherpaRecognizer) Reset() {
	r.rec.Reset(r.stream)
	r.windowStart = r.fedSamples
	r.lastPartial = ""
}

func (r *SherpaRecognizer) Close() error {
	sherpa.DeleteOnlineStream(r.stream)
	sherpa.DeleteOnlineRecognizer(r.rec)
	return nil
}
