//go:build !portaudio

package audio

import (
	"time"

	"github.com/foxseedlab/jimakun/internal/audio"
)

// NullSource is used when the portaudio build tag is off. It emits silent
// frames at the configured frame interval so the rest of the pipeline can be
// exercised without an audio device.
type NullSource struct{}

func NewPortAudioSource() audio.Source {
	return &NullSource{}
}

func (s *NullSource) ListDevices() ([]audio.DeviceDescriptor, error) {
	return []audio.DeviceDescriptor{
		{ID: "null", Name: "Null Capture (silence)", IsLoopbackCapable: true},
	}, nil
}

func (s *NullSource) Open(_ string, sampleRate, channels, frameSamples int, cb audio.FrameCallback) (audio.Capture, error) {
	interval := time.Duration(frameSamples/channels) * time.Second / time.Duration(sampleRate)
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	c := &nullCapture{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var seq uint64
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				seq++
				cb(audio.Frame{Samples: make([]int16, frameSamples), Seq: seq, Captured: time.Now()})
			}
		}
	}()
	return c, nil
}

type nullCapture struct {
	stop chan struct{}
	done chan struct{}
}

func (c *nullCapture) Stop() error {
	close(c.stop)
	<-c.done
	return nil
}
