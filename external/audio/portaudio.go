//go:build portaudio

package audio

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/gordonklaus/portaudio"
)

var (
	initOnce sync.Once
	initErr  error
)

func ensureInitialized() error {
	initOnce.Do(func() {
		initErr = portaudio.Initialize()
	})
	return initErr
}

// PortAudioSource captures PCM from a platform input device, including
// loopback-style devices (monitor sources, "Stereo Mix" and friends).
type PortAudioSource struct{}

func NewPortAudioSource() audio.Source {
	return &PortAudioSource{}
}

func (s *PortAudioSource) ListDevices() ([]audio.DeviceDescriptor, error) {
	if err := ensureInitialized(); err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}
	var out []audio.DeviceDescriptor
	for i, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		out = append(out, audio.DeviceDescriptor{
			ID:                strconv.Itoa(i),
			Name:              d.Name,
			IsLoopbackCapable: isLoopbackName(d.Name),
		})
	}
	return out, nil
}

func isLoopbackName(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "loopback") ||
		strings.Contains(n, "monitor") ||
		strings.Contains(n, "stereo mix")
}

func (s *PortAudioSource) Open(deviceID string, sampleRate, channels, frameSamples int, cb audio.FrameCallback) (audio.Capture, error) {
	if err := ensureInitialized(); err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}
	dev, err := resolveDevice(deviceID)
	if err != nil {
		return nil, err
	}
	if channels > dev.MaxInputChannels {
		return nil, fmt.Errorf("%w: device %q supports %d input channels, want %d",
			audio.ErrFormatUnsupported, dev.Name, dev.MaxInputChannels, channels)
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = channels
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = frameSamples / channels

	c := &capture{cb: cb}
	stream, err := portaudio.OpenStream(params, c.onInput)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrFormatUnsupported, err)
	}
	c.stream = stream
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}
	return c, nil
}

func resolveDevice(deviceID string) (*portaudio.DeviceInfo, error) {
	if deviceID == "" {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: no default input device: %v", audio.ErrDeviceUnavailable, err)
		}
		return dev, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}
	idx, err := strconv.Atoi(deviceID)
	if err != nil || idx < 0 || idx >= len(devices) {
		return nil, fmt.Errorf("%w: unknown device id %q", audio.ErrDeviceUnavailable, deviceID)
	}
	return devices[idx], nil
}

type capture struct {
	stream *portaudio.Stream
	cb     audio.FrameCallback
	seq    uint64
}

// onInput runs on the portaudio capture thread; it hands the frame to cb and
// returns immediately.
func (c *capture) onInput(in []int16) {
	c.seq++
	samples := make([]int16, len(in))
	copy(samples, in)
	c.cb(audio.Frame{Samples: samples, Seq: c.seq, Captured: time.Now()})
}

func (c *capture) Stop() error {
	if err := c.stream.Stop(); err != nil {
		_ = c.stream.Close()
		return err
	}
	return c.stream.Close()
}
