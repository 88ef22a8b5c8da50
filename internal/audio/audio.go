package audio

import (
	"errors"
	"time"
)

var (
	ErrDeviceUnavailable = errors.New("audio: device unavailable")
	ErrFormatUnsupported = errors.New("audio: format unsupported")
)

// Frame is one block of PCM samples handed over by the capture callback.
// Seq is strictly increasing per capture session; a gap means frames were
// dropped upstream and must never be silently renumbered.
type Frame struct {
	Samples  []int16
	Seq      uint64
	Captured time.Time
}

type DeviceDescriptor struct {
	ID                string
	Name              string
	IsLoopbackCapable bool
}

type FrameCallback func(Frame)

type Capture interface {
	Stop() error
}

type Source interface {
	ListDevices() ([]DeviceDescriptor, error)
	// Open starts delivering frames to cb from the platform capture thread.
	// Fails with ErrDeviceUnavailable or ErrFormatUnsupported.
	Open(deviceID string, sampleRate, channels, frameSamples int, cb FrameCallback) (Capture, error)
}
