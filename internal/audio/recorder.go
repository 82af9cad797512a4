package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// Recorder captures audio from the default microphone into a float32 buffer.
// Device selection is not supported; the system default capture device is
// used.
type Recorder struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate uint32
	channels   uint32

	mu        sync.Mutex
	buf       []float32
	recording bool
}

// NewRecorder creates a new audio recorder. Call Close() when done.
func NewRecorder(sampleRate, channels uint32) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: initializing capture context: %w", err)
	}

	return &Recorder{
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// Start begins capturing from the default microphone. Samples accumulate in
// an internal buffer until Stop.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return fmt.Errorf("audio: already recording")
	}
	r.buf = r.buf[:0] // keep capacity across takes
	r.recording = true
	r.mu.Unlock()

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = r.channels
	deviceCfg.SampleRate = r.sampleRate

	device, err := malgo.InitDevice(r.ctx.Context, deviceCfg, malgo.DeviceCallbacks{Data: r.onData})
	if err != nil {
		r.setStopped()
		return fmt.Errorf("audio: initializing capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		r.setStopped()
		return fmt.Errorf("audio: starting capture device: %w", err)
	}

	r.mu.Lock()
	r.device = device
	r.mu.Unlock()

	return nil
}

// Stop ends the capture and returns the recorded samples, downmixed to mono
// at the recorder's sample rate. Returns nil if the recorder was not running.
func (r *Recorder) Stop() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil
	}

	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	r.recording = false

	if r.channels <= 1 {
		out := make([]float32, len(r.buf))
		copy(out, r.buf)
		return out
	}

	// Interleaved multichannel capture: average down to mono.
	ch := int(r.channels)
	frames := len(r.buf) / ch
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += r.buf[i*ch+c]
		}
		out[i] = sum / float32(ch)
	}
	return out
}

// IsRecording reports whether a capture is in progress.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Close releases all audio resources.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	r.recording = false
	r.mu.Unlock()

	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			return fmt.Errorf("audio: uninitializing capture context: %w", err)
		}
		r.ctx.Free()
	}

	return nil
}

func (r *Recorder) setStopped() {
	r.mu.Lock()
	r.recording = false
	r.mu.Unlock()
}

// onData is the malgo callback invoked when captured frames are available.
// pSample holds raw little-endian float32 bytes.
func (r *Recorder) onData(_, pSample []byte, frameCount uint32) {
	sampleCount := frameCount * r.channels
	samples := bytesToFloat32(pSample, sampleCount)

	r.mu.Lock()
	r.buf = append(r.buf, samples...)
	r.mu.Unlock()
}

// bytesToFloat32 converts raw little-endian float32 bytes to a sample slice.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}
