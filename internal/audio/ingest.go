// Package audio converts audio files and live capture into the mono 16kHz
// float32 PCM the transcription backends consume.
package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// TargetSampleRate is the sample rate every backend expects.
const TargetSampleRate = 16000

// ConvertFile decodes an audio file into mono float32 PCM at 16kHz,
// downmixing and resampling as needed. It fails if the file cannot be opened,
// contains no readable frames, or uses an unsupported container.
func ConvertFile(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	var (
		samples []float32
		rate    int
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		samples, rate, err = decodeMP3(f)
	default:
		samples, rate, err = decodeWAV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("audio: %s: no readable frames", path)
	}

	if rate != TargetSampleRate {
		samples = Resample(samples, rate, TargetSampleRate)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("audio: %s: resampling produced no samples", path)
	}
	return samples, nil
}

// decodeWAV decodes a PCM WAV stream to mono float32 and its sample rate.
func decodeWAV(f *os.File) ([]float32, int, error) {
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wav: %w", err)
	}
	if buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("wav: empty stream")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	// Normalize integer PCM to [-1, 1] by bit depth.
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		samples[i] = sum / float32(channels)
	}
	return samples, buf.Format.SampleRate, nil
}

// decodeMP3 decodes an MP3 stream to mono float32 and its sample rate.
// go-mp3 always yields 16-bit little-endian stereo.
func decodeMP3(f *os.File) ([]float32, int, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3: read: %w", err)
	}

	const bytesPerFrame = 4 // 2 channels x int16
	frames := len(raw) / bytesPerFrame
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		l := int16(uint16(raw[i*4]) | uint16(raw[i*4+1])<<8)
		r := int16(uint16(raw[i*4+2]) | uint16(raw[i*4+3])<<8)
		samples[i] = (float32(l) + float32(r)) / 2 / 32768.0
	}
	return samples, dec.SampleRate(), nil
}
