package audio

import (
	"math"
	"testing"
)

func TestResampleSameRate(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := Resample(in, 16000, 16000)
	if len(out) != len(in) {
		t.Errorf("got %d samples, want %d", len(out), len(in))
	}
}

func TestResampleDownsampleLength(t *testing.T) {
	in := make([]float32, 48000)
	out := Resample(in, 48000, 16000)
	if len(out) != 16000 {
		t.Errorf("got %d samples, want 16000", len(out))
	}
}

func TestResampleUpsampleLength(t *testing.T) {
	in := make([]float32, 8000)
	out := Resample(in, 8000, 16000)
	if len(out) != 16000 {
		t.Errorf("got %d samples, want 16000", len(out))
	}
}

func TestResampleInterpolates(t *testing.T) {
	// Upsampling a ramp 2x: odd outputs sit halfway between neighbors.
	in := []float32{0, 1, 2, 3}
	out := Resample(in, 8000, 16000)
	if len(out) != 8 {
		t.Fatalf("got %d samples, want 8", len(out))
	}
	if math.Abs(float64(out[1])-0.5) > 1e-6 {
		t.Errorf("out[1] = %g, want 0.5", out[1])
	}
	if math.Abs(float64(out[3])-1.5) > 1e-6 {
		t.Errorf("out[3] = %g, want 1.5", out[3])
	}
}

func TestResampleEmpty(t *testing.T) {
	if out := Resample(nil, 48000, 16000); len(out) != 0 {
		t.Errorf("got %d samples, want 0", len(out))
	}
}

func TestDuration(t *testing.T) {
	if d := Duration(make([]float32, 2*TargetSampleRate)); d != 2.0 {
		t.Errorf("Duration = %g, want 2.0", d)
	}
	if d := Duration(nil); d != 0 {
		t.Errorf("Duration(nil) = %g, want 0", d)
	}
}
