package transcribe

import (
	"errors"
	"math"
	"testing"
)

// mockDecoder returns zero decoder outputs and counts calls.
type mockDecoder struct {
	calls int
}

func (m *mockDecoder) runDecoder(targetID int32, hIn, cIn []float32) (decoderOut, hOut, cOut []float32, err error) {
	m.calls++
	stateSize := parakeetLSTMLayers * 1 * parakeetDecoderHidden
	return make([]float32, parakeetDecoderHidden), make([]float32, stateSize), make([]float32, stateSize), nil
}

// mockJoint plays back a predetermined script of joint decisions.
type mockJoint struct {
	calls   int
	results []mockJointResult
}

type mockJointResult struct {
	tokenID int32
	durIdx  int32
}

func (m *mockJoint) runJoint(encoderStep, decoderStep []float32) (tokenID, durIdx int32, err error) {
	if m.calls >= len(m.results) {
		return parakeetBlankID, 1, nil // default: blank, advance 1
	}
	r := m.results[m.calls]
	m.calls++
	return r.tokenID, r.durIdx, nil
}

func tokenIDs(tokens []timedToken) []int32 {
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = tok.id
	}
	return ids
}

func TestTDTDecodeBasic(t *testing.T) {
	encoderOutput := make([]float32, 3*parakeetEncoderHidden)

	// Frame 0 emits token 5, frame 1 emits token 10, frame 2 is blank.
	joint := &mockJoint{results: []mockJointResult{
		{tokenID: 5, durIdx: 1},
		{tokenID: 10, durIdx: 1},
		{tokenID: parakeetBlankID, durIdx: 1},
	}}
	dec := &mockDecoder{}

	tokens, err := tdtDecode(encoderOutput, 3, dec, joint, nil, nil)
	if err != nil {
		t.Fatalf("tdtDecode: %v", err)
	}

	ids := tokenIDs(tokens)
	if len(ids) != 2 || ids[0] != 5 || ids[1] != 10 {
		t.Errorf("token ids = %v, want [5 10]", ids)
	}
}

func TestTDTDecodeTiming(t *testing.T) {
	encoderOutput := make([]float32, 6*parakeetEncoderHidden)

	// Frame 0: blank skips 2 frames. Frame 2: token 7 with duration 3.
	joint := &mockJoint{results: []mockJointResult{
		{tokenID: parakeetBlankID, durIdx: 2},
		{tokenID: 7, durIdx: 3},
		{tokenID: parakeetBlankID, durIdx: 1},
	}}

	tokens, err := tdtDecode(encoderOutput, 6, &mockDecoder{}, joint, nil, nil)
	if err != nil {
		t.Fatalf("tdtDecode: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("got %d tokens, want 1", len(tokens))
	}

	wantStart := 2 * parakeetFrameSeconds
	wantEnd := 5 * parakeetFrameSeconds
	if math.Abs(tokens[0].start-wantStart) > 1e-9 || math.Abs(tokens[0].end-wantEnd) > 1e-9 {
		t.Errorf("token span = [%g, %g], want [%g, %g]", tokens[0].start, tokens[0].end, wantStart, wantEnd)
	}
}

func TestTDTDecodeBlankSkip(t *testing.T) {
	encoderOutput := make([]float32, 5*parakeetEncoderHidden)

	// Frame 0: blank skipping 3 frames. Frame 3: emit 7. Frame 4: blank.
	joint := &mockJoint{results: []mockJointResult{
		{tokenID: parakeetBlankID, durIdx: 3},
		{tokenID: 7, durIdx: 1},
		{tokenID: parakeetBlankID, durIdx: 1},
	}}

	tokens, err := tdtDecode(encoderOutput, 5, &mockDecoder{}, joint, nil, nil)
	if err != nil {
		t.Fatalf("tdtDecode: %v", err)
	}

	ids := tokenIDs(tokens)
	if len(ids) != 1 || ids[0] != 7 {
		t.Errorf("token ids = %v, want [7]", ids)
	}
}

func TestTDTDecodeBlankZeroDurationAdvances(t *testing.T) {
	encoderOutput := make([]float32, 2*parakeetEncoderHidden)

	// A blank with duration bin 0 must still advance one frame.
	joint := &mockJoint{results: []mockJointResult{
		{tokenID: parakeetBlankID, durIdx: 0},
		{tokenID: parakeetBlankID, durIdx: 0},
	}}

	tokens, err := tdtDecode(encoderOutput, 2, &mockDecoder{}, joint, nil, nil)
	if err != nil {
		t.Fatalf("tdtDecode: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("got %d tokens, want 0", len(tokens))
	}
	if joint.calls != 2 {
		t.Errorf("joint calls = %d, want 2", joint.calls)
	}
}

func TestTDTDecodeMaxSymbolsGuard(t *testing.T) {
	encoderOutput := make([]float32, 1*parakeetEncoderHidden)

	// Joint keeps emitting non-blank zero-duration tokens; the per-frame
	// symbol cap must stop the inner loop.
	results := make([]mockJointResult, 15)
	for i := range results {
		results[i] = mockJointResult{tokenID: int32(i), durIdx: 0}
	}
	joint := &mockJoint{results: results}

	tokens, err := tdtDecode(encoderOutput, 1, &mockDecoder{}, joint, nil, nil)
	if err != nil {
		t.Fatalf("tdtDecode: %v", err)
	}
	if len(tokens) > parakeetMaxSymsPerStep {
		t.Errorf("got %d tokens, want at most %d", len(tokens), parakeetMaxSymsPerStep)
	}
}

func TestTDTDecodeAbort(t *testing.T) {
	encoderOutput := make([]float32, 4*parakeetEncoderHidden)

	abort := &AbortFlag{}
	abort.Set()

	_, err := tdtDecode(encoderOutput, 4, &mockDecoder{}, &mockJoint{}, abort, nil)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("tdtDecode error = %v, want ErrAborted", err)
	}
}

func TestTDTDecodeProgress(t *testing.T) {
	encoderOutput := make([]float32, 4*parakeetEncoderHidden)

	var progress []float64
	_, err := tdtDecode(encoderOutput, 4, &mockDecoder{}, &mockJoint{}, nil, func(p float64) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("tdtDecode: %v", err)
	}

	if len(progress) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("progress decreased: %v", progress)
		}
	}
	if last := progress[len(progress)-1]; last != 1.0 {
		t.Errorf("final progress = %g, want 1.0", last)
	}
}

func TestClampDurIdx(t *testing.T) {
	cases := []struct {
		in, want int32
	}{
		{-1, 0},
		{0, 0},
		{4, 4},
		{9, int32(len(parakeetDurationBins) - 1)},
	}
	for _, c := range cases {
		if got := clampDurIdx(c.in); got != c.want {
			t.Errorf("clampDurIdx(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
