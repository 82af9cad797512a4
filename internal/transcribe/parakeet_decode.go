package transcribe

import "fmt"

// timedToken is a decoded token ID with its frame-derived time span.
type timedToken struct {
	id    int32
	start float64
	end   float64
}

// tdtDecode runs the TDT greedy decode loop over encoder output frames.
//
// encoderOut is [frames, parakeetEncoderHidden] flattened; frames is the
// number of valid frames. Each emitted token is stamped with the time of the
// frame it was emitted at; the duration bin decides how many frames to skip.
// Blank tokens advance time without emitting.
//
// abort, when non-nil, is polled once per outer frame step; a raised flag
// stops the loop with ErrAborted. onProgress, when non-nil, receives the
// fraction of frames consumed so far.
func tdtDecode(
	encoderOut []float32,
	frames int,
	dec decoderRunner,
	joint jointRunner,
	abort *AbortFlag,
	onProgress func(float64),
) ([]timedToken, error) {
	lstmStateSize := parakeetLSTMLayers * 1 * parakeetDecoderHidden
	hState := make([]float32, lstmStateSize)
	cState := make([]float32, lstmStateSize)

	// Prime the prediction network with the blank continuation token.
	decoderOut, hState, cState, err := dec.runDecoder(int32(parakeetBlankID), hState, cState)
	if err != nil {
		return nil, fmt.Errorf("transcribe: parakeet initial decoder run: %w", err)
	}

	var tokens []timedToken
	t := 0

	for t < frames {
		if abort != nil && abort.IsSet() {
			return nil, ErrAborted
		}

		frameStart := t * parakeetEncoderHidden
		encoderFrame := encoderOut[frameStart : frameStart+parakeetEncoderHidden]

		symCount := 0
		for symCount < parakeetMaxSymsPerStep {
			tokenID, durIdx, err := joint.runJoint(encoderFrame, decoderOut)
			if err != nil {
				return nil, fmt.Errorf("transcribe: parakeet joint at frame %d: %w", t, err)
			}

			dur := parakeetDurationBins[clampDurIdx(durIdx)]

			if tokenID == parakeetBlankID {
				if dur == 0 {
					dur = 1 // prevent infinite loop
				}
				t += int(dur)
				break
			}

			// Non-blank: emit a timed token, update decoder state.
			end := dur
			if end == 0 {
				end = 1
			}
			tokens = append(tokens, timedToken{
				id:    tokenID,
				start: float64(t) * parakeetFrameSeconds,
				end:   float64(t+int(end)) * parakeetFrameSeconds,
			})

			decoderOut, hState, cState, err = dec.runDecoder(tokenID, hState, cState)
			if err != nil {
				return nil, fmt.Errorf("transcribe: parakeet decoder at frame %d: %w", t, err)
			}

			if dur > 0 {
				t += int(dur)
				break
			}

			symCount++
		}

		if symCount >= parakeetMaxSymsPerStep {
			t++
		}

		if onProgress != nil && frames > 0 {
			p := float64(t) / float64(frames)
			if p > 1 {
				p = 1
			}
			onProgress(p)
		}
	}

	return tokens, nil
}

// clampDurIdx keeps the duration-bin index inside the table.
func clampDurIdx(idx int32) int32 {
	if idx < 0 {
		return 0
	}
	if int(idx) >= len(parakeetDurationBins) {
		return int32(len(parakeetDurationBins) - 1)
	}
	return idx
}
