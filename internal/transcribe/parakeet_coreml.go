//go:build darwin && coreml

package transcribe

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/qazi0/OpenSuperWhisper/internal/coreml"
)

// coremlRunners backs the parakeet runner interfaces with the four-model
// CoreML chain: Preprocessor (audio -> mel), Encoder, Decoder (prediction
// LSTM) and JointDecision.
type coremlRunners struct {
	preprocessor *coreml.Model
	encoder      *coreml.Model
	decoder      *coreml.Model
	joint        *coreml.Model
}

// newParakeetRunners loads the CoreML model chain from modelDir.
func newParakeetRunners(modelDir string) (encodeRunner, decoderRunner, jointRunner, func() error, error) {
	// Mel extraction is faster on CPU; the networks prefer the ANE.
	coreml.SetComputeUnits(coreml.ComputeCPUOnly)
	preprocessor, err := coreml.LoadModel(modelDir + "/Preprocessor.mlmodelc")
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load preprocessor: %w", err)
	}

	coreml.SetComputeUnits(coreml.ComputeAll)
	encoder, err := coreml.LoadModel(modelDir + "/Encoder.mlmodelc")
	if err != nil {
		preprocessor.Close()
		return nil, nil, nil, nil, fmt.Errorf("load encoder: %w", err)
	}

	decoder, err := coreml.LoadModel(modelDir + "/Decoder.mlmodelc")
	if err != nil {
		preprocessor.Close()
		encoder.Close()
		return nil, nil, nil, nil, fmt.Errorf("load decoder: %w", err)
	}

	joint, err := coreml.LoadModel(modelDir + "/JointDecision.mlmodelc")
	if err != nil {
		preprocessor.Close()
		encoder.Close()
		decoder.Close()
		return nil, nil, nil, nil, fmt.Errorf("load joint: %w", err)
	}

	r := &coremlRunners{
		preprocessor: preprocessor,
		encoder:      encoder,
		decoder:      decoder,
		joint:        joint,
	}
	return r, r, r, r.closeAll, nil
}

func (r *coremlRunners) closeAll() error {
	r.preprocessor.Close()
	r.encoder.Close()
	r.decoder.Close()
	r.joint.Close()
	return nil
}

// runEncode feeds raw audio through Preprocessor and Encoder and returns the
// hidden states transposed to [frames, parakeetEncoderHidden] flattened.
func (r *coremlRunners) runEncode(audio []float32) ([]float32, int, error) {
	audioTensor, err := coreml.NewTensor([]int64{1, int64(len(audio))}, coreml.DTypeFloat32, unsafe.Pointer(&audio[0]))
	if err != nil {
		return nil, 0, fmt.Errorf("create audio tensor: %w", err)
	}
	defer audioTensor.Close()

	audioLen := []int32{int32(len(audio))}
	audioLenTensor, err := coreml.NewTensor([]int64{1}, coreml.DTypeInt32, unsafe.Pointer(&audioLen[0]))
	if err != nil {
		return nil, 0, fmt.Errorf("create audio_length tensor: %w", err)
	}
	defer audioLenTensor.Close()

	prep, err := r.preprocessor.Predict(
		[]string{"audio_length", "audio_signal"},
		[]*coreml.Tensor{audioLenTensor, audioTensor},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("preprocessor predict: %w", err)
	}
	defer prep.Close()

	enc, err := r.encoder.Predict(prep.Names, prep.Tensors)
	if err != nil {
		return nil, 0, fmt.Errorf("encoder predict: %w", err)
	}
	defer enc.Close()

	encoderTensor := enc.Tensor("encoder")
	if encoderTensor == nil {
		return nil, 0, fmt.Errorf("no 'encoder' output tensor (got %v)", enc.Names)
	}
	if encoderTensor.Rank() != 3 {
		return nil, 0, fmt.Errorf("encoder output has rank %d, expected 3", encoderTensor.Rank())
	}

	// Encoder output shape is [1, H, T]; the decode loop indexes by frame, so
	// transpose to [T, H].
	h := int(encoderTensor.Dim(1))
	t := int(encoderTensor.Dim(2))

	frames := t
	if lengthTensor := enc.Tensor("encoder_length"); lengthTensor != nil && lengthTensor.DType() == coreml.DTypeInt32 {
		frames = int(*(*int32)(lengthTensor.DataPtr()))
	}

	total := h * t
	out := make([]float32, total)
	if encoderTensor.DType() == coreml.DTypeFloat16 {
		src := unsafe.Slice((*uint16)(encoderTensor.DataPtr()), total)
		for hi := 0; hi < h; hi++ {
			for ti := 0; ti < t; ti++ {
				out[ti*h+hi] = float16To32(src[hi*t+ti])
			}
		}
	} else {
		src := unsafe.Slice((*float32)(encoderTensor.DataPtr()), total)
		for hi := 0; hi < h; hi++ {
			for ti := 0; ti < t; ti++ {
				out[ti*h+hi] = src[hi*t+ti]
			}
		}
	}

	return out, frames, nil
}

// runDecoder runs the prediction-network LSTM for one step.
func (r *coremlRunners) runDecoder(targetID int32, hIn, cIn []float32) ([]float32, []float32, []float32, error) {
	targets := []int32{targetID}
	targetsTensor, err := coreml.NewTensor([]int64{1, 1}, coreml.DTypeInt32, unsafe.Pointer(&targets[0]))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create targets tensor: %w", err)
	}
	defer targetsTensor.Close()

	targetLen := []int32{1}
	targetLenTensor, err := coreml.NewTensor([]int64{1}, coreml.DTypeInt32, unsafe.Pointer(&targetLen[0]))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create target_length tensor: %w", err)
	}
	defer targetLenTensor.Close()

	stateShape := []int64{parakeetLSTMLayers, 1, parakeetDecoderHidden}
	hInTensor, err := coreml.NewTensor(stateShape, coreml.DTypeFloat32, unsafe.Pointer(&hIn[0]))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create h_in tensor: %w", err)
	}
	defer hInTensor.Close()

	cInTensor, err := coreml.NewTensor(stateShape, coreml.DTypeFloat32, unsafe.Pointer(&cIn[0]))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create c_in tensor: %w", err)
	}
	defer cInTensor.Close()

	result, err := r.decoder.Predict(
		[]string{"c_in", "h_in", "target_length", "targets"},
		[]*coreml.Tensor{cInTensor, hInTensor, targetLenTensor, targetsTensor},
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decoder predict: %w", err)
	}
	defer result.Close()

	decTensor := result.Tensor("decoder")
	hOutTensor := result.Tensor("h_out")
	cOutTensor := result.Tensor("c_out")
	if decTensor == nil || hOutTensor == nil || cOutTensor == nil {
		return nil, nil, nil, fmt.Errorf("missing decoder outputs (got %v)", result.Names)
	}

	stateSize := parakeetLSTMLayers * 1 * parakeetDecoderHidden
	return copyFloats(decTensor, parakeetDecoderHidden),
		copyFloats(hOutTensor, stateSize),
		copyFloats(cOutTensor, stateSize),
		nil
}

// runJoint runs the joint decision network for one step.
func (r *coremlRunners) runJoint(encoderStep, decoderStep []float32) (int32, int32, error) {
	encStep := make([]float32, parakeetEncoderHidden)
	copy(encStep, encoderStep)
	encTensor, err := coreml.NewTensor([]int64{1, parakeetEncoderHidden, 1}, coreml.DTypeFloat32, unsafe.Pointer(&encStep[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("create encoder_step tensor: %w", err)
	}
	defer encTensor.Close()

	decStep := make([]float32, parakeetDecoderHidden)
	copy(decStep, decoderStep)
	decTensor, err := coreml.NewTensor([]int64{1, parakeetDecoderHidden, 1}, coreml.DTypeFloat32, unsafe.Pointer(&decStep[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("create decoder_step tensor: %w", err)
	}
	defer decTensor.Close()

	result, err := r.joint.Predict(
		[]string{"decoder_step", "encoder_step"},
		[]*coreml.Tensor{decTensor, encTensor},
	)
	if err != nil {
		return 0, 0, fmt.Errorf("joint predict: %w", err)
	}
	defer result.Close()

	tokenTensor := result.Tensor("token_id")
	durTensor := result.Tensor("duration")
	if tokenTensor == nil || durTensor == nil {
		return 0, 0, fmt.Errorf("missing joint outputs (got %v)", result.Names)
	}

	tokenID := *(*int32)(tokenTensor.DataPtr())
	durIdx := *(*int32)(durTensor.DataPtr())
	return tokenID, durIdx, nil
}

// copyFloats copies n float32 values out of a tensor, converting from float16
// when needed.
func copyFloats(t *coreml.Tensor, n int) []float32 {
	out := make([]float32, n)
	if t.DType() == coreml.DTypeFloat16 {
		src := unsafe.Slice((*uint16)(t.DataPtr()), n)
		for i, v := range src {
			out[i] = float16To32(v)
		}
	} else {
		src := unsafe.Slice((*float32)(t.DataPtr()), n)
		copy(out, src)
	}
	return out
}

// float16To32 converts an IEEE 754 half-precision float to float32.
func float16To32(h uint16) float32 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff

	var f uint32
	switch exp {
	case 0:
		if frac == 0 {
			f = sign << 31
		} else {
			exp = 1
			for frac&0x400 == 0 {
				frac <<= 1
				exp--
			}
			frac &= 0x3ff
			f = (sign << 31) | ((exp + 127 - 15) << 23) | (frac << 13)
		}
	case 0x1f:
		f = (sign << 31) | (0xff << 23) | (frac << 13)
	default:
		f = (sign << 31) | ((exp + 127 - 15) << 23) | (frac << 13)
	}

	return math.Float32frombits(f)
}
