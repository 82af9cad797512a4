//go:build darwin && coreml

package coreml

/*
#cgo darwin CFLAGS: -fobjc-arc -x objective-c
#cgo darwin LDFLAGS: -framework Foundation -framework CoreML
#include "bridge.h"
#include <stdlib.h>
*/
import "C"
import (
	"fmt"
	"unsafe"
)

// DType represents a tensor element type.
type DType int

const (
	DTypeFloat32 DType = C.COREML_DTYPE_FLOAT32
	DTypeFloat16 DType = C.COREML_DTYPE_FLOAT16
	DTypeInt32   DType = C.COREML_DTYPE_INT32
)

// ComputeUnits specifies which compute units models loaded afterwards use.
type ComputeUnits int

const (
	ComputeAll       ComputeUnits = C.COREML_COMPUTE_ALL
	ComputeCPUOnly   ComputeUnits = C.COREML_COMPUTE_CPU_ONLY
	ComputeCPUAndGPU ComputeUnits = C.COREML_COMPUTE_CPU_AND_GPU
	ComputeCPUAndANE ComputeUnits = C.COREML_COMPUTE_CPU_AND_ANE
)

// SetComputeUnits sets the compute units applied to subsequent LoadModel calls.
func SetComputeUnits(units ComputeUnits) {
	C.coreml_set_compute_units(C.CoreMLComputeUnits(units))
}

// Model is a loaded, compiled CoreML model (.mlmodelc).
type Model struct {
	handle C.CoreMLModel
}

// LoadModel loads a compiled CoreML model from path.
func LoadModel(path string) (*Model, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var cErr C.CoreMLError
	handle := C.coreml_model_load(cPath, &cErr)
	if handle == nil {
		return nil, fmt.Errorf("coreml: load %s: %s", path, takeError(&cErr))
	}
	return &Model{handle: handle}, nil
}

// Close releases the model.
func (m *Model) Close() {
	if m.handle != nil {
		C.coreml_model_free(m.handle)
		m.handle = nil
	}
}

// Tensor wraps a CoreML multi-array. Tensors created with NewTensor alias
// Go-owned memory and must be kept alive for the duration of any Predict call
// that uses them.
type Tensor struct {
	handle C.CoreMLTensor
}

// NewTensor creates a tensor of the given shape and dtype over existing data.
// The data is not copied; the caller keeps ownership.
func NewTensor(shape []int64, dtype DType, data unsafe.Pointer) (*Tensor, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("coreml: empty tensor shape")
	}
	var cErr C.CoreMLError
	handle := C.coreml_tensor_new(
		(*C.int64_t)(unsafe.Pointer(&shape[0])),
		C.int(len(shape)),
		C.CoreMLDType(dtype),
		data,
		&cErr,
	)
	if handle == nil {
		return nil, fmt.Errorf("coreml: create tensor: %s", takeError(&cErr))
	}
	return &Tensor{handle: handle}, nil
}

// Close releases the tensor wrapper (not the aliased Go memory).
func (t *Tensor) Close() {
	if t.handle != nil {
		C.coreml_tensor_free(t.handle)
		t.handle = nil
	}
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int { return int(C.coreml_tensor_rank(t.handle)) }

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int64 { return int64(C.coreml_tensor_dim(t.handle, C.int(i))) }

// Shape returns all dimension sizes.
func (t *Tensor) Shape() []int64 {
	shape := make([]int64, t.Rank())
	for i := range shape {
		shape[i] = t.Dim(i)
	}
	return shape
}

// DType returns the element type.
func (t *Tensor) DType() DType { return DType(C.coreml_tensor_dtype(t.handle)) }

// DataPtr returns the raw data pointer. Valid until Close.
func (t *Tensor) DataPtr() unsafe.Pointer { return C.coreml_tensor_data(t.handle) }

// Result holds the named output tensors of one Predict call. The tensors own
// freshly allocated memory and stay valid until Close.
type Result struct {
	Names   []string
	Tensors []*Tensor
}

// Tensor returns the output tensor with the given name, or nil.
func (r *Result) Tensor(name string) *Tensor {
	for i, n := range r.Names {
		if n == name {
			return r.Tensors[i]
		}
	}
	return nil
}

// Close releases all output tensors.
func (r *Result) Close() {
	for _, t := range r.Tensors {
		t.Close()
	}
	r.Tensors = nil
	r.Names = nil
}

// Predict runs the model with inputs bound to the given feature names and
// returns all outputs.
func (m *Model) Predict(names []string, inputs []*Tensor) (*Result, error) {
	if len(names) != len(inputs) {
		return nil, fmt.Errorf("coreml: %d names for %d inputs", len(names), len(inputs))
	}

	cNames := make([]*C.char, len(names))
	for i, n := range names {
		cNames[i] = C.CString(n)
	}
	defer func() {
		for _, cn := range cNames {
			C.free(unsafe.Pointer(cn))
		}
	}()

	cInputs := make([]C.CoreMLTensor, len(inputs))
	for i, t := range inputs {
		cInputs[i] = t.handle
	}

	var (
		outNames   **C.char
		outTensors *C.CoreMLTensor
		cErr       C.CoreMLError
	)
	var namesPtr **C.char
	var inputsPtr *C.CoreMLTensor
	if len(inputs) > 0 {
		namesPtr = &cNames[0]
		inputsPtr = &cInputs[0]
	}

	count := C.coreml_model_predict(m.handle, namesPtr, inputsPtr, C.int(len(inputs)), &outNames, &outTensors, &cErr)
	if count < 0 {
		return nil, fmt.Errorf("coreml: predict: %s", takeError(&cErr))
	}

	n := int(count)
	result := &Result{
		Names:   make([]string, n),
		Tensors: make([]*Tensor, n),
	}
	nameSlice := unsafe.Slice(outNames, n)
	tensorSlice := unsafe.Slice(outTensors, n)
	for i := 0; i < n; i++ {
		result.Names[i] = C.GoString(nameSlice[i])
		result.Tensors[i] = &Tensor{handle: tensorSlice[i]}
	}
	// The arrays themselves are bridge-allocated; the tensors are now owned
	// by the Result.
	C.coreml_result_free_arrays(outNames, outTensors, count)

	return result, nil
}

// takeError converts a bridge error to a string and frees its message.
func takeError(cErr *C.CoreMLError) string {
	if cErr == nil || cErr.message == nil {
		return "unknown error"
	}
	msg := C.GoString(cErr.message)
	C.free(unsafe.Pointer(cErr.message))
	cErr.message = nil
	return msg
}
