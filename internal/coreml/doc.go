// Package coreml provides a thin cgo bridge to CoreML model inference,
// exposing just enough surface for the parakeet model chain: model loading,
// tensor construction over Go-owned memory, and named-output prediction.
//
// The bridge is only available on darwin with the coreml build tag; on other
// platforms the package compiles to documentation only and the parakeet
// backend reports itself unavailable.
package coreml
