//go:build cgo

// MODUL: onnx/register
// ZWECK: Registriert den ONNX Encoder in der globalen Vision Registry
// NEBENEFFEKTE: Registriert "onnx" Factory bei Package-Import
// HINWEISE: Import mit _ "github.com/7blacky7/imagematch/vision/onnx"

package onnx

import (
	"github.com/7blacky7/imagematch/vision"
)

func init() {
	vision.DefaultRegistry.Register("onnx", factory)
}

func factory(spec vision.ModelSpec, modelPath string, opts vision.LoadOptions) (vision.VisionEncoder, error) {
	return NewEncoder(spec, modelPath, opts)
}
