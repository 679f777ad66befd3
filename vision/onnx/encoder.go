//go:build cgo

// MODUL: onnx/encoder
// ZWECK: CLIP Vision Encoder (ONNX-Export) mit VisionEncoder Interface
// INPUT: Modell-Pfad (.onnx), NormalizedImage, LoadOptions
// OUTPUT: Roh-Embedding ([]float32), unnormalisiert
// NEBENEFFEKTE: Laedt ONNX Runtime Session
// ABHAENGIGKEITEN: session.go, vision (PadToSquare, ToCHWTensor)
// HINWEISE: Letterbox auf die Modell-Kantenlaenge passiert hier, nicht im Normalizer

package onnx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/7blacky7/imagematch/vision"
)

const (
	// DefaultInputName ist der Input-Tensor Name von CLIPVisionModelWithProjection Exporten
	DefaultInputName = "pixel_values"

	// DefaultOutputName ist der Output-Tensor Name von CLIPVisionModelWithProjection Exporten
	DefaultOutputName = "image_embeds"
)

var (
	ErrSessionCreate = errors.New("onnx: session create failed")
	ErrInference     = errors.New("onnx: inference failed")
	ErrAlreadyClosed = errors.New("onnx: encoder already closed")
	ErrInvalidInput  = errors.New("onnx: invalid input")
)

// Encoder implementiert vision.VisionEncoder mit ONNX Runtime.
type Encoder struct {
	session *Session
	spec    vision.ModelSpec
	info    vision.ModelInfo
	closed  bool
	mu      sync.RWMutex
}

// NewEncoder laedt das Modell unter modelPath.
func NewEncoder(spec vision.ModelSpec, modelPath string, opts vision.LoadOptions) (*Encoder, error) {
	session, err := CreateSession(modelPath, SessionOptions{
		InputName:   DefaultInputName,
		OutputName:  DefaultOutputName,
		NumThreads:  opts.Threads,
		UseGPU:      opts.Device == vision.DeviceCUDA,
		LibraryPath: opts.RuntimeLibrary,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionCreate, err)
	}

	return &Encoder{
		session: session,
		spec:    spec,
		info: vision.ModelInfo{
			Name:         spec.Name,
			Type:         "onnx",
			EmbeddingDim: session.EmbeddingDim(spec.EmbeddingDim),
			ImageSize:    session.ImageSize(spec.ImageSize),
		},
	}, nil
}

// Encode fuehrt Letterbox, CHW-Normalisierung und Inferenz aus.
func (e *Encoder) Encode(img *vision.NormalizedImage) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, ErrAlreadyClosed
	}
	if img.Released() {
		return nil, ErrInvalidInput
	}

	size := e.info.ImageSize
	square := vision.PadToSquare(img.Image, size, vision.MeanColor(e.spec.Mean))
	input := vision.ToCHWTensor(square, e.spec.Mean, e.spec.Std)

	out, err := e.session.RunInference(input, size, e.info.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	return out, nil
}

// Close gibt alle Ressourcen frei
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	e.session.Destroy()
	e.closed = true
	return nil
}

// ModelInfo gibt Metadaten ueber das Modell zurueck
func (e *Encoder) ModelInfo() vision.ModelInfo {
	return e.info
}
