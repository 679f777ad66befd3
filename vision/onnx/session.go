//go:build cgo

// MODUL: onnx/session
// ZWECK: ONNX Runtime Session Management - Erstellen, Konfigurieren, Ausfuehren
// INPUT: Modell-Pfad (.onnx), Session-Optionen, Input-Tensoren
// OUTPUT: Session-Handle, Output-Vektor
// NEBENEFFEKTE: Alloziert ONNX Runtime Ressourcen
// ABHAENGIGKEITEN: github.com/yalue/onnxruntime_go
// HINWEISE: Reine Inferenz, keine Gradienten; Destroy() MUSS aufgerufen werden

package onnx

import (
	"fmt"
	"strconv"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ============================================================================
// Runtime Initialisierung (Singleton)
// ============================================================================

var (
	runtimeInitOnce sync.Once
	runtimeInitErr  error
)

// InitRuntime initialisiert die ONNX Runtime einmalig pro Prozess.
func InitRuntime(libraryPath string) error {
	runtimeInitOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		runtimeInitErr = ort.InitializeEnvironment()
	})
	return runtimeInitErr
}

// ============================================================================
// Session
// ============================================================================

// Session verwaltet eine ONNX Runtime Inference Session.
type Session struct {
	inner      *ort.DynamicAdvancedSession
	inputShape ort.Shape // aus der Modell-Datei gelesen [N, C, H, W]
	outputDim  int64     // letzte Output-Dimension, -1 wenn dynamisch
}

// SessionOptions konfiguriert die ONNX Session
type SessionOptions struct {
	InputName   string
	OutputName  string
	NumThreads  int
	UseGPU      bool
	GPUDeviceID int
	LibraryPath string
}

// CreateSession erstellt eine neue ONNX Inference Session.
func CreateSession(modelPath string, opts SessionOptions) (*Session, error) {
	if err := InitRuntime(opts.LibraryPath); err != nil {
		return nil, fmt.Errorf("runtime init: %w", err)
	}

	sessOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer sessOpts.Destroy()

	if opts.NumThreads > 0 {
		if err := sessOpts.SetIntraOpNumThreads(opts.NumThreads); err != nil {
			return nil, fmt.Errorf("intra-op threads: %w", err)
		}
		if err := sessOpts.SetInterOpNumThreads(1); err != nil {
			return nil, fmt.Errorf("inter-op threads: %w", err)
		}
	}

	if opts.UseGPU {
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err == nil {
			_ = cudaOpts.Update(map[string]string{
				"device_id": strconv.Itoa(opts.GPUDeviceID),
			})
			_ = sessOpts.AppendExecutionProviderCUDA(cudaOpts)
			cudaOpts.Destroy()
		}
		// Bei Fehler: Fallback auf CPU
	}

	inner, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{opts.InputName},
		[]string{opts.OutputName},
		sessOpts,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sess := &Session{inner: inner, outputDim: -1}

	if inputs, outputs, err := ort.GetInputOutputInfo(modelPath); err == nil {
		for _, info := range inputs {
			if info.Name == opts.InputName && len(info.Dimensions) >= 4 {
				sess.inputShape = info.Dimensions
			}
		}
		for _, info := range outputs {
			if info.Name == opts.OutputName && len(info.Dimensions) > 0 {
				sess.outputDim = info.Dimensions[len(info.Dimensions)-1]
			}
		}
	}

	return sess, nil
}

// ImageSize gibt die Kantenlaenge aus der Input-Shape zurueck, fallback wenn dynamisch.
func (s *Session) ImageSize(fallback int) int {
	if len(s.inputShape) >= 4 {
		if h := s.inputShape[2]; h > 0 && h <= 1024 {
			return int(h)
		}
	}
	return fallback
}

// EmbeddingDim gibt die Output-Dimension zurueck, fallback wenn dynamisch.
func (s *Session) EmbeddingDim(fallback int) int {
	if s.outputDim > 0 {
		return int(s.outputDim)
	}
	return fallback
}

// RunInference fuehrt Inference auf einem [1, 3, size, size] Tensor aus.
func (s *Session) RunInference(input []float32, size, embeddingDim int) ([]float32, error) {
	if len(input) != 3*size*size {
		return nil, fmt.Errorf("input tensor has %d values, want %d", len(input), 3*size*size)
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, 3, int64(size), int64(size)), input)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(embeddingDim)))
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := s.inner.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	result := make([]float32, embeddingDim)
	copy(result, outputTensor.GetData())
	return result, nil
}

// Destroy gibt alle Session-Ressourcen frei
func (s *Session) Destroy() {
	if s.inner != nil {
		s.inner.Destroy()
		s.inner = nil
	}
}
