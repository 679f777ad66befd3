// MODUL: options
// ZWECK: Functional Options fuer das Laden eines Encoders
// INPUT: Device, Threads
// OUTPUT: LoadOptions
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: keine
// HINWEISE: Default ist CPU mit einem Thread (niedrige Parallelitaet, kein GPU-Batching)

package vision

import (
	"errors"
)

// LoadOptions enthaelt die Konfiguration fuer das Laden eines Encoders.
type LoadOptions struct {
	Device         string // Compute-Backend: "cpu", "cuda"
	Threads        int    // Anzahl CPU-Threads fuer Intra-Op Parallelisierung
	RuntimeLibrary string // Pfad zur onnxruntime Shared Library, leer = Systemsuche
}

// Option ist eine funktionale Option fuer LoadOptions.
type Option func(*LoadOptions)

var (
	ErrInvalidDevice  = errors.New("vision: invalid device")
	ErrInvalidThreads = errors.New("vision: invalid thread count")
)

const (
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// DefaultLoadOptions gibt die Standard-Konfiguration zurueck.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Device:  DeviceCPU,
		Threads: 1,
	}
}

// WithDevice setzt das Compute-Backend.
func WithDevice(device string) Option {
	return func(o *LoadOptions) {
		o.Device = device
	}
}

// WithThreads setzt die Anzahl der CPU-Threads.
// Werte <= 0 werden ignoriert.
func WithThreads(n int) Option {
	return func(o *LoadOptions) {
		if n > 0 {
			o.Threads = n
		}
	}
}

// WithRuntimeLibrary setzt den Pfad zur onnxruntime Shared Library.
func WithRuntimeLibrary(path string) Option {
	return func(o *LoadOptions) {
		o.RuntimeLibrary = path
	}
}

// Apply wendet alle Options auf LoadOptions an.
func (o *LoadOptions) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// Validate prueft ob die LoadOptions gueltig sind.
func (o *LoadOptions) Validate() error {
	switch o.Device {
	case DeviceCPU, DeviceCUDA:
	default:
		return ErrInvalidDevice
	}

	if o.Threads <= 0 {
		return ErrInvalidThreads
	}

	return nil
}
