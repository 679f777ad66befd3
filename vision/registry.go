// Package vision - Encoder Registry fuer austauschbare Embedding-Backends.
//
// MODUL: registry
// ZWECK: Zentrale Registry fuer Encoder-Factories ("onnx", "histogram", ...)
// INPUT: Backend-Name, EncoderFactory
// OUTPUT: Registrierte Factories, erzeugte Encoder
// NEBENEFFEKTE: Keine (rein speicherbasiert)
// ABHAENGIGKEITEN: sync (stdlib), factory.go (EncoderFactory, VisionEncoder)
// HINWEISE: Backends registrieren sich via init() in ihren Packages
package vision

import (
	"errors"
	"slices"
	"sync"
)

// ErrEncoderNotRegistered wird zurueckgegeben wenn ein Backend nicht registriert ist.
var ErrEncoderNotRegistered = errors.New("vision: encoder not registered")

// RegistryError repraesentiert einen Registry-spezifischen Fehler.
type RegistryError struct {
	Op   string // Operation (z.B. "create")
	Name string // Backend-Name
	Err  error  // Urspruenglicher Fehler
}

// Error implementiert das error Interface.
func (e *RegistryError) Error() string {
	return "vision: " + e.Op + " encoder '" + e.Name + "': " + e.Err.Error()
}

// Unwrap gibt den urspruenglichen Fehler zurueck.
func (e *RegistryError) Unwrap() error {
	return e.Err
}

// ============================================================================
// Registry
// ============================================================================

// Registry verwaltet registrierte Encoder-Factories.
// Thread-sicher durch RWMutex.
type Registry struct {
	encoders map[string]EncoderFactory
	mu       sync.RWMutex
}

// NewRegistry erstellt eine neue leere Registry.
func NewRegistry() *Registry {
	return &Registry{
		encoders: make(map[string]EncoderFactory),
	}
}

// DefaultRegistry ist die globale Registry, in die sich Backends via init() eintragen.
var DefaultRegistry = NewRegistry()

// Register registriert eine Factory unter dem angegebenen Backend-Namen.
// Ueberschreibt existierende Eintraege ohne Warnung.
func (r *Registry) Register(name string, factory EncoderFactory) {
	if factory == nil {
		panic("vision: nil factory for encoder '" + name + "'")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoders[name] = factory
}

// Get gibt die Factory fuer den angegebenen Namen zurueck.
func (r *Registry) Get(name string) (EncoderFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.encoders[name]
	return factory, exists
}

// List gibt alle registrierten Backend-Namen sortiert zurueck.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.encoders))
	for name := range r.encoders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Create erstellt einen Encoder fuer spec mit der registrierten Factory seines Backends.
func (r *Registry) Create(spec ModelSpec, modelPath string, opts LoadOptions) (VisionEncoder, error) {
	factory, exists := r.Get(spec.Backend)
	if !exists {
		return nil, &RegistryError{
			Op:   "create",
			Name: spec.Backend,
			Err:  ErrEncoderNotRegistered,
		}
	}

	return factory(spec, modelPath, opts)
}
