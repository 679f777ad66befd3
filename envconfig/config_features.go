// config_features.go - Modell, Parallelitaet und Limits
//
// Dieses Modul enthaelt:
// - Modell-Auswahl (CLIP_MODEL) und Runtime-Einstellungen
// - Parallelitaets-Einstellungen
// - Groessenlimits und Speicher-Verhalten
package envconfig

import "github.com/7blacky7/imagematch/vision"

// =============================================================================
// Modell-Konfiguration
// =============================================================================

var (
	// Device waehlt das Compute-Backend des Orakels ("cpu" oder "cuda")
	Device = StringWithDefault("IMAGEMATCH_DEVICE", vision.DeviceCPU)

	// RuntimeLibrary ist der Pfad zur onnxruntime Shared Library
	RuntimeLibrary = String("IMAGEMATCH_ORT_LIBRARY")
)

// Model gibt die Modell-Variante zurueck
// Konfigurierbar via CLIP_MODEL
// Default: ViT-B/32
func Model() string {
	if s := Var("CLIP_MODEL"); s != "" {
		return s
	}
	return vision.DefaultModel
}

// =============================================================================
// Parallelitaets-Einstellungen
// =============================================================================

var (
	// NumParallel setzt die Anzahl gleichzeitig verarbeiteter Kandidaten
	// Konfigurierbar via IMAGEMATCH_NUM_PARALLEL, 1 = streng sequentiell
	NumParallel = Uint("IMAGEMATCH_NUM_PARALLEL", 1)

	// NumThreads setzt die CPU-Threads des Orakels
	// Konfigurierbar via IMAGEMATCH_NUM_THREADS
	NumThreads = Uint("IMAGEMATCH_NUM_THREADS", 1)
)

// =============================================================================
// Limits und Speicher
// =============================================================================

var (
	// MaxUpload begrenzt hochgeladene Referenzbilder (Bytes)
	MaxUpload = Uint64("IMAGEMATCH_MAX_UPLOAD", 5<<20)

	// MaxFetch begrenzt abgerufene Kandidaten (Bytes)
	MaxFetch = Uint64("IMAGEMATCH_MAX_FETCH", 20<<20)

	// MaxPixels begrenzt Breite*Hoehe eines Bildes vor dem Dekodieren
	MaxPixels = Uint64("IMAGEMATCH_MAX_PIXELS", vision.DefaultMaxPixels)

	// LowMemory gibt nach jedem Bild Speicher an das OS zurueck
	LowMemory = Bool("IMAGEMATCH_LOW_MEMORY")
)
