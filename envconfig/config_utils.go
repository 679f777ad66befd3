// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String/StringWithDefault: String-Getter
// - Duration: Dauer-Getter mit Default-Wert
// - Uint/Uint64: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"time"
)

// =============================================================================
// Boolean-Getter
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// =============================================================================
// String-Getter
// =============================================================================

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// StringWithDefault gibt eine Funktion zurueck, die einen String mit Default-Wert liest
func StringWithDefault(key, defaultValue string) func() string {
	return func() string {
		if s := Var(key); s != "" {
			return s
		}
		return defaultValue
	}
}

// =============================================================================
// Dauer-Getter
// =============================================================================

// Duration gibt eine Funktion zurueck, die eine Dauer liest.
// Akzeptiert "10s" oder eine Zahl in Sekunden; Werte <= 0 ergeben den Default.
func Duration(key string, defaultValue time.Duration) func() time.Duration {
	return func() time.Duration {
		s := Var(key)
		if s == "" {
			return defaultValue
		}

		d, err := time.ParseDuration(s)
		if err != nil {
			n, nerr := strconv.ParseInt(s, 10, 64)
			if nerr != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
				return defaultValue
			}
			d = time.Duration(n) * time.Second
		}

		if d <= 0 {
			return defaultValue
		}
		return d
	}
}

// =============================================================================
// Integer-Getter
// =============================================================================

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Uint64 gibt eine Funktion zurueck, die einen uint64 mit Default-Wert liest
func Uint64(key string, defaultValue uint64) func() uint64 {
	return func() uint64 {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return n
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export-Strukturen und -Funktionen
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	ret := map[string]EnvVar{
		"IMAGEMATCH_DEBUG":             {"IMAGEMATCH_DEBUG", LogLevel(), "Show additional debug information (e.g. IMAGEMATCH_DEBUG=1)"},
		"IMAGEMATCH_HOST":              {"IMAGEMATCH_HOST", Host(), "IP Address for the imagematch server (default 127.0.0.1:8000)"},
		"IMAGEMATCH_ORIGINS":           {"IMAGEMATCH_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"IMAGEMATCH_MODELS":            {"IMAGEMATCH_MODELS", Models(), "The path to the directory with .onnx model files"},
		"IMAGEMATCH_CATALOG":           {"IMAGEMATCH_CATALOG", Catalog(), "The path to the product catalog database"},
		"CLIP_MODEL":                   {"CLIP_MODEL", Model(), "Embedding model variant (default \"ViT-B/32\")"},
		"IMAGEMATCH_DEVICE":            {"IMAGEMATCH_DEVICE", Device(), "Compute device for the embedding model (cpu, cuda)"},
		"IMAGEMATCH_ORT_LIBRARY":       {"IMAGEMATCH_ORT_LIBRARY", RuntimeLibrary(), "Path to the onnxruntime shared library"},
		"IMAGEMATCH_NUM_PARALLEL":      {"IMAGEMATCH_NUM_PARALLEL", NumParallel(), "Number of candidate images processed at once (default 1)"},
		"IMAGEMATCH_NUM_THREADS":       {"IMAGEMATCH_NUM_THREADS", NumThreads(), "CPU threads used by the embedding model (default 1)"},
		"IMAGEMATCH_FETCH_TIMEOUT":     {"IMAGEMATCH_FETCH_TIMEOUT", FetchTimeout(), "Timeout per candidate download (default \"10s\")"},
		"IMAGEMATCH_REFERENCE_TIMEOUT": {"IMAGEMATCH_REFERENCE_TIMEOUT", ReferenceTimeout(), "Timeout for downloading a reference image URL (default \"15s\")"},
		"IMAGEMATCH_PROCESS_TIMEOUT":   {"IMAGEMATCH_PROCESS_TIMEOUT", ProcessTimeout(), "Timeout for a whole catalog match (default \"3m\")"},
		"IMAGEMATCH_MAX_UPLOAD":        {"IMAGEMATCH_MAX_UPLOAD", MaxUpload(), "Maximum size of an uploaded image in bytes (default 5MiB)"},
		"IMAGEMATCH_MAX_FETCH":         {"IMAGEMATCH_MAX_FETCH", MaxFetch(), "Maximum size of a downloaded candidate in bytes (default 20MiB)"},
		"IMAGEMATCH_MAX_PIXELS":        {"IMAGEMATCH_MAX_PIXELS", MaxPixels(), "Maximum width*height of an image before it is decoded (default 178956970)"},
		"IMAGEMATCH_LOW_MEMORY":        {"IMAGEMATCH_LOW_MEMORY", LowMemory(), "Return memory to the OS after every image"},

		// Proxy-Einstellungen
		"HTTP_PROXY":  {"HTTP_PROXY", String("HTTP_PROXY")(), "HTTP proxy"},
		"HTTPS_PROXY": {"HTTPS_PROXY", String("HTTPS_PROXY")(), "HTTPS proxy"},
		"NO_PROXY":    {"NO_PROXY", String("NO_PROXY")(), "No proxy"},
	}

	// Nicht-Windows: Case-sensitive Proxy-Variablen
	if runtime.GOOS != "windows" {
		ret["http_proxy"] = EnvVar{"http_proxy", String("http_proxy")(), "HTTP proxy"}
		ret["https_proxy"] = EnvVar{"https_proxy", String("https_proxy")(), "HTTPS proxy"}
		ret["no_proxy"] = EnvVar{"no_proxy", String("no_proxy")(), "No proxy"}
	}

	return ret
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
