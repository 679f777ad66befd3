package envconfig

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestHost(t *testing.T) {
	cases := map[string]struct {
		value  string
		expect string
	}{
		"empty":               {"", "http://127.0.0.1:8000"},
		"only address":        {"1.2.3.4", "http://1.2.3.4:8000"},
		"only port":           {":1234", "http://:1234"},
		"address and port":    {"1.2.3.4:1234", "http://1.2.3.4:1234"},
		"hostname":            {"example.com", "http://example.com:8000"},
		"hostname and port":   {"example.com:1234", "http://example.com:1234"},
		"zero port":           {":0", "http://:0"},
		"too large port":      {":66000", "http://:8000"},
		"too small port":      {":-1", "http://:8000"},
		"ipv6 localhost":      {"[::1]", "http://[::1]:8000"},
		"ipv6 with port":      {"[::1]:1337", "http://[::1]:1337"},
		"http scheme":         {"http://1.2.3.4", "http://1.2.3.4:80"},
		"https scheme":        {"https://1.2.3.4", "https://1.2.3.4:443"},
		"https with port":     {"https://1.2.3.4:8443", "https://1.2.3.4:8443"},
		"path":                {"https://example.com/imagematch", "https://example.com:443/imagematch"},
		"quoted":              {`"1.2.3.4:1234"`, "http://1.2.3.4:1234"},
		"leading whitespaces": {"   1.2.3.4:1234", "http://1.2.3.4:1234"},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("IMAGEMATCH_HOST", tt.value)
			if host := Host(); host.String() != tt.expect {
				t.Errorf("%s: expected %s, got %s", name, tt.expect, host.String())
			}
		})
	}
}

func TestOrigins(t *testing.T) {
	t.Setenv("IMAGEMATCH_ORIGINS", "https://shop.example.com,http://10.0.0.1")

	got := AllowedOrigins()
	want := []string{
		"https://shop.example.com",
		"http://10.0.0.1",
		"http://localhost",
		"https://localhost",
		"http://localhost:*",
		"https://localhost:*",
		"http://127.0.0.1",
		"https://127.0.0.1",
		"http://127.0.0.1:*",
		"https://127.0.0.1:*",
		"http://0.0.0.0",
		"https://0.0.0.0",
		"http://0.0.0.0:*",
		"https://0.0.0.0:*",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("%s", diff)
	}
}

func TestDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"":        10 * time.Second,
		"2s":      2 * time.Second,
		"1m30s":   90 * time.Second,
		"5":       5 * time.Second,
		"0":       10 * time.Second,
		"-3s":     10 * time.Second,
		"garbage": 10 * time.Second,
	}

	for value, expect := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("IMAGEMATCH_FETCH_TIMEOUT", value)
			if got := FetchTimeout(); got != expect {
				t.Errorf("%q: expected %v, got %v", value, expect, got)
			}
		})
	}
}

func TestUint(t *testing.T) {
	cases := map[string]uint{
		"":     1,
		"4":    4,
		"-1":   1,
		"four": 1,
	}

	for value, expect := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("IMAGEMATCH_NUM_PARALLEL", value)
			if got := NumParallel(); got != expect {
				t.Errorf("%q: expected %d, got %d", value, expect, got)
			}
		})
	}
}

func TestBool(t *testing.T) {
	cases := map[string]bool{
		"":      false,
		"true":  true,
		"false": false,
		"1":     true,
		"0":     false,
		"yes":   true, // unparsbare Werte gelten als gesetzt
	}

	for value, expect := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("IMAGEMATCH_LOW_MEMORY", value)
			if got := LowMemory(); got != expect {
				t.Errorf("%q: expected %t, got %t", value, expect, got)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"false": slog.LevelInfo,
		"t":     slog.LevelDebug,
		"1":     slog.LevelDebug,
		"2":     slog.Level(-8),
	}

	for value, expect := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("IMAGEMATCH_DEBUG", value)
			if got := LogLevel(); got != expect {
				t.Errorf("%q: expected %v, got %v", value, expect, got)
			}
		})
	}
}

func TestModelAndPaths(t *testing.T) {
	t.Setenv("CLIP_MODEL", "")
	if got := Model(); got != "ViT-B/32" {
		t.Errorf("expected default model ViT-B/32, got %s", got)
	}

	t.Setenv("CLIP_MODEL", "ViT-L/14")
	if got := Model(); got != "ViT-L/14" {
		t.Errorf("expected ViT-L/14, got %s", got)
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("IMAGEMATCH_CATALOG", "")
	if got, want := Catalog(), filepath.Join(home, ".imagematch", "catalog.db"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	t.Setenv("IMAGEMATCH_MODELS", "/opt/models")
	if got := Models(); got != "/opt/models" {
		t.Errorf("expected /opt/models, got %s", got)
	}
}

func TestMaxUploadDefault(t *testing.T) {
	t.Setenv("IMAGEMATCH_MAX_UPLOAD", "")
	if got := MaxUpload(); got != 5*1024*1024 {
		t.Errorf("expected 5MiB, got %d", got)
	}
}

func TestMaxPixels(t *testing.T) {
	t.Setenv("IMAGEMATCH_MAX_PIXELS", "")
	if got := MaxPixels(); got != 2*89478485 {
		t.Errorf("expected 178956970, got %d", got)
	}

	t.Setenv("IMAGEMATCH_MAX_PIXELS", "1000000")
	if got := MaxPixels(); got != 1000000 {
		t.Errorf("expected 1000000, got %d", got)
	}
}

func TestValues(t *testing.T) {
	vals := Values()
	for _, key := range []string{"IMAGEMATCH_HOST", "CLIP_MODEL", "IMAGEMATCH_NUM_PARALLEL"} {
		if _, ok := vals[key]; !ok {
			t.Errorf("missing %s in Values()", key)
		}
	}
}
