// config.go - Haupt-Konfigurationsfunktionen fuer imagematch
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host zurueck (IMAGEMATCH_HOST)
// - AllowedOrigins: Gibt erlaubte Origins zurueck (IMAGEMATCH_ORIGINS)
// - Models: Gibt Modell-Verzeichnis zurueck (IMAGEMATCH_MODELS)
// - Catalog: Gibt Pfad der Katalog-Datenbank zurueck (IMAGEMATCH_CATALOG)
// - FetchTimeout/ReferenceTimeout/ProcessTimeout: Zeitlimits
// - LogLevel: Gibt Log-Level zurueck (IMAGEMATCH_DEBUG)
//
// Weitere Konfigurationen sind ausgelagert:
// - config_features.go: Modell, Parallelitaet, Limits
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Host gibt Scheme und Host zurueck
// Konfigurierbar via IMAGEMATCH_HOST
// Default: http://127.0.0.1:8000
func Host() *url.URL {
	defaultPort := "8000"

	s := strings.TrimSpace(Var("IMAGEMATCH_HOST"))
	scheme, hostport, ok := strings.Cut(s, "://")
	switch {
	case !ok:
		scheme, hostport = "http", s
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   path,
	}
}

// AllowedOrigins gibt erlaubte Origins zurueck
// Konfigurierbar via IMAGEMATCH_ORIGINS (komma-separiert)
// Enthaelt Standard-Origins fuer localhost
func AllowedOrigins() (origins []string) {
	if s := Var("IMAGEMATCH_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	return origins
}

// home gibt das Basisverzeichnis $HOME/.imagematch zurueck
func home() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(dir, ".imagematch")
}

// Models gibt das Verzeichnis mit den .onnx Dateien zurueck
// Konfigurierbar via IMAGEMATCH_MODELS
// Default: $HOME/.imagematch/models
func Models() string {
	if s := Var("IMAGEMATCH_MODELS"); s != "" {
		return s
	}
	return filepath.Join(home(), "models")
}

// Catalog gibt den Pfad der Katalog-Datenbank zurueck
// Konfigurierbar via IMAGEMATCH_CATALOG
// Default: $HOME/.imagematch/catalog.db
func Catalog() string {
	if s := Var("IMAGEMATCH_CATALOG"); s != "" {
		return s
	}
	return filepath.Join(home(), "catalog.db")
}

// FetchTimeout ist das Zeitlimit pro Kandidaten-Abruf
// Konfigurierbar via IMAGEMATCH_FETCH_TIMEOUT ("10s" oder Sekunden)
// Default: 10 Sekunden
var FetchTimeout = Duration("IMAGEMATCH_FETCH_TIMEOUT", 10*time.Second)

// ReferenceTimeout ist das Zeitlimit fuer das Laden eines Referenzbilds per URL
// Konfigurierbar via IMAGEMATCH_REFERENCE_TIMEOUT
// Default: 15 Sekunden
var ReferenceTimeout = Duration("IMAGEMATCH_REFERENCE_TIMEOUT", 15*time.Second)

// ProcessTimeout begrenzt die Gesamtdauer eines Katalog-Abgleichs
// Konfigurierbar via IMAGEMATCH_PROCESS_TIMEOUT
// Default: 3 Minuten
var ProcessTimeout = Duration("IMAGEMATCH_PROCESS_TIMEOUT", 3*time.Minute)

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via IMAGEMATCH_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("IMAGEMATCH_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
