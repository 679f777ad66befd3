// MODUL: formats_test
// ZWECK: Tests fuer Format-Erkennung und Validierung
// INPUT: Test-Bytes mit verschiedenen Signaturen
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing
// HINWEISE: Testet Magic-Byte-Erkennung fuer alle dekodierbaren Formate

package vision

import (
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected ImageFormat
	}{
		{"JPEG Magic Bytes", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, FormatJPEG},
		{"PNG Magic Bytes", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, FormatPNG},
		{"GIF Magic Bytes", []byte("GIF89a"), FormatGIF},
		{"WebP Magic Bytes", []byte{'R', 'I', 'F', 'F', 0, 0, 0, 0, 'W', 'E', 'B', 'P'}, FormatWebP},
		{"RIFF ohne WEBP", []byte{'R', 'I', 'F', 'F', 0, 0, 0, 0, 'W', 'A', 'V', 'E'}, FormatUnknown},
		{"BMP Magic Bytes", []byte{'B', 'M', 0x36, 0x00, 0x00, 0x00}, FormatBMP},
		{"TIFF Little Endian", []byte{'I', 'I', 0x2A, 0x00, 0x08, 0x00}, FormatTIFF},
		{"TIFF Big Endian", []byte{'M', 'M', 0x00, 0x2A, 0x00, 0x08}, FormatTIFF},
		{"Zu kurze Daten", []byte{0xFF, 0xD8}, FormatUnknown},
		{"Unbekanntes Format", []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, FormatUnknown},
		{"Leere Daten", []byte{}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectFormat(tt.data)
			if result != tt.expected {
				t.Errorf("DetectFormat() = %v, erwartet %v", result, tt.expected)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format    ImageFormat
		expectErr bool
	}{
		{FormatJPEG, false},
		{FormatPNG, false},
		{FormatGIF, false},
		{FormatWebP, false},
		{FormatBMP, false},
		{FormatTIFF, false},
		{FormatUnknown, true},
		{ImageFormat("heic"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			err := ValidateFormat(tt.format)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateFormat(%v) error = %v, expectErr %v", tt.format, err, tt.expectErr)
			}
		})
	}
}

func TestImageFormatMimeType(t *testing.T) {
	tests := []struct {
		format   ImageFormat
		expected string
	}{
		{FormatJPEG, "image/jpeg"},
		{FormatPNG, "image/png"},
		{FormatGIF, "image/gif"},
		{FormatWebP, "image/webp"},
		{FormatTIFF, "image/tiff"},
		{FormatUnknown, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := tt.format.MimeType(); got != tt.expected {
				t.Errorf("MimeType() = %v, erwartet %v", got, tt.expected)
			}
		})
	}
}
