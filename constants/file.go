package constants

import (
	"path/filepath"
	"strings"
)

// Format is the dispatch tag derived from a document's file suffix.
type Format string

const (
	PDF         Format = "PDF"
	IMAGE       Format = "IMAGE"
	UNSUPPORTED Format = "UNSUPPORTED"
)

// ImageExtensions holds the raster suffixes routed to OCR.
var ImageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"bmp":  {},
	"tif":  {},
	"tiff": {},
}

// HEICExtensions are only routed to OCR when HEIC decoding is enabled.
var HEICExtensions = map[string]struct{}{
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat maps a (normalized or raw) extension to its Format.
func MapExtToFormat(ext string) Format {
	ext = NormalizeExt(ext)
	if ext == "pdf" {
		return PDF
	}
	if _, ok := ImageExtensions[ext]; ok {
		return IMAGE
	}
	return UNSUPPORTED
}

// FormatFromName derives the Format from a file name suffix, case-insensitively.
func FormatFromName(name string) Format {
	return MapExtToFormat(filepath.Ext(name))
}

// IsHEICExt reports whether ext names a HEIC/HEIF container.
func IsHEICExt(ext string) bool {
	_, ok := HEICExtensions[NormalizeExt(ext)]
	return ok
}
