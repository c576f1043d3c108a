package imageio

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is a lossless raster output format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
	FormatBMP  Format = "bmp"
)

// FormatFromPath picks the output format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return FormatPNG, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	case ".bmp":
		return FormatBMP, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want .png, .tif, .tiff or .bmp)", ext)
	}
}

// ParsePNGCompression maps a compression name to a png level.
func ParsePNGCompression(name string) (png.CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	default:
		return 0, fmt.Errorf("invalid png compression %q: must be default, speed, best or none", name)
	}
}

// Encoder writes images in a fixed format.
type Encoder struct {
	Format         Format
	PNGCompression png.CompressionLevel
}

// Encode writes img to w.
func (e Encoder) Encode(w io.Writer, img image.Image) error {
	switch e.Format {
	case FormatPNG, "":
		enc := png.Encoder{CompressionLevel: e.PNGCompression}
		return enc.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatBMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported output format %q", e.Format)
	}
}

// Save encodes img into path on fs, creating parent directories.
func (e Encoder) Save(fs afero.Fs, path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	file, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image %s: %w", path, err)
	}

	if err := e.Encode(file, img); err != nil {
		file.Close() // nolint:errcheck
		return fmt.Errorf("failed to encode image %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close image %s: %w", path, err)
	}
	return nil
}

// SaveFile encodes img to path, choosing the format from its extension.
func SaveFile(fs afero.Fs, path string, img image.Image, compression png.CompressionLevel) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return Encoder{Format: format, PNGCompression: compression}.Save(fs, path, img)
}
