package imageio

import (
	"fmt"
	"image"

	"github.com/spf13/afero"
)

// Load decodes an image in any of the supported formats.
func Load(fs afero.Fs, path string) (image.Image, string, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, format, nil
}
