package variants

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// sniffLen is the amount of data filetype needs to recognize any format it knows.
const sniffLen = 262

var ErrNotImage = errors.New("not an image")

// ProbeWidth reads image header and returns image width in pixels.
func ProbeWidth(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(sniffLen)
	if err != nil && len(head) == 0 {
		return 0, fmt.Errorf("unable to read %s: %w", path, err)
	}
	if !filetype.IsImage(head) {
		return 0, fmt.Errorf("%s: %w", path, ErrNotImage)
	}

	cfg, format, err := image.DecodeConfig(br)
	if err != nil {
		kind, _ := filetype.Match(head)
		return 0, fmt.Errorf("unable to decode %s image header of %s: %w", kind.Extension, path, err)
	}
	if cfg.Width <= 0 {
		return 0, fmt.Errorf("%s image %s reports no width", format, path)
	}
	return cfg.Width, nil
}
