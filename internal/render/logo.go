package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	"github.com/gabriel-vasile/mimetype"
	"github.com/jung-kurt/gofpdf"
)

// ErrNoLogo is returned by DecodeLogo for empty input.
var ErrNoLogo = errors.New("no logo")

// Logo is a decoded image the PDF backend can embed.
type Logo struct {
	Data   []byte
	Type   string // gofpdf image type: PNG, JPG or GIF
	Width  int
	Height int
}

var imageTypes = map[string]string{
	"image/png":  "PNG",
	"image/jpeg": "JPG",
	"image/gif":  "GIF",
}

// DecodeLogo checks that raw is an image the backend can embed. A nil
// Logo always comes with a non-nil error naming the reason.
func DecodeLogo(raw []byte) (*Logo, error) {
	if len(raw) == 0 {
		return nil, ErrNoLogo
	}

	mt := mimetype.Detect(raw)
	typ, ok := imageTypes[mt.String()]
	if !ok {
		return nil, fmt.Errorf("unsupported logo type %s", mt.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("logo has no pixels")
	}

	// gofpdf rejects some valid images (interlaced PNG, 16-bit depth) and
	// its errors are sticky, so probe on a scratch document first.
	probe := gofpdf.New("P", "pt", "A4", "")
	probe.RegisterImageOptionsReader("probe", gofpdf.ImageOptions{ImageType: typ}, bytes.NewReader(raw))
	if err := probe.Error(); err != nil {
		return nil, fmt.Errorf("embed logo: %w", err)
	}

	return &Logo{Data: raw, Type: typ, Width: cfg.Width, Height: cfg.Height}, nil
}
