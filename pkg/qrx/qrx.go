// Package qrx renders QR codes as PNG images and data URLs.
package qrx

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/boombuler/barcode/qr"
)

var (
	// ErrEncode is returned when content cannot be encoded, usually because
	// it exceeds QR capacity at the chosen error correction level.
	ErrEncode = errors.New("qrx: cannot encode content")

	ErrInvalidDataURL = errors.New("qrx: invalid data url")
)

// Options control rendering. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	Dark      color.Color
	Light     color.Color
	QuietZone int // modules of light border on each side
	MinSize   int // minimum edge length in pixels
	Level     qr.ErrorCorrectionLevel
}

// DefaultOptions renders teal on white, level H, at least 300px.
var DefaultOptions = Options{
	Dark:      color.RGBA{R: 0x21, G: 0x80, B: 0x8d, A: 0xff},
	Light:     color.White,
	QuietZone: 1,
	MinSize:   300,
	Level:     qr.H,
}

// PNG encodes content as a QR code and returns the PNG bytes.
func PNG(content string, opts Options) ([]byte, error) {
	img, err := Image(content, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("qrx: png: %w", err)
	}
	return buf.Bytes(), nil
}

// Image renders content with whole-pixel modules. The module size is the
// smallest that reaches opts.MinSize.
func Image(content string, opts Options) (*image.Paletted, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrEncode)
	}

	code, err := qr.Encode(content, opts.Level, qr.Auto)
	if err != nil {
		// the encoder's message quotes the content
		return nil, fmt.Errorf("%w: %d bytes", ErrEncode, len(content))
	}

	modules := code.Bounds().Dx()
	total := modules + 2*opts.QuietZone
	scale := max((opts.MinSize+total-1)/total, 1)
	size := total * scale

	// index 0 is light so the zero-filled image starts as background
	img := image.NewPaletted(image.Rect(0, 0, size, size), color.Palette{opts.Light, opts.Dark})
	offset := opts.QuietZone * scale
	for y := range modules {
		for x := range modules {
			if !isDark(code.At(x, y)) {
				continue
			}
			for dy := range scale {
				row := img.Pix[(offset+y*scale+dy)*img.Stride:]
				for dx := range scale {
					row[offset+x*scale+dx] = 1
				}
			}
		}
	}
	return img, nil
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r+g+b < 3*0x8000
}

// DataURL renders content and returns it as data:image/png;base64,....
func DataURL(content string, opts Options) (string, error) {
	raw, err := PNG(content, opts)
	if err != nil {
		return "", err
	}
	return EncodeDataURL("image/png", raw), nil
}

func EncodeDataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL decodes a base64 data URL. Only base64 payloads are
// accepted.
func ParseDataURL(s string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mediaType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return mediaType, data, nil
}

// IsDataURL reports whether s looks like a data URL.
func IsDataURL(s string) bool { return strings.HasPrefix(s, "data:") }
