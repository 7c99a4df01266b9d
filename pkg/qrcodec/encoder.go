package qrcodec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

// DataURLPrefix precedes the base64 PNG in every encoded image.
const DataURLPrefix = "data:image/png;base64,"

// ErrEmptyPayload is returned when there is nothing to encode.
var ErrEmptyPayload = errors.New("empty payload")

// EncodingError reports a payload that could not be serialized or rasterized.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("qr %s: %v", e.Op, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Options controls the raster output.
type Options struct {
	// Size is the side of the square image in pixels.
	Size int
	// Margin is the quiet zone width in modules.
	Margin     int
	Foreground color.Color
	Background color.Color
	Level      qrcode.RecoveryLevel
}

// DefaultOptions renders 300px codes with a 2-module margin and the highest
// error-correction level, so codes survive glare and partial occlusion.
func DefaultOptions() Options {
	return Options{
		Size:       300,
		Margin:     2,
		Foreground: color.Black,
		Background: color.White,
		Level:      qrcode.Highest,
	}
}

// PrintOptions is DefaultOptions enlarged for paper.
func PrintOptions() Options {
	opts := DefaultOptions()
	opts.Size = 400
	opts.Margin = 4
	return opts
}

// Encoder turns payloads into PNG data URLs. It holds no mutable state and is
// safe for concurrent use.
type Encoder struct {
	opts Options
}

// NewEncoder fills unset options from DefaultOptions.
func NewEncoder(opts Options) *Encoder {
	def := DefaultOptions()
	if opts.Size <= 0 {
		opts.Size = def.Size
	}
	if opts.Margin < 0 {
		opts.Margin = def.Margin
	}
	if opts.Foreground == nil {
		opts.Foreground = def.Foreground
	}
	if opts.Background == nil {
		opts.Background = def.Background
	}
	return &Encoder{opts: opts}
}

// Options returns the encoder's effective options.
func (e *Encoder) Options() Options {
	return e.opts
}

// WithSize returns a copy of the encoder rendering at size pixels.
func (e *Encoder) WithSize(size int) *Encoder {
	opts := e.opts
	opts.Size = size
	return NewEncoder(opts)
}

// Encode serializes payload and renders it as a PNG data URL. Strings are
// encoded verbatim; anything else is marshalled to JSON first.
func (e *Encoder) Encode(payload any) (string, error) {
	content, err := Serialize(payload)
	if err != nil {
		return "", err
	}

	img, err := e.Render(content)
	if err != nil {
		return "", err
	}

	return DataURLPrefix + base64.StdEncoding.EncodeToString(img), nil
}

// Render rasterizes content into PNG bytes.
func (e *Encoder) Render(content string) ([]byte, error) {
	if content == "" {
		return nil, &EncodingError{Op: "rasterize", Err: ErrEmptyPayload}
	}

	q, err := qrcode.New(content, e.opts.Level)
	if err != nil {
		return nil, &EncodingError{Op: "rasterize", Err: err}
	}
	q.DisableBorder = true
	bitmap := q.Bitmap()

	// Each module is drawn as a whole ppm×ppm block, centred in the image, so
	// the quiet zone is at least Margin modules wide.
	width := len(bitmap)
	modules := width + 2*e.opts.Margin
	size := e.opts.Size
	if size < modules {
		size = modules
	}
	ppm := size / modules
	offset := (size - width*ppm) / 2

	palette := color.Palette{e.opts.Background, e.opts.Foreground}
	img := image.NewPaletted(image.Rect(0, 0, size, size), palette)
	for my, row := range bitmap {
		for mx, dark := range row {
			if !dark {
				continue
			}
			x0, y0 := offset+mx*ppm, offset+my*ppm
			for y := y0; y < y0+ppm; y++ {
				for x := x0; x < x0+ppm; x++ {
					img.SetColorIndex(x, y, 1)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &EncodingError{Op: "png", Err: err}
	}
	return buf.Bytes(), nil
}

// Serialize converts a payload into the text embedded in the code.
func Serialize(payload any) (string, error) {
	switch v := payload.(type) {
	case nil:
		return "", &EncodingError{Op: "serialize", Err: ErrEmptyPayload}
	case string:
		return v, nil
	case json.RawMessage:
		return string(v), nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", &EncodingError{Op: "serialize", Err: err}
	}
	return string(b), nil
}

// OptimalSize suggests an image side for the given content length.
func OptimalSize(data string) int {
	switch n := len(data); {
	case n < 50:
		return 200
	case n < 100:
		return 250
	case n < 200:
		return 300
	default:
		return 350
	}
}
