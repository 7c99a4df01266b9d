package qrcodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeImage(t *testing.T, dataURL string) image.Image {
	t.Helper()
	require.True(t, strings.HasPrefix(dataURL, DataURLPrefix), "unexpected data URL %.40q", dataURL)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, DataURLPrefix))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

// scanImage reads a rendered code back to its text. Rendered codes are pure
// barcodes: square, unrotated and with whole-pixel modules.
func scanImage(t *testing.T, img image.Image) string {
	t.Helper()
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)

	hints := map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_PURE_BARCODE: true}
	result, err := zxingqr.NewQRCodeReader().Decode(bmp, hints)
	require.NoError(t, err)
	return result.GetText()
}

func isDark(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r < 0x8000 && g < 0x8000 && b < 0x8000
}

func TestEncoder_EncodeString(t *testing.T) {
	enc := NewEncoder(DefaultOptions())

	dataURL, err := enc.Encode("PID-2024-001")
	require.NoError(t, err)

	img := decodeImage(t, dataURL)
	assert.Equal(t, image.Rect(0, 0, 300, 300), img.Bounds())
	assert.False(t, isDark(img, 0, 0), "quiet zone must be light")
	assert.False(t, isDark(img, 299, 299), "quiet zone must be light")

	dark := 0
	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			if isDark(img, x, y) {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 0)
}

func TestEncoder_ScansBackToToken(t *testing.T) {
	facility := BuildFacilityToken(FacilityRecord{ID: "F3", Name: "OT"})
	short := BuildPatientToken(PatientRecord{
		ID:        "PID-1",
		Name:      "Rajesh Kumar",
		Allergies: []string{"Penicillin"},
	}, FixedClock(testNow))
	full := BuildPatientToken(PatientRecord{
		ID:               "PID-2024-00017",
		Name:             "Rajesh Kumar Venkataraman",
		EmergencyContact: "+91 98765 43210",
		BloodGroup:       "O+",
		Allergies:        []string{"Penicillin", "Latex"},
		DoctorID:         "DOC-7",
	}, FixedClock(testNow))

	tokens := []struct {
		name      string
		payload   any
		approxLen int
		check     func(t *testing.T, result ScanResult)
	}{
		{"facility", facility, 60, func(t *testing.T, result ScanResult) {
			require.Equal(t, ScanFacility, result.Kind)
			assert.Equal(t, &facility, result.Facility)
		}},
		{"patient", short, 150, func(t *testing.T, result ScanResult) {
			require.Equal(t, ScanPatient, result.Kind)
			assert.Equal(t, &short, result.Patient)
		}},
		{"full patient", full, 250, func(t *testing.T, result ScanResult) {
			require.Equal(t, ScanPatient, result.Kind)
			assert.Equal(t, &full, result.Patient)
		}},
	}

	for _, tt := range tokens {
		raw, err := Serialize(tt.payload)
		require.NoError(t, err)
		assert.InDelta(t, tt.approxLen, len(raw), 15, tt.name)

		for _, size := range []int{200, 250, 300, 350, 400} {
			t.Run(fmt.Sprintf("%s/%dpx", tt.name, size), func(t *testing.T) {
				dataURL, err := NewEncoder(DefaultOptions()).WithSize(size).Encode(tt.payload)
				require.NoError(t, err)

				img := decodeImage(t, dataURL)
				require.Equal(t, image.Rect(0, 0, size, size), img.Bounds())

				text := scanImage(t, img)
				assert.Equal(t, raw, text)
				tt.check(t, Parse(text))
			})
		}
	}
}

func TestEncoder_ModulesAreWholePixels(t *testing.T) {
	enc := NewEncoder(DefaultOptions())
	content := "PID-2024-001"

	q, err := qrcode.New(content, enc.Options().Level)
	require.NoError(t, err)
	q.DisableBorder = true
	bitmap := q.Bitmap()

	dataURL, err := enc.Encode(content)
	require.NoError(t, err)
	img := decodeImage(t, dataURL)

	width := len(bitmap)
	ppm := 300 / (width + 2*enc.Options().Margin)
	offset := (300 - width*ppm) / 2
	require.GreaterOrEqual(t, offset, enc.Options().Margin*ppm)

	for my, row := range bitmap {
		for mx, dark := range row {
			x0, y0 := offset+mx*ppm, offset+my*ppm
			assert.Equal(t, dark, isDark(img, x0, y0), "module %d,%d", mx, my)
			assert.Equal(t, dark, isDark(img, x0+ppm-1, y0+ppm-1), "module %d,%d", mx, my)
		}
	}
	assert.False(t, isDark(img, offset-1, offset))
	assert.False(t, isDark(img, offset+width*ppm, offset))
}

func TestEncoder_PrintOptions(t *testing.T) {
	enc := NewEncoder(PrintOptions())

	dataURL, err := enc.Encode("PID-2024-001")
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 400, 400), decodeImage(t, dataURL).Bounds())
}

func TestEncoder_ObjectMatchesItsJSON(t *testing.T) {
	enc := NewEncoder(DefaultOptions())
	token := BuildPatientToken(PatientRecord{ID: "PID-1", Name: "Rajesh Kumar"}, FixedClock(testNow))

	fromObject, err := enc.Encode(token)
	require.NoError(t, err)

	text, err := Serialize(token)
	require.NoError(t, err)
	fromText, err := enc.Encode(text)
	require.NoError(t, err)

	assert.Equal(t, fromText, fromObject)
}

func TestEncoder_Errors(t *testing.T) {
	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	tests := []struct {
		name    string
		payload any
		op      string
	}{
		{name: "function value", payload: map[string]any{"f": func() {}}, op: "serialize"},
		{name: "channel", payload: make(chan int), op: "serialize"},
		{name: "cycle", payload: cyclic, op: "serialize"},
		{name: "nil", payload: nil, op: "serialize"},
		{name: "empty string", payload: "", op: "rasterize"},
		{name: "too long", payload: strings.Repeat("x", 4000), op: "rasterize"},
	}

	enc := NewEncoder(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Encode(tt.payload)
			require.Error(t, err)

			var encErr *EncodingError
			require.True(t, errors.As(err, &encErr))
			assert.Equal(t, tt.op, encErr.Op)
		})
	}
}

func TestNewEncoder_Defaults(t *testing.T) {
	opts := NewEncoder(Options{Margin: -1}).Options()

	assert.Equal(t, 300, opts.Size)
	assert.Equal(t, 2, opts.Margin)
	assert.NotNil(t, opts.Foreground)
	assert.NotNil(t, opts.Background)
}

func TestEncoder_WithSize(t *testing.T) {
	base := NewEncoder(DefaultOptions())
	small := base.WithSize(200)

	dataURL, err := small.Encode("hello")
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 200, 200), decodeImage(t, dataURL).Bounds())
	assert.Equal(t, 300, base.Options().Size)
}

func TestOptimalSize(t *testing.T) {
	assert.Equal(t, 200, OptimalSize(strings.Repeat("a", 49)))
	assert.Equal(t, 250, OptimalSize(strings.Repeat("a", 50)))
	assert.Equal(t, 250, OptimalSize(strings.Repeat("a", 99)))
	assert.Equal(t, 300, OptimalSize(strings.Repeat("a", 150)))
	assert.Equal(t, 350, OptimalSize(strings.Repeat("a", 200)))
}
