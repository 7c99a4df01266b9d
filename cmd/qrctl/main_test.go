package main

import (
	"bytes"
	"encoding/json"
	"html"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/postoppal-api/pkg/auth"
	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEncode_DataURL(t *testing.T) {
	out, err := run(t, "", "encode", "hello")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, qrcodec.DataURLPrefix))
}

func TestEncode_StdinToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qr.png")

	_, err := run(t, `{"facilityId":"FAC-3","name":"Ward 3B","type":"room_access"}`+"\n", "encode", "-o", path, "--auto-size")
	require.NoError(t, err)

	png, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte{0x89, 'P', 'N', 'G'}))
}

func TestEncode_Printable(t *testing.T) {
	out, err := run(t, "", "encode", "PID-1", "--printable")
	require.NoError(t, err)
	assert.Contains(t, out, "Medical Access QR Code")
	assert.Contains(t, out, "Generated on:")

	out, err = run(t, "", "encode", "PID-1", "--printable", "--caption=false")
	require.NoError(t, err)
	assert.NotContains(t, out, "Generated on:")
}

// printedImage extracts the QR image embedded in a print document.
func printedImage(t *testing.T, doc string) image.Image {
	t.Helper()
	start := strings.Index(doc, `src="`)
	require.GreaterOrEqual(t, start, 0)
	start += len(`src="`)
	end := strings.Index(doc[start:], `"`)
	require.Greater(t, end, 0)

	_, data, err := qrcodec.DecodeDataURL(html.UnescapeString(doc[start : start+end]))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

// firstDark walks the diagonal from the top-left corner to the first dark pixel.
func firstDark(img image.Image) int {
	for i := 0; i < img.Bounds().Dx(); i++ {
		if r, _, _, _ := img.At(i, i).RGBA(); r < 0x8000 {
			return i
		}
	}
	return -1
}

func TestEncode_PrintableHonorsMargin(t *testing.T) {
	doc, err := run(t, "", "encode", "PID-1", "--printable")
	require.NoError(t, err)
	narrow := printedImage(t, doc)

	doc, err = run(t, "", "encode", "PID-1", "--printable", "--margin", "10")
	require.NoError(t, err)
	wide := printedImage(t, doc)

	assert.Equal(t, 400, wide.Bounds().Dx())
	// 21 modules plus 2×10 margin at 9px each.
	assert.GreaterOrEqual(t, firstDark(wide), 90)
	assert.Greater(t, firstDark(wide), firstDark(narrow))
}

func TestEncode_EmptyInput(t *testing.T) {
	_, err := run(t, "", "encode")
	assert.ErrorIs(t, err, qrcodec.ErrEmptyPayload)
}

func TestPayloadFromText(t *testing.T) {
	assert.Equal(t, json.RawMessage(`{"a":1}`), payloadFromText(`{ "a": 1 }`))
	assert.Equal(t, "{not json", payloadFromText("{not json"))
	assert.Equal(t, "PID-1", payloadFromText("PID-1"))
}

func TestPatient_ThenParse(t *testing.T) {
	out, err := run(t, "", "patient", "--id", "PID-1", "--name", "Rajesh Kumar", "--allergies", "Penicillin,Latex")
	require.NoError(t, err)

	var token qrcodec.PatientToken
	require.NoError(t, json.Unmarshal([]byte(out), &token))
	assert.Equal(t, qrcodec.KindPatientIdentification, token.Kind)
	assert.Equal(t, []string{"Penicillin", "Latex"}, token.Allergies)

	out, err = run(t, out, "parse", "--strict")
	require.NoError(t, err)

	var scanned scanOutput
	require.NoError(t, json.Unmarshal([]byte(out), &scanned))
	assert.Equal(t, qrcodec.ScanPatient, scanned.Result.Kind)
	require.NotNil(t, scanned.Validation)
	assert.True(t, scanned.Validation.IsValid)
}

func TestPatient_Type(t *testing.T) {
	out, err := run(t, "", "patient", "--id", "PID-1", "--name", "A", "--type", "patient_identification")
	require.NoError(t, err)

	var token qrcodec.PatientToken
	require.NoError(t, json.Unmarshal([]byte(out), &token))
	assert.Equal(t, qrcodec.KindPatientIdentification, token.Kind)

	_, err = run(t, "", "patient", "--id", "PID-1", "--name", "A", "--type", "medical_access")
	assert.Error(t, err)
}

func TestPatient_RejectsFacilityType(t *testing.T) {
	_, err := run(t, "", "patient", "--id", "PID-1", "--name", "A", "--type", "room_access")
	assert.Error(t, err)
}

func TestValidate_Strict(t *testing.T) {
	stale := `{"patientId":"PID-1","name":"A","timestamp":"2020-01-01T00:00:00.000Z","type":"patient_identification"}`

	out, err := run(t, "", "validate", stale)
	require.NoError(t, err)
	assert.Contains(t, out, qrcodec.MsgExpired)

	_, err = run(t, "", "validate", "--strict", stale)
	assert.ErrorIs(t, err, errInvalidToken)

	_, err = run(t, "", "validate", "not json")
	assert.Error(t, err)
}

func TestParse_PlainText(t *testing.T) {
	out, err := run(t, "", "parse", "hello world")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "text"`)
	assert.NotContains(t, out, "validation")
}

func TestToken(t *testing.T) {
	out, err := run(t, "", "token", "--subject", "DOC-7", "--role", "doctor", "--secret", "s3cret", "--ttl", "5m")
	require.NoError(t, err)

	claims, err := auth.NewHMACService("s3cret", "postoppal").ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "DOC-7", claims.Subject)
	assert.Equal(t, auth.RoleDoctor, claims.Role)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestToken_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := run(t, "", "token", "--subject", "DOC-7")
	assert.Error(t, err)
}
