package qrcodec

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/jwalitptl/postoppal-api/pkg/logger"
)

// DefaultPrintDelay gives the surface time to load the image before printing.
const DefaultPrintDelay = 250 * time.Millisecond

// GeneratedAtLayout renders the caption timestamp.
const GeneratedAtLayout = "1/2/2006, 3:04:05 PM"

// Surface is an opened presentation target such as a print window.
type Surface interface {
	Write(document string) error
	Print(ctx context.Context) error
	Close() error
}

// PresentationSurface opens surfaces. Open fails when the platform refuses,
// e.g. a blocked pop-up or an unreachable print queue.
type PresentationSurface interface {
	Open(ctx context.Context) (Surface, error)
}

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Medical QR Code</title>
  <style>
    body { font-family: Arial, sans-serif; padding: 20px; text-align: center; }
    .qr-container { max-width: 500px; margin: 0 auto; padding: 20px; border: 2px solid #333; border-radius: 10px; }
    .qr-code { margin: 20px 0; }
    .instruction { margin-top: 20px; font-size: 12px; color: #666; }
    .timestamp { font-size: 11px; color: #999; margin-top: 10px; }
  </style>
</head>
<body>
  <div class="qr-container">
    <h2>Medical Access QR Code</h2>
    <div class="qr-code">
      <img src="{{.Image}}" alt="QR Code" />
    </div>
    {{- if .IncludeCaption}}
    <div class="instruction">
      <strong>Instructions:</strong> Scan this QR code to access patient medical information.
      Valid for {{.ValidFor}} from generation.
    </div>
    <div class="timestamp">
      Generated on: {{.GeneratedAt}}
    </div>
    {{- end}}
  </div>
</body>
</html>
`))

type printData struct {
	Image          template.URL
	IncludeCaption bool
	ValidFor       string
	GeneratedAt    string
}

// Printer assembles printable documents and sends them to a presentation surface.
type Printer struct {
	encoder  *Encoder
	clock    Clock
	surfaces PresentationSurface
	delay    time.Duration
	window   time.Duration
	logger   *logger.Logger
}

// PrinterConfig configures a Printer. Zero values fall back to defaults.
type PrinterConfig struct {
	Options      Options
	Delay        time.Duration
	ExpiryWindow time.Duration
}

func NewPrinter(cfg PrinterConfig, surfaces PresentationSurface, clock Clock, log *logger.Logger) *Printer {
	if clock == nil {
		clock = SystemClock
	}
	if cfg.Options.Size <= 0 {
		cfg.Options = PrintOptions()
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultPrintDelay
	}
	if cfg.ExpiryWindow <= 0 {
		cfg.ExpiryWindow = DefaultExpiryWindow
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Printer{
		encoder:  NewEncoder(cfg.Options),
		clock:    clock,
		surfaces: surfaces,
		delay:    cfg.Delay,
		window:   cfg.ExpiryWindow,
		logger:   log,
	}
}

// BuildPrintableDocument encodes payload at print size and wraps it in an HTML
// page. The caption carries usage instructions and the generation time.
func (p *Printer) BuildPrintableDocument(payload any, includeCaption bool) (string, error) {
	dataURL, err := p.encoder.Encode(payload)
	if err != nil {
		return "", err
	}

	data := printData{
		Image:          template.URL(dataURL),
		IncludeCaption: includeCaption,
		ValidFor:       describeWindow(p.window),
		GeneratedAt:    p.clock.Now().Format(GeneratedAtLayout),
	}

	var sb strings.Builder
	if err := printTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render printable document: %w", err)
	}
	return sb.String(), nil
}

// PrintViaNewWindow opens a surface, writes the captioned document, waits for
// the image to load and prints. Failures are logged, never returned.
func (p *Printer) PrintViaNewWindow(ctx context.Context, payload any) {
	doc, err := p.BuildPrintableDocument(payload, true)
	if err != nil {
		p.logger.Error(err, "failed to build printable QR document")
		return
	}

	if p.surfaces == nil {
		p.logger.Warn("no presentation surface configured, print skipped")
		return
	}

	surface, err := p.surfaces.Open(ctx)
	if err != nil {
		p.logger.Warn("presentation surface refused to open, print skipped", "error", err.Error())
		return
	}
	defer func() {
		if err := surface.Close(); err != nil {
			p.logger.Warn("failed to close presentation surface", "error", err.Error())
		}
	}()

	if err := surface.Write(doc); err != nil {
		p.logger.Error(err, "failed to write printable QR document")
		return
	}

	time.Sleep(p.delay)

	if err := surface.Print(ctx); err != nil {
		p.logger.Error(err, "failed to print QR document")
		return
	}
	p.logger.Debug("QR document sent to print")
}
