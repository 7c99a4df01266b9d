package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

func newEncodeCmd() *cobra.Command {
	var (
		size      int
		margin    int
		autoSize  bool
		out       string
		printable bool
		caption   bool
	)

	cmd := &cobra.Command{
		Use:   "encode [data|-]",
		Short: "Render data as a QR code",
		Long: "Render text or JSON as a QR code. Writes a PNG to --out, or prints the data URL.\n" +
			"With --printable the captioned HTML print document is written instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := inputArg(cmd, args)
			if err != nil {
				return err
			}
			payload := payloadFromText(data)

			opts := qrcodec.DefaultOptions()
			if printable {
				opts = qrcodec.PrintOptions()
			}
			if margin >= 0 {
				opts.Margin = margin
			}
			switch {
			case autoSize:
				opts.Size = qrcodec.OptimalSize(data)
			case size > 0:
				opts.Size = size
			}

			if printable {
				printer := qrcodec.NewPrinter(qrcodec.PrinterConfig{Options: opts}, nil, nil, nil)
				doc, err := printer.BuildPrintableDocument(payload, caption)
				if err != nil {
					return err
				}
				return writeOutput(cmd, out, []byte(doc))
			}

			enc := qrcodec.NewEncoder(opts)

			if out == "" {
				dataURL, err := enc.Encode(payload)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), dataURL)
				return err
			}

			content, err := qrcodec.Serialize(payload)
			if err != nil {
				return err
			}
			png, err := enc.Render(content)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, png)
		},
	}

	cmd.Flags().IntVar(&size, "size", 0, "image side in pixels")
	cmd.Flags().IntVar(&margin, "margin", -1, "quiet zone in modules")
	cmd.Flags().BoolVar(&autoSize, "auto-size", false, "pick the image size from the data length")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().BoolVar(&printable, "printable", false, "write the HTML print document")
	cmd.Flags().BoolVar(&caption, "caption", true, "include instructions and timestamp in the print document")
	return cmd
}

// payloadFromText compacts JSON objects and arrays and passes everything else
// through as text.
func payloadFromText(data string) any {
	trimmed := strings.TrimSpace(data)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(trimmed)); err == nil {
			return json.RawMessage(buf.Bytes())
		}
	}
	return data
}
