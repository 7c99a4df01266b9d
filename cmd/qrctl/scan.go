package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

// errInvalidToken is returned in strict mode when validation fails.
var errInvalidToken = errors.New("token is invalid")

type scanOutput struct {
	Result     qrcodec.ScanResult        `json:"result"`
	Validation *qrcodec.ValidationResult `json:"validation,omitempty"`
}

func newParseCmd() *cobra.Command {
	var (
		window time.Duration
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "parse [raw|-]",
		Short: "Classify scanned QR text",
		Long:  "Classify scanned text as a patient token, facility token or plain text. Patient tokens are validated.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := inputArg(cmd, args)
			if err != nil {
				return err
			}

			out := scanOutput{Result: qrcodec.Parse(raw)}
			if out.Result.Kind == qrcodec.ScanPatient {
				v := qrcodec.NewValidator(qrcodec.SystemClock, window).Validate(*out.Result.Patient)
				out.Validation = &v
			}
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if strict && out.Validation != nil && !out.Validation.IsValid {
				return errInvalidToken
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&window, "window", qrcodec.DefaultExpiryWindow, "patient token expiry window")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when a patient token is invalid")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var (
		window time.Duration
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "validate [token-json|-]",
		Short: "Validate a patient token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := inputArg(cmd, args)
			if err != nil {
				return err
			}

			var token qrcodec.PatientToken
			if err := json.Unmarshal([]byte(raw), &token); err != nil {
				return fmt.Errorf("token is not valid JSON: %w", err)
			}

			result := qrcodec.NewValidator(qrcodec.SystemClock, window).Validate(token)
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if strict && !result.IsValid {
				return errInvalidToken
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&window, "window", qrcodec.DefaultExpiryWindow, "expiry window")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the token is invalid")
	return cmd
}
