package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

func newPatientCmd() *cobra.Command {
	var (
		rec  qrcodec.PatientRecord
		kind string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Build a patient identification token",
		Long:  "Build a patient token stamped with the current time. Prints the token JSON, or writes the QR code PNG to --out.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := qrcodec.BuildPatientToken(rec, qrcodec.SystemClock)
			if kind != "" {
				k := qrcodec.Kind(kind)
				if !k.IsIssuablePatient() {
					return fmt.Errorf("unknown patient token type %q", kind)
				}
				token.Kind = k
			}

			if out == "" {
				return printJSON(cmd.OutOrStdout(), token)
			}

			content, err := qrcodec.Serialize(token)
			if err != nil {
				return err
			}
			png, err := qrcodec.NewEncoder(qrcodec.DefaultOptions()).Render(content)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, png)
		},
	}

	cmd.Flags().StringVar(&rec.ID, "id", "", "patient ID")
	cmd.Flags().StringVar(&rec.Name, "name", "", "patient name")
	cmd.Flags().StringVar(&rec.EmergencyContact, "emergency-contact", "", "emergency contact")
	cmd.Flags().StringVar(&rec.BloodGroup, "blood-group", "", "blood group")
	cmd.Flags().StringSliceVar(&rec.Allergies, "allergies", nil, "comma separated allergies")
	cmd.Flags().StringVar(&rec.DoctorID, "doctor-id", "", "attending doctor ID")
	cmd.Flags().StringVar(&kind, "type", "", "token type (only patient_identification scans back as a patient token)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the QR code PNG here")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
