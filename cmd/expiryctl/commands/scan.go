package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"expiry-scanner/internal/features/expiry/domain"

	"github.com/spf13/cobra"
)

// scan --user ID: print the user's expiry notices.
func scanCmd() *cobra.Command {
	var (
		userID string
		at     string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan one user's records for items expiring today or tomorrow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var reference time.Time
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("%w: --at must be an RFC 3339 timestamp", domain.ErrInvalidReferenceInstant)
				}
				reference = t
			}

			result, err := scanner.Scan(cmd.Context(), userID, reference)
			if err != nil {
				return err
			}
			return printScan(cmd.OutOrStdout(), result, asJSON)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to scan")
	cmd.Flags().StringVar(&at, "at", "", "reference instant (RFC 3339), defaults to now")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the scan result as JSON")
	return cmd
}

func printScan(w io.Writer, result *domain.ScanResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	switch {
	case result.Skipped:
		_, err := fmt.Fprintln(w, "no user given, nothing scanned")
		return err
	case !result.HasNotices():
		_, err := fmt.Fprintln(w, "nothing expires today or tomorrow")
		return err
	}

	for _, n := range result.Notices {
		if _, err := fmt.Fprintln(w, n.Message()); err != nil {
			return err
		}
	}
	return nil
}
