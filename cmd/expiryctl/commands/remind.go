package commands

import (
	"fmt"
	"io"

	"expiry-scanner/internal/features/reminders/domain"
	"expiry-scanner/internal/features/reminders/service"

	"github.com/spf13/cobra"
)

// remind [--user ID ...]: run one reminder digest and print it.
func remindCmd() *cobra.Command {
	var users []string

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run a reminder digest over the watched users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(users) == 0 {
				users = cfg.Reminders.WatchedUsers()
			}
			if len(users) == 0 {
				return fmt.Errorf("no users to remind: pass --user or set REMINDER_USER_IDS")
			}

			scheduler, err := service.NewScheduler(scanner, users, cfg.Reminders.Schedule, cfg.Scan.Location(), nil)
			if err != nil {
				return err
			}

			digest := scheduler.RunOnce(cmd.Context(), domain.TriggerManual)
			if err := printDigest(cmd.OutOrStdout(), digest); err != nil {
				return err
			}
			if failed := digest.FailureCount(); failed > 0 {
				return fmt.Errorf("%d of %d users could not be checked", failed, len(digest.Entries))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&users, "user", nil, "user id to remind (repeatable), defaults to REMINDER_USER_IDS")
	return cmd
}

func printDigest(w io.Writer, digest *domain.Digest) error {
	if _, err := fmt.Fprintf(w, "run %s: %d notices, %d failures\n",
		digest.RunID, digest.NoticeCount(), digest.FailureCount()); err != nil {
		return err
	}

	for _, e := range digest.Entries {
		if e.Failed() {
			if _, err := fmt.Fprintf(w, "%s: error: %s\n", e.UserID, e.Error); err != nil {
				return err
			}
			continue
		}
		for _, n := range e.Notices {
			if _, err := fmt.Fprintf(w, "%s: %s\n", e.UserID, n.Message()); err != nil {
				return err
			}
		}
	}
	return nil
}
