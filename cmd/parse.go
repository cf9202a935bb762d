package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/calagent/internal/assistant"
	"github.com/teemow/calagent/internal/logging"
	"github.com/teemow/calagent/internal/timezone"
)

func newParseCmd() *cobra.Command {
	var (
		tz    string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Resolve natural-language dates and recurrences locally",
		Long: `Show how calagent interprets a phrase, without calling Google Calendar.
Useful to check the acting timezone and which parser strategy matched.`,
	}
	cmd.PersistentFlags().StringVar(&tz, "timezone", "", "IANA timezone used to interpret the phrase (default: detected from the host)")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	var duration, preferredTime string
	datetimeCmd := &cobra.Command{
		Use:     "datetime <phrase>",
		Short:   "Resolve a date/time phrase such as \"next monday at 10 AM\"",
		Example: `  calagent parse datetime "next friday afternoon" --duration "45 minutes"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := offlineAssistant(cmd.ErrOrStderr(), tz, debug)
			out, err := svc.ResolveDateTime(strings.Join(args, " "), duration, preferredTime)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	datetimeCmd.Flags().StringVar(&duration, "duration", "", "Length such as '1 hour' (default: 1 hour)")
	datetimeCmd.Flags().StringVar(&preferredTime, "preferred-time", "", "Part of the day: morning, afternoon, evening or a range like '2 PM to 4 PM'")

	var start string
	recurrenceCmd := &cobra.Command{
		Use:     "recurrence <phrase>",
		Short:   "Convert a recurrence phrase such as \"every tuesday for 3 weeks\" into an RRULE",
		Example: `  calagent parse recurrence "every day for 2 months" --start "2026-11-02T09:00:00Z"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := offlineAssistant(cmd.ErrOrStderr(), tz, debug)
			out, err := svc.ResolveRecurrence(strings.Join(args, " "), start)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	recurrenceCmd.Flags().StringVar(&start, "start", "", "First occurrence, natural language or RFC3339 (default: now)")

	cmd.AddCommand(datetimeCmd, recurrenceCmd)
	return cmd
}

// offlineAssistant builds a facade without a calendar gateway.
func offlineAssistant(logOut io.Writer, tz string, debug bool) *assistant.Service {
	logger := logging.NewSlogAdapter(logging.New(logOut, debug))
	loc, name := timezone.Resolve(tz, logger)
	return assistant.New(assistant.Config{
		Location:     loc,
		TimezoneName: name,
		Logger:       logger,
	})
}
