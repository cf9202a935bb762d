package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/calagent/internal/nltime"
)

// ResolveDateTime explains how a phrase is interpreted: the UTC range, the
// same range in the acting timezone and the preferred window, if any.
func (s *Service) ResolveDateTime(text, duration, preferredTime string) (string, error) {
	res, err := s.resolver.Resolve(text, duration, preferredTime)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Start (UTC): %s\n", res.Start.Format(time.RFC3339))
	fmt.Fprintf(&b, "End (UTC): %s\n", res.End.Format(time.RFC3339))
	fmt.Fprintf(&b, "Start (%s): %s\n", s.tzName, s.formatInstant(res.Start))
	fmt.Fprintf(&b, "End (%s): %s\n", s.tzName, s.formatInstant(res.End))
	if res.Window != nil {
		fmt.Fprintf(&b, "Preferred window: %s\n", res.Window)
	}
	fmt.Fprintf(&b, "Matched by: %s", res.Strategy)
	return b.String(), nil
}

// ResolveRecurrence converts a phrase into an RRULE string and previews the
// first occurrences from start. An empty start previews from now.
func (s *Service) ResolveRecurrence(text, start string) (string, error) {
	rule, err := s.recurrenceRule(text)
	if err != nil {
		return "", err
	}

	from := s.now()
	if strings.TrimSpace(start) != "" {
		from, err = s.parseTime(start)
		if err != nil {
			return "", fmt.Errorf("invalid start time: %w", err)
		}
	}

	occurrences, err := nltime.PreviewRecurrence(rule, from.In(s.loc), previewOccurrences)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rule: %s", rule)
	s.writeOccurrences(&b, occurrences)
	return b.String(), nil
}
