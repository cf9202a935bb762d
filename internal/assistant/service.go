package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/teemow/calagent/internal/calendar"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/logging"
	"github.com/teemow/calagent/internal/nltime"
)

const (
	// DefaultCalendarID is the calendar used when a request names none.
	DefaultCalendarID = "primary"

	// DefaultMaxResults limits search and list results.
	DefaultMaxResults = 10

	// DefaultMeetingDuration is used by SuggestMeetingTimes.
	DefaultMeetingDuration = "1 hour"

	// previewOccurrences is the number of occurrences shown for a recurrence.
	previewOccurrences = 3
)

// Display layouts, in the acting timezone.
const (
	eventLayout = "2006-01-02 03:04 PM MST"
	clockLayout = "03:04 PM MST"
)

// Config holds the dependencies of a Service.
type Config struct {
	Gateway calendar.Gateway
	// Resolver interprets phrases. When nil one is built for Location and
	// reports resolutions to Metrics.
	Resolver *nltime.Resolver
	Location *time.Location
	// TimezoneName is sent with created events. Defaults to Location's name.
	TimezoneName      string
	DefaultCalendarID string
	MaxSuggestions    int
	Now               func() time.Time
	Logger            logging.Logger
	Metrics           *instrumentation.Metrics
}

// Service implements the calendar tool operations.
type Service struct {
	gw                calendar.Gateway
	resolver          *nltime.Resolver
	loc               *time.Location
	tzName            string
	defaultCalendarID string
	maxSuggestions    int
	now               func() time.Time
	logger            logging.Logger
	metrics           *instrumentation.Metrics
}

// New creates a Service from cfg, filling in defaults.
func New(cfg Config) *Service {
	s := &Service{
		gw:                cfg.Gateway,
		resolver:          cfg.Resolver,
		loc:               cfg.Location,
		tzName:            cfg.TimezoneName,
		defaultCalendarID: cfg.DefaultCalendarID,
		maxSuggestions:    cfg.MaxSuggestions,
		now:               cfg.Now,
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.tzName == "" {
		s.tzName = s.loc.String()
	}
	if s.defaultCalendarID == "" {
		s.defaultCalendarID = DefaultCalendarID
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = logging.DefaultLogger()
	}
	if s.resolver == nil {
		s.resolver = nltime.NewResolver(s.loc, s.logger)
		s.resolver.Now = s.now
		s.resolver.Observer = ResolutionObserver(s.metrics)
	}
	return s
}

// ResolutionObserver returns an observer that counts resolutions by
// strategy and outcome.
func ResolutionObserver(m *instrumentation.Metrics) nltime.Observer {
	return func(strategy string, err error) {
		result := instrumentation.ResolutionMatched
		switch {
		case err != nil && strategy == "":
			result = instrumentation.ResolutionUnmatched
		case err != nil:
			result = instrumentation.ResolutionInvalid
		}
		m.RecordResolution(context.Background(), strategy, result)
	}
}

// Location returns the acting timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) calendarID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return s.defaultCalendarID
}

// parseTime accepts RFC 3339 first and falls back to the natural-language
// resolver. Empty text yields the zero time.
func (s *Service) parseTime(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t.UTC(), nil
	}
	t, _, err := s.resolver.ResolveInstant(text)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
