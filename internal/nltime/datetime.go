package nltime

import (
	"strings"
	"time"

	"github.com/teemow/calagent/internal/logging"
)

// Resolution is the outcome of resolving a date/time phrase.
type Resolution struct {
	// Start and End are in UTC.
	Start time.Time
	End   time.Time
	// Window is the preferred time of day, nil when none was given or it
	// could not be parsed.
	Window *Window
	// Strategy names the strategy that recognised the phrase.
	Strategy string
}

// Reference is the frame a phrase is interpreted in.
type Reference struct {
	Now      time.Time
	Location *time.Location
}

// Strategy is one way of recognising a date/time phrase. Resolve reports
// ok=false when the phrase is not in its grammar; a non-nil error means the
// phrase matched but is invalid and stops the chain.
type Strategy interface {
	Name() string
	Resolve(text string, ref Reference) (t time.Time, ok bool, err error)
}

// Observer is notified about every resolution attempt. strategy is empty
// when no strategy matched.
type Observer func(strategy string, err error)

// Resolver resolves date/time phrases in a fixed location.
type Resolver struct {
	Location   *time.Location
	Now        func() time.Time
	Logger     logging.Logger
	Strategies []Strategy
	Observer   Observer
}

// NewResolver returns a resolver using the wall clock and DefaultStrategies.
func NewResolver(loc *time.Location, logger logging.Logger) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Resolver{
		Location:   loc,
		Now:        time.Now,
		Logger:     logger,
		Strategies: DefaultStrategies(),
	}
}

// Resolve interprets text as a start instant, derives the end from duration
// (DefaultEventLength when empty) and parses preferredTime as a time-of-day
// window. An unparseable preferredTime is logged and ignored.
func (r *Resolver) Resolve(text, duration, preferredTime string) (Resolution, error) {
	var res Resolution
	if strings.TrimSpace(preferredTime) != "" {
		w, err := ParseWindow(preferredTime)
		if err != nil {
			r.logger().Warn("ignoring preferred time", logging.Input(preferredTime), logging.Err(err))
		} else {
			res.Window = w
		}
	}

	start, strategy, err := r.ResolveInstant(text)
	if err != nil {
		return Resolution{}, err
	}

	length, err := ParseLength(duration)
	if err != nil {
		return Resolution{}, err
	}

	res.Start = start.UTC()
	res.End = res.Start.Add(length)
	res.Strategy = strategy
	return res, nil
}

// ResolveInstant runs the strategy chain and returns the first match in the
// resolver's location together with the name of the strategy that won.
func (r *Resolver) ResolveInstant(text string) (time.Time, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		err := &ParseError{Kind: KindDateTime, Input: text}
		r.observe("", err)
		return time.Time{}, "", err
	}

	ref := r.reference()
	for _, s := range r.strategies() {
		t, ok, err := s.Resolve(text, ref)
		if err != nil {
			r.observe(s.Name(), err)
			return time.Time{}, s.Name(), err
		}
		if ok {
			r.logger().Debug("resolved datetime", logging.Input(text), logging.Strategy(s.Name()), "start", t)
			r.observe(s.Name(), nil)
			return t.In(ref.Location), s.Name(), nil
		}
	}

	err := &ParseError{Kind: KindDateTime, Input: text}
	r.observe("", err)
	return time.Time{}, "", err
}

func (r *Resolver) reference() Reference {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return Reference{Now: now().In(loc), Location: loc}
}

func (r *Resolver) strategies() []Strategy {
	if r.Strategies == nil {
		return DefaultStrategies()
	}
	return r.Strategies
}

func (r *Resolver) logger() logging.Logger {
	if r.Logger == nil {
		return logging.DefaultLogger()
	}
	return r.Logger
}

func (r *Resolver) observe(strategy string, err error) {
	if r.Observer != nil {
		r.Observer(strategy, err)
	}
}
