package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/calagent/internal/assistant"
	"github.com/teemow/calagent/internal/calendar"
	"github.com/teemow/calagent/internal/google"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/logging"
)

// Options configures a ServerContext.
type Options struct {
	// Location is the acting timezone for every tool call.
	Location *time.Location
	// TimezoneName is the IANA name sent with created events.
	TimezoneName      string
	DefaultAccount    string
	DefaultCalendarID string
	MaxSuggestions    int

	// Tokens stores the per-account Google tokens.
	Tokens google.TokenStore
	// OAuthConfig is the Google OAuth client. When nil it is read from the
	// environment on first use.
	OAuthConfig *oauth2.Config

	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger
	Logger      *slog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// ServerContext holds the state shared by all tool invocations.
type ServerContext struct {
	ctx             context.Context
	cancel          context.CancelFunc
	opts            Options
	calendarClients map[string]calendar.Gateway // Maps account name to Calendar client
	mu              sync.RWMutex
	shutdown        bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Location == nil {
		return nil, fmt.Errorf("location cannot be nil")
	}
	if opts.TimezoneName == "" {
		opts.TimezoneName = opts.Location.String()
	}
	if opts.DefaultAccount == "" {
		opts.DefaultAccount = google.DefaultAccount
	}
	if err := google.ValidateAccountName(opts.DefaultAccount); err != nil {
		return nil, err
	}
	if opts.DefaultCalendarID == "" {
		opts.DefaultCalendarID = assistant.DefaultCalendarID
	}
	if opts.Tokens == nil {
		opts.Tokens = google.NewFileTokenProvider()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		opts:            opts,
		calendarClients: make(map[string]calendar.Gateway),
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Location returns the acting timezone.
func (sc *ServerContext) Location() *time.Location {
	return sc.opts.Location
}

// TimezoneName returns the IANA name of the acting timezone.
func (sc *ServerContext) TimezoneName() string {
	return sc.opts.TimezoneName
}

// DefaultAccount returns the account used when a call names none.
func (sc *ServerContext) DefaultAccount() string {
	return sc.opts.DefaultAccount
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.opts.Logger
}

// Tokens returns the token store.
func (sc *ServerContext) Tokens() google.TokenStore {
	return sc.opts.Tokens
}

// OAuthConfig returns the Google OAuth client configuration, reading it
// from the environment when none was provided.
func (sc *ServerContext) OAuthConfig() (*oauth2.Config, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.opts.OAuthConfig != nil {
		return sc.opts.OAuthConfig, nil
	}
	conf, err := google.OAuthConfig()
	if err != nil {
		return nil, err
	}
	sc.opts.OAuthConfig = conf
	return conf, nil
}

// CalendarClientForAccount returns the Calendar client for a specific account.
// Creates and caches the client if it doesn't exist yet.
func (sc *ServerContext) CalendarClientForAccount(account string) (calendar.Gateway, error) {
	if account == "" {
		account = sc.opts.DefaultAccount
	}

	sc.mu.RLock()
	client, ok := sc.calendarClients[account]
	sc.mu.RUnlock()
	if ok {
		return client, nil
	}

	if err := google.ValidateAccountName(account); err != nil {
		return nil, err
	}
	conf, err := sc.OAuthConfig()
	if err != nil {
		return nil, err
	}

	created, err := calendar.NewClientForAccountWithProvider(sc.ctx, account, sc.opts.Tokens, conf)
	if err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	// Another call may have raced us; keep the first client.
	if existing, ok := sc.calendarClients[account]; ok {
		return existing, nil
	}
	sc.calendarClients[account] = created
	return created, nil
}

// SetCalendarClientForAccount sets the Calendar client for a specific account
func (sc *ServerContext) SetCalendarClientForAccount(account string, client calendar.Gateway) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClients[account] = client
}

// ForgetCalendarClient drops the cached client of account so the next call
// picks up a newly saved token.
func (sc *ServerContext) ForgetCalendarClient(account string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.calendarClients, account)
}

// Assistant builds the per-call tool facade for account.
func (sc *ServerContext) Assistant(account string) (*assistant.Service, error) {
	gw, err := sc.CalendarClientForAccount(account)
	if err != nil {
		return nil, err
	}
	return assistant.New(assistant.Config{
		Gateway:           gw,
		Location:          sc.opts.Location,
		TimezoneName:      sc.opts.TimezoneName,
		DefaultCalendarID: sc.opts.DefaultCalendarID,
		MaxSuggestions:    sc.opts.MaxSuggestions,
		Now:               sc.opts.Now,
		Logger:            logging.NewSlogAdapter(sc.opts.Logger),
		Metrics:           sc.Metrics(),
	}), nil
}

// Offline builds a facade without a calendar gateway, for the parse tools.
func (sc *ServerContext) Offline() *assistant.Service {
	return assistant.New(assistant.Config{
		Location:     sc.opts.Location,
		TimezoneName: sc.opts.TimezoneName,
		Now:          sc.opts.Now,
		Logger:       logging.NewSlogAdapter(sc.opts.Logger),
		Metrics:      sc.Metrics(),
	})
}

// SetMetrics sets the metrics recorder used by tool handlers.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.opts.Metrics = m
}

// Metrics returns the metrics recorder. It may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.opts.Metrics
}

// SetAuditLogger sets the audit logger used by tool handlers.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.opts.AuditLogger = al
}

// AuditLogger returns the audit logger. It may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.opts.AuditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
