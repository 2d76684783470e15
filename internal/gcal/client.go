package gcal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/yhlin/sitecal/internal/agenda"
	"github.com/yhlin/sitecal/internal/google"
	"github.com/yhlin/sitecal/internal/instrumentation"
	"github.com/yhlin/sitecal/internal/logging"
)

// DefaultCalendarID is the calendar events are pushed to when no calendar is
// configured.
const DefaultCalendarID = "primary"

// Client wraps the Google Calendar events service.
type Client struct {
	svc        *calendar.Service
	calendarID string
	tokens     *google.Manager
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// Config carries the optional dependencies for a Client.
type Config struct {
	// CalendarID is the target calendar. Defaults to DefaultCalendarID.
	CalendarID string

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics

	// ClientOptions are appended to the Calendar service options. Tests use
	// them to point the client at a fake endpoint.
	ClientOptions []option.ClientOption
}

// NewClient creates a Calendar client whose requests carry bearer tokens from
// the given manager.
func NewClient(ctx context.Context, tokens *google.Manager, cfg Config) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token manager cannot be nil")
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = DefaultCalendarID
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &instrumentation.Metrics{}
	}

	opts := append([]option.ClientOption{
		option.WithHTTPClient(google.NewHTTPClient(tokens)),
	}, cfg.ClientOptions...)

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:        svc,
		calendarID: cfg.CalendarID,
		tokens:     tokens,
		logger:     logging.WithService(cfg.Logger, "gcal"),
		metrics:    cfg.Metrics,
	}, nil
}

// Upsert pushes a custom event to the remote calendar and returns the remote
// event ID. Events without an external ID are created; events with one are
// updated in place. When the remote copy is gone the event is recreated and
// the new ID returned, so callers must persist the result.
func (c *Client) Upsert(ctx context.Context, ev agenda.CustomEvent) (string, error) {
	body, err := toAPIEvent(ev)
	if err != nil {
		return "", err
	}

	if ev.ExternalID == "" {
		return c.insert(ctx, ev.ID, body)
	}

	id, err := c.update(ctx, ev.ExternalID, body)
	if google.IsNotFound(err) {
		c.logger.Info("remote event missing, recreating",
			logging.EventID(ev.ID),
			slog.String("external_id", ev.ExternalID))
		return c.insert(ctx, ev.ID, body)
	}
	return id, err
}

// Delete removes the remote event. A remote 404 is success: the event is
// already gone.
func (c *Client) Delete(ctx context.Context, externalID string) error {
	if externalID == "" {
		return nil
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "delete")
	defer span.End()
	start := time.Now()

	err := c.withReauth(ctx, func() error {
		return c.svc.Events.Delete(c.calendarID, externalID).Context(ctx).Do()
	})
	if google.IsNotFound(err) {
		c.logger.Debug("remote event already absent",
			slog.String("external_id", externalID))
		err = nil
	}
	c.record(ctx, "delete", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.logger.Error("failed to delete remote event",
			slog.String("external_id", externalID),
			logging.Err(err))
		return fmt.Errorf("%w: delete: %v", google.ErrRemoteRejected, err)
	}
	instrumentation.SetSpanSuccess(span)
	return nil
}

func (c *Client) insert(ctx context.Context, eventID string, body *calendar.Event) (string, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "insert")
	defer span.End()
	start := time.Now()

	var created *calendar.Event
	err := c.withReauth(ctx, func() error {
		var doErr error
		created, doErr = c.svc.Events.Insert(c.calendarID, body).Context(ctx).Do()
		return doErr
	})
	c.record(ctx, "insert", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.logger.Error("failed to create remote event",
			logging.EventID(eventID),
			logging.Err(err))
		return "", fmt.Errorf("%w: insert: %v", google.ErrRemoteRejected, err)
	}

	instrumentation.SetSpanSuccess(span)
	c.logger.Info("remote event created",
		logging.EventID(eventID),
		slog.String("external_id", created.Id))
	return created.Id, nil
}

func (c *Client) update(ctx context.Context, externalID string, body *calendar.Event) (string, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "update")
	defer span.End()
	start := time.Now()

	var updated *calendar.Event
	err := c.withReauth(ctx, func() error {
		var doErr error
		updated, doErr = c.svc.Events.Update(c.calendarID, externalID, body).Context(ctx).Do()
		return doErr
	})
	c.record(ctx, "update", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		if google.IsNotFound(err) {
			// Caller recreates; keep the sentinel intact.
			return "", err
		}
		c.logger.Error("failed to update remote event",
			slog.String("external_id", externalID),
			logging.Err(err))
		return "", fmt.Errorf("%w: update: %v", google.ErrRemoteRejected, err)
	}

	instrumentation.SetSpanSuccess(span)
	return updated.Id, nil
}

// withReauth runs fn, and on a 401 renews the token and retries exactly once.
func (c *Client) withReauth(ctx context.Context, fn func() error) error {
	err := fn()
	if !google.IsUnauthorized(err) {
		return err
	}

	c.logger.Info("request unauthorized, renewing token and retrying")
	if _, rerr := c.tokens.Reauthorize(ctx); rerr != nil {
		c.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return rerr
	}
	c.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	return fn()
}

func (c *Client) record(ctx context.Context, operation string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operation, status, time.Since(start))
	c.logger.Debug("calendar request finished",
		logging.Operation(operation),
		logging.Status(status),
		slog.String("trace_id", instrumentation.GetTraceID(ctx)),
		logging.Err(err))
}
