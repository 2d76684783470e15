package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/yhlin/sitecal/internal/google"
	"github.com/yhlin/sitecal/internal/instrumentation"
	"github.com/yhlin/sitecal/internal/logging"
	"github.com/yhlin/sitecal/internal/store"
)

// BackupFileName is the reserved Drive file name that holds the snapshot.
const BackupFileName = "sitecal_backup.json"

const backupMimeType = "application/json"

// ErrParseFailure reports a backup file that exists but does not decode as a
// snapshot.
var ErrParseFailure = errors.New("backup file is not a valid snapshot")

// Client wraps the Google Drive files service for snapshot backup.
type Client struct {
	svc     *drive.Service
	tokens  *google.Manager
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	now     func() time.Time

	// saveMu serializes Save calls so concurrent saves cannot interleave the
	// find-or-create step and produce duplicate backup files.
	saveMu sync.Mutex
}

// Config carries the optional dependencies for a Client.
type Config struct {
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics

	// Clock overrides the sync-timestamp source. Defaults to time.Now.
	Clock func() time.Time

	// ClientOptions are appended to the Drive service options. Tests use
	// them to point the client at a fake endpoint.
	ClientOptions []option.ClientOption
}

// NewClient creates a Drive client whose requests carry bearer tokens from
// the given manager.
func NewClient(ctx context.Context, tokens *google.Manager, cfg Config) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token manager cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &instrumentation.Metrics{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	opts := append([]option.ClientOption{
		option.WithHTTPClient(google.NewHTTPClient(tokens)),
	}, cfg.ClientOptions...)

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return &Client{
		svc:     svc,
		tokens:  tokens,
		logger:  logging.WithService(cfg.Logger, "backup"),
		metrics: cfg.Metrics,
		now:     cfg.Clock,
	}, nil
}

// Find looks up the remote backup file by its reserved name. It returns nil
// when no backup exists.
func (c *Client) Find(ctx context.Context) (*Descriptor, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceDrive, "list")
	defer span.End()
	start := time.Now()

	var list *drive.FileList
	err := c.withReauth(ctx, func() error {
		var doErr error
		list, doErr = c.svc.Files.List().
			Context(ctx).
			Q(fmt.Sprintf("name = '%s' and trashed = false", BackupFileName)).
			Spaces("drive").
			Fields("files(id, name, modifiedTime)").
			PageSize(1).
			Do()
		return doErr
	})
	c.record(ctx, "list", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("%w: list: %v", google.ErrRemoteRejected, err)
	}

	instrumentation.SetSpanSuccess(span)
	if len(list.Files) == 0 {
		return nil, nil
	}
	return toDescriptor(list.Files[0]), nil
}

// Save stamps the snapshot with the current sync time and uploads it,
// overwriting the existing backup file or creating it on first use. It
// returns the timestamp written into the snapshot. The caller's snapshot is
// stamped only once the upload succeeds, so a failed save never leaves a
// timestamp for a sync that did not happen.
func (c *Client) Save(ctx context.Context, snap *store.Snapshot) (string, error) {
	if snap == nil {
		return "", fmt.Errorf("snapshot cannot be nil")
	}

	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	stamp := c.now().UTC().Format(time.RFC3339)
	stamped := *snap
	stamped.CloudSyncTimestamp = stamp

	payload, err := json.Marshal(&stamped)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	existing, err := c.Find(ctx)
	if err != nil {
		return "", err
	}

	if existing == nil {
		err = c.create(ctx, payload)
	} else {
		err = c.overwrite(ctx, existing.ID, payload)
	}
	if err != nil {
		return "", err
	}
	snap.CloudSyncTimestamp = stamp
	return stamp, nil
}

func (c *Client) create(ctx context.Context, payload []byte) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceDrive, "upload")
	defer span.End()
	start := time.Now()

	meta := &drive.File{
		Name:     BackupFileName,
		MimeType: backupMimeType,
	}

	var created *drive.File
	err := c.withReauth(ctx, func() error {
		var doErr error
		created, doErr = c.svc.Files.Create(meta).
			Context(ctx).
			Media(bytes.NewReader(payload), googleapi.ContentType(backupMimeType)).
			Fields("id, name, modifiedTime").
			Do()
		return doErr
	})
	c.record(ctx, "upload", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.logger.Error("failed to create backup file", logging.Err(err))
		return fmt.Errorf("%w: upload: %v", google.ErrRemoteRejected, err)
	}

	instrumentation.SetSpanSuccess(span)
	c.logger.Info("backup file created",
		logging.FileID(created.Id),
		slog.Int("bytes", len(payload)))
	return nil
}

func (c *Client) overwrite(ctx context.Context, fileID string, payload []byte) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceDrive, "upload")
	defer span.End()
	start := time.Now()

	err := c.withReauth(ctx, func() error {
		_, doErr := c.svc.Files.Update(fileID, &drive.File{}).
			Context(ctx).
			Media(bytes.NewReader(payload), googleapi.ContentType(backupMimeType)).
			Do()
		return doErr
	})
	c.record(ctx, "upload", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.logger.Error("failed to overwrite backup file",
			logging.FileID(fileID),
			logging.Err(err))
		return fmt.Errorf("%w: upload: %v", google.ErrRemoteRejected, err)
	}

	instrumentation.SetSpanSuccess(span)
	c.logger.Info("backup file overwritten",
		logging.FileID(fileID),
		slog.Int("bytes", len(payload)))
	return nil
}

// Load downloads and decodes the remote backup. It returns (nil, nil) when no
// backup exists, and ErrParseFailure when the file exists but does not decode.
func (c *Client) Load(ctx context.Context) (*store.Snapshot, error) {
	logger := logging.WithOperation(c.logger, "download")

	existing, err := c.Find(ctx)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		logger.Info("no backup file found")
		return nil, nil
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceDrive, "download")
	defer span.End()
	start := time.Now()

	var payload []byte
	err = c.withReauth(ctx, func() error {
		resp, doErr := c.svc.Files.Get(existing.ID).Context(ctx).Download()
		if doErr != nil {
			return doErr
		}
		defer resp.Body.Close()
		payload, doErr = io.ReadAll(resp.Body)
		return doErr
	})
	c.record(ctx, "download", start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Error("failed to download backup file",
			logging.FileID(existing.ID),
			logging.Err(err))
		return nil, fmt.Errorf("%w: download: %v", google.ErrRemoteRejected, err)
	}

	snap := &store.Snapshot{}
	if err := json.Unmarshal(payload, snap); err != nil {
		instrumentation.SetSpanError(span, err)
		logger.Error("backup file is corrupt",
			logging.FileID(existing.ID),
			logging.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	instrumentation.SetSpanSuccess(span)
	logger.Info("backup loaded",
		logging.FileID(existing.ID),
		slog.String("cloud_sync_timestamp", snap.CloudSyncTimestamp))
	return snap, nil
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
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceDrive, operation, status, time.Since(start))
	c.logger.Debug("drive request finished",
		logging.Operation(operation),
		logging.Status(status),
		slog.String("trace_id", instrumentation.GetTraceID(ctx)),
		logging.Err(err))
}
