package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/openswarm/swarmer/config"
	"github.com/openswarm/swarmer/internal/core"
	"github.com/openswarm/swarmer/internal/domain/model"
	apperrors "github.com/openswarm/swarmer/internal/errors"
	"github.com/openswarm/swarmer/internal/observability/statsd"
)

// CallbackPosterOptions groups dependencies for CallbackPoster.
type CallbackPosterOptions struct {
	Config  config.CallbackConfig // Required: callback configuration
	Client  *http.Client          // Optional: HTTP client override for tests
	Logger  *slog.Logger          // Optional: structured logger
	Metrics statsd.Sink           // Optional: metrics sink
}

// CallbackPoster delivers aggregated job records to user callback URLs.
type CallbackPoster struct {
	client  *http.Client
	logger  *slog.Logger
	metrics statsd.Sink
}

var _ core.ResultPoster = (*CallbackPoster)(nil)

// NewCallbackPoster constructs a new CallbackPoster.
func NewCallbackPoster(opts CallbackPosterOptions) (*CallbackPoster, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Config.Timeout}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "callback_poster")
	}

	return &CallbackPoster{
		client:  client,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// PostJobResult sends the job record as JSON to the job's callback URL.
// A non-2xx response is a backend error; the body is drained so the
// connection can be reused.
func (p *CallbackPoster) PostJobResult(ctx context.Context, record model.JobRecord) error {
	if record.Callback == "" {
		return apperrors.ValidationField("callback", "job has no callback url")
	}

	body, err := json.Marshal(record)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode job record")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, record.Callback, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "build callback request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.emit(start, "error")
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return apperrors.Wrap(err, apperrors.ErrCodeBackend, "post job result")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.emit(start, "error")
		return apperrors.Backendf("callback returned status %d", resp.StatusCode)
	}

	p.emit(start, "success")
	if p.logger != nil {
		p.logger.DebugContext(ctx, "callback delivered",
			"job_id", record.ID, "status", resp.StatusCode)
	}
	return nil
}

func (p *CallbackPoster) emit(start time.Time, result string) {
	if p.metrics == nil {
		return
	}
	tags := map[string]string{"result": result}
	p.metrics.Count("callback.post", 1, tags)
	p.metrics.Timing("callback.post_duration", time.Since(start), map[string]string{"result": result})
}
