package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"matscribe/internal/services"
)

const (
	remoteRetryBaseDelay = 1 * time.Second
	remoteRetryMaxDelay  = 10 * time.Second
	remoteHealthTimeout  = 5 * time.Second
)

// Remote talks to a whisper GPU server over HTTP. The server exposes
// POST /transcribe (multipart form) and GET /health.
type Remote struct {
	endpoint   string
	httpClient *http.Client

	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleeper     func(time.Duration)
}

// RemoteOption customizes the remote backend.
type RemoteOption func(*Remote)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *Remote) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(base, max time.Duration) RemoteOption {
	return func(r *Remote) {
		r.baseDelay = base
		r.maxDelay = max
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) RemoteOption {
	return func(r *Remote) {
		r.sleeper = sleeper
	}
}

// NewRemote builds a remote backend for the given endpoint.
func NewRemote(endpoint string, timeout time.Duration, maxAttempts int, opts ...RemoteOption) *Remote {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	r := &Remote{
		endpoint:    strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		baseDelay:   remoteRetryBaseDelay,
		maxDelay:    remoteRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name identifies this backend in logs and errors.
func (r *Remote) Name() string { return "remote" }

// Available checks the server health endpoint.
func (r *Remote) Available(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, remoteHealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "transcription", "health", fmt.Sprintf("remote server %s unreachable", r.endpoint), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrUnavailable, "transcription", "health", fmt.Sprintf("remote server returned http %d", resp.StatusCode), nil)
	}
	return nil
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("transcribe request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Transcribe uploads the audio file and decodes the server response,
// retrying transient failures with capped exponential backoff.
func (r *Remote) Transcribe(ctx context.Context, req Request) (Result, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := r.transcribeOnce(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		delay, retry := r.retryDelay(ctx, err, attempt)
		if !retry {
			break
		}
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return Result{}, sleepErr
		}
	}
	return Result{}, services.Wrap(services.ErrTransient, "transcription", "remote",
		fmt.Sprintf("failed after %d attempts", r.maxAttempts), lastErr)
}

func (r *Remote) transcribeOnce(ctx context.Context, req Request) (Result, error) {
	audio, err := os.Open(req.AudioPath)
	if err != nil {
		return Result{}, fmt.Errorf("open audio: %w", err)
	}
	defer audio.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", filepath.Base(req.AudioPath))
	if err != nil {
		return Result{}, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return Result{}, fmt.Errorf("copy audio into form: %w", err)
	}
	fields := map[string]string{
		"model":       req.Model,
		"language":    req.Language,
		"prompt":      req.InitialPrompt,
		"temperature": "0.0",
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return Result{}, fmt.Errorf("write form field %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("finish form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/transcribe", &body)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return Result{}, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(payload),
			RetryAfter: retryAfter,
		}
	}

	var decoded Result
	if err := decodeResponse(payload, &decoded); err != nil {
		return Result{}, err
	}
	return decoded, nil
}

func decodeResponse(payload []byte, out *Result) error {
	var response struct {
		Text     string    `json:"text"`
		Language string    `json:"language"`
		Segments []Segment `json:"segments"`
	}
	if err := json.Unmarshal(payload, &response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(response.Text) == "" && len(response.Segments) == 0 {
		return errors.New("transcribe response carried no text")
	}
	out.Text = strings.TrimSpace(response.Text)
	out.Language = response.Language
	out.Segments = normalizeSegments(response.Segments)
	return nil
}

func normalizeSegments(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			continue
		}
		if seg.End < seg.Start {
			seg.End = seg.Start
		}
		out = append(out, seg)
	}
	return out
}

func (r *Remote) retryDelay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if attempt >= r.maxAttempts {
		return 0, false
	}
	if ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return r.capDelay(statusErr.RetryAfter), true
			}
			return r.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return r.backoffDelay(attempt), true
	}
	if strings.Contains(err.Error(), "connection refused") {
		return r.backoffDelay(attempt), true
	}
	return 0, false
}

func (r *Remote) backoffDelay(attempt int) time.Duration {
	delay := r.baseDelay
	for i := 1; i < attempt; i++ {
		if delay > r.maxDelay/2 {
			return r.maxDelay
		}
		delay *= 2
	}
	return r.capDelay(delay)
}

func (r *Remote) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if r.maxDelay > 0 && delay > r.maxDelay {
		return r.maxDelay
	}
	return delay
}

func (r *Remote) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if r.sleeper != nil {
		r.sleeper(delay)
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d, true
		}
	}
	return 0, false
}
