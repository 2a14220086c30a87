// Package fetch downloads job postings and reduces them to plain text that can
// be appended to question-generation prompts.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Fetch defaults.
const (
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBytes  = 2 << 20
	DefaultMaxChars  = 4000
	DefaultUserAgent = "Mozilla/5.0 (compatible; InterviewCoach/1.0)"
)

// Options configures the HTTP side of a PostingFetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	Client    *http.Client
}

// DefaultOptions returns the fetch defaults.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		MaxBytes:  DefaultMaxBytes,
	}
}

// PostingError is a failed posting fetch. Stage is one of "url", "request",
// "status", "content-type", "read" or "extract".
type PostingError struct {
	URL   string
	Stage string
	Err   error
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("job posting %s: %s: %v", e.URL, e.Stage, e.Err)
}

func (e *PostingError) Unwrap() error {
	return e.Err
}

// PostingFetcher downloads a job posting and returns its description text.
type PostingFetcher struct {
	opts     Options
	client   *http.Client
	maxChars int
	logger   *zap.Logger
}

// NewPostingFetcher creates a fetcher. Nil opts uses DefaultOptions and
// maxChars <= 0 uses DefaultMaxChars.
func NewPostingFetcher(opts *Options, maxChars int, logger *zap.Logger) *PostingFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &PostingFetcher{opts: *opts, client: client, maxChars: maxChars, logger: logger}
}

// Fetch returns the description at rawURL, truncated to the configured size.
func (f *PostingFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	page, err := f.download(ctx, rawURL)
	if err != nil {
		return "", err
	}

	platform := DetectPlatform(rawURL)
	text, source, err := ExtractPosting(page, platform)
	if err != nil {
		return "", &PostingError{URL: rawURL, Stage: "extract", Err: err}
	}

	f.logger.Debug("fetched job posting",
		zap.String("url", rawURL),
		zap.String("platform", string(platform)),
		zap.String("source", source),
		zap.Int("chars", len(text)),
	)
	return Truncate(text, f.maxChars), nil
}

// download GETs an http(s) page and returns at most MaxBytes of an HTML body.
func (f *PostingFetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &PostingError{URL: rawURL, Stage: "url", Err: err}
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &PostingError{URL: rawURL, Stage: "url", Err: fmt.Errorf("only http and https URLs are supported")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &PostingError{URL: rawURL, Stage: "request", Err: err}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &PostingError{URL: rawURL, Stage: "request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &PostingError{URL: rawURL, Stage: "status", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || (mediaType != "text/html" && mediaType != "application/xhtml+xml" && mediaType != "text/plain") {
			return nil, &PostingError{URL: rawURL, Stage: "content-type", Err: fmt.Errorf("unsupported content type %q", ct)}
		}
	}

	var body io.Reader = resp.Body
	if f.opts.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.opts.MaxBytes)
	}
	page, err := io.ReadAll(body)
	if err != nil {
		return nil, &PostingError{URL: rawURL, Stage: "read", Err: err}
	}
	return page, nil
}
