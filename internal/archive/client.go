package archive

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/jbrick2070/Archival-Flow/internal/config"
	"github.com/jbrick2070/Archival-Flow/internal/httpclient"
	"github.com/jbrick2070/Archival-Flow/internal/shared/async"
	"github.com/jbrick2070/Archival-Flow/internal/shared/logging"
)

// Diagnostic bodies from failed uploads are short XML documents; cap reads
// so a misbehaving endpoint cannot balloon memory.
const maxDiagnosticBody = 64 << 10

var unsafeFilenameChar = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Client talks to the storage service's S3-compatible upload endpoint and
// its metadata endpoint.
type Client struct {
	uploadBase    string
	metadataBase  string
	publicBase    string
	collection    string
	mediaType     string
	derivedFormat string

	uploadHTTP *http.Client
	probeHTTP  *http.Client
	logger     logging.Logger
}

// NewClient builds a Client from the loaded configuration.
func NewClient(cfg *config.Config, logger logging.Logger) *Client {
	return &Client{
		uploadBase:    strings.TrimRight(cfg.UploadBaseURL, "/"),
		metadataBase:  strings.TrimRight(cfg.MetadataBaseURL, "/"),
		publicBase:    strings.TrimRight(cfg.PublicBaseURL, "/"),
		collection:    cfg.Collection,
		mediaType:     cfg.MediaType,
		derivedFormat: cfg.DerivedFormat,
		uploadHTTP:    httpclient.New(config.DefaultUploadTimeout),
		probeHTTP:     httpclient.New(config.DefaultProbeTimeout),
		logger:        logging.OrNop(logger),
	}
}

// PublicURL returns the canonical detail-page URL for an identifier.
func (c *Client) PublicURL(identifier string) string {
	return fmt.Sprintf("%s/details/%s", c.publicBase, identifier)
}

// VerifyCredentials probes the upload endpoint root with the LOW scheme.
// It reduces every outcome to a boolean: only HTTP 200 counts as valid,
// and network failures count as invalid. The probe touches no remote state.
func (c *Client) VerifyCredentials(ctx context.Context, creds Credentials) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.uploadBase, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", creds.authorization())

	resp, err := c.probeHTTP.Do(req)
	if err != nil {
		c.logger.Debug("credential probe failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// uploadStream owns the event channel of one upload attempt. Progress
// reports arrive from the HTTP transport's body-writing goroutine, which can
// outlive the request when the server responds before reading the whole
// payload; the closed flag flips under the mutex before the channel closes,
// so a late report is a no-op instead of a send on a closed channel.
type uploadStream struct {
	mu     sync.Mutex
	closed bool
	ch     chan UploadEvent
}

func newUploadStream() *uploadStream {
	return &uploadStream{ch: make(chan UploadEvent, 64)}
}

func (s *uploadStream) progress(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- UploadEvent{Percent: percent}:
	default:
		// A stale percentage is droppable; the terminal event is not.
	}
}

func (s *uploadStream) finish(ev UploadEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.ch <- ev
	s.closed = true
	close(s.ch)
}

// Upload publishes the request's payload and metadata as a new item. It
// returns the attempt's event stream: progress percentages in
// non-decreasing order, then exactly one terminal event, after which the
// channel is closed. The caller must drain the channel; cancel ctx to
// abandon the transfer.
func (c *Client) Upload(ctx context.Context, req UploadRequest) <-chan UploadEvent {
	stream := newUploadStream()

	identifier := GenerateIdentifier(req.Metadata.Title)
	safeName := SafeFilename(req.FileName)
	target := fmt.Sprintf("%s/%s/%s", c.uploadBase, identifier, safeName)

	async.Go(c.logger, "archive-upload", func() {
		result, err := c.doUpload(ctx, req, identifier, target, stream)
		if err != nil {
			stream.finish(UploadEvent{Done: true, Err: err})
			return
		}
		stream.finish(UploadEvent{Percent: 100, Done: true, Result: result})
	})

	return stream.ch
}

func (c *Client) doUpload(ctx context.Context, req UploadRequest, identifier, target string, stream *uploadStream) (*UploadResult, error) {
	body := req.Body
	if req.Size > 0 {
		last := -1
		body = newProgressReader(req.Body, req.Size, func(sent int64) {
			percent := int(sent * 100 / req.Size)
			if percent > 100 {
				percent = 100
			}
			if percent > last {
				last = percent
				stream.progress(percent)
			}
		})
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, target, body)
	if err != nil {
		return nil, &UploadError{Err: err}
	}
	httpReq.ContentLength = req.Size

	c.setUploadHeaders(httpReq, req)

	c.logger.Info("uploading %s (%d bytes) as %s", req.FileName, req.Size, identifier)

	resp, err := c.uploadHTTP.Do(httpReq)
	if err != nil {
		return nil, &UploadError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		diag, readErr := httpclient.ReadBody(resp.Body, maxDiagnosticBody)
		if readErr != nil {
			c.logger.Warn("failed to read upload error body: %v", readErr)
		}
		c.logger.Warn("upload of %s rejected: status %d", identifier, resp.StatusCode)
		return nil, &UploadError{Status: resp.StatusCode, Body: string(diag)}
	}

	c.logger.Info("upload of %s accepted with status %d", identifier, resp.StatusCode)
	return &UploadResult{Identifier: identifier, PublicURL: c.PublicURL(identifier)}, nil
}

// setUploadHeaders attaches authentication, bucket creation, classification,
// and item metadata. Metadata headers are best-effort: a value that is empty
// or still illegal after sanitization is dropped, never fatal.
func (c *Client) setUploadHeaders(httpReq *http.Request, req UploadRequest) {
	httpReq.Header.Set("Authorization", req.Credentials.authorization())
	httpReq.Header.Set("x-archive-auto-make-bucket", "1")
	httpReq.Header.Set("x-archive-interactive-priority", "1")
	httpReq.Header.Set("x-archive-meta-mediatype", c.mediaType)
	httpReq.Header.Set("x-archive-meta-collection", c.collection)

	meta := req.Metadata.Normalize()
	c.setMetaHeader(httpReq, "x-archive-meta-title", meta.Title)
	c.setMetaHeader(httpReq, "x-archive-meta-creator", meta.Creator)
	c.setMetaHeader(httpReq, "x-archive-meta-description", meta.Description)

	var subjects []string
	for _, tag := range meta.Tags {
		if clean := SanitizeHeader(tag); clean != "" {
			subjects = append(subjects, clean)
		}
	}
	if len(subjects) > 0 {
		c.setMetaHeader(httpReq, "x-archive-meta-subject", strings.Join(subjects, ";"))
	}
}

func (c *Client) setMetaHeader(httpReq *http.Request, name, value string) {
	clean := SanitizeHeader(value)
	if clean == "" {
		return
	}
	if !validHeaderValue(clean) {
		c.logger.Warn("dropping metadata header %s: value not transmittable", name)
		return
	}
	httpReq.Header.Set(name, clean)
}

// SafeFilename reduces a payload filename to a form safe inside the item
// URL, replacing disallowed characters with underscores. Dots survive, so
// the original extension is preserved.
func SafeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	safe := unsafeFilenameChar.ReplaceAllString(base, "_")
	if safe == "" || safe == "." || safe == ".." {
		return "upload"
	}
	return safe
}
