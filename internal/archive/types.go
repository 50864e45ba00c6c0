// Package archive implements the client side of an Internet-Archive-style
// content-storage service: item identifier derivation, header-safe metadata
// encoding, the authenticated bulk-upload transport, and the poller that
// watches server-side post-processing of an uploaded binary.
package archive

import (
	"fmt"
	"io"
	"strings"
)

// Credentials is the S3-style key pair the service accepts via its LOW
// authorization scheme. Both values are opaque and never parsed.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// Present reports whether both halves of the pair are non-empty.
func (c Credentials) Present() bool {
	return strings.TrimSpace(c.AccessKey) != "" && strings.TrimSpace(c.SecretKey) != ""
}

func (c Credentials) authorization() string {
	return fmt.Sprintf("LOW %s:%s", c.AccessKey, c.SecretKey)
}

// Metadata describes the item being published. Tags form an ordered set;
// Normalize drops duplicates and blank entries while preserving order.
type Metadata struct {
	Title       string
	Description string
	Creator     string
	Tags        []string
}

// Normalize returns a copy with trimmed fields and deduplicated tags.
func (m Metadata) Normalize() Metadata {
	out := Metadata{
		Title:       strings.TrimSpace(m.Title),
		Description: strings.TrimSpace(m.Description),
		Creator:     strings.TrimSpace(m.Creator),
	}
	seen := make(map[string]struct{}, len(m.Tags))
	for _, tag := range m.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out.Tags = append(out.Tags, tag)
	}
	return out
}

// UploadRequest is the immutable input of one upload attempt. The payload
// and metadata are fixed once the attempt starts; later edits affect only
// subsequent attempts.
type UploadRequest struct {
	FileName    string
	Size        int64
	Body        io.Reader
	Metadata    Metadata
	Credentials Credentials
}

// UploadResult is the successful outcome of an upload attempt.
type UploadResult struct {
	Identifier string
	PublicURL  string
}

// UploadError is the failed outcome of an upload attempt. Status is zero
// when the failure happened below HTTP (network unreachable, timeout).
type UploadError struct {
	Status int
	Body   string
	Err    error
}

func (e *UploadError) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("upload failed: status %d: %s", e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("upload failed: status %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("upload failed: %v", e.Err)
	default:
		return "upload failed"
	}
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// UploadEvent is one element of the upload's event stream: zero or more
// progress events with monotonically non-decreasing percentages, terminated
// by exactly one event with Done set carrying the outcome.
type UploadEvent struct {
	Percent int
	Done    bool
	Result  *UploadResult
	Err     error
}
