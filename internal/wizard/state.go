// Package wizard holds the publish flow's step state machine. The machine is
// the single source of truth for the user-visible lifecycle; UI layers render
// from it and feed transport and poller events back into it.
package wizard

import "github.com/jbrick2070/Archival-Flow/internal/archive"

// Step enumerates the top-level states of the publish flow.
type Step int

const (
	StepIdle Step = iota
	StepReviewing
	StepUploading
	StepSucceeded
	StepFailed
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepReviewing:
		return "reviewing"
	case StepUploading:
		return "uploading"
	case StepSucceeded:
		return "succeeded"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the machine's tagged state. Exactly one step is active; the
// remaining fields are meaningful only for the step that carries them:
// Progress during StepUploading, URL during StepSucceeded, Message and
// CredentialFailure during StepFailed.
type State struct {
	Step              Step
	Progress          int
	URL               string
	Message           string
	CredentialFailure bool
}

// File is the selected local payload.
type File struct {
	Path string
	Name string
	Size int64
}

// Draft is the editable metadata shown in the review step. It feeds one
// immutable archive.UploadRequest per publish attempt; edits made after an
// attempt starts only affect the next attempt.
type Draft struct {
	Title       string
	Description string
	Creator     string
	Tags        []string
}

// Metadata converts the draft for the transport.
func (d Draft) Metadata() archive.Metadata {
	return archive.Metadata{
		Title:       d.Title,
		Description: d.Description,
		Creator:     d.Creator,
		Tags:        d.Tags,
	}
}
