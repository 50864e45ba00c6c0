package wizard

import (
	"errors"

	"github.com/jbrick2070/Archival-Flow/internal/archive"
	"github.com/jbrick2070/Archival-Flow/internal/shared/logging"
)

// Publish preconditions surfaced to the UI layer. ErrCredentialsMissing
// routes the user to credential entry instead of a step transition.
var (
	ErrNoFile             = errors.New("no file selected")
	ErrCredentialsMissing = errors.New("credentials missing")
	ErrWrongStep          = errors.New("action not valid in current step")
)

// Orchestrator sequences the publish flow. It is driven from a single event
// loop (the UI's); it performs no locking and spawns nothing itself — the
// transport and poller report back through the loop as events.
type Orchestrator struct {
	state  State
	file   *File
	draft  Draft
	logger logging.Logger
}

// New returns an orchestrator in StepIdle.
func New(logger logging.Logger) *Orchestrator {
	return &Orchestrator{logger: logging.OrNop(logger)}
}

// State returns the current step state.
func (o *Orchestrator) State() State {
	return o.state
}

// File returns the selected file, or nil in StepIdle.
func (o *Orchestrator) File() *File {
	return o.file
}

// Draft returns the editable metadata.
func (o *Orchestrator) Draft() Draft {
	return o.draft
}

// SetDraft replaces the editable metadata. Population from the generator is
// asynchronous and never blocks a step transition.
func (o *Orchestrator) SetDraft(d Draft) {
	o.draft = d
}

// SelectFile moves Idle → Reviewing with the chosen payload. Metadata
// generation is requested by the caller separately; the transition itself is
// synchronous.
func (o *Orchestrator) SelectFile(f File) error {
	if o.state.Step != StepIdle {
		return ErrWrongStep
	}
	o.file = &f
	o.state = State{Step: StepReviewing}
	o.logger.Debug("selected %s (%d bytes)", f.Name, f.Size)
	return nil
}

// BeginUpload moves Reviewing → Uploading(0). It refuses to start without a
// file or without credentials; the latter is the signal to route the user to
// credential entry while staying in Reviewing.
func (o *Orchestrator) BeginUpload(creds archive.Credentials) error {
	if o.state.Step != StepReviewing {
		return ErrWrongStep
	}
	if o.file == nil {
		return ErrNoFile
	}
	if !creds.Present() {
		return ErrCredentialsMissing
	}
	o.state = State{Step: StepUploading}
	return nil
}

// ApplyProgress records a transport progress event. Percentages arrive in
// non-decreasing order from the transport; they are applied as-is.
func (o *Orchestrator) ApplyProgress(percent int) {
	if o.state.Step != StepUploading {
		return
	}
	o.state.Progress = percent
}

// CompleteUpload moves Uploading → Succeeded(url).
func (o *Orchestrator) CompleteUpload(result *archive.UploadResult) {
	if o.state.Step != StepUploading {
		return
	}
	o.state = State{Step: StepSucceeded, URL: result.PublicURL}
	o.logger.Info("upload succeeded: %s", result.PublicURL)
}

// FailUpload moves Uploading → Failed, classifying credential failures so
// the UI can offer re-entry without discarding the pending upload.
func (o *Orchestrator) FailUpload(err error) {
	if o.state.Step != StepUploading {
		return
	}
	o.state = State{
		Step:              StepFailed,
		Message:           err.Error(),
		CredentialFailure: archive.IsCredentialFailure(err),
	}
	o.logger.Warn("upload failed: %v", err)
}

// Retry moves Failed → Reviewing, keeping the selected file and metadata.
func (o *Orchestrator) Retry() error {
	if o.state.Step != StepFailed {
		return ErrWrongStep
	}
	o.state = State{Step: StepReviewing}
	return nil
}

// Reset returns unconditionally to Idle, discarding the file, metadata, and
// all per-attempt state.
func (o *Orchestrator) Reset() {
	o.state = State{}
	o.file = nil
	o.draft = Draft{}
}
