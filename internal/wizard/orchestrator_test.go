package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbrick2070/Archival-Flow/internal/archive"
	"github.com/jbrick2070/Archival-Flow/internal/shared/logging"
)

var testCreds = archive.Credentials{AccessKey: "ak", SecretKey: "sk"}

func reviewing(t *testing.T) *Orchestrator {
	t.Helper()
	o := New(logging.Nop())
	require.NoError(t, o.SelectFile(File{Path: "/tmp/a.mp3", Name: "a.mp3", Size: 10}))
	return o
}

func TestSelectFileTransitionsToReviewing(t *testing.T) {
	o := New(logging.Nop())
	assert.Equal(t, StepIdle, o.State().Step)

	require.NoError(t, o.SelectFile(File{Name: "a.mp3"}))
	assert.Equal(t, StepReviewing, o.State().Step)
	require.NotNil(t, o.File())
	assert.Equal(t, "a.mp3", o.File().Name)

	assert.ErrorIs(t, o.SelectFile(File{Name: "b.mp3"}), ErrWrongStep)
}

func TestBeginUploadRequiresCredentials(t *testing.T) {
	o := reviewing(t)

	err := o.BeginUpload(archive.Credentials{})
	assert.ErrorIs(t, err, ErrCredentialsMissing)
	assert.Equal(t, StepReviewing, o.State().Step, "missing credentials must not transition")

	require.NoError(t, o.BeginUpload(testCreds))
	assert.Equal(t, StepUploading, o.State().Step)
	assert.Zero(t, o.State().Progress)
}

func TestUploadLifecycleToSuccess(t *testing.T) {
	o := reviewing(t)
	require.NoError(t, o.BeginUpload(testCreds))

	var visited []int
	for _, p := range []int{10, 55, 100} {
		o.ApplyProgress(p)
		visited = append(visited, o.State().Progress)
	}
	assert.Equal(t, []int{10, 55, 100}, visited)

	o.CompleteUpload(&archive.UploadResult{
		Identifier: "audio-x-1",
		PublicURL:  "https://archive.example/details/audio-x-1",
	})
	assert.Equal(t, StepSucceeded, o.State().Step)
	assert.Equal(t, "https://archive.example/details/audio-x-1", o.State().URL)
}

func TestFailUploadClassifiesCredentialFailure(t *testing.T) {
	o := reviewing(t)
	require.NoError(t, o.BeginUpload(testCreds))

	o.FailUpload(&archive.UploadError{Status: 403, Body: "<Code>InvalidAccessKeyId</Code>"})
	state := o.State()
	assert.Equal(t, StepFailed, state.Step)
	assert.True(t, state.CredentialFailure)
	assert.Contains(t, state.Message, "403")
}

func TestFailUploadGenericFailure(t *testing.T) {
	o := reviewing(t)
	require.NoError(t, o.BeginUpload(testCreds))

	o.FailUpload(&archive.UploadError{Status: 503, Body: "slow down"})
	assert.False(t, o.State().CredentialFailure)
}

func TestRetryKeepsFileAndDraft(t *testing.T) {
	o := reviewing(t)
	o.SetDraft(Draft{Title: "Kept", Tags: []string{"a"}})
	require.NoError(t, o.BeginUpload(testCreds))
	o.FailUpload(&archive.UploadError{Status: 500})

	require.NoError(t, o.Retry())
	assert.Equal(t, StepReviewing, o.State().Step)
	require.NotNil(t, o.File())
	assert.Equal(t, "a.mp3", o.File().Name)
	assert.Equal(t, "Kept", o.Draft().Title)
}

func TestResetFromEveryStep(t *testing.T) {
	build := map[string]func(t *testing.T) *Orchestrator{
		"idle": func(t *testing.T) *Orchestrator { return New(logging.Nop()) },
		"reviewing": func(t *testing.T) *Orchestrator {
			return reviewing(t)
		},
		"uploading": func(t *testing.T) *Orchestrator {
			o := reviewing(t)
			require.NoError(t, o.BeginUpload(testCreds))
			o.ApplyProgress(42)
			return o
		},
		"succeeded": func(t *testing.T) *Orchestrator {
			o := reviewing(t)
			require.NoError(t, o.BeginUpload(testCreds))
			o.CompleteUpload(&archive.UploadResult{PublicURL: "u"})
			return o
		},
		"failed": func(t *testing.T) *Orchestrator {
			o := reviewing(t)
			require.NoError(t, o.BeginUpload(testCreds))
			o.FailUpload(&archive.UploadError{Status: 500})
			return o
		},
	}

	for name, setup := range build {
		t.Run(name, func(t *testing.T) {
			o := setup(t)
			o.SetDraft(Draft{Title: "x"})
			o.Reset()

			assert.Equal(t, State{}, o.State())
			assert.Equal(t, StepIdle, o.State().Step)
			assert.Nil(t, o.File())
			assert.Equal(t, Draft{}, o.Draft())
		})
	}
}

func TestEventsOutsideUploadingIgnored(t *testing.T) {
	o := reviewing(t)

	o.ApplyProgress(50)
	assert.Equal(t, StepReviewing, o.State().Step)
	assert.Zero(t, o.State().Progress)

	o.CompleteUpload(&archive.UploadResult{PublicURL: "u"})
	assert.Equal(t, StepReviewing, o.State().Step)

	o.FailUpload(&archive.UploadError{Status: 500})
	assert.Equal(t, StepReviewing, o.State().Step)
}
