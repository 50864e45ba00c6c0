package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbrick2070/Archival-Flow/internal/archive"
	"github.com/jbrick2070/Archival-Flow/internal/config"
	"github.com/jbrick2070/Archival-Flow/internal/credentials"
	"github.com/jbrick2070/Archival-Flow/internal/shared/logging"
	"github.com/jbrick2070/Archival-Flow/internal/wizard"
)

// ═══════════════════════════════════════════════════════════════
// Fixtures
// ═══════════════════════════════════════════════════════════════

// notReadyServer answers every metadata probe with 404, so a started poller
// never completes on its own.
func notReadyServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testWizardModel(t *testing.T) *wizardModel {
	t.Helper()
	srv := notReadyServer(t)
	cfg := &config.Config{
		UploadBaseURL:   srv.URL,
		MetadataBaseURL: srv.URL,
		PublicBaseURL:   "https://archive.example",
		DerivedFormat:   config.DefaultDerivedFormat,
		// Hour-scale interval: only the poller's immediate check runs
		// during a test.
		PollIntervalSeconds: 3600,
	}
	a := &app{cfg: cfg, logger: logging.Nop()}
	file := wizard.File{Path: "/tmp/take-one.mp3", Name: "take-one.mp3", Size: 4}
	rec := credentials.Record{AccessKey: "ak", SecretKey: "sk"}
	return newWizardModel(context.Background(), a, file, rec, publishOptions{})
}

// succeededModel drives the model to StepSucceeded with a live poller, the
// state every teardown path starts from.
func succeededModel(t *testing.T) *wizardModel {
	t.Helper()
	m := testWizardModel(t)
	require.NoError(t, m.orch.SelectFile(m.file))
	require.NoError(t, m.orch.BeginUpload(m.rec.Pair()))

	result := &archive.UploadResult{
		Identifier: "audio-take-one-1",
		PublicURL:  "https://archive.example/details/audio-take-one-1",
	}
	_, _ = m.Update(uploadEventMsg{ev: archive.UploadEvent{Percent: 100, Done: true, Result: result}})

	require.Equal(t, wizard.StepSucceeded, m.orch.State().Step)
	require.NotNil(t, m.waitTask)
	return m
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// ═══════════════════════════════════════════════════════════════
// Teardown paths
// ═══════════════════════════════════════════════════════════════

func TestWizardSkipStopsVerification(t *testing.T) {
	m := succeededModel(t)
	require.True(t, m.awaitingVerification())

	_, _ = m.Update(keyMsg("s"))
	assert.True(t, m.verifSkipped)
	assert.False(t, m.awaitingVerification())

	// Once skipped, ticks neither reschedule nor mutate anything.
	before := m.orch.State()
	_, cmd := m.Update(verifyTickMsg{})
	assert.Nil(t, cmd)
	assert.Equal(t, before, m.orch.State())
}

func TestWizardResetReleasesPoller(t *testing.T) {
	m := succeededModel(t)

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, wizard.StepIdle, m.orch.State().Step)
	assert.Nil(t, m.waitTask)
	assert.Nil(t, m.payload)
	assert.Empty(t, m.inputs[inputTitle].Value())

	_, cmd := m.Update(verifyTickMsg{})
	assert.Nil(t, cmd)
	assert.Equal(t, wizard.StepIdle, m.orch.State().Step)
}

func TestWizardQuitReleasesPoller(t *testing.T) {
	m := succeededModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	assert.True(t, m.quitting)
	assert.Nil(t, m.waitTask)
	assert.Nil(t, m.payload)

	_, tickCmd := m.Update(verifyTickMsg{})
	assert.Nil(t, tickCmd)
}

func TestWizardQuitDuringUpload(t *testing.T) {
	m := testWizardModel(t)
	require.NoError(t, m.orch.SelectFile(m.file))
	require.NoError(t, m.orch.BeginUpload(m.rec.Pair()))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, m.payload)
}
