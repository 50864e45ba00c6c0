package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jbrick2070/Archival-Flow/internal/archive"
	"github.com/jbrick2070/Archival-Flow/internal/credentials"
	"github.com/jbrick2070/Archival-Flow/internal/metadata"
	"github.com/jbrick2070/Archival-Flow/internal/wizard"
)

// ═══════════════════════════════════════════════════════════════
// Messages
// ═══════════════════════════════════════════════════════════════

type metadataReadyMsg struct {
	draft wizard.Draft
}

type uploadEventMsg struct {
	ev archive.UploadEvent
	ch <-chan archive.UploadEvent
}

type verifyTickMsg struct{}

type credentialsSavedMsg struct {
	rec      credentials.Record
	verified bool
	err      error
}

// Review-step input indexes.
const (
	inputTitle = iota
	inputCreator
	inputTags
	inputDescription
	inputCount
)

// Credential-entry input indexes.
const (
	credInputAccess = iota
	credInputSecret
	credInputCount
)

// ═══════════════════════════════════════════════════════════════
// Model
// ═══════════════════════════════════════════════════════════════

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	stepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(13)
	urlStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// wizardModel renders the publish step machine. All state transitions run in
// Update; background work reports back as messages, so the orchestrator has
// a single writer.
type wizardModel struct {
	ctx  context.Context
	a    *app
	opts publishOptions

	orch   *wizard.Orchestrator
	client *archive.Client
	gen    *metadata.Generator
	rec    credentials.Record

	file wizard.File

	inputs      []textinput.Model
	focus       int
	metaPending bool

	// Credential re-entry overlay; the underlying step state is untouched
	// while it is open.
	credEntry  bool
	credInputs []textinput.Model
	credFocus  int
	credNotice string

	payload *os.File
	events  <-chan archive.UploadEvent

	waitTask     *archive.WaitTask
	verifState   archive.VerificationState
	verifSkipped bool

	spin spinner.Model
	bar  progress.Model

	width    int
	quitting bool
}

func newWizardModel(ctx context.Context, a *app, file wizard.File, rec credentials.Record, opts publishOptions) *wizardModel {
	inputs := make([]textinput.Model, inputCount)
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 512
		ti.Width = 60
		inputs[i] = ti
	}
	inputs[inputTitle].Placeholder = "Title"
	inputs[inputCreator].Placeholder = "Creator"
	inputs[inputTags].Placeholder = "Tags (comma separated)"
	inputs[inputDescription].Placeholder = "Description"
	inputs[inputTitle].Focus()

	credInputs := make([]textinput.Model, credInputCount)
	for i := range credInputs {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Width = 60
		credInputs[i] = ti
	}
	credInputs[credInputAccess].Placeholder = "Access key"
	credInputs[credInputSecret].Placeholder = "Secret key"
	credInputs[credInputSecret].EchoMode = textinput.EchoPassword
	credInputs[credInputSecret].EchoCharacter = '*'

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &wizardModel{
		ctx:        ctx,
		a:          a,
		opts:       opts,
		orch:       wizard.New(a.logger),
		client:     archive.NewClient(a.cfg, a.logger),
		gen:        metadata.NewGenerator(a.cfg, a.logger),
		rec:        rec,
		file:       file,
		inputs:     inputs,
		credInputs: credInputs,
		spin:       sp,
		bar:        progress.New(progress.WithDefaultGradient()),
	}
	return m
}

func (m *wizardModel) Init() tea.Cmd {
	if err := m.orch.SelectFile(m.file); err != nil {
		m.a.logger.Error("file selection rejected: %v", err)
	}
	m.metaPending = true
	return tea.Batch(m.spin.Tick, m.generateMetadataCmd())
}

// ═══════════════════════════════════════════════════════════════
// Commands
// ═══════════════════════════════════════════════════════════════

func (m *wizardModel) generateMetadataCmd() tea.Cmd {
	file, opts := m.file, m.opts
	gen, ctx := m.gen, m.ctx
	return func() tea.Msg {
		generated := gen.Generate(ctx, file.Name, opts.hint)
		return metadataReadyMsg{draft: applyOverrides(generated, opts)}
	}
}

func listenUploadCmd(ch <-chan archive.UploadEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return uploadEventMsg{ev: ev, ch: ch}
	}
}

func verifyTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return verifyTickMsg{}
	})
}

func (m *wizardModel) saveCredentialsCmd(rec credentials.Record) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		rec.Verified = client.VerifyCredentials(ctx, rec.Pair())
		err := credentials.Save(rec)
		return credentialsSavedMsg{rec: rec, verified: rec.Verified, err: err}
	}
}

// startUpload freezes the draft into an immutable request and launches the
// transfer. Called only from Update.
func (m *wizardModel) startUpload() tea.Cmd {
	m.orch.SetDraft(m.draftFromInputs())
	if err := m.orch.BeginUpload(m.rec.Pair()); err != nil {
		if err == wizard.ErrCredentialsMissing {
			m.openCredEntry("No stored credentials. Enter them to publish.")
		}
		return nil
	}

	f, err := os.Open(m.file.Path)
	if err != nil {
		m.orch.FailUpload(&archive.UploadError{Err: err})
		return nil
	}
	m.payload = f

	ch := m.client.Upload(m.ctx, archive.UploadRequest{
		FileName:    m.file.Name,
		Size:        m.file.Size,
		Body:        f,
		Metadata:    m.orch.Draft().Metadata(),
		Credentials: m.rec.Pair(),
	})
	m.events = ch
	return listenUploadCmd(ch)
}

// ═══════════════════════════════════════════════════════════════
// Update
// ═══════════════════════════════════════════════════════════════

func (m *wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(msg.Width-8, 60)
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.metaPending || m.awaitingVerification() {
			return m, cmd
		}
		return m, nil

	case metadataReadyMsg:
		m.metaPending = false
		m.orch.SetDraft(msg.draft)
		m.setInputsFromDraft(msg.draft)
		return m, nil

	case uploadEventMsg:
		return m.updateUploadEvent(msg)

	case verifyTickMsg:
		if m.waitTask == nil || m.verifSkipped {
			return m, nil
		}
		m.verifState = m.waitTask.State()
		if m.verifState.Done {
			return m, nil
		}
		return m, verifyTickCmd()

	case credentialsSavedMsg:
		return m.updateCredentialsSaved(msg)
	}

	return m, nil
}

func (m *wizardModel) updateUploadEvent(msg uploadEventMsg) (tea.Model, tea.Cmd) {
	ev := msg.ev
	if !ev.Done {
		m.orch.ApplyProgress(ev.Percent)
		return m, listenUploadCmd(msg.ch)
	}

	m.closePayload()

	if ev.Err != nil {
		m.orch.FailUpload(ev.Err)
		return m, nil
	}

	m.orch.CompleteUpload(ev.Result)
	m.verifState = archive.VerificationState{}
	m.verifSkipped = false
	m.waitTask = m.client.WaitForDerivedFile(m.ctx, ev.Result.Identifier, m.a.cfg.PollInterval())
	return m, tea.Batch(m.spin.Tick, verifyTickCmd())
}

func (m *wizardModel) updateCredentialsSaved(msg credentialsSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.credNotice = "Could not save credentials: " + msg.err.Error()
		return m, nil
	}
	m.rec = msg.rec
	m.credEntry = false
	if !msg.verified {
		m.credNotice = ""
		// Saved but rejected by the probe; surface it on the review screen.
		m.a.logger.Warn("stored credentials failed verification probe")
	}
	if m.orch.State().Step == wizard.StepFailed {
		if err := m.orch.Retry(); err != nil {
			m.a.logger.Error("retry after credential update rejected: %v", err)
		}
	}
	return m, nil
}

func (m *wizardModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.credEntry {
		return m.updateCredEntryKey(msg)
	}

	switch m.orch.State().Step {
	case wizard.StepIdle:
		switch msg.String() {
		case "enter":
			if err := m.orch.SelectFile(m.file); err == nil {
				m.metaPending = true
				return m, tea.Batch(m.spin.Tick, m.generateMetadataCmd())
			}
		case "q":
			return m.quit()
		}
		return m, nil

	case wizard.StepReviewing:
		return m.updateReviewKey(msg)

	case wizard.StepUploading:
		// The transfer owns this phase; only quit is accepted.
		return m, nil

	case wizard.StepSucceeded:
		switch msg.String() {
		case "s":
			if m.awaitingVerification() {
				m.skipVerification()
			}
		case "esc":
			m.reset()
		case "q":
			return m.quit()
		}
		return m, nil

	case wizard.StepFailed:
		switch msg.String() {
		case "r":
			if err := m.orch.Retry(); err != nil {
				m.a.logger.Error("retry rejected: %v", err)
			}
		case "c":
			if m.orch.State().CredentialFailure {
				m.openCredEntry("The service rejected the stored credentials. Re-enter them.")
			}
		case "esc":
			m.reset()
		case "q":
			return m.quit()
		}
		return m, nil
	}

	return m, nil
}

func (m *wizardModel) updateReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.setFocus((m.focus + 1) % inputCount)
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focus + inputCount - 1) % inputCount)
		return m, nil
	case "enter":
		if m.focus < inputCount-1 {
			m.setFocus(m.focus + 1)
			return m, nil
		}
		return m, m.startUpload()
	case "ctrl+p":
		return m, m.startUpload()
	case "esc":
		m.reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *wizardModel) updateCredEntryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.credFocus = (m.credFocus + 1) % credInputCount
		for i := range m.credInputs {
			if i == m.credFocus {
				m.credInputs[i].Focus()
			} else {
				m.credInputs[i].Blur()
			}
		}
		return m, nil
	case "enter":
		if m.credFocus == credInputAccess {
			m.credFocus = credInputSecret
			m.credInputs[credInputAccess].Blur()
			m.credInputs[credInputSecret].Focus()
			return m, nil
		}
		rec := credentials.Record{
			AccessKey: strings.TrimSpace(m.credInputs[credInputAccess].Value()),
			SecretKey: strings.TrimSpace(m.credInputs[credInputSecret].Value()),
		}
		if rec.AccessKey == "" || rec.SecretKey == "" {
			m.credNotice = "Both keys are required."
			return m, nil
		}
		m.credNotice = "Verifying…"
		return m, m.saveCredentialsCmd(rec)
	case "esc":
		m.credEntry = false
		m.credNotice = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.credInputs[m.credFocus], cmd = m.credInputs[m.credFocus].Update(msg)
	return m, cmd
}

// ═══════════════════════════════════════════════════════════════
// Transitions and helpers
// ═══════════════════════════════════════════════════════════════

func (m *wizardModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.teardown()
	return m, tea.Quit
}

// teardown releases the poller and payload handle on every exit path so no
// orphaned timer survives the view.
func (m *wizardModel) teardown() {
	if m.waitTask != nil {
		m.waitTask.Stop()
		m.waitTask = nil
	}
	m.closePayload()
}

func (m *wizardModel) reset() {
	m.teardown()
	m.orch.Reset()
	m.metaPending = false
	m.verifState = archive.VerificationState{}
	m.verifSkipped = false
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.setFocus(inputTitle)
}

func (m *wizardModel) skipVerification() {
	m.verifSkipped = true
	if m.waitTask != nil {
		m.waitTask.Stop()
	}
}

func (m *wizardModel) closePayload() {
	if m.payload != nil {
		_ = m.payload.Close()
		m.payload = nil
	}
}

func (m *wizardModel) openCredEntry(notice string) {
	m.credEntry = true
	m.credNotice = notice
	m.credFocus = credInputAccess
	m.credInputs[credInputAccess].SetValue(m.rec.AccessKey)
	m.credInputs[credInputSecret].SetValue("")
	m.credInputs[credInputAccess].Focus()
	m.credInputs[credInputSecret].Blur()
}

func (m *wizardModel) awaitingVerification() bool {
	return m.orch.State().Step == wizard.StepSucceeded &&
		m.waitTask != nil && !m.verifState.Done && !m.verifSkipped
}

func (m *wizardModel) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m *wizardModel) setInputsFromDraft(d wizard.Draft) {
	m.inputs[inputTitle].SetValue(d.Title)
	m.inputs[inputCreator].SetValue(d.Creator)
	m.inputs[inputTags].SetValue(strings.Join(d.Tags, ", "))
	m.inputs[inputDescription].SetValue(d.Description)
}

func (m *wizardModel) draftFromInputs() wizard.Draft {
	var tags []string
	for _, tag := range strings.Split(m.inputs[inputTags].Value(), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return wizard.Draft{
		Title:       m.inputs[inputTitle].Value(),
		Description: m.inputs[inputDescription].Value(),
		Creator:     m.inputs[inputCreator].Value(),
		Tags:        tags,
	}
}

// ═══════════════════════════════════════════════════════════════
// View
// ═══════════════════════════════════════════════════════════════

func (m *wizardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("archivalflow") + " " + stepStyle.Render(m.file.Name) + "\n")
	b.WriteString(m.stepLine() + "\n\n")

	if m.credEntry {
		m.viewCredEntry(&b)
		return b.String()
	}

	switch m.orch.State().Step {
	case wizard.StepIdle:
		b.WriteString("Nothing selected.\n")
		b.WriteString(helpStyle.Render(fmt.Sprintf("enter: select %s again • q: quit", m.file.Name)))

	case wizard.StepReviewing:
		m.viewReviewing(&b)

	case wizard.StepUploading:
		percent := m.orch.State().Progress
		b.WriteString("Uploading…\n\n")
		b.WriteString("  " + m.bar.ViewAs(float64(percent)/100) + fmt.Sprintf("  %3d%%\n", percent))
		b.WriteString(helpStyle.Render("ctrl+c: quit"))

	case wizard.StepSucceeded:
		m.viewSucceeded(&b)

	case wizard.StepFailed:
		m.viewFailed(&b)
	}

	return b.String()
}

func (m *wizardModel) stepLine() string {
	names := []string{"select", "review", "upload", "done"}
	active := map[wizard.Step]int{
		wizard.StepIdle:      0,
		wizard.StepReviewing: 1,
		wizard.StepUploading: 2,
		wizard.StepSucceeded: 3,
		wizard.StepFailed:    2,
	}[m.orch.State().Step]

	parts := make([]string, len(names))
	for i, name := range names {
		if i == active {
			parts[i] = activeStyle.Render(name)
		} else {
			parts[i] = stepStyle.Render(name)
		}
	}
	return stepStyle.Render("· ") + strings.Join(parts, stepStyle.Render(" › "))
}

func (m *wizardModel) viewReviewing(b *strings.Builder) {
	if m.metaPending {
		b.WriteString(m.spin.View() + " generating metadata…\n\n")
	}

	labels := []string{"Title", "Creator", "Tags", "Description"}
	for i, input := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]) + " " + input.View() + "\n")
	}

	if !m.rec.Present() {
		b.WriteString("\n" + warnStyle.Render("No stored credentials — publishing will ask for them.") + "\n")
	}
	b.WriteString(helpStyle.Render("tab: next field • ctrl+p: publish • esc: start over • ctrl+c: quit"))
}

func (m *wizardModel) viewSucceeded(b *strings.Builder) {
	state := m.orch.State()
	b.WriteString(okStyle.Render("✓ uploaded") + "\n")
	b.WriteString("  " + urlStyle.Render(state.URL) + "\n\n")

	switch {
	case m.verifState.Done:
		b.WriteString(okStyle.Render("✓ the item page is fully rendered") + "\n")
	case m.verifSkipped:
		b.WriteString(warnStyle.Render("stopped waiting — the service keeps processing in the background") + "\n")
	default:
		b.WriteString(fmt.Sprintf("%s waiting for the item page to render… %ds\n",
			m.spin.View(), m.verifState.ElapsedSeconds))
		if m.verifState.ElapsedSeconds >= skipOfferAfterSeconds {
			b.WriteString(warnStyle.Render("  this can take a while — press s to stop waiting") + "\n")
		}
	}

	b.WriteString(helpStyle.Render("s: stop waiting • esc: publish another • q: quit"))
}

func (m *wizardModel) viewFailed(b *strings.Builder) {
	state := m.orch.State()
	b.WriteString(errStyle.Render("✗ upload failed") + "\n")
	b.WriteString("  " + state.Message + "\n\n")

	if state.CredentialFailure {
		b.WriteString(warnStyle.Render("The service rejected the stored credentials.") + "\n")
		b.WriteString(helpStyle.Render("c: re-enter credentials • r: retry • esc: start over • q: quit"))
		return
	}
	b.WriteString(helpStyle.Render("r: retry • esc: start over • q: quit"))
}

func (m *wizardModel) viewCredEntry(b *strings.Builder) {
	b.WriteString(bold("Storage credentials") + "\n\n")
	b.WriteString(labelStyle.Render("Access key") + " " + m.credInputs[credInputAccess].View() + "\n")
	b.WriteString(labelStyle.Render("Secret key") + " " + m.credInputs[credInputSecret].View() + "\n")
	if m.credNotice != "" {
		b.WriteString("\n" + warnStyle.Render(m.credNotice) + "\n")
	}
	b.WriteString(helpStyle.Render("enter: save • esc: back • ctrl+c: quit"))
}
