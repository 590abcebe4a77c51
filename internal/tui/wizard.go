// Package tui implements the document wizard's terminal interface: a gated
// four-step flow over the selection store, plus the queued-document result
// screen.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/mark3labs/docweaver/internal/config"
	"github.com/mark3labs/docweaver/internal/logger"
	"github.com/mark3labs/docweaver/internal/lookup"
	"github.com/mark3labs/docweaver/internal/selection"
	"github.com/mark3labs/docweaver/internal/wizard"
)

// Model is the main BubbleTea model for the document wizard. It owns the
// current step, the cached session state, and the reset confirmation modal;
// the step components own their own cursors and fetch state.
type Model struct {
	store   *selection.Store
	client  *lookup.Client
	cfg     *config.Config
	session string

	step      wizard.Step
	state     *selection.State
	width     int
	height    int
	cancelled bool

	languagesStep *LanguagesStep
	booksStep     *BooksStep
	resourcesStep *ResourceTypesStep
	settingsStep  *SettingsStep
	resultStep    *ResultStep

	confirm      *ConfirmModal
	pending      tea.Cmd
	pendingGroup selection.Group
	pendingNav   bool
}

// New creates the wizard model. startStep lets a resolved transfer land the
// user past the selection steps; it is clamped to the first unreachable step
// once state arrives.
func New(store *selection.Store, client *lookup.Client, cfg *config.Config, session string, startStep wizard.Step) *Model {
	return &Model{
		store:   store,
		client:  client,
		cfg:     cfg,
		session: session,
		step:    startStep,
		confirm: NewConfirmModal(),
	}
}

// Run creates a standalone BubbleTea program for the wizard and blocks until
// the user finishes or cancels.
func Run(store *selection.Store, client *lookup.Client, cfg *config.Config, session string, startStep wizard.Step) error {
	m := New(store, client, cfg, session, startStep)

	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}

	final, ok := finalModel.(*Model)
	if !ok {
		return fmt.Errorf("unexpected model type")
	}
	if final.cancelled {
		return fmt.Errorf("wizard cancelled by user")
	}
	return nil
}

// Init loads the session state and initializes the starting step.
func (m *Model) Init() tea.Cmd {
	m.languagesStep = NewLanguagesStep(m.client)
	m.booksStep = NewBooksStep()
	m.resourcesStep = NewResourceTypesStep(m.client, m.cfg)
	m.settingsStep = NewSettingsStep()
	m.resultStep = NewResultStep(m.cfg)

	return tea.Batch(m.reloadCmd(), m.initStepCmd())
}

// Update handles messages for the wizard.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if m.confirm.IsVisible() {
			return m, m.updateConfirm(msg)
		}

		switch msg.String() {
		case "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "esc":
			if prev, ok := m.step.Prev(); ok {
				m.step = prev
				return m, m.initStepCmd()
			}
			m.cancelled = true
			return m, tea.Quit
		case "tab":
			if m.state != nil && wizard.NextEnabled(m.step, m.state) {
				if next, ok := m.step.Next(); ok {
					if group, guard := navGroup(m.step); guard && wizard.PendingReset(m.state, group) {
						return m, m.guardedAdvance(group, next)
					}
					m.step = next
					return m, m.initStepCmd()
				}
			}
			return m, nil
		case "shift+tab":
			if prev, ok := m.step.Prev(); ok {
				m.step = prev
				return m, m.initStepCmd()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateStepSizes()
		return m, nil

	case advanceStepMsg:
		m.step = msg.step
		return m, tea.Batch(m.reloadCmd(), m.initStepCmd())

	case stateRefreshedMsg:
		m.state = msg.state
		m.clampStep()
		m.pushState()
		if m.state.Notifications.ResetPending && !m.confirm.IsVisible() {
			// A flag without a confirmation in flight is stale, for
			// example left behind by a crashed session. Clear it.
			return m, m.clearResetFlagCmd()
		}
		return m, nil

	case addLanguageMsg:
		return m, m.guarded(selection.GroupLanguages, m.addLanguageCmd(msg.lang))

	case addBookMsg:
		return m, m.guarded(selection.GroupBooks, m.addBookCmd(msg.code))

	case addAllBooksMsg:
		return m, m.guarded(selection.GroupBooks, m.addAllBooksCmd())

	case addResourceTypeMsg:
		return m, m.addResourceTypeCmd(msg.rt)

	case settingsChangedMsg:
		return m, m.setSettingsCmd(msg.settings)

	case resetGroupMsg:
		return m, m.guarded(msg.group, m.resetGroupCmd(msg.group))

	case submitDocumentMsg:
		return m, m.submitDocumentCmd()

	case documentQueuedMsg:
		m.resultStep.Update(msg)
		return m, m.recordDocumentKeyCmd(msg.key)
	}

	// Forward everything else to the current step.
	var cmd tea.Cmd
	switch m.step {
	case wizard.StepLanguages:
		cmd = m.languagesStep.Update(msg)
	case wizard.StepBooks:
		cmd = m.booksStep.Update(msg)
	case wizard.StepResourceTypes:
		cmd = m.resourcesStep.Update(msg)
	case wizard.StepSettings:
		cmd = m.settingsStep.Update(msg)
	case wizard.StepResult:
		cmd = m.resultStep.Update(msg)
	}
	return m, cmd
}

// guarded wraps a write to an upstream group: when non-empty downstream
// groups would be invalidated, the write is parked behind the confirmation
// modal and the reset-pending flag is recorded instead.
func (m *Model) guarded(group selection.Group, apply tea.Cmd) tea.Cmd {
	if m.state == nil || !wizard.PendingReset(m.state, group) {
		return apply
	}

	m.pending = apply
	m.pendingGroup = group
	m.confirm.Show(group, wizard.Downstream(group))

	store, session := m.store, m.session
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := wizard.FlagPendingReset(ctx, store, session, group); err != nil {
			return selectionErrorMsg{err: err}
		}
		return nil
	}
}

// navGroup returns the selection group a forward navigation from the step
// would be revisiting. Only the steps with downstream selections guard.
func navGroup(step wizard.Step) (selection.Group, bool) {
	switch step {
	case wizard.StepLanguages:
		return selection.GroupLanguages, true
	case wizard.StepBooks:
		return selection.GroupBooks, true
	}
	return "", false
}

// guardedAdvance parks a forward navigation from a revisited step behind the
// confirmation modal and records the reset-pending flag. Confirming clears
// the downstream groups before moving on; declining keeps them and advances
// anyway.
func (m *Model) guardedAdvance(group selection.Group, next wizard.Step) tea.Cmd {
	m.pending = func() tea.Msg { return advanceStepMsg{step: next} }
	m.pendingGroup = group
	m.pendingNav = true
	m.confirm.ShowAdvance(group, wizard.Downstream(group))

	store, session := m.store, m.session
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := wizard.FlagPendingReset(ctx, store, session, group); err != nil {
			return selectionErrorMsg{err: err}
		}
		return nil
	}
}

// updateConfirm handles keys while the reset confirmation modal is open.
func (m *Model) updateConfirm(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		apply := m.pending
		group := m.pendingGroup
		m.pending = nil
		m.pendingNav = false
		m.confirm.Hide()

		store, session := m.store, m.session
		return func() tea.Msg {
			ctx := context.Background()
			if err := wizard.ConfirmReset(ctx, store, session, group); err != nil {
				return selectionErrorMsg{err: err}
			}
			if apply == nil {
				return stateRefreshedMsg{state: mustLoad(ctx, store, session)}
			}
			return apply()
		}
	case "n", "N", "esc":
		apply := m.pending
		wasNav := m.pendingNav
		m.pending = nil
		m.pendingNav = false
		m.confirm.Hide()
		if wasNav && apply != nil {
			return tea.Batch(m.clearResetFlagCmd(), apply)
		}
		return m.clearResetFlagCmd()
	}
	return nil
}

// clampStep walks the step back until it is reachable under current state.
// Settings is exempt once languages and books exist: a resolved repository
// link lands there even when no shared resource type matched, and bouncing
// the user back to resource types would hide the transfer outcome.
func (m *Model) clampStep() {
	for !wizard.Reachable(m.step, m.state) {
		if m.step == wizard.StepSettings && m.state != nil &&
			m.state.Languages.Count() > 0 && m.state.Books.Count() > 0 {
			break
		}
		prev, ok := m.step.Prev()
		if !ok {
			break
		}
		m.step = prev
	}
}

// pushState hands the refreshed state to every step component.
func (m *Model) pushState() {
	m.languagesStep.setState(m.state)
	m.booksStep.setState(m.state)
	m.resourcesStep.setState(m.state)
	m.settingsStep.setState(m.state)
	m.resultStep.setState(m.state)
}

// initStepCmd runs a step's entry work: lookups for the fetching steps,
// form sync for the local ones.
func (m *Model) initStepCmd() tea.Cmd {
	m.updateStepSizes()
	switch m.step {
	case wizard.StepLanguages:
		return m.languagesStep.Init()
	case wizard.StepBooks:
		return m.booksStep.Init()
	case wizard.StepResourceTypes:
		return m.resourcesStep.Init()
	case wizard.StepSettings:
		return m.settingsStep.Init()
	case wizard.StepResult:
		return m.resultStep.Init()
	}
	return nil
}

func (m *Model) updateStepSizes() {
	contentWidth := m.width - 10
	contentHeight := m.height - 10
	if contentWidth < 40 {
		contentWidth = 40
	}
	if contentHeight < 10 {
		contentHeight = 10
	}
	m.languagesStep.SetSize(contentWidth, contentHeight)
	m.booksStep.SetSize(contentWidth, contentHeight)
	m.resourcesStep.SetSize(contentWidth, contentHeight)
	m.settingsStep.SetSize(contentWidth, contentHeight)
	m.resultStep.SetSize(contentWidth, contentHeight)
}

// Store write commands. Each one performs the write and returns the freshly
// replayed state so the whole UI stays consistent with the event log.

func (m *Model) reloadCmd() tea.Cmd {
	store, session := m.store, m.session
	return func() tea.Msg {
		return stateRefreshedMsg{state: mustLoad(context.Background(), store, session)}
	}
}

func (m *Model) addLanguageCmd(lang lookup.Language) tea.Cmd {
	store, session := m.store, m.session
	return func() tea.Msg {
		ctx := context.Background()
		err := store.LanguagesAdd(ctx, session, selection.Language{
			Code:      lang.Code,
			Name:      lang.Name,
			IsGateway: lang.IsGateway,
		})
		if err != nil {
			return selectionErrorMsg{err: err}
		}
		return stateRefreshedMsg{state: mustLoad(ctx, store, session)}
	}
}

func (m *Model) addBookCmd(code string) tea.Cmd {
	store, session := m.store, m.session
	return func() tea.Msg {
		ctx := context.Background()
		if err := store.BooksAdd(ctx, session, code); err != nil {
			return selectionErrorMsg{err: err}
		}
		return stateRefreshedMsg{state: mustLoad(ctx, store, session)}
	}
}

func (m *Model) addAllBooksCmd() tea.Cmd {
	store, session := m.store, m.session
	return func() tea.Msg {
		ctx := context.Background()
		if err := store.BooksAddAll(ctx, session); err != nil {
			return selectionErrorMsg{err: err}
		}
		return stateRefreshedMsg{state: mustLoad(ctx, store, session)}
	}
}

func (m *Model) addResourceTypeCmd(rt selection.ResourceType) tea.Cmd {
	store, session := m.store, m.session
	return func() tea.Msg {
		ctx := context.Background()
		if err := store.ResourceTypesAdd(ctx, session, rt); err != nil {
			return selectionErrorMsg{err: err}
		}
		return stateRefreshedMsg{state: mustLoad(ctx, store, session)}
	}
}

func (m *Model) setSettingsCmd(settings selection.SettingsSelection) tea.Cmd {
	store, session := m.store, m.session
	return func() tea.Msg {
		ctx := context.Background()
		if err := store.SettingsSet(ctx, session, settings); err != nil {
			return selectionErrorMsg{err: err}
		}
		return stateRefreshedMsg{state: mustLoad(ctx, store, session)}
	}
}

func (m *Model) resetGroupCmd(group selection.Group) tea.Cmd {
	store, session := m.store, m.session
	return func() tea.Msg {
		ctx := context.Background()
		if err := store.ResetGroup(ctx, session, group); err != nil {
			return selectionErrorMsg{err: err}
		}
		return stateRefreshedMsg{state: mustLoad(ctx, store, session)}
	}
}

func (m *Model) clearResetFlagCmd() tea.Cmd {
	store, session := m.store, m.session
	return func() tea.Msg {
		ctx := context.Background()
		state, err := store.LoadState(ctx, session)
		if err != nil {
			return selectionErrorMsg{err: err}
		}
		n := state.Notifications
		n.ResetPending = false
		if err := store.NotificationsSet(ctx, session, n); err != nil {
			return selectionErrorMsg{err: err}
		}
		return stateRefreshedMsg{state: mustLoad(ctx, store, session)}
	}
}

func (m *Model) submitDocumentCmd() tea.Cmd {
	client, cfg := m.client, m.cfg
	state := m.state
	return func() tea.Msg {
		if state == nil {
			return documentErrorMsg{err: fmt.Errorf("no selection state")}
		}
		req := buildDocumentRequest(state, cfg)
		key, err := client.RequestDocument(context.Background(), req)
		if err != nil {
			return documentErrorMsg{err: err}
		}
		return documentQueuedMsg{key: key}
	}
}

func (m *Model) recordDocumentKeyCmd(key string) tea.Cmd {
	store, session := m.store, m.session
	return func() tea.Msg {
		ctx := context.Background()
		if err := store.SetDocumentKey(ctx, session, key); err != nil {
			return selectionErrorMsg{err: err}
		}
		return stateRefreshedMsg{state: mustLoad(ctx, store, session)}
	}
}

// buildDocumentRequest flattens the selection state into the backend's
// request shape: one resource row per (language, resource type, book).
func buildDocumentRequest(state *selection.State, cfg *config.Config) lookup.DocumentRequest {
	req := lookup.DocumentRequest{
		Email:            state.Settings.Email,
		AssemblyStrategy: state.Settings.AssemblyStrategy,
		ChunkSize:        state.Settings.ChunkSize,
		LayoutForPrint:   state.Settings.LayoutForPrint,
		GeneratePDF:      state.Settings.Formats.PDF,
		GenerateEPub:     state.Settings.Formats.EPub,
		GenerateDocx:     state.Settings.Formats.Docx,
	}
	for _, rt := range state.ResourceTypes.Entries {
		for _, code := range state.Books.Codes() {
			req.Resources = append(req.Resources, lookup.ResourceRequest{
				LangCode:     rt.LangCode,
				ResourceType: rt.TypeCode,
				BookCode:     code,
			})
		}
	}
	return req
}

// mustLoad replays the session state, returning an empty state on failure
// so the UI keeps rendering. The failure is logged.
func mustLoad(ctx context.Context, store *selection.Store, session string) *selection.State {
	state, err := store.LoadState(ctx, session)
	if err != nil {
		logger.Error("Failed to load session state: %v", err)
		return selection.NewState(session, selection.SettingsSelection{})
	}
	return state
}

// View renders the wizard UI.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true

	var stepContent string
	switch m.step {
	case wizard.StepLanguages:
		stepContent = m.languagesStep.View()
	case wizard.StepBooks:
		stepContent = m.booksStep.View()
	case wizard.StepResourceTypes:
		stepContent = m.resourcesStep.View()
	case wizard.StepSettings:
		stepContent = m.settingsStep.View()
	case wizard.StepResult:
		stepContent = m.resultStep.View()
	}

	content := m.renderModal(stepContent)

	canvas := uv.NewScreenBuffer(m.width, m.height)
	uv.NewStyledString(content).Draw(canvas, uv.Rectangle{
		Min: uv.Position{X: 0, Y: 0},
		Max: uv.Position{X: m.width, Y: m.height},
	})

	view.Content = lipgloss.NewLayer(canvas.Render())
	return view
}

// renderModal wraps the step content in a modal container with the step
// title and, when enabled, the breadcrumb row.
func (m *Model) renderModal(stepContent string) string {
	if m.confirm.IsVisible() {
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			m.confirm.Render(),
		)
	}

	var sections []string
	sections = append(sections, styleModalTitle.Render(wizard.Title(m.step)))

	if m.cfg.ShowTopNav && m.step != wizard.StepResult && m.state != nil {
		sections = append(sections, m.renderBreadcrumb())
	}
	sections = append(sections, "")
	sections = append(sections, stepContent)

	content := strings.Join(sections, "\n")

	modalWidth := m.width - 10
	if modalWidth < 60 {
		modalWidth = 60
	}
	if modalWidth > 100 {
		modalWidth = 100
	}

	modalContent := styleModalContainer.Width(modalWidth).Render(content)

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		modalContent,
	)
}

// renderBreadcrumb renders the top navigation row. Unreachable steps are
// dimmed; the current step is highlighted.
func (m *Model) renderBreadcrumb() string {
	crumbs := wizard.Breadcrumb(m.step, m.state)
	parts := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		label := c.Label
		if c.Complete {
			label = "✓ " + label
		}
		switch {
		case c.Current:
			parts = append(parts, styleCrumbCurrent.Render(label))
		case wizard.Reachable(c.Step, m.state):
			parts = append(parts, styleCrumbReachable.Render(label))
		default:
			parts = append(parts, styleCrumbLocked.Render(label))
		}
	}
	return strings.Join(parts, styleHintSeparator.Render(" › "))
}
