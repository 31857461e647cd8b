package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/strrl/claude-lens/internal/sessions"
	"github.com/strrl/claude-lens/pkg/models"
)

// Source is the data the browser reads
type Source interface {
	ProjectSummary(ctx context.Context) ([]models.ProjectSummary, error)
	ListSessions(ctx context.Context) ([]models.Session, error)
	SessionMessages(ctx context.Context, sessionID string) ([]models.Message, error)
}

type viewMode int

const (
	projectView viewMode = iota
	sessionView
)

type model struct {
	ctx          context.Context
	source       Source
	executor     *sessions.AsyncExecutor
	previewChars int

	projects        []models.ProjectSummary
	sessions        []models.Session
	currentMode     viewMode
	projectCursor   int
	sessionCursor   int
	selectedProject *models.ProjectSummary
	selectedSession *models.Session

	viewport      viewport.Model
	leftViewport  viewport.Model // sessions list in split view
	rightViewport viewport.Model // message previews in split view

	currentMessages []string
	messageCache    map[string][]string
	activeRequests  map[string]sessions.LoadingState
	loadingState    sessions.LoadingState
	loading         *LoadingIndicator

	status string
	ready  bool
	err    error
	width  int
	height int
}

func initialModel(ctx context.Context, source Source, executor *sessions.AsyncExecutor, previewChars int) model {
	return model{
		ctx:            ctx,
		source:         source,
		executor:       executor,
		previewChars:   previewChars,
		currentMode:    projectView,
		messageCache:   make(map[string][]string),
		activeRequests: make(map[string]sessions.LoadingState),
		loadingState:   sessions.StateLoadingProjects,
		loading:        NewLoadingIndicator("Loading projects..."),
	}
}

func (m model) Init() tea.Cmd {
	m.submit(sessions.StateLoadingProjects, projectsQuery(m.source))
	return tea.Batch(waitForResult(m.executor.Results()), tickCmd())
}

// submit queues a query and tracks it until its result arrives
func (m *model) submit(state sessions.LoadingState, q sessions.Query) {
	id := m.executor.Submit(m.ctx, state, q)
	if id == "" {
		return
	}
	m.activeRequests[id] = state
	m.loadingState = state
	m.loading.SetMessage(strings.ToUpper(state.String()[:1]) + state.String()[1:] + "...")
}

// cancel drops every tracked request of the given state
func (m *model) cancel(state sessions.LoadingState) {
	for id, s := range m.activeRequests {
		if s == state {
			m.executor.Cancel(id)
			delete(m.activeRequests, id)
		}
	}
	m.refreshLoadingState()
}

func (m *model) refreshLoadingState() {
	m.loadingState = sessions.StateIdle
	for _, s := range m.activeRequests {
		m.loadingState = s
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		leftWidth := msg.Width/2 - 1
		rightWidth := msg.Width - leftWidth - 1
		viewHeight := msg.Height - 3

		if !m.ready {
			m.viewport = viewport.New(msg.Width, viewHeight)
			m.leftViewport = viewport.New(leftWidth, viewHeight)
			m.rightViewport = viewport.New(rightWidth, viewHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = viewHeight
			m.leftViewport.Width = leftWidth
			m.leftViewport.Height = viewHeight
			m.rightViewport.Width = rightWidth
			m.rightViewport.Height = viewHeight
		}
		m.updateViewport()

	case TickMsg:
		if len(m.activeRequests) > 0 {
			m.loading.Tick()
		}
		return m, tickCmd()

	case ResultsClosedMsg:
		return m, nil

	case ResultMsg:
		m.handleResult(sessions.Result(msg))
		m.updateViewport()
		return m, waitForResult(m.executor.Results())

	case tea.KeyMsg:
		m.status = ""
		switch msg.String() {
		case "ctrl+c", "q":
			m.executor.CancelAll()
			return m, tea.Quit

		case "up", "k":
			if m.currentMode == projectView {
				if m.projectCursor > 0 {
					m.projectCursor--
				}
			} else if m.sessionCursor > 0 {
				m.sessionCursor--
				m.loadCurrentSessionMessages()
			}
			m.updateViewport()

		case "down", "j":
			if m.currentMode == projectView {
				if m.projectCursor < len(m.projects)-1 {
					m.projectCursor++
				}
			} else if m.sessionCursor < len(m.sessions)-1 {
				m.sessionCursor++
				m.loadCurrentSessionMessages()
			}
			m.updateViewport()

		case "enter":
			if m.currentMode == projectView {
				if m.projectCursor < len(m.projects) {
					project := m.projects[m.projectCursor]
					m.selectedProject = &project
					m.cancel(sessions.StateLoadingSessions)
					m.submit(sessions.StateLoadingSessions, sessionsQuery(m.source, project.ProjectPath))
				}
			} else if m.sessionCursor < len(m.sessions) {
				session := m.sessions[m.sessionCursor]
				m.selectedSession = &session
				m.executor.CancelAll()
				return m, tea.Quit
			}

		case "c":
			if m.currentMode == sessionView && m.sessionCursor < len(m.sessions) {
				command := sessions.ResumeCommand(m.sessions[m.sessionCursor])
				if err := clipboard.WriteAll(command); err != nil {
					m.status = fmt.Sprintf("Copy failed: %v", err)
				} else {
					m.status = "Copied: " + command
				}
			}

		case "esc", "backspace":
			if len(m.activeRequests) > 0 {
				m.executor.CancelAll()
				m.activeRequests = make(map[string]sessions.LoadingState)
				m.loadingState = sessions.StateIdle
			} else if m.currentMode == sessionView {
				m.currentMode = projectView
				m.selectedProject = nil
				m.sessions = nil
				m.sessionCursor = 0
				m.currentMessages = nil
			}
			m.updateViewport()
		}
	}

	if m.currentMode == projectView {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		var leftCmd, rightCmd tea.Cmd
		m.leftViewport, leftCmd = m.leftViewport.Update(msg)
		m.rightViewport, rightCmd = m.rightViewport.Update(msg)
		cmds = append(cmds, leftCmd, rightCmd)
	}

	return m, tea.Batch(cmds...)
}

// handleResult applies a finished request. Results of requests that were
// cancelled or superseded are ignored.
func (m *model) handleResult(r sessions.Result) {
	if _, ok := m.activeRequests[r.RequestID]; !ok {
		return
	}
	delete(m.activeRequests, r.RequestID)
	m.refreshLoadingState()

	if r.Err != nil {
		m.err = r.Err
		m.loadingState = sessions.StateError
		return
	}

	switch r.Type {
	case sessions.StateLoadingProjects:
		m.projects, _ = r.Data.([]models.ProjectSummary)
		m.projectCursor = 0

	case sessions.StateLoadingSessions:
		m.sessions, _ = r.Data.([]models.Session)
		m.currentMode = sessionView
		m.sessionCursor = 0
		m.loadCurrentSessionMessages()

	case sessions.StateLoadingMessages:
		loaded, ok := r.Data.(messagesLoaded)
		if !ok {
			return
		}
		m.messageCache[loaded.SessionID] = loaded.Lines
		if m.sessionCursor < len(m.sessions) && m.sessions[m.sessionCursor].SessionID == loaded.SessionID {
			m.currentMessages = loaded.Lines
		}
	}
}

// loadCurrentSessionMessages shows cached previews for the session under the
// cursor, or requests them
func (m *model) loadCurrentSessionMessages() {
	if m.sessionCursor >= len(m.sessions) {
		m.currentMessages = nil
		return
	}

	id := m.sessions[m.sessionCursor].SessionID
	if lines, ok := m.messageCache[id]; ok {
		m.currentMessages = lines
		return
	}
	m.currentMessages = nil
	m.cancel(sessions.StateLoadingMessages)
	m.submit(sessions.StateLoadingMessages, messagesQuery(m.source, id, m.previewChars))
}

func (m *model) updateViewport() {
	if !m.ready {
		return
	}
	if m.currentMode == projectView {
		m.viewport.SetContent(m.renderProjects())
	} else {
		m.leftViewport.SetContent(m.renderSessionsList())
		m.rightViewport.SetContent(m.renderMessages())
	}
}

func (m model) renderProjects() string {
	var s strings.Builder

	for i, project := range m.projects {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.projectCursor {
			cursor = "> "
			style = style.Foreground(lipgloss.Color("212")).Bold(true)
		}

		line := fmt.Sprintf("%s%s (%d sessions, %d messages) - %s",
			cursor,
			project.Name,
			project.SessionCount,
			project.TotalMessages,
			project.LastActivity.Local().Format("2006-01-02 15:04"))
		if project.ActiveTodos > 0 {
			line += fmt.Sprintf(" [%d todos]", project.ActiveTodos)
		}
		if project.IdeInfo != nil {
			line += " [" + project.IdeInfo.IdeName + "]"
		}

		s.WriteString(style.Render(truncateWidth(line, m.viewport.Width)) + "\n")
	}

	return s.String()
}

func (m model) renderSessionsList() string {
	if m.selectedProject == nil {
		return "No project selected"
	}

	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	s.WriteString(headerStyle.Render("Sessions") + "\n")
	s.WriteString(strings.Repeat("─", max(m.leftViewport.Width-2, 1)) + "\n\n")

	for i, session := range m.sessions {
		cursor := "  "
		dateStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
		detailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
		if i == m.sessionCursor {
			cursor = "> "
			dateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
			detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
		}

		line := fmt.Sprintf("%s%s  %d msgs", cursor,
			session.FirstTimestamp.Local().Format("01-02 15:04"),
			session.MessageCount)
		if session.IsProcessing {
			line += " •"
		}
		s.WriteString(dateStyle.Render(line) + "\n")

		detail := "  " + runewidth.Truncate(session.SessionID, 15, "…")
		if session.GitBranch != nil {
			detail += " (" + *session.GitBranch + ")"
		}
		s.WriteString(detailStyle.Render(truncateWidth(detail, m.leftViewport.Width)) + "\n")

		if session.LatestContentPreview != nil {
			preview := "  " + *session.LatestContentPreview
			s.WriteString(detailStyle.Render(truncateWidth(preview, m.leftViewport.Width)) + "\n")
		}

		if i < len(m.sessions)-1 {
			s.WriteString("\n")
		}
	}

	return s.String()
}

func (m model) renderMessages() string {
	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))

	s.WriteString(headerStyle.Render("Messages") + "\n")
	s.WriteString(strings.Repeat("─", max(m.rightViewport.Width-2, 10)) + "\n\n")

	if m.loadingState == sessions.StateLoadingMessages {
		s.WriteString(m.loading.View())
		return s.String()
	}

	if len(m.currentMessages) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
		s.WriteString(emptyStyle.Render("No messages found"))
		return s.String()
	}

	messageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))
	numStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Bold(true)

	wrapWidth := max(m.rightViewport.Width-5, 20)
	for i, msg := range m.currentMessages {
		s.WriteString(numStyle.Render(fmt.Sprintf("%d. ", i+1)))
		for j, line := range wrapText(msg, wrapWidth) {
			if j > 0 {
				s.WriteString("   ")
			}
			s.WriteString(messageStyle.Render(line) + "\n")
		}
		if i < len(m.currentMessages)-1 {
			s.WriteString("\n")
		}
	}

	return s.String()
}

// wrapText wraps text to fit within the specified display width
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{text}
	}

	var lines []string
	currentLine := words[0]
	for _, word := range words[1:] {
		if runewidth.StringWidth(currentLine)+1+runewidth.StringWidth(word) > width {
			lines = append(lines, currentLine)
			currentLine = word
		} else {
			currentLine += " " + word
		}
	}
	lines = append(lines, currentLine)

	return lines
}

// truncateWidth cuts s to at most width display cells
func truncateWidth(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v\n", m.err)
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	if m.currentMode == projectView {
		body := m.viewport.View()
		if m.loadingState != sessions.StateIdle {
			body = LoadingOverlay(m.width, m.viewport.Height, m.loading)
		}
		return fmt.Sprintf("%s\n%s\n%s", header, body, footer)
	}
	return fmt.Sprintf("%s\n%s\n%s", header, m.renderSplitView(), footer)
}

func (m model) renderSplitView() string {
	leftStyle := lipgloss.NewStyle().
		Width(m.leftViewport.Width).
		Height(m.leftViewport.Height)

	rightStyle := lipgloss.NewStyle().
		Width(m.rightViewport.Width).
		Height(m.rightViewport.Height)

	dividerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")).
		Height(m.leftViewport.Height)

	divider := strings.TrimSuffix(strings.Repeat("│\n", max(m.leftViewport.Height, 1)), "\n")

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftStyle.Render(m.leftViewport.View()),
		dividerStyle.Render(divider),
		rightStyle.Render(m.rightViewport.View()),
	)
}

func (m model) renderHeader() string {
	title := "Claude Lens - Projects"
	if m.currentMode == sessionView && m.selectedProject != nil {
		title = fmt.Sprintf("Claude Lens - %s", m.selectedProject.Name)
	}

	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("63"))

	return style.Render(title)
}

func (m model) renderFooter() string {
	if m.status != "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render(m.status)
	}

	info := "↑/↓: navigate • enter: select"
	if m.currentMode == sessionView {
		info += " • c: copy resume command • esc: back"
	}
	info += " • q: quit"

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	return style.Render(info)
}

// ShowTUI runs the browser and returns the session picked for resuming, if any
func ShowTUI(ctx context.Context, source Source, executor *sessions.AsyncExecutor, previewChars int) (*models.Session, error) {
	p := tea.NewProgram(
		initialModel(ctx, source, executor, previewChars),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	m := finalModel.(model)
	return m.selectedSession, nil
}
