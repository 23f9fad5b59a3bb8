package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/ontask/internal/app"
	"github.com/dori/ontask/internal/auth"
	"github.com/dori/ontask/internal/session"
	"github.com/dori/ontask/internal/ui/theme"
	"github.com/dori/ontask/internal/ui/views"
)

// RootModel is the main application model. It gates on the session and
// switches between the sign-in, profile and tasks views.
type RootModel struct {
	session *session.Session
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	width   int
	height  int

	// ready is false until the first identity notification arrives
	ready    bool
	identity *auth.Identity

	currentView View
	signInView  views.SignInView
	profileView views.ProfileView
	tasksView   views.TasksView
	helpVisible bool

	// Status message
	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model. sess must already be started.
func NewRootModel(ctx context.Context, application *app.App, sess *session.Session) RootModel {
	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Current.Theme.Primary)

	deps := views.Deps{
		Ctx:     ctx,
		Logger:  application.Logger,
		Metrics: application.Metrics,
	}

	return RootModel{
		session:     sess,
		keys:        DefaultKeyMap(),
		help:        h,
		spinner:     sp,
		currentView: ViewProfile,
		signInView:  views.NewSignInView(application.Auth, deps),
		profileView: views.NewProfileView(application.DB, sess, deps),
		tasksView:   views.NewTasksView(application.DB, deps),
	}
}

// Init starts waiting for the initial sign-in state
func (m RootModel) Init() tea.Cmd {
	return tea.Batch(
		m.session.WaitForChange(),
		m.spinner.Tick,
		m.signInView.Init(),
	)
}

// ActiveView returns the view that currently receives keys
func (m RootModel) ActiveView() View {
	if m.identity == nil {
		return ViewSignIn
	}
	return m.currentView
}

func (m RootModel) isInputMode() bool {
	switch m.ActiveView() {
	case ViewSignIn:
		return m.signInView.IsInputMode()
	case ViewTasks:
		return m.tasksView.IsInputMode()
	}
	return false
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Reserve space for header (1 line) and footer (2 lines)
		contentHeight := m.height - 3
		m.signInView = m.signInView.SetSize(m.width, contentHeight)
		m.profileView = m.profileView.SetSize(m.width, contentHeight)
		m.tasksView = m.tasksView.SetSize(m.width, contentHeight)
		return m, nil

	case session.IdentityChangedMsg:
		return m.identityChanged(msg.Identity)

	case session.StoppedMsg:
		return m, nil

	case spinner.TickMsg:
		if m.ready {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		// Clear status/error on any keypress
		m.statusMsg = ""
		m.errorMsg = ""

		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if !m.ready {
			return m, nil
		}

		isInputMode := m.isInputMode()

		switch {
		case key.Matches(msg, m.keys.ThemeCycle):
			m.cycleTheme()
			return m, nil
		}

		// Skip other global keys when in input mode
		if !isInputMode {
			switch {
			case key.Matches(msg, m.keys.Quit):
				return m.quit()
			case key.Matches(msg, m.keys.Help):
				m.helpVisible = !m.helpVisible
				m.help.ShowAll = m.helpVisible
				return m, nil
			}
		}

		return m.updateActive(msg)

	case views.ShowTasksRequest:
		m.currentView = ViewTasks
		return m, m.tasksView.Init() // Reload tasks when switching to the list

	case views.ShowProfileRequest:
		m.currentView = ViewProfile
		return m, nil

	case views.ErrorRequest:
		m.errorMsg = msg.Err.Error()
		return m, nil

	case views.StatusRequest:
		m.statusMsg = msg.Message
		return m, nil

	}

	// Results from background commands go to every view; each one ignores
	// what it does not own
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.signInView, cmd = m.signInView.Update(msg)
	cmds = append(cmds, cmd)
	m.profileView, cmd = m.profileView.Update(msg)
	cmds = append(cmds, cmd)
	m.tasksView, cmd = m.tasksView.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// updateActive sends a key to the active view only
func (m RootModel) updateActive(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.ActiveView() {
	case ViewSignIn:
		m.signInView, cmd = m.signInView.Update(msg)
	case ViewProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	case ViewTasks:
		m.tasksView, cmd = m.tasksView.Update(msg)
	}
	return m, cmd
}

func (m RootModel) identityChanged(ident *auth.Identity) (tea.Model, tea.Cmd) {
	m.ready = true
	m.identity = ident

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.profileView, cmd = m.profileView.SetIdentity(ident)
	cmds = append(cmds, cmd)
	m.tasksView = m.tasksView.SetOwner(ident)

	if ident == nil {
		m.currentView = ViewProfile
		m.signInView = m.signInView.Reset()
	} else if m.currentView == ViewTasks {
		cmds = append(cmds, m.tasksView.Init())
	}

	cmds = append(cmds, m.session.WaitForChange())
	return m, tea.Batch(cmds...)
}

func (m RootModel) quit() (tea.Model, tea.Cmd) {
	m.session.Stop()
	return m, tea.Quit
}

// View renders the UI
func (m RootModel) View() string {
	if !m.ready {
		return m.spinner.View() + " Checking session..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	var content string
	switch m.ActiveView() {
	case ViewSignIn:
		content = m.signInView.View()
		if m.width > 0 {
			content = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, content)
		}
	case ViewTasks:
		content = m.tasksView.View()
	default:
		content = m.profileView.View()
	}

	// Ensure content fills available space
	contentHeight := m.height - 3
	if m.errorMsg != "" || m.statusMsg != "" {
		contentHeight-- // Extra line for status message
	}
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content)

	sections = append(sections, m.renderFooter())
	return strings.Join(sections, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("ontask")

	viewStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	viewIndicator := viewStyle.Render(fmt.Sprintf("[%s]", m.ActiveView().String()))

	right := "signed out"
	if m.identity != nil {
		right = m.identity.Email
	}
	rightSide := viewStyle.Render(right)

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, viewIndicator)
	gap := m.width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if gap < 0 {
		gap = 0
	}

	return leftSide + strings.Repeat(" ", gap) + rightSide
}

// renderFooter renders the status line and key help
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles

	var lines []string
	if m.errorMsg != "" {
		lines = append(lines, styles.Error.Render(m.errorMsg))
	} else if m.statusMsg != "" {
		lines = append(lines, styles.Status.Render(m.statusMsg))
	}
	lines = append(lines, m.help.View(m.keys.ForView(m.ActiveView())))

	return strings.Join(lines, "\n")
}

// cycleTheme cycles through available themes
func (m *RootModel) cycleTheme() {
	themes := theme.Available()
	current := theme.Current.Theme.Name

	for i, t := range themes {
		if t.Name == current {
			next := themes[(i+1)%len(themes)]
			theme.SetTheme(next)
			m.statusMsg = fmt.Sprintf("Theme: %s", next.Name)
			return
		}
	}
}
