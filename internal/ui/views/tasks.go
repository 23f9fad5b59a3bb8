package views

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/ontask/internal/auth"
	"github.com/dori/ontask/internal/model"
	"github.com/dori/ontask/internal/ui/theme"
)

// TaskStore is the task persistence used by the tasks view
type TaskStore interface {
	GetTasks(ctx context.Context, ownerID string) ([]model.Task, error)
	CreateTask(ctx context.Context, ownerID, title string) (*model.Task, error)
	SetTaskStatus(ctx context.Context, id string, status model.Status) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	LogActivity(ctx context.Context, ownerID, kind string, fields map[string]any) error
}

type tasksLoadedMsg struct {
	owner string
	tasks []model.Task
	err   error
}

// taskUpdatedMsg is sent after any mutation so the list reloads
type taskUpdatedMsg struct {
	owner string
}

// TasksView lists and edits the signed-in identity's tasks
type TasksView struct {
	store  TaskStore
	deps   Deps
	width  int
	height int

	owner  string
	tasks  []model.Task
	cursor int

	adding bool
	input  textinput.Model
}

// NewTasksView creates a new tasks view
func NewTasksView(store TaskStore, deps Deps) TasksView {
	ti := textinput.New()
	ti.Placeholder = "New task..."
	ti.CharLimit = 256

	return TasksView{
		store: store,
		deps:  deps.withDefaults(),
		input: ti,
	}
}

// Init loads the tasks for the current owner
func (v TasksView) Init() tea.Cmd {
	if v.owner == "" {
		return nil
	}
	return v.loadTasks()
}

// SetSize sets the view dimensions
func (v TasksView) SetSize(width, height int) TasksView {
	v.width = width
	v.height = height
	return v
}

// SetOwner follows sign-in state. Tasks of a previous identity are dropped.
func (v TasksView) SetOwner(ident *auth.Identity) TasksView {
	owner := ""
	if ident != nil {
		owner = ident.ID
	}
	if owner != v.owner {
		v.owner = owner
		v.tasks = nil
		v.cursor = 0
		v.adding = false
	}
	return v
}

// Tasks returns the loaded tasks
func (v TasksView) Tasks() []model.Task {
	return v.tasks
}

// IsInputMode returns true while a task title is being typed
func (v TasksView) IsInputMode() bool {
	return v.adding
}

func (v TasksView) loadTasks() tea.Cmd {
	store, deps, owner := v.store, v.deps, v.owner
	return func() tea.Msg {
		tasks, err := store.GetTasks(deps.Ctx, owner)
		if err != nil {
			deps.Logger.Error("failed to load tasks", slog.String("owner", owner), slog.String("error", err.Error()))
		}
		return tasksLoadedMsg{owner: owner, tasks: tasks, err: err}
	}
}

// Update handles messages
func (v TasksView) Update(msg tea.Msg) (TasksView, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		if msg.owner != v.owner {
			return v, nil
		}
		if msg.err != nil {
			return v, send(ErrorRequest{Err: fmt.Errorf("load tasks: %w", msg.err)})
		}
		v.tasks = msg.tasks
		if v.cursor >= len(v.tasks) {
			v.cursor = max(len(v.tasks)-1, 0)
		}
		return v, nil

	case taskUpdatedMsg:
		if msg.owner != v.owner || v.owner == "" {
			return v, nil
		}
		return v, v.loadTasks()

	case tea.KeyMsg:
		if v.adding {
			return v.handleAddMode(msg)
		}
		return v.handleNormalMode(msg)
	}

	return v, nil
}

func (v TasksView) handleAddMode(msg tea.KeyMsg) (TasksView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.adding = false
		v.input.Blur()
		return v, nil
	case "enter":
		title := strings.TrimSpace(v.input.Value())
		v.adding = false
		v.input.Blur()
		if title == "" {
			return v, nil
		}
		return v, v.createTask(title)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v TasksView) handleNormalMode(msg tea.KeyMsg) (TasksView, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
		}
	case "a":
		v.adding = true
		v.input.SetValue("")
		v.input.Focus()
		return v, textinput.Blink
	case " ":
		if len(v.tasks) > 0 {
			task := v.tasks[v.cursor]
			return v, v.setStatus(task.ID, task.Status.Next())
		}
	case "d":
		if len(v.tasks) > 0 {
			return v, v.deleteTask(v.tasks[v.cursor])
		}
	case "r":
		return v, v.loadTasks()
	case "p", "esc":
		return v, send(ShowProfileRequest{})
	}
	return v, nil
}

func (v TasksView) createTask(title string) tea.Cmd {
	store, deps, owner := v.store, v.deps, v.owner
	return func() tea.Msg {
		if _, err := store.CreateTask(deps.Ctx, owner, title); err != nil {
			return ErrorRequest{Err: fmt.Errorf("create task: %w", err)}
		}
		return taskUpdatedMsg{owner: owner}
	}
}

func (v TasksView) setStatus(id string, status model.Status) tea.Cmd {
	store, deps, owner := v.store, v.deps, v.owner
	return func() tea.Msg {
		if _, err := store.SetTaskStatus(deps.Ctx, id, status); err != nil {
			return ErrorRequest{Err: fmt.Errorf("update task: %w", err)}
		}
		return taskUpdatedMsg{owner: owner}
	}
}

func (v TasksView) deleteTask(task model.Task) tea.Cmd {
	store, deps, owner := v.store, v.deps, v.owner
	return func() tea.Msg {
		if err := store.DeleteTask(deps.Ctx, task.ID); err != nil {
			return ErrorRequest{Err: fmt.Errorf("delete task: %w", err)}
		}
		if err := store.LogActivity(deps.Ctx, owner, "task_deleted", map[string]any{"taskId": task.ID, "title": task.Title}); err != nil {
			deps.Logger.Warn("failed to log deletion", slog.String("error", err.Error()))
		}
		return taskUpdatedMsg{owner: owner}
	}
}

// View renders the tasks view
func (v TasksView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var lines []string
	lines = append(lines, styles.Title.Render(fmt.Sprintf("Tasks (%d)", len(v.tasks))))
	lines = append(lines, "")

	if v.adding {
		lines = append(lines, styles.InputFocused.Render(v.input.View()))
		lines = append(lines, "")
	}

	if len(v.tasks) == 0 {
		lines = append(lines, styles.HelpDesc.Render("No tasks yet. Press a to add one."))
	}

	for i, task := range v.tasks {
		bucket := task.Status.Bucket()
		marker := lipgloss.NewStyle().Foreground(t.StatusColor(string(bucket))).Render(statusMarker(bucket))

		style := styles.TaskNormal
		if task.IsDone() {
			style = styles.TaskDone
		}
		if i == v.cursor {
			style = styles.TaskSelected
		}
		lines = append(lines, marker+" "+style.Render(task.Title))
	}

	return strings.Join(lines, "\n")
}

func statusMarker(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return "[x]"
	case model.StatusArchived:
		return "[-]"
	default:
		return "[ ]"
	}
}
