package views

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/ontask/internal/metrics"
)

// Requests a view sends to the root model
// (defined here to avoid circular import with ui package)

// ShowTasksRequest asks the root model to switch to the tasks view
type ShowTasksRequest struct{}

// ShowProfileRequest asks the root model to switch to the profile view
type ShowProfileRequest struct{}

// StatusRequest carries a status line message
type StatusRequest struct {
	Message string
}

// ErrorRequest carries an error for the status line
type ErrorRequest struct {
	Err error
}

// Logouter ends the current session
type Logouter interface {
	Logout(ctx context.Context) error
}

// Deps are the collaborators shared by all views
type Deps struct {
	Ctx     context.Context
	Logger  *slog.Logger
	Metrics metrics.Recorder
}

func (d Deps) withDefaults() Deps {
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = (*metrics.Collector)(nil)
	}
	return d
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
