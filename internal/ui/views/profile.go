package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/ontask/internal/auth"
	"github.com/dori/ontask/internal/db"
	"github.com/dori/ontask/internal/metrics"
	"github.com/dori/ontask/internal/model"
	"github.com/dori/ontask/internal/ui/theme"
)

// Fallbacks for fields that are not known
const (
	noEmail  = "Not Provided"
	noID     = "Not Available"
	noJoined = "N/A"
)

// Reader is the read side of the document store used by the profile view
type Reader interface {
	GetRecord(ctx context.Context, collection, id string) (*db.Document, error)
	QueryByOwner(ctx context.Context, collection, ownerID string) ([]db.Document, error)
}

// Fetch results. Each carries the identity it was issued for so that
// results for a previous identity can be dropped.
type profileLoadedMsg struct {
	owner   string
	profile *model.Profile // nil when there is no record
	err     error
}

type statsLoadedMsg struct {
	owner string
	stats model.TaskStats
	err   error
}

type activityLoadedMsg struct {
	owner    string
	activity []model.Activity
	err      error
}

// ProfileView shows the signed-in identity, its task statistics and its
// activity log
type ProfileView struct {
	reader  Reader
	session Logouter
	deps    Deps
	width   int
	height  int

	// identity is the latest one reported; nil when signed out
	identity *auth.Identity
	// dataOwner is whose data the fields below hold
	dataOwner string

	profile  model.Profile
	stats    model.TaskStats
	activity []model.Activity
}

// NewProfileView creates a new profile view
func NewProfileView(reader Reader, session Logouter, deps Deps) ProfileView {
	return ProfileView{
		reader:  reader,
		session: session,
		deps:    deps.withDefaults(),
	}
}

// Init initializes the profile view
func (v ProfileView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v ProfileView) SetSize(width, height int) ProfileView {
	v.width = width
	v.height = height
	return v
}

// SetIdentity records a sign-in state change. A new identity, including
// the first one after a sign-out, triggers the three fetches. The same
// identity again does nothing. Signing out keeps what was loaded.
func (v ProfileView) SetIdentity(ident *auth.Identity) (ProfileView, tea.Cmd) {
	prev := v.identity
	v.identity = ident

	if ident == nil {
		return v, nil
	}
	if prev != nil && prev.ID == ident.ID {
		return v, nil
	}
	return v, v.fetch(ident.ID)
}

// Identity returns the identity the view currently shows
func (v ProfileView) Identity() *auth.Identity {
	return v.identity
}

// Stats returns the loaded task statistics
func (v ProfileView) Stats() model.TaskStats {
	return v.stats
}

// Activity returns the loaded activity records in backend order
func (v ProfileView) Activity() []model.Activity {
	return v.activity
}

// fetch issues the profile, task and activity reads concurrently
func (v *ProfileView) fetch(owner string) tea.Cmd {
	if owner != v.dataOwner {
		v.profile = model.Profile{}
		v.stats = model.TaskStats{}
		v.activity = nil
		v.dataOwner = owner
	}
	return tea.Batch(
		v.fetchProfile(owner),
		v.fetchStats(owner),
		v.fetchActivity(owner),
	)
}

func (v ProfileView) fetchProfile(owner string) tea.Cmd {
	reader, deps := v.reader, v.deps
	return func() tea.Msg {
		doc, err := reader.GetRecord(deps.Ctx, db.CollectionUsers, owner)
		if errors.Is(err, db.ErrNotFound) {
			deps.Metrics.RecordRead(db.CollectionUsers, metrics.OutcomeNotFound)
			deps.Logger.Debug("no profile record", slog.String("owner", owner))
			return profileLoadedMsg{owner: owner}
		}
		if err != nil {
			readFailed(deps, db.CollectionUsers, owner, err)
			return profileLoadedMsg{owner: owner, err: err}
		}
		deps.Metrics.RecordRead(db.CollectionUsers, metrics.OutcomeOK)
		profile := db.ProfileFromDocument(doc)
		return profileLoadedMsg{owner: owner, profile: &profile}
	}
}

func (v ProfileView) fetchStats(owner string) tea.Cmd {
	reader, deps := v.reader, v.deps
	return func() tea.Msg {
		docs, err := reader.QueryByOwner(deps.Ctx, db.CollectionTasks, owner)
		if err != nil {
			readFailed(deps, db.CollectionTasks, owner, err)
			return statsLoadedMsg{owner: owner, err: err}
		}
		deps.Metrics.RecordRead(db.CollectionTasks, metrics.OutcomeOK)

		var stats model.TaskStats
		for i := range docs {
			stats.Count(model.Status(docs[i].String("status")))
		}
		return statsLoadedMsg{owner: owner, stats: stats}
	}
}

func (v ProfileView) fetchActivity(owner string) tea.Cmd {
	reader, deps := v.reader, v.deps
	return func() tea.Msg {
		docs, err := reader.QueryByOwner(deps.Ctx, db.CollectionActivity, owner)
		if err != nil {
			readFailed(deps, db.CollectionActivity, owner, err)
			return activityLoadedMsg{owner: owner, err: err}
		}
		deps.Metrics.RecordRead(db.CollectionActivity, metrics.OutcomeOK)

		activity := make([]model.Activity, 0, len(docs))
		for i := range docs {
			activity = append(activity, db.ActivityFromDocument(&docs[i]))
		}
		return activityLoadedMsg{owner: owner, activity: activity}
	}
}

func readFailed(deps Deps, collection, owner string, err error) {
	deps.Metrics.RecordRead(collection, metrics.OutcomeError)
	deps.Logger.Error("read failed",
		slog.String("collection", collection),
		slog.String("owner", owner),
		slog.String("error", err.Error()),
	)
}

// current reports whether a result issued for owner still applies
func (v ProfileView) current(owner string) bool {
	return v.identity != nil && v.identity.ID == owner
}

// Update handles messages
func (v ProfileView) Update(msg tea.Msg) (ProfileView, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		if msg.err == nil && msg.profile != nil && v.current(msg.owner) {
			v.profile = *msg.profile
		}
		return v, nil

	case statsLoadedMsg:
		if msg.err == nil && v.current(msg.owner) {
			v.stats = msg.stats
		}
		return v, nil

	case activityLoadedMsg:
		if msg.err == nil && v.current(msg.owner) {
			v.activity = msg.activity
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "o":
			return v, v.signOut()
		case "t":
			return v, send(ShowTasksRequest{})
		case "r":
			if v.identity != nil {
				return v, v.fetch(v.identity.ID)
			}
		}
	}

	return v, nil
}

func (v ProfileView) signOut() tea.Cmd {
	session, ctx := v.session, v.deps.Ctx
	return func() tea.Msg {
		if err := session.Logout(ctx); err != nil {
			return ErrorRequest{Err: err}
		}
		return StatusRequest{Message: "Signed out"}
	}
}

// View renders the profile view
func (v ProfileView) View() string {
	styles := theme.Current.Styles

	email, id := noEmail, noID
	if v.identity != nil {
		if v.identity.Email != "" {
			email = v.identity.Email
		}
		if v.identity.ID != "" {
			id = v.identity.ID
		}
	}
	joined := v.profile.CreatedAt
	if joined == "" {
		joined = noJoined
	}

	field := func(label, value string) string {
		return styles.Label.Render(label) + styles.Value.Render(value)
	}

	var sections []string
	sections = append(sections, styles.Title.Render("Profile"))
	sections = append(sections, "")
	sections = append(sections,
		field("Email", email),
		field("ID", id),
		field("Joined", joined),
	)
	sections = append(sections, "")
	sections = append(sections, v.renderGrid())
	sections = append(sections, "")
	sections = append(sections, v.renderSentences()...)
	sections = append(sections, "")
	sections = append(sections, v.renderActivity()...)

	panel := styles.Panel.Render(strings.Join(sections, "\n"))
	if v.width > 0 {
		panel = lipgloss.PlaceHorizontal(v.width, lipgloss.Center, panel)
	}

	return v.renderNavBar() + "\n" + panel
}

func (v ProfileView) renderNavBar() string {
	styles := theme.Current.Styles
	key := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")
	return styles.NavBar.Render(key("t", "Tasks") + sep + key("r", "Refresh") + sep + key("o", "Sign out"))
}

func (v ProfileView) renderGrid() string {
	styles := theme.Current.Styles
	card := func(label string, n int) string {
		return styles.Card.Render(styles.CardValue.Render(fmt.Sprintf("%d", n)) + "\n" + styles.HelpDesc.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Created", v.stats.Created),
		card("Completed", v.stats.Completed),
		card("Pending", v.stats.Pending),
		card("Archived", v.stats.Archived),
	)
}

func (v ProfileView) renderSentences() []string {
	styles := theme.Current.Styles
	return []string{
		styles.Sentence.Render(fmt.Sprintf("You have created %d tasks.", v.stats.Created)),
		styles.Sentence.Render(fmt.Sprintf("You have archived %d tasks.", v.stats.Archived)),
		styles.Sentence.Render(fmt.Sprintf("You have completed %d tasks.", v.stats.Completed)),
		styles.Sentence.Render(fmt.Sprintf("You have %d pending tasks.", v.stats.Pending)),
	}
}

func (v ProfileView) renderActivity() []string {
	styles := theme.Current.Styles
	lines := []string{styles.Section.Render("Recent Activity")}
	if len(v.activity) == 0 {
		return append(lines, styles.ActivityLn.Render("No activity yet."))
	}
	for i := range v.activity {
		lines = append(lines, styles.ActivityLn.Render("• "+v.activity[i].Summary()))
	}
	return lines
}
