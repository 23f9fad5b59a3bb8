package views

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/ontask/internal/auth"
	"github.com/dori/ontask/internal/ui/theme"
)

// Authenticator signs identities in and up
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*auth.Identity, error)
	SignUp(ctx context.Context, email, password string) (*auth.Identity, error)
}

type signInResultMsg struct {
	err error
}

// SignInView collects credentials while nobody is signed in
type SignInView struct {
	auth   Authenticator
	deps   Deps
	width  int
	height int

	email    textinput.Model
	password textinput.Model
	focus    int // 0 email, 1 password
	signUp   bool
	busy     bool
	errMsg   string
}

// NewSignInView creates a new sign-in view
func NewSignInView(authenticator Authenticator, deps Deps) SignInView {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return SignInView{
		auth:     authenticator,
		deps:     deps.withDefaults(),
		email:    email,
		password: password,
	}
}

// Init initializes the sign-in view
func (v SignInView) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize sets the view dimensions
func (v SignInView) SetSize(width, height int) SignInView {
	v.width = width
	v.height = height
	return v
}

// Reset clears the form for the next sign-in
func (v SignInView) Reset() SignInView {
	v.password.SetValue("")
	v.busy = false
	v.errMsg = ""
	v = v.focusField(0)
	return v
}

// IsInputMode returns true; every key goes to a text field
func (v SignInView) IsInputMode() bool {
	return true
}

// SignUpMode reports whether submitting creates an account
func (v SignInView) SignUpMode() bool {
	return v.signUp
}

// Err returns the last sign-in error shown to the user
func (v SignInView) Err() string {
	return v.errMsg
}

func (v SignInView) focusField(i int) SignInView {
	v.focus = i
	if i == 0 {
		v.email.Focus()
		v.password.Blur()
	} else {
		v.email.Blur()
		v.password.Focus()
	}
	return v
}

// Update handles messages
func (v SignInView) Update(msg tea.Msg) (SignInView, tea.Cmd) {
	switch msg := msg.(type) {
	case signInResultMsg:
		v.busy = false
		if msg.err != nil {
			v.errMsg = describeAuthError(msg.err)
			return v, nil
		}
		v.errMsg = ""
		v.password.SetValue("")
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			return v.focusField(1 - v.focus), textinput.Blink
		case "ctrl+n":
			v.signUp = !v.signUp
			v.errMsg = ""
			return v, nil
		case "enter":
			if v.busy {
				return v, nil
			}
			if v.focus == 0 && v.password.Value() == "" {
				return v.focusField(1), textinput.Blink
			}
			v.busy = true
			return v, v.submit()
		}
	}

	var cmd tea.Cmd
	if v.focus == 0 {
		v.email, cmd = v.email.Update(msg)
	} else {
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd
}

func (v SignInView) submit() tea.Cmd {
	authenticator, ctx := v.auth, v.deps.Ctx
	email, password, signUp := v.email.Value(), v.password.Value(), v.signUp
	return func() tea.Msg {
		var err error
		if signUp {
			_, err = authenticator.SignUp(ctx, email, password)
		} else {
			_, err = authenticator.SignIn(ctx, email, password)
		}
		return signInResultMsg{err: err}
	}
}

func describeAuthError(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Wrong email or password"
	case errors.Is(err, auth.ErrAccountExists):
		return "An account with that email already exists"
	case errors.Is(err, auth.ErrEmailRequired),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrPasswordRequired),
		errors.Is(err, auth.ErrPasswordTooShort):
		msg := err.Error()
		return strings.ToUpper(msg[:1]) + msg[1:]
	default:
		return "Something went wrong: " + err.Error()
	}
}

// View renders the sign-in form
func (v SignInView) View() string {
	styles := theme.Current.Styles

	title := "Sign in"
	toggle := "ctrl+n: create an account"
	if v.signUp {
		title = "Create account"
		toggle = "ctrl+n: sign in instead"
	}

	box := func(i int, in textinput.Model) string {
		if v.focus == i {
			return styles.InputFocused.Render(in.View())
		}
		return styles.Input.Render(in.View())
	}

	lines := []string{
		styles.Title.Render(title),
		"",
		styles.HelpDesc.Render("Email"),
		box(0, v.email),
		styles.HelpDesc.Render("Password"),
		box(1, v.password),
		"",
	}
	if v.busy {
		lines = append(lines, styles.Status.Render("Working..."))
	} else if v.errMsg != "" {
		lines = append(lines, styles.Error.Render(v.errMsg))
	}
	lines = append(lines, styles.HelpDesc.Render("tab: switch field • enter: submit • "+toggle))

	return styles.Panel.Render(strings.Join(lines, "\n"))
}
