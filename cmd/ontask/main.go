package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/ontask/internal/app"
	"github.com/dori/ontask/internal/auth"
	"github.com/dori/ontask/internal/config"
	"github.com/dori/ontask/internal/session"
	"github.com/dori/ontask/internal/ui"
	"github.com/dori/ontask/internal/ui/theme"
)

var (
	version = "0.1.0"
)

func main() {
	// Subcommand handling
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "add":
			handleAdd(os.Args[2:])
			return
		case "logout":
			handleLogout(os.Args[2:])
			return
		case "whoami":
			handleWhoami(os.Args[2:])
			return
		case "version":
			fmt.Printf("ontask v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Parse flags for TUI mode
	themeFlag := flag.String("theme", "", "Theme name (nord, dracula)")
	dataDirFlag := flag.String("data-dir", "", "Data directory (default ~/.local/share/ontask)")
	flag.Parse()

	if err := runTUI(*dataDirFlag, *themeFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	help := `ontask - tasks and your profile in the terminal

Usage:
  ontask                    Start the TUI
  ontask add <task>         Quick add a task for the signed-in account
  ontask whoami             Show the signed-in account
  ontask logout             End the current session
  ontask version            Show version
  ontask help               Show this help

Options:
  --data-dir <dir>  Data directory (also for subcommands)
  --theme <name>    Theme (nord, dracula)

Environment:
  ONTASK_DATA_DIR, ONTASK_THEME, ONTASK_LOG_LEVEL,
  ONTASK_SESSION_MAX_AGE, ONTASK_METRICS_FILE

Keybindings:
  Sign in:   tab switch field, enter submit, ctrl+n sign up/in
  Profile:   t tasks, r refresh, o sign out
  Tasks:     a add, space cycle status, d delete, p profile
  General:   ctrl+t theme, ? help, q quit`

	fmt.Println(help)
}

// openApp parses the shared subcommand flags and opens the app without the
// TUI lock
func openApp(ctx context.Context, name string, args []string) (*app.App, []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	dataDir := fs.String("data-dir", "", "Data directory")
	fs.Parse(args)

	cfg, err := config.Load(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	application, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return application, fs.Args()
}

func handleAdd(args []string) {
	ctx := context.Background()
	application, rest := openApp(ctx, "add", args)
	defer application.Close()

	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ontask add <task>")
		fmt.Fprintln(os.Stderr, "Example: ontask add \"Buy groceries\"")
		os.Exit(1)
	}

	ident, _ := application.Auth.Current()
	if ident == nil {
		fmt.Fprintln(os.Stderr, "Not signed in. Run ontask to sign in first.")
		os.Exit(1)
	}

	title := strings.TrimSpace(strings.Join(rest, " "))
	task, err := application.DB.CreateTask(ctx, ident.ID, title)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating task: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created: %s\n", task.Title)
}

func handleLogout(args []string) {
	ctx := context.Background()
	application, _ := openApp(ctx, "logout", args)
	defer application.Close()

	err := application.Auth.SignOut(ctx)
	switch {
	case errors.Is(err, auth.ErrNotSignedIn):
		fmt.Println("Not signed in.")
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error signing out: %v\n", err)
		os.Exit(1)
	default:
		fmt.Println("Signed out.")
	}
}

func handleWhoami(args []string) {
	ctx := context.Background()
	application, _ := openApp(ctx, "whoami", args)
	defer application.Close()

	ident, _ := application.Auth.Current()
	if ident == nil {
		fmt.Println("Not signed in.")
		return
	}
	fmt.Printf("%s (%s)\n", ident.Email, ident.ID)
}

func runTUI(dataDir, themeName string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}
	if themeName != "" {
		cfg.Theme = themeName
	}
	if t, ok := theme.ByName(cfg.Theme); ok {
		theme.SetTheme(t)
	} else {
		fmt.Fprintf(os.Stderr, "Unknown theme %q, using %s\n", cfg.Theme, theme.Current.Theme.Name)
	}

	// Create application
	application, err := app.New(ctx, cfg, app.Options{Exclusive: true})
	if err != nil {
		return err
	}
	defer application.Close()

	sess := session.New(application.Auth, application.Logger)
	sess.Start()
	defer sess.Stop()

	model := ui.NewRootModel(ctx, application, sess)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
