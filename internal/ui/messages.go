package ui

// View represents the current active view
type View int

const (
	ViewProfile View = iota
	ViewTasks
	ViewSignIn
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewProfile:
		return "Profile"
	case ViewTasks:
		return "Tasks"
	case ViewSignIn:
		return "Sign in"
	default:
		return "Unknown"
	}
}
