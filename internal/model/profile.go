package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// JoinedLayout is the human-readable format of Profile.CreatedAt
const JoinedLayout = "Jan 2, 2006 3:04 PM"

// Profile is the per-identity record in the users collection
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// FormatJoined formats a sign-up time for Profile.CreatedAt
func FormatJoined(t time.Time) string {
	return t.Format(JoinedLayout)
}

// Activity is an opaque record from the activity collection.
// Fields are shown as-is, never interpreted.
type Activity struct {
	ID        string
	OwnerID   string
	Fields    map[string]any
	CreatedAt time.Time
}

// Summary renders the fields as "key=value" pairs with keys in a stable order
func (a *Activity) Summary() string {
	keys := make([]string, 0, len(a.Fields))
	for k := range a.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, a.Fields[k]))
	}
	return strings.Join(parts, " ")
}
