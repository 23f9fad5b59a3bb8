package views

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/ontask/internal/db"
)

// runCmd executes cmd and any batched commands it produces, returning the
// resulting messages
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

var errBackend = errors.New("backend unavailable")

// fakeReader is an in-memory Reader that counts queries
type fakeReader struct {
	mu      sync.Mutex
	records map[string]map[string]*db.Document // collection -> id -> doc
	owned   map[string][]db.Document            // collection -> docs
	fail    map[string]bool                     // collection -> fail
	calls   []string                            // "collection:owner"
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		records: make(map[string]map[string]*db.Document),
		owned:   make(map[string][]db.Document),
		fail:    make(map[string]bool),
	}
}

func (f *fakeReader) putProfile(id, email, createdAt string) {
	if f.records[db.CollectionUsers] == nil {
		f.records[db.CollectionUsers] = make(map[string]*db.Document)
	}
	f.records[db.CollectionUsers][id] = &db.Document{
		Collection: db.CollectionUsers,
		ID:         id,
		Data:       map[string]any{"email": email, "createdAt": createdAt},
	}
}

func (f *fakeReader) add(collection, owner, id string, data map[string]any) {
	data[db.OwnerField] = owner
	f.owned[collection] = append(f.owned[collection], db.Document{
		Collection: collection,
		ID:         id,
		OwnerID:    owner,
		Data:       data,
	})
}

func (f *fakeReader) GetRecord(ctx context.Context, collection, id string) (*db.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, collection+":"+id)
	if f.fail[collection] {
		return nil, errBackend
	}
	doc, ok := f.records[collection][id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return doc, nil
}

func (f *fakeReader) QueryByOwner(ctx context.Context, collection, ownerID string) ([]db.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, collection+":"+ownerID)
	if f.fail[collection] {
		return nil, errBackend
	}
	var out []db.Document
	for _, d := range f.owned[collection] {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeReader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeLogout records Logout calls
type fakeLogout struct {
	calls int
	err   error
}

func (f *fakeLogout) Logout(ctx context.Context) error {
	f.calls++
	return f.err
}
