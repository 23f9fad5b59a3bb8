package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dori/ontask/internal/model"
	"github.com/google/uuid"
)

// GetTasks returns all tasks owned by ownerID in insertion order
func (db *DB) GetTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	docs, err := db.QueryByOwner(ctx, CollectionTasks, ownerID)
	if err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0, len(docs))
	for i := range docs {
		tasks = append(tasks, TaskFromDocument(&docs[i]))
	}
	return tasks, nil
}

// GetTask returns a single task by ID, or nil if it does not exist
func (db *DB) GetTask(ctx context.Context, id string) (*model.Task, error) {
	doc, err := db.GetRecord(ctx, CollectionTasks, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := TaskFromDocument(doc)
	return &t, nil
}

// CreateTask creates a new pending task for ownerID
func (db *DB) CreateTask(ctx context.Context, ownerID, title string) (*model.Task, error) {
	id := uuid.New().String()
	now := time.Now()

	task := &model.Task{
		ID:        id,
		OwnerID:   ownerID,
		Title:     title,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := db.PutRecord(ctx, CollectionTasks, id, taskData(task)); err != nil {
		return nil, err
	}
	if err := db.LogActivity(ctx, ownerID, "task_created", map[string]any{"taskId": id, "title": title}); err != nil {
		return nil, err
	}
	return task, nil
}

// SetTaskStatus moves a task to a new status
func (db *DB) SetTaskStatus(ctx context.Context, id string, status model.Status) (*model.Task, error) {
	task, err := db.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}

	now := time.Now()
	task.Status = status
	task.UpdatedAt = now
	if status == model.StatusCompleted {
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}

	if _, err := db.PutRecord(ctx, CollectionTasks, id, taskData(task)); err != nil {
		return nil, err
	}
	if err := db.LogActivity(ctx, task.OwnerID, "task_"+string(status), map[string]any{"taskId": id}); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask deletes a task
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	return db.DeleteRecord(ctx, CollectionTasks, id)
}

// LogActivity appends an activity record for ownerID
func (db *DB) LogActivity(ctx context.Context, ownerID, kind string, fields map[string]any) error {
	data := map[string]any{
		OwnerField: ownerID,
		"type":     kind,
		"at":       time.Now().Format(time.RFC3339),
	}
	for k, v := range fields {
		data[k] = v
	}
	_, err := db.PutRecord(ctx, CollectionActivity, uuid.New().String(), data)
	return err
}

// Helper functions

func taskData(t *model.Task) map[string]any {
	data := map[string]any{
		OwnerField:  t.OwnerID,
		"title":     t.Title,
		"status":    string(t.Status),
		"createdAt": t.CreatedAt.Format(time.RFC3339),
		"updatedAt": t.UpdatedAt.Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		data["completedAt"] = t.CompletedAt.Format(time.RFC3339)
	}
	return data
}

// TaskFromDocument converts a tasks document. Missing fields stay zero.
func TaskFromDocument(d *Document) model.Task {
	t := model.Task{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Title:     d.String("title"),
		Status:    model.Status(d.String("status")),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if parsed, err := time.Parse(time.RFC3339, d.String("completedAt")); err == nil {
		t.CompletedAt = &parsed
	}
	return t
}

// ProfileFromDocument converts a users document
func ProfileFromDocument(d *Document) model.Profile {
	return model.Profile{
		ID:        d.ID,
		Email:     d.String("email"),
		CreatedAt: d.String("createdAt"),
	}
}

// ActivityFromDocument converts an activity document, passing fields through
func ActivityFromDocument(d *Document) model.Activity {
	return model.Activity{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Fields:    d.Data,
		CreatedAt: d.CreatedAt,
	}
}
