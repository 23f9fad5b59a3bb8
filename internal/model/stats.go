package model

// TaskStats holds the task counters shown on the profile screen.
// Created always equals Archived + Completed + Pending.
type TaskStats struct {
	Created   int `json:"created"`
	Archived  int `json:"archived"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// Count adds one task with the given raw status
func (s *TaskStats) Count(status Status) {
	s.Created++
	switch status.Bucket() {
	case StatusArchived:
		s.Archived++
	case StatusCompleted:
		s.Completed++
	default:
		s.Pending++
	}
}

// TallyTasks computes fresh statistics for a set of tasks
func TallyTasks(tasks []Task) TaskStats {
	var s TaskStats
	for _, t := range tasks {
		s.Count(t.Status)
	}
	return s
}
