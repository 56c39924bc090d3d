package model

import "time"

// RunStatus is the final or current state of a journaled run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusStopped   RunStatus = "stopped"
	RunStatusFailed    RunStatus = "failed"
)

// Run is the journal entry of one controller run.
type Run struct {
	ID         string
	QuestID    QuestID
	Status     RunStatus
	Sequence   uint8
	Step       int
	Reason     string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// TaskRecord is the journal entry of one finished task.
type TaskRecord struct {
	ID        string
	RunID     string
	Sequence  uint8
	Step      int
	Index     int
	Name      string
	Result    string
	Error     string
	CreatedAt time.Time
}
