package models

import "time"

// Difficulty tiers shared by tasks and patient skill levels.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Rank orders difficulties; unknown values rank 0.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyBeginner:
		return 1
	case DifficultyIntermediate:
		return 2
	case DifficultyAdvanced:
		return 3
	}
	return 0
}

// TaskStatus captures task lifecycle states.
type TaskStatus string

const (
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusAssigned, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// TherapyTask is a practice activity, optionally attached to a goal.
type TherapyTask struct {
	ID                string     `db:"id" json:"id"`
	GoalID            *string    `db:"goal_id" json:"goalId,omitempty"`
	Title             string     `db:"title" json:"title"`
	Description       string     `db:"description" json:"description"`
	Instructions      string     `db:"instructions" json:"instructions"`
	Difficulty        Difficulty `db:"difficulty" json:"difficulty"`
	EstimatedDuration int        `db:"estimated_duration" json:"estimatedDuration"`
	Progress          float64    `db:"progress" json:"progress"`
	Status            TaskStatus `db:"status" json:"status"`
	DueDate           *time.Time `db:"due_date" json:"dueDate,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}
