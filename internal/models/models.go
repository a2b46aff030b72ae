// Package models defines the core domain types for Mission Control.
package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// TaskStatus is a board column.
type TaskStatus string

const (
	TaskStatusBacklog    TaskStatus = "backlog"
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusParked     TaskStatus = "parked"
)

// ValidTaskStatus reports whether s is one of the workflow statuses.
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusBacklog, TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusParked:
		return true
	}
	return false
}

// TaskPriority orders tasks within a column.
type TaskPriority string

const (
	PriorityUrgent TaskPriority = "urgent"
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// ValidTaskPriority reports whether p is one of the known priorities.
func ValidTaskPriority(p TaskPriority) bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Defaults applied when a field is omitted at creation.
const (
	DefaultAgentEmoji   = "🤖"
	DefaultProjectColor = "#6366f1"
	DefaultAuthor       = "Anonymous"
	ActorSystem         = "System"
	ActorUser           = "User"
)

// History actions.
const (
	HistoryCreated = "created"
	HistoryUpdated = "updated"
	HistoryComment = "comment"
)

// NotificationAssigned is the only notification type the lifecycle engine emits.
const NotificationAssigned = "assigned"

// Agent is a board member tasks can be assigned to.
type Agent struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Emoji        string    `json:"emoji"`
	Role         string    `json:"role,omitempty"`
	Status       string    `json:"status"`
	NotifyHandle string    `json:"notify_handle,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Project groups tasks for a client.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Client      string    `json:"client,omitempty"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Task is the aggregate root of the board. Assignee and project references
// are weak: deleting either leaves the task with a dangling id that joins
// resolve to empty display fields.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	AssigneeID  string       `json:"assignee_id,omitempty"`
	ProjectID   string       `json:"project_id,omitempty"`
	Tags        string       `json:"tags,omitempty"` // comma-separated
	DueDate     string       `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Display fields populated by left joins on list/get.
	ProjectName   string `json:"project_name,omitempty"`
	ProjectColor  string `json:"project_color,omitempty"`
	ProjectClient string `json:"project_client,omitempty"`
	AssigneeName  string `json:"assignee_name,omitempty"`
	AssigneeEmoji string `json:"assignee_emoji,omitempty"`
}

// TaskDetail is a task with its comments and recent history.
type TaskDetail struct {
	Task
	Comments []Comment      `json:"comments"`
	History  []HistoryEntry `json:"history"`
}

// Comment is immutable once created, except for deletion.
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry is an append-only audit record for a task.
type HistoryEntry struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Action    string    `json:"action"`
	Field     string    `json:"field,omitempty"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is an append-only feed entry; only the read flag mutates.
type Notification struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	TaskTitle string    `json:"task_title,omitempty"` // joined on read
}

// Stats is the cross-entity aggregate for the dashboard.
type Stats struct {
	Total     int                `json:"total"`
	ByStatus  map[string]int     `json:"byStatus"`
	ByAgent   []AgentTaskCount   `json:"byAgent"`
	ByProject []ProjectTaskCount `json:"byProject"`
}

// AgentTaskCount is an agent's open (non-done) task count. Agents with no
// open tasks still appear with Count 0.
type AgentTaskCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// ProjectTaskCount is an active project's open task count.
type ProjectTaskCount struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Client string `json:"client,omitempty"`
	Count  int    `json:"count"`
}

// NewTask carries the fields accepted at task creation. Title is required;
// everything else falls back to a documented default.
type NewTask struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	AssigneeID  string       `json:"assignee_id"`
	ProjectID   string       `json:"project_id"`
	Tags        TagList      `json:"tags"`
	DueDate     string       `json:"due_date"`
}

// TaskFilter narrows ListTasks. Empty fields are ignored; set fields are
// AND-combined.
type TaskFilter struct {
	Status   string
	Assignee string
	Project  string
}

// TagList decodes either a JSON array of strings or a single comma-separated
// string, which is what API clients historically sent.
type TagList []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TagList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*t = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = SplitTags(s)
	return nil
}

// JoinTags flattens tags to the stored comma-separated form.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// SplitTags parses the stored form back into a tag list, trimming whitespace
// and dropping empties.
func SplitTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// SortedTagSet deduplicates and sorts a tag list.
func SortedTagSet(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
