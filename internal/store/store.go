package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bpweber1/mission-control/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound indicates an operation addressed an id that does not exist
// where existence is required.
var ErrNotFound = errors.New("not found")

// Store is the task lifecycle engine and query layer over a DB. It holds no
// state of its own; the database is the only shared state between requests.
type Store struct {
	db DB
}

// New wraps an opened DB.
func New(db DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Engine reports which backend is active.
func (s *Store) Engine() string {
	return s.db.Engine()
}

// TaskCount returns the total number of tasks, used by the health probe.
func (s *Store) TaskCount() (int, error) {
	var count int
	if err := s.db.FetchOne(`SELECT COUNT(*) FROM tasks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

// --- Task Lifecycle ---

// CreateTask persists a new task, records its creation in the history, and
// notifies the assignee when one was supplied.
func (s *Store) CreateTask(nt models.NewTask) (*models.Task, error) {
	now := time.Now().UTC()
	task := &models.Task{
		ID:          uuid.New().String(),
		Title:       nt.Title,
		Description: nt.Description,
		Status:      nt.Status,
		Priority:    nt.Priority,
		AssigneeID:  nt.AssigneeID,
		ProjectID:   nt.ProjectID,
		Tags:        models.JoinTags(nt.Tags),
		DueDate:     nt.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusBacklog
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}

	_, err := s.db.Execute(
		`INSERT INTO tasks (id, title, description, status, priority, assignee_id, project_id, tags, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, string(task.Status), string(task.Priority),
		nullString(task.AssigneeID), nullString(task.ProjectID),
		nullString(task.Tags), nullString(task.DueDate),
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	if err := s.logHistory(task.ID, models.HistoryCreated, "", "", "", models.ActorUser); err != nil {
		return nil, err
	}
	if task.AssigneeID != "" {
		if err := s.notifyAssigned(task.AssigneeID, task.ID, task.Title); err != nil {
			return nil, err
		}
	}
	return task, nil
}

// UpdateTask applies a partial update. Nil patch fields leave the stored
// value untouched; the patch cannot clear a field. A status change and an
// assignee change each append a history entry, and a new non-empty assignee
// also gets a notification. updated_at is refreshed whenever the statement
// executes, whether or not anything actually changed.
func (s *Store) UpdateTask(id string, patch models.TaskPatch) (*models.Task, error) {
	current, err := s.getTaskRow(id)
	if err != nil {
		return nil, err
	}

	merged := *current
	patch.Apply(&merged)
	merged.UpdatedAt = time.Now().UTC()

	_, err = s.db.Execute(
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?,
			assignee_id = ?, project_id = ?, tags = ?, due_date = ?, updated_at = ?
		 WHERE id = ?`,
		merged.Title, merged.Description, string(merged.Status), string(merged.Priority),
		nullString(merged.AssigneeID), nullString(merged.ProjectID),
		nullString(merged.Tags), nullString(merged.DueDate),
		merged.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	actor := patch.Actor
	if actor == "" {
		actor = models.ActorUser
	}
	if patch.Status != nil && merged.Status != current.Status {
		if err := s.logHistory(id, models.HistoryUpdated, "status", string(current.Status), string(merged.Status), actor); err != nil {
			return nil, err
		}
	}
	if patch.AssigneeID != nil && merged.AssigneeID != "" && merged.AssigneeID != current.AssigneeID {
		if err := s.logHistory(id, models.HistoryUpdated, "assignee_id", current.AssigneeID, merged.AssigneeID, actor); err != nil {
			return nil, err
		}
		if err := s.notifyAssigned(merged.AssigneeID, id, current.Title); err != nil {
			return nil, err
		}
	}

	return &merged, nil
}

// DeleteTask removes the task row unconditionally. Comments, history, and
// notifications referencing it are left in place as orphans.
func (s *Store) DeleteTask(id string) error {
	if _, err := s.db.Execute(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// GetTask returns a single task with its project and assignee display
// fields resolved through null-safe left joins.
func (s *Store) GetTask(id string) (*models.Task, error) {
	row := s.db.FetchOne(joinedTaskSelect+` WHERE t.id = ?`, id)
	task, err := scanJoinedTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// GetTaskDetail returns the task plus all comments and the 50 most recent
// history entries, both newest first.
func (s *Store) GetTaskDetail(id string) (*models.TaskDetail, error) {
	task, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}

	comments, err := s.ListComments(id)
	if err != nil {
		return nil, err
	}
	history, err := s.taskHistory(id, 50)
	if err != nil {
		return nil, err
	}

	return &models.TaskDetail{Task: *task, Comments: comments, History: history}, nil
}

// getTaskRow loads a bare task row without joins, for update merging.
func (s *Store) getTaskRow(id string) (*models.Task, error) {
	var t models.Task
	var status, priority string
	var description, assignee, project, tags, due sql.NullString

	err := s.db.FetchOne(
		`SELECT id, title, description, status, priority, assignee_id, project_id, tags, due_date, created_at, updated_at
		 FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &description, &status, &priority, &assignee, &project, &tags, &due, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}

	t.Status = models.TaskStatus(status)
	t.Priority = models.TaskPriority(priority)
	t.Description = description.String
	t.AssigneeID = assignee.String
	t.ProjectID = project.String
	t.Tags = tags.String
	t.DueDate = due.String
	return &t, nil
}

// --- Comments ---

// AddComment records a comment and its history entry. The task id is not
// verified: a comment on a nonexistent task succeeds and becomes orphaned.
func (s *Store) AddComment(taskID, author, content string) (*models.Comment, error) {
	if author == "" {
		author = models.DefaultAuthor
	}
	comment := &models.Comment{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		Author:    author,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Execute(
		`INSERT INTO comments (id, task_id, author, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.TaskID, comment.Author, comment.Content, comment.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	if err := s.logHistory(taskID, models.HistoryComment, "", "", content, author); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns a task's comments, newest first.
func (s *Store) ListComments(taskID string) ([]models.Comment, error) {
	rows, err := s.db.FetchAll(
		`SELECT id, task_id, author, content, created_at FROM comments WHERE task_id = ? ORDER BY created_at DESC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Author, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// DeleteComment removes a comment unconditionally.
func (s *Store) DeleteComment(id string) error {
	if _, err := s.db.Execute(`DELETE FROM comments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// --- History ---

func (s *Store) logHistory(taskID, action, field, oldValue, newValue, actor string) error {
	_, err := s.db.Execute(
		`INSERT INTO task_history (id, task_id, action, field, old_value, new_value, actor, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), taskID, action,
		nullString(field), nullString(oldValue), nullString(newValue),
		actor, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// taskHistory returns the most recent history entries for a task.
func (s *Store) taskHistory(taskID string, limit int) ([]models.HistoryEntry, error) {
	rows, err := s.db.FetchAll(
		`SELECT id, task_id, action, field, old_value, new_value, actor, created_at
		 FROM task_history WHERE task_id = ? ORDER BY created_at DESC LIMIT ?`,
		taskID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		var field, oldValue, newValue sql.NullString
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Action, &field, &oldValue, &newValue, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Field = field.String
		e.OldValue = oldValue.String
		e.NewValue = newValue.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Scan helpers ---

const joinedTaskSelect = `
	SELECT t.id, t.title, t.description, t.status, t.priority, t.assignee_id, t.project_id,
	       t.tags, t.due_date, t.created_at, t.updated_at,
	       p.name, p.color, p.client, a.name, a.emoji
	FROM tasks t
	LEFT JOIN projects p ON t.project_id = p.id
	LEFT JOIN agents a ON t.assignee_id = a.id`

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanJoinedTask(sc scanner) (*models.Task, error) {
	var t models.Task
	var status, priority string
	var description, assignee, project, tags, due sql.NullString
	var projectName, projectColor, projectClient, assigneeName, assigneeEmoji sql.NullString

	err := sc.Scan(
		&t.ID, &t.Title, &description, &status, &priority, &assignee, &project,
		&tags, &due, &t.CreatedAt, &t.UpdatedAt,
		&projectName, &projectColor, &projectClient, &assigneeName, &assigneeEmoji,
	)
	if err != nil {
		return nil, err
	}

	t.Status = models.TaskStatus(status)
	t.Priority = models.TaskPriority(priority)
	t.Description = description.String
	t.AssigneeID = assignee.String
	t.ProjectID = project.String
	t.Tags = tags.String
	t.DueDate = due.String
	t.ProjectName = projectName.String
	t.ProjectColor = projectColor.String
	t.ProjectClient = projectClient.String
	t.AssigneeName = assigneeName.String
	t.AssigneeEmoji = assigneeEmoji.String
	return &t, nil
}

// nullString maps the empty string to SQL NULL so optional columns stay
// null-clean across both engines.
func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
