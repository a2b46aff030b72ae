package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bpweber1/mission-control/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tmpDir := t.TempDir()
	db, err := Open("", filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := Init(db); err != nil {
		t.Fatalf("Failed to init database: %v", err)
	}
	return New(db)
}

func strPtr(s string) *string { return &s }

func statusPtr(s models.TaskStatus) *models.TaskStatus       { return &s }
func priorityPtr(p models.TaskPriority) *models.TaskPriority { return &p }

func TestCreateTask_Defaults(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, err := s.CreateTask(models.NewTask{Title: "Ship it"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.ID == "" {
		t.Error("Task ID should not be empty")
	}
	if task.Status != models.TaskStatusBacklog {
		t.Errorf("Expected status backlog, got %s", task.Status)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("Expected priority medium, got %s", task.Priority)
	}

	detail, err := s.GetTaskDetail(task.ID)
	if err != nil {
		t.Fatalf("GetTaskDetail failed: %v", err)
	}
	if len(detail.History) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(detail.History))
	}
	if detail.History[0].Action != models.HistoryCreated {
		t.Errorf("Expected created history entry, got %s", detail.History[0].Action)
	}
	if detail.History[0].Actor != models.ActorUser {
		t.Errorf("Expected actor %s, got %s", models.ActorUser, detail.History[0].Actor)
	}
}

func TestCreateTask_WithAssigneeNotifies(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	agent, err := s.CreateAgent("Dana", "", "", "")
	if err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	task, err := s.CreateTask(models.NewTask{Title: "Review deck", AssigneeID: agent.ID})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	notifications, err := s.ListNotifications(agent.ID, true)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("Expected 1 unread notification, got %d", len(notifications))
	}
	n := notifications[0]
	if n.TaskID != task.ID {
		t.Errorf("Expected task ID %s, got %s", task.ID, n.TaskID)
	}
	if n.Type != models.NotificationAssigned {
		t.Errorf("Expected type assigned, got %s", n.Type)
	}
	want := fmt.Sprintf("You've been assigned: %q", "Review deck")
	if n.Message != want {
		t.Errorf("Expected message %q, got %q", want, n.Message)
	}
	if n.Read {
		t.Error("Expected notification to start unread")
	}

	// Creation records a single history entry, no assignee entry.
	detail, _ := s.GetTaskDetail(task.ID)
	if len(detail.History) != 1 {
		t.Errorf("Expected 1 history entry, got %d", len(detail.History))
	}
}

func TestUpdateTask_PartialPatch(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, _ := s.CreateTask(models.NewTask{Title: "Original", Description: "keep me"})

	updated, err := s.UpdateTask(task.ID, models.TaskPatch{Title: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("Expected title Renamed, got %s", updated.Title)
	}
	if updated.Description != "keep me" {
		t.Errorf("Omitted field should be untouched, got %q", updated.Description)
	}

	got, _ := s.GetTask(task.ID)
	if got.Title != "Renamed" || got.Description != "keep me" {
		t.Errorf("Stored row mismatch: title=%q description=%q", got.Title, got.Description)
	}
}

func TestUpdateTask_StatusChangeHistory(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, _ := s.CreateTask(models.NewTask{Title: "Move me"})

	_, err := s.UpdateTask(task.ID, models.TaskPatch{Status: statusPtr(models.TaskStatusInProgress)})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	detail, _ := s.GetTaskDetail(task.ID)
	if len(detail.History) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(detail.History))
	}
	// History is newest first.
	h := detail.History[0]
	if h.Field != "status" {
		t.Errorf("Expected field status, got %s", h.Field)
	}
	if h.OldValue != "backlog" || h.NewValue != "in-progress" {
		t.Errorf("Expected backlog -> in-progress, got %s -> %s", h.OldValue, h.NewValue)
	}

	// A status-only change never notifies anyone.
	notifications, err := s.ListNotifications("", false)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(notifications) != 0 {
		t.Errorf("Expected no notifications for a status change, got %d", len(notifications))
	}
}

func TestUpdateTask_SameStatusNoHistory(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, _ := s.CreateTask(models.NewTask{Title: "Stay put"})

	_, err := s.UpdateTask(task.ID, models.TaskPatch{Status: statusPtr(models.TaskStatusBacklog)})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	detail, _ := s.GetTaskDetail(task.ID)
	if len(detail.History) != 1 {
		t.Errorf("Expected only the created entry, got %d entries", len(detail.History))
	}
}

func TestUpdateTask_AssigneeChangeNotifiesWithOldTitle(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	agent, _ := s.CreateAgent("Dana", "", "", "")
	task, _ := s.CreateTask(models.NewTask{Title: "Before rename"})

	// Title and assignee change in one patch; the notification renders the
	// title as it was when the patch arrived.
	_, err := s.UpdateTask(task.ID, models.TaskPatch{
		Title:      strPtr("After rename"),
		AssigneeID: strPtr(agent.ID),
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	notifications, _ := s.ListNotifications(agent.ID, false)
	if len(notifications) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifications))
	}
	want := fmt.Sprintf("You've been assigned: %q", "Before rename")
	if notifications[0].Message != want {
		t.Errorf("Expected message %q, got %q", want, notifications[0].Message)
	}

	detail, _ := s.GetTaskDetail(task.ID)
	if len(detail.History) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(detail.History))
	}
	if detail.History[0].Field != "assignee_id" {
		t.Errorf("Expected assignee_id history entry, got %s", detail.History[0].Field)
	}
}

func TestUpdateTask_ClearAssigneeNoNotification(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	agent, _ := s.CreateAgent("Dana", "", "", "")
	task, _ := s.CreateTask(models.NewTask{Title: "Handed back", AssigneeID: agent.ID})

	_, err := s.UpdateTask(task.ID, models.TaskPatch{AssigneeID: strPtr("")})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	got, _ := s.GetTask(task.ID)
	if got.AssigneeID != "" {
		t.Errorf("Expected assignee cleared, got %s", got.AssigneeID)
	}

	// Only the creation notification exists; unassigning is silent.
	notifications, _ := s.ListNotifications(agent.ID, false)
	if len(notifications) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifications))
	}
	detail, _ := s.GetTaskDetail(task.ID)
	if len(detail.History) != 1 {
		t.Errorf("Expected 1 history entry, got %d", len(detail.History))
	}
}

// An empty patch still rewrites the row, so updated_at moves even though
// nothing changed. Callers relying on updated_at as a change marker will see
// false positives.
func TestUpdateTask_BumpsUpdatedAtWithoutChanges(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, _ := s.CreateTask(models.NewTask{Title: "Untouched"})
	before := task.UpdatedAt

	time.Sleep(10 * time.Millisecond)

	updated, err := s.UpdateTask(task.ID, models.TaskPatch{})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if !updated.UpdatedAt.After(before) {
		t.Errorf("Expected updated_at to move forward: before=%v after=%v", before, updated.UpdatedAt)
	}
}

func TestUpdateTask_NotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	_, err := s.UpdateTask(uuid.New().String(), models.TaskPatch{Title: strPtr("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetTask_JoinedFields(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	agent, _ := s.CreateAgent("Dana", "🧭", "Coordinator", "")
	project, _ := s.CreateProject("Apollo", "ACME", "", "#ff0000")

	task, _ := s.CreateTask(models.NewTask{
		Title:      "Joined",
		AssigneeID: agent.ID,
		ProjectID:  project.ID,
	})

	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.AssigneeName != "Dana" || got.AssigneeEmoji != "🧭" {
		t.Errorf("Expected assignee Dana 🧭, got %s %s", got.AssigneeName, got.AssigneeEmoji)
	}
	if got.ProjectName != "Apollo" || got.ProjectColor != "#ff0000" || got.ProjectClient != "ACME" {
		t.Errorf("Project join mismatch: %s %s %s", got.ProjectName, got.ProjectColor, got.ProjectClient)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	_, err := s.GetTask(uuid.New().String())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTask_LeavesCommentsBehind(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, _ := s.CreateTask(models.NewTask{Title: "Doomed"})
	if _, err := s.AddComment(task.ID, "Dana", "last words"); err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}

	if err := s.DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	if _, err := s.GetTask(task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	// No cascade: the comment survives as an orphan.
	comments, err := s.ListComments(task.ID)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(comments) != 1 {
		t.Errorf("Expected orphaned comment to survive, got %d comments", len(comments))
	}
}

func TestAddComment_Defaults(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, _ := s.CreateTask(models.NewTask{Title: "Discuss"})

	comment, err := s.AddComment(task.ID, "", "first!")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if comment.Author != models.DefaultAuthor {
		t.Errorf("Expected author %s, got %s", models.DefaultAuthor, comment.Author)
	}

	detail, _ := s.GetTaskDetail(task.ID)
	if len(detail.Comments) != 1 {
		t.Fatalf("Expected 1 comment, got %d", len(detail.Comments))
	}
	if len(detail.History) != 2 {
		t.Errorf("Expected comment history entry, got %d entries", len(detail.History))
	}
	if detail.History[0].Action != models.HistoryComment {
		t.Errorf("Expected comment action, got %s", detail.History[0].Action)
	}
}

// Comments are accepted for task IDs that do not exist. The rows sit
// unreachable until the task is created with that ID.
func TestAddComment_OrphanTaskAccepted(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ghost := uuid.New().String()
	if _, err := s.AddComment(ghost, "Dana", "anyone home?"); err != nil {
		t.Fatalf("AddComment on missing task failed: %v", err)
	}

	comments, err := s.ListComments(ghost)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(comments) != 1 {
		t.Errorf("Expected 1 comment, got %d", len(comments))
	}
}

func TestDeleteComment(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, _ := s.CreateTask(models.NewTask{Title: "Moderated"})
	comment, _ := s.AddComment(task.ID, "Dana", "delete me")

	if err := s.DeleteComment(comment.ID); err != nil {
		t.Fatalf("DeleteComment failed: %v", err)
	}

	comments, _ := s.ListComments(task.ID)
	if len(comments) != 0 {
		t.Errorf("Expected 0 comments after delete, got %d", len(comments))
	}
}

func TestTaskHistory_Limit(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, _ := s.CreateTask(models.NewTask{Title: "Busy"})
	s.UpdateTask(task.ID, models.TaskPatch{Status: statusPtr(models.TaskStatusTodo)})
	s.UpdateTask(task.ID, models.TaskPatch{Status: statusPtr(models.TaskStatusDone)})

	entries, err := s.taskHistory(task.ID, 2)
	if err != nil {
		t.Fatalf("taskHistory failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries with limit 2, got %d", len(entries))
	}
	// Newest first: the created entry falls off.
	if entries[0].NewValue != "done" || entries[1].NewValue != "todo" {
		t.Errorf("Expected the two status entries, got %+v", entries)
	}
}

func TestTaskCount(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	for i := 0; i < 3; i++ {
		if _, err := s.CreateTask(models.NewTask{Title: fmt.Sprintf("Task %d", i)}); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	count, err := s.TaskCount()
	if err != nil {
		t.Fatalf("TaskCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 tasks, got %d", count)
	}
}

func TestTaskTagsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	task, err := s.CreateTask(models.NewTask{Title: "Tagged", Tags: models.TagList{"go", "api"}})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.Tags != "go,api" {
		t.Errorf("Expected tags go,api, got %q", task.Tags)
	}

	got, _ := s.GetTask(task.ID)
	if got.Tags != "go,api" {
		t.Errorf("Expected stored tags go,api, got %q", got.Tags)
	}
}
