// Package controlplane provides the HTTP API and service layer for the
// Mission Control board.
package controlplane

import (
	"strings"

	"github.com/bpweber1/mission-control/internal/models"
	"github.com/bpweber1/mission-control/internal/store"
)

// Service validates requests and delegates to the store. Validation failures
// never reach storage; storage errors pass through untranslated.
type Service struct {
	store *store.Store
}

// NewService creates a new board service.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// --- Tasks ---

// CreateTask validates and creates a task.
func (s *Service) CreateTask(nt models.NewTask) (*models.Task, error) {
	if strings.TrimSpace(nt.Title) == "" {
		return nil, required("title")
	}
	if nt.Status != "" && !models.ValidTaskStatus(nt.Status) {
		return nil, invalid("status", string(nt.Status))
	}
	if nt.Priority != "" && !models.ValidTaskPriority(nt.Priority) {
		return nil, invalid("priority", string(nt.Priority))
	}
	return s.store.CreateTask(nt)
}

// UpdateTask validates and applies a partial update.
func (s *Service) UpdateTask(id string, patch models.TaskPatch) (*models.Task, error) {
	if patch.Status != nil && !models.ValidTaskStatus(*patch.Status) {
		return nil, invalid("status", string(*patch.Status))
	}
	if patch.Priority != nil && !models.ValidTaskPriority(*patch.Priority) {
		return nil, invalid("priority", string(*patch.Priority))
	}
	return s.store.UpdateTask(id, patch)
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(id string) error {
	return s.store.DeleteTask(id)
}

// GetTaskDetail returns a task with comments and history.
func (s *Service) GetTaskDetail(id string) (*models.TaskDetail, error) {
	return s.store.GetTaskDetail(id)
}

// ListTasks returns filtered tasks in board order.
func (s *Service) ListTasks(filter models.TaskFilter) ([]models.Task, error) {
	return s.store.ListTasks(filter)
}

// --- Comments ---

// AddComment validates and records a comment.
func (s *Service) AddComment(taskID, author, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, required("content")
	}
	return s.store.AddComment(taskID, author, content)
}

// ListComments returns a task's comments, newest first.
func (s *Service) ListComments(taskID string) ([]models.Comment, error) {
	return s.store.ListComments(taskID)
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(id string) error {
	return s.store.DeleteComment(id)
}

// --- Agents ---

// ListAgents returns all agents in creation order.
func (s *Service) ListAgents() ([]models.Agent, error) {
	return s.store.ListAgents()
}

// CreateAgent validates and creates an agent.
func (s *Service) CreateAgent(name, emoji, role, notifyHandle string) (*models.Agent, error) {
	if strings.TrimSpace(name) == "" {
		return nil, required("name")
	}
	return s.store.CreateAgent(name, emoji, role, notifyHandle)
}

// UpdateAgent applies a partial agent update.
func (s *Service) UpdateAgent(id string, patch models.AgentPatch) (*models.Agent, error) {
	return s.store.UpdateAgent(id, patch)
}

// DeleteAgent removes an agent.
func (s *Service) DeleteAgent(id string) error {
	return s.store.DeleteAgent(id)
}

// --- Projects ---

// ListProjects returns all projects ordered by name.
func (s *Service) ListProjects() ([]models.Project, error) {
	return s.store.ListProjects()
}

// CreateProject validates and creates a project.
func (s *Service) CreateProject(name, client, description, color string) (*models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, required("name")
	}
	return s.store.CreateProject(name, client, description, color)
}

// UpdateProject applies a partial project update.
func (s *Service) UpdateProject(id string, patch models.ProjectPatch) (*models.Project, error) {
	return s.store.UpdateProject(id, patch)
}

// DeleteProject removes a project.
func (s *Service) DeleteProject(id string) error {
	return s.store.DeleteProject(id)
}

// --- Notifications / aggregates ---

// ListNotifications returns the notification feed.
func (s *Service) ListNotifications(agentID string, unreadOnly bool) ([]models.Notification, error) {
	return s.store.ListNotifications(agentID, unreadOnly)
}

// MarkNotificationRead flips one read flag.
func (s *Service) MarkNotificationRead(id string) error {
	return s.store.MarkNotificationRead(id)
}

// MarkAllNotificationsRead marks an agent's (or everyone's) feed read.
func (s *Service) MarkAllNotificationsRead(agentID string) error {
	return s.store.MarkAllNotificationsRead(agentID)
}

// Stats returns the dashboard aggregates.
func (s *Service) Stats() (*models.Stats, error) {
	return s.store.Stats()
}

// DistinctTags returns the sorted tag set.
func (s *Service) DistinctTags() ([]string, error) {
	return s.store.DistinctTags()
}
