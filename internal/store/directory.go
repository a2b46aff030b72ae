package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bpweber1/mission-control/internal/models"
	"github.com/google/uuid"
)

// Agent and project CRUD. Both are weak references from tasks: deleting
// either does not cascade, and tasks keep the dangling id.

// ListAgents returns all agents in creation order.
func (s *Store) ListAgents() ([]models.Agent, error) {
	rows, err := s.db.FetchAll(
		`SELECT id, name, emoji, role, status, notify_handle, created_at FROM agents ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	agents := []models.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

// CreateAgent inserts a new agent with an active status.
func (s *Store) CreateAgent(name, emoji, role, notifyHandle string) (*models.Agent, error) {
	if emoji == "" {
		emoji = models.DefaultAgentEmoji
	}
	agent := &models.Agent{
		ID:           uuid.New().String(),
		Name:         name,
		Emoji:        emoji,
		Role:         role,
		Status:       "active",
		NotifyHandle: notifyHandle,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.Execute(
		`INSERT INTO agents (id, name, emoji, role, status, notify_handle, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		agent.ID, agent.Name, agent.Emoji, nullString(agent.Role), agent.Status,
		nullString(agent.NotifyHandle), agent.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert agent: %w", err)
	}
	return agent, nil
}

// UpdateAgent applies a partial update with the same "cannot clear" patch
// contract as tasks.
func (s *Store) UpdateAgent(id string, patch models.AgentPatch) (*models.Agent, error) {
	agent, err := s.getAgent(id)
	if err != nil {
		return nil, err
	}
	patch.Apply(agent)

	_, err = s.db.Execute(
		`UPDATE agents SET name = ?, emoji = ?, role = ?, status = ?, notify_handle = ? WHERE id = ?`,
		agent.Name, agent.Emoji, nullString(agent.Role), agent.Status, nullString(agent.NotifyHandle), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update agent: %w", err)
	}
	return agent, nil
}

// DeleteAgent removes an agent. Tasks assigned to it keep the dangling
// reference and list as unassigned.
func (s *Store) DeleteAgent(id string) error {
	if _, err := s.db.Execute(`DELETE FROM agents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	return nil
}

func (s *Store) getAgent(id string) (*models.Agent, error) {
	row := s.db.FetchOne(
		`SELECT id, name, emoji, role, status, notify_handle, created_at FROM agents WHERE id = ?`, id,
	)
	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return agent, err
}

func scanAgent(sc scanner) (*models.Agent, error) {
	var a models.Agent
	var role, notify sql.NullString
	if err := sc.Scan(&a.ID, &a.Name, &a.Emoji, &role, &a.Status, &notify, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan agent: %w", err)
	}
	a.Role = role.String
	a.NotifyHandle = notify.String
	return &a, nil
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects() ([]models.Project, error) {
	rows, err := s.db.FetchAll(
		`SELECT id, name, client, description, color, status, created_at FROM projects ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// CreateProject inserts a new active project.
func (s *Store) CreateProject(name, client, description, color string) (*models.Project, error) {
	if color == "" {
		color = models.DefaultProjectColor
	}
	project := &models.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Client:      client,
		Description: description,
		Color:       color,
		Status:      "active",
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.Execute(
		`INSERT INTO projects (id, name, client, description, color, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Name, nullString(project.Client), nullString(project.Description),
		project.Color, project.Status, project.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

// UpdateProject applies a partial update; archiving happens here by
// patching status to "archived".
func (s *Store) UpdateProject(id string, patch models.ProjectPatch) (*models.Project, error) {
	project, err := s.getProject(id)
	if err != nil {
		return nil, err
	}
	patch.Apply(project)

	_, err = s.db.Execute(
		`UPDATE projects SET name = ?, client = ?, description = ?, color = ?, status = ? WHERE id = ?`,
		project.Name, nullString(project.Client), nullString(project.Description),
		project.Color, project.Status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// DeleteProject removes a project; its tasks keep the dangling reference.
func (s *Store) DeleteProject(id string) error {
	if _, err := s.db.Execute(`DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func (s *Store) getProject(id string) (*models.Project, error) {
	row := s.db.FetchOne(
		`SELECT id, name, client, description, color, status, created_at FROM projects WHERE id = ?`, id,
	)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return project, err
}

func scanProject(sc scanner) (*models.Project, error) {
	var p models.Project
	var client, description sql.NullString
	if err := sc.Scan(&p.ID, &p.Name, &client, &description, &p.Color, &p.Status, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.Client = client.String
	p.Description = description.String
	return &p, nil
}
