package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/bpweber1/mission-control/internal/models"
)

// ListTasks returns tasks matching the filter, ordered by priority rank
// (urgent first) and then by creation time, newest first. Board columns
// read top-to-bottom by urgency then recency; this ordering is part of the
// API contract.
func (s *Store) ListTasks(filter models.TaskFilter) ([]models.Task, error) {
	q := strings.Builder{}
	q.WriteString(joinedTaskSelect)
	args := []any{}

	conditions := []string{}
	if filter.Status != "" {
		conditions = append(conditions, "t.status = ?")
		args = append(args, filter.Status)
	}
	if filter.Assignee != "" {
		conditions = append(conditions, "t.assignee_id = ?")
		args = append(args, filter.Assignee)
	}
	if filter.Project != "" {
		conditions = append(conditions, "t.project_id = ?")
		args = append(args, filter.Project)
	}
	if len(conditions) > 0 {
		q.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	q.WriteString(` ORDER BY CASE t.priority WHEN 'urgent' THEN 1 WHEN 'high' THEN 2 WHEN 'medium' THEN 3 ELSE 4 END, t.created_at DESC`)

	rows, err := s.db.FetchAll(q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanJoinedTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Stats computes the dashboard aggregates in the store so the counts match
// the filter semantics used everywhere else. Agents appear even with zero
// open tasks; archived projects are excluded entirely.
func (s *Store) Stats() (*models.Stats, error) {
	stats := &models.Stats{ByStatus: map[string]int{}}

	if err := s.db.FetchOne(`SELECT COUNT(*) FROM tasks`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	rows, err := s.db.FetchAll(`SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	agentRows, err := s.db.FetchAll(
		`SELECT a.id, a.name, a.emoji, COUNT(t.id)
		 FROM agents a LEFT JOIN tasks t ON a.id = t.assignee_id AND t.status != 'done'
		 GROUP BY a.id, a.name, a.emoji
		 ORDER BY a.name, a.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("count by agent: %w", err)
	}
	defer agentRows.Close()
	stats.ByAgent = []models.AgentTaskCount{}
	for agentRows.Next() {
		var ac models.AgentTaskCount
		if err := agentRows.Scan(&ac.ID, &ac.Name, &ac.Emoji, &ac.Count); err != nil {
			return nil, fmt.Errorf("scan agent count: %w", err)
		}
		stats.ByAgent = append(stats.ByAgent, ac)
	}
	if err := agentRows.Err(); err != nil {
		return nil, err
	}

	projectRows, err := s.db.FetchAll(
		`SELECT p.id, p.name, p.color, p.client, COUNT(t.id)
		 FROM projects p LEFT JOIN tasks t ON p.id = t.project_id AND t.status != 'done'
		 WHERE p.status = 'active'
		 GROUP BY p.id, p.name, p.color, p.client
		 ORDER BY p.name, p.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("count by project: %w", err)
	}
	defer projectRows.Close()
	stats.ByProject = []models.ProjectTaskCount{}
	for projectRows.Next() {
		var pc models.ProjectTaskCount
		var client sql.NullString
		if err := projectRows.Scan(&pc.ID, &pc.Name, &pc.Color, &client, &pc.Count); err != nil {
			return nil, fmt.Errorf("scan project count: %w", err)
		}
		pc.Client = client.String
		stats.ByProject = append(stats.ByProject, pc)
	}
	return stats, projectRows.Err()
}

// DistinctTags scans every non-empty tag field and returns the sorted,
// deduplicated tag set.
func (s *Store) DistinctTags() ([]string, error) {
	rows, err := s.db.FetchAll(`SELECT tags FROM tasks WHERE tags IS NOT NULL AND tags != ''`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var all []string
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, fmt.Errorf("scan tags: %w", err)
		}
		all = append(all, models.SplitTags(tags)...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	set := models.SortedTagSet(all)
	if set == nil {
		set = []string{}
	}
	return set, nil
}
