package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bpweber1/mission-control/internal/models"
	"github.com/google/uuid"
)

// notifyAssigned appends an "assigned" notification for the agent. The
// message is rendered once and stored verbatim; it is never recomputed from
// the task on read.
func (s *Store) notifyAssigned(agentID, taskID, title string) error {
	_, err := s.db.Execute(
		`INSERT INTO notifications (id, agent_id, task_id, type, message, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), agentID, taskID, models.NotificationAssigned,
		fmt.Sprintf("You've been assigned: %q", title),
		false, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns the newest 100 notifications, optionally
// restricted to one agent and to unread entries. The related task title is
// joined in; notifications for deleted tasks survive with an empty title.
func (s *Store) ListNotifications(agentID string, unreadOnly bool) ([]models.Notification, error) {
	q := strings.Builder{}
	q.WriteString(`
		SELECT n.id, n.agent_id, n.task_id, n.type, n.message, n.read, n.created_at, t.title
		FROM notifications n
		LEFT JOIN tasks t ON n.task_id = t.id`)
	args := []any{}

	conditions := []string{}
	if agentID != "" {
		conditions = append(conditions, "n.agent_id = ?")
		args = append(args, agentID)
	}
	if unreadOnly {
		conditions = append(conditions, "n.read = ?")
		args = append(args, false)
	}
	if len(conditions) > 0 {
		q.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	q.WriteString(" ORDER BY n.created_at DESC LIMIT 100")

	rows, err := s.db.FetchAll(q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var agent, task, title sql.NullString
		if err := rows.Scan(&n.ID, &agent, &task, &n.Type, &n.Message, &n.Read, &n.CreatedAt, &title); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.AgentID = agent.String
		n.TaskID = task.String
		n.TaskTitle = title.String
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flips the read flag on one notification.
func (s *Store) MarkNotificationRead(id string) error {
	if _, err := s.db.Execute(`UPDATE notifications SET read = ? WHERE id = ?`, true, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification read, or just one
// agent's when agentID is non-empty.
func (s *Store) MarkAllNotificationsRead(agentID string) error {
	var err error
	if agentID != "" {
		_, err = s.db.Execute(`UPDATE notifications SET read = ? WHERE agent_id = ?`, true, agentID)
	} else {
		_, err = s.db.Execute(`UPDATE notifications SET read = ?`, true)
	}
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}
