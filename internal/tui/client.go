package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the mission-control API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

type taskJSON struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	AssigneeName  string `json:"assignee_name"`
	AssigneeEmoji string `json:"assignee_emoji"`
	ProjectName   string `json:"project_name"`
	Tags          string `json:"tags"`
	DueDate       string `json:"due_date"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// ListTasks fetches tasks from the API, optionally filtered by status
func (c *Client) ListTasks(status string) ([]TaskItem, error) {
	url := c.baseURL + "/api/tasks"
	if status != "" {
		url += "?status=" + status
	}

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var tasks []taskJSON
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, err
	}

	items := make([]TaskItem, len(tasks))
	for i, t := range tasks {
		items[i] = TaskItem{
			ID:            t.ID,
			Title:         t.Title,
			Status:        t.Status,
			Priority:      t.Priority,
			AssigneeName:  t.AssigneeName,
			AssigneeEmoji: t.AssigneeEmoji,
			ProjectName:   t.ProjectName,
		}
	}
	return items, nil
}

// GetTask fetches a single task with its comments and history
func (c *Client) GetTask(id string) (*TaskDetail, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/tasks/" + id)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var detail struct {
		taskJSON
		Comments []struct {
			Author    string `json:"author"`
			Content   string `json:"content"`
			CreatedAt string `json:"created_at"`
		} `json:"comments"`
		History []struct {
			Action    string `json:"action"`
			Field     string `json:"field"`
			OldValue  string `json:"old_value"`
			NewValue  string `json:"new_value"`
			Actor     string `json:"actor"`
			CreatedAt string `json:"created_at"`
		} `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, err
	}

	out := &TaskDetail{
		ID:            detail.ID,
		Title:         detail.Title,
		Description:   detail.Description,
		Status:        detail.Status,
		Priority:      detail.Priority,
		AssigneeName:  detail.AssigneeName,
		AssigneeEmoji: detail.AssigneeEmoji,
		ProjectName:   detail.ProjectName,
		Tags:          detail.Tags,
		DueDate:       detail.DueDate,
		CreatedAt:     detail.CreatedAt,
		UpdatedAt:     detail.UpdatedAt,
	}
	for _, cm := range detail.Comments {
		out.Comments = append(out.Comments, CommentItem{
			Author:    cm.Author,
			Content:   cm.Content,
			CreatedAt: cm.CreatedAt,
		})
	}
	for _, h := range detail.History {
		out.History = append(out.History, HistoryItem{
			Action:    h.Action,
			Field:     h.Field,
			OldValue:  h.OldValue,
			NewValue:  h.NewValue,
			Actor:     h.Actor,
			CreatedAt: h.CreatedAt,
		})
	}
	return out, nil
}

// CreateTask creates a new task
func (c *Client) CreateTask(title string) (string, error) {
	body := map[string]string{"title": title}
	resp, err := c.post("/api/tasks", body)
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// MoveTask changes a task's status
func (c *Client) MoveTask(taskID, status string) error {
	return c.patch("/api/tasks/"+taskID, map[string]string{"status": status})
}

// AssignTask changes a task's assignee
func (c *Client) AssignTask(taskID, agentID string) error {
	return c.patch("/api/tasks/"+taskID, map[string]string{"assignee_id": agentID})
}

// AddComment posts a comment on a task
func (c *Client) AddComment(taskID, author, content string) error {
	body := map[string]string{"author": author, "content": content}
	_, err := c.post("/api/tasks/"+taskID+"/comments", body)
	return err
}

// ListAgents fetches the board agents
func (c *Client) ListAgents() ([]AgentItem, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/agents")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var agents []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Emoji  string `json:"emoji"`
		Role   string `json:"role"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&agents); err != nil {
		return nil, err
	}

	items := make([]AgentItem, len(agents))
	for i, a := range agents {
		items[i] = AgentItem{
			ID:     a.ID,
			Name:   a.Name,
			Emoji:  a.Emoji,
			Role:   a.Role,
			Status: a.Status,
		}
	}
	return items, nil
}

func (c *Client) post(path string, data interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	return body, nil
}

func (c *Client) patch(path string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPatch, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s", string(body))
	}
	return nil
}

// CheckHealth checks if the server is healthy
func (c *Client) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false, err
	}

	return health.Status == "ok", nil
}
