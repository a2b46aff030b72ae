package controlplane

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bpweber1/mission-control/internal/models"
	"github.com/bpweber1/mission-control/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	tmpDir := t.TempDir()
	db, err := store.Open("", filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := store.Init(db); err != nil {
		t.Fatalf("Failed to init database: %v", err)
	}
	st := store.New(db)
	t.Cleanup(func() { st.Close() })
	return NewServer(NewService(st), st, "127.0.0.1:0")
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var health healthResponse
	decodeBody(t, w, &health)
	if health.Status != "ok" {
		t.Errorf("Expected status ok, got %s", health.Status)
	}
	if health.DB != store.EngineSQLite {
		t.Errorf("Expected db sqlite, got %s", health.DB)
	}
	if health.Tasks != 0 {
		t.Errorf("Expected 0 tasks, got %d", health.Tasks)
	}
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/health", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestCreateTask(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"Ship it","priority":"high"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var task models.Task
	decodeBody(t, w, &task)
	if task.ID == "" {
		t.Error("Expected task ID to be set")
	}
	if task.Status != models.TaskStatusBacklog {
		t.Errorf("Expected default status backlog, got %s", task.Status)
	}
	if task.Priority != models.PriorityHigh {
		t.Errorf("Expected priority high, got %s", task.Priority)
	}
}

func TestCreateTask_TagsAcceptBothForms(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"a","tags":["go","api"]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}
	var task models.Task
	decodeBody(t, w, &task)
	if task.Tags != "go,api" {
		t.Errorf("Expected tags go,api, got %q", task.Tags)
	}

	w = doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"b","tags":"go, api"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}
	decodeBody(t, w, &task)
	if task.Tags != "go,api" {
		t.Errorf("Expected tags go,api from comma string, got %q", task.Tags)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{}`},
		{"blank title", `{"title":"   "}`},
		{"bad status", `{"title":"x","status":"pending"}`},
		{"bad priority", `{"title":"x","priority":"critical"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPost, "/api/tasks", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestGetTask_NotFound(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/tasks/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestPatchTask_Move(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"Move me"}`)
	var task models.Task
	decodeBody(t, w, &task)

	w = doRequest(t, s, http.MethodPatch, "/api/tasks/"+task.ID, `{"status":"in-progress"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated models.Task
	decodeBody(t, w, &updated)
	if updated.Status != models.TaskStatusInProgress {
		t.Errorf("Expected status in-progress, got %s", updated.Status)
	}

	// The move shows up in the detail history.
	w = doRequest(t, s, http.MethodGet, "/api/tasks/"+task.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var detail models.TaskDetail
	decodeBody(t, w, &detail)
	if len(detail.History) != 2 {
		t.Errorf("Expected 2 history entries, got %d", len(detail.History))
	}
}

func TestPatchTask_InvalidStatus(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"x"}`)
	var task models.Task
	decodeBody(t, w, &task)

	w = doRequest(t, s, http.MethodPatch, "/api/tasks/"+task.ID, `{"status":"flying"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestDeleteTask(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"Doomed"}`)
	var task models.Task
	decodeBody(t, w, &task)

	w = doRequest(t, s, http.MethodDelete, "/api/tasks/"+task.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var result map[string]bool
	decodeBody(t, w, &result)
	if !result["success"] {
		t.Error("Expected success true")
	}

	w = doRequest(t, s, http.MethodGet, "/api/tasks/"+task.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Code)
	}
}

func TestTaskComments(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"Discuss"}`)
	var task models.Task
	decodeBody(t, w, &task)

	w = doRequest(t, s, http.MethodPost, "/api/tasks/"+task.ID+"/comments", `{"content":"first!"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var comment models.Comment
	decodeBody(t, w, &comment)
	if comment.Author != models.DefaultAuthor {
		t.Errorf("Expected default author, got %s", comment.Author)
	}

	w = doRequest(t, s, http.MethodPost, "/api/tasks/"+task.ID+"/comments", `{"content":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for blank content, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodGet, "/api/tasks/"+task.ID+"/comments", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var comments []models.Comment
	decodeBody(t, w, &comments)
	if len(comments) != 1 {
		t.Errorf("Expected 1 comment, got %d", len(comments))
	}
}

func TestDeleteComment(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"Moderated"}`)
	var task models.Task
	decodeBody(t, w, &task)

	w = doRequest(t, s, http.MethodPost, "/api/tasks/"+task.ID+"/comments", `{"author":"Dana","content":"oops"}`)
	var comment models.Comment
	decodeBody(t, w, &comment)

	w = doRequest(t, s, http.MethodDelete, "/api/comments/"+comment.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
}

func TestAgentsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/agents", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var agents []models.Agent
	decodeBody(t, w, &agents)
	if len(agents) != 4 {
		t.Errorf("Expected 4 seeded agents, got %d", len(agents))
	}

	w = doRequest(t, s, http.MethodPost, "/api/agents", `{"name":"Dana","role":"Coordinator"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var agent models.Agent
	decodeBody(t, w, &agent)
	if agent.Emoji != models.DefaultAgentEmoji {
		t.Errorf("Expected default emoji, got %s", agent.Emoji)
	}

	w = doRequest(t, s, http.MethodPost, "/api/agents", `{"name":""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty name, got %d", w.Code)
	}
}

func TestProjectsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/projects", `{"name":"Apollo","client":"ACME"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var project models.Project
	decodeBody(t, w, &project)
	if project.Color != models.DefaultProjectColor {
		t.Errorf("Expected default color, got %s", project.Color)
	}

	w = doRequest(t, s, http.MethodPatch, "/api/projects/"+project.ID, `{"status":"archived"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodGet, "/api/projects", "")
	var projects []models.Project
	decodeBody(t, w, &projects)
	if len(projects) != 1 || projects[0].Status != "archived" {
		t.Errorf("Expected 1 archived project, got %+v", projects)
	}
}

func TestNotificationsFlow(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/agents", `{"name":"Dana"}`)
	var agent models.Agent
	decodeBody(t, w, &agent)

	w = doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"Assigned","assignee_id":"`+agent.ID+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodGet, "/api/notifications?agent_id="+agent.ID+"&unread=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var notifications []models.Notification
	decodeBody(t, w, &notifications)
	if len(notifications) != 1 {
		t.Fatalf("Expected 1 unread notification, got %d", len(notifications))
	}
	if notifications[0].TaskTitle != "Assigned" {
		t.Errorf("Expected joined task title, got %q", notifications[0].TaskTitle)
	}

	w = doRequest(t, s, http.MethodPatch, "/api/notifications/"+notifications[0].ID+"/read", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodGet, "/api/notifications?agent_id="+agent.ID+"&unread=true", "")
	decodeBody(t, w, &notifications)
	if len(notifications) != 0 {
		t.Errorf("Expected 0 unread after marking, got %d", len(notifications))
	}
}

func TestMarkAllNotificationsRead_API(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/agents", `{"name":"Dana"}`)
	var agent models.Agent
	decodeBody(t, w, &agent)

	doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"a","assignee_id":"`+agent.ID+`"}`)
	doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"b","assignee_id":"`+agent.ID+`"}`)

	w = doRequest(t, s, http.MethodPost, "/api/notifications/mark-all-read", `{"agent_id":"`+agent.ID+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, s, http.MethodGet, "/api/notifications?agent_id="+agent.ID+"&unread=true", "")
	var notifications []models.Notification
	decodeBody(t, w, &notifications)
	if len(notifications) != 0 {
		t.Errorf("Expected 0 unread, got %d", len(notifications))
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"a","status":"todo"}`)
	doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"b","status":"done"}`)

	w := doRequest(t, s, http.MethodGet, "/api/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var stats models.Stats
	decodeBody(t, w, &stats)
	if stats.Total != 2 {
		t.Errorf("Expected total 2, got %d", stats.Total)
	}
	if stats.ByStatus["todo"] != 1 || stats.ByStatus["done"] != 1 {
		t.Errorf("ByStatus mismatch: %v", stats.ByStatus)
	}
	if len(stats.ByAgent) != 4 {
		t.Errorf("Expected 4 agent rows, got %d", len(stats.ByAgent))
	}
}

func TestTagsEndpoint(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"a","tags":["go","api"]}`)
	doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"b","tags":"api"}`)

	w := doRequest(t, s, http.MethodGet, "/api/tags", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var tags []string
	decodeBody(t, w, &tags)
	want := []string{"api", "go"}
	if len(tags) != 2 || tags[0] != want[0] || tags[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, tags)
	}
}

func TestTasksEndpoint_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodDelete, "/api/tasks", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestListTasks_StatusFilter(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"a","status":"todo"}`)
	doRequest(t, s, http.MethodPost, "/api/tasks", `{"title":"b","status":"done"}`)

	w := doRequest(t, s, http.MethodGet, "/api/tasks?status=todo", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var tasks []models.Task
	decodeBody(t, w, &tasks)
	if len(tasks) != 1 || tasks[0].Title != "a" {
		t.Errorf("Expected only the todo task, got %+v", tasks)
	}
}
