package models

// Patch types implement partial updates: a nil field leaves the stored value
// untouched. Because nil means "unchanged", a patch cannot clear a field back
// to empty — that limitation is part of the API contract.

// TaskPatch is a partial task update.
type TaskPatch struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Status      *TaskStatus   `json:"status"`
	Priority    *TaskPriority `json:"priority"`
	AssigneeID  *string       `json:"assignee_id"`
	ProjectID   *string       `json:"project_id"`
	Tags        *TagList      `json:"tags"`
	DueDate     *string       `json:"due_date"`
	Actor       string        `json:"actor"`
}

// Apply merges the patch into t field by field.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.AssigneeID != nil {
		t.AssigneeID = *p.AssigneeID
	}
	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	if p.Tags != nil {
		t.Tags = JoinTags(*p.Tags)
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
}

// AgentPatch is a partial agent update.
type AgentPatch struct {
	Name         *string `json:"name"`
	Emoji        *string `json:"emoji"`
	Role         *string `json:"role"`
	Status       *string `json:"status"`
	NotifyHandle *string `json:"notify_handle"`
}

// Apply merges the patch into a field by field.
func (p AgentPatch) Apply(a *Agent) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Emoji != nil {
		a.Emoji = *p.Emoji
	}
	if p.Role != nil {
		a.Role = *p.Role
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.NotifyHandle != nil {
		a.NotifyHandle = *p.NotifyHandle
	}
}

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name        *string `json:"name"`
	Client      *string `json:"client"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Status      *string `json:"status"`
}

// Apply merges the patch into pr field by field.
func (p ProjectPatch) Apply(pr *Project) {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Client != nil {
		pr.Client = *p.Client
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.Color != nil {
		pr.Color = *p.Color
	}
	if p.Status != nil {
		pr.Status = *p.Status
	}
}
