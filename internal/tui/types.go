package tui

// TaskItem is a summary of a task for the board list
type TaskItem struct {
	ID            string
	Title         string
	Status        string
	Priority      string
	AssigneeName  string
	AssigneeEmoji string
	ProjectName   string
}

// TaskDetail is the full task information shown on the detail screen
type TaskDetail struct {
	ID            string
	Title         string
	Description   string
	Status        string
	Priority      string
	AssigneeName  string
	AssigneeEmoji string
	ProjectName   string
	Tags          string
	DueDate       string
	CreatedAt     string
	UpdatedAt     string
	Comments      []CommentItem
	History       []HistoryItem
}

// CommentItem is a single comment on a task
type CommentItem struct {
	Author    string
	Content   string
	CreatedAt string
}

// HistoryItem is a single history entry for a task
type HistoryItem struct {
	Action    string
	Field     string
	OldValue  string
	NewValue  string
	Actor     string
	CreatedAt string
}

// AgentItem is a board agent shown on the agents panel
type AgentItem struct {
	ID     string
	Name   string
	Emoji  string
	Role   string
	Status string
}

type tasksLoadedMsg struct {
	tasks []TaskItem
}

type taskDetailLoadedMsg struct {
	task *TaskDetail
}

type agentsLoadedMsg struct {
	agents []AgentItem
}

type serverStatusMsg struct {
	online bool
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}
