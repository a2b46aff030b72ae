// Package tui provides the interactive terminal board for mission-control.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")
	cyanColor    = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	mutedTextStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	agentActiveStyle = lipgloss.NewStyle().
				Foreground(successColor).
				Bold(true)

	agentIdleStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// App is the main TUI application model.
type App struct {
	client       *Client
	tasks        []TaskItem
	selectedIdx  int
	input        textinput.Model
	viewport     viewport.Model
	width        int
	height       int
	mode         string // "list", "detail", "agents"
	currentTask  *TaskDetail
	message      string
	filter       string
	filterIdx    int
	loading      bool
	agents       []AgentItem
	agentIdx     int
	serverOnline bool
}

var filters = []string{"", "backlog", "todo", "in-progress", "done", "parked"}
var filterNames = []string{"ALL", "BACKLOG", "TODO", "IN-PROGRESS", "DONE", "PARKED"}

// New creates a new TUI application.
func New(apiAddr string) *App {
	ti := textinput.New()
	ti.Placeholder = "Type: add <title> | move <status> | assign <agent> | comment <text>"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 80

	vp := viewport.New(80, 20)

	return &App{
		client:   NewClient(apiAddr),
		input:    ti,
		viewport: vp,
		mode:     "list",
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.fetchTasks(),
		a.fetchAgents(),
		a.checkServer(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit

		case "esc":
			if a.mode == "detail" || a.mode == "agents" {
				a.mode = "list"
				a.currentTask = nil
				return a, a.fetchTasks()
			}

		case "up", "k":
			if a.mode == "list" && a.selectedIdx > 0 {
				a.selectedIdx--
			} else if a.mode == "agents" && a.agentIdx > 0 {
				a.agentIdx--
			}

		case "down", "j":
			if a.mode == "list" && a.selectedIdx < len(a.tasks)-1 {
				a.selectedIdx++
			} else if a.mode == "agents" && a.agentIdx < len(a.agents)-1 {
				a.agentIdx++
			}

		case "tab":
			// Cycle status filter
			if a.mode == "list" {
				a.filterIdx = (a.filterIdx + 1) % len(filters)
				a.filter = filters[a.filterIdx]
				a.selectedIdx = 0
				return a, a.fetchTasks()
			}

		case "enter":
			cmd := strings.TrimSpace(a.input.Value())
			if cmd != "" {
				a.input.SetValue("")
				return a, a.executeCommand(cmd)
			} else if a.mode == "list" && len(a.tasks) > 0 {
				task := a.tasks[a.selectedIdx]
				a.mode = "detail"
				return a, a.fetchTaskDetail(task.ID)
			}

		case "r":
			if a.mode == "list" {
				return a, a.fetchTasks()
			} else if a.mode == "detail" && a.currentTask != nil {
				return a, a.fetchTaskDetail(a.currentTask.ID)
			} else if a.mode == "agents" {
				return a, a.fetchAgents()
			}

		case "a":
			// Quick switch to agents view
			if a.input.Value() == "" {
				a.mode = "agents"
				return a, a.fetchAgents()
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 10

	case tasksLoadedMsg:
		a.loading = false
		a.tasks = msg.tasks
		if a.selectedIdx >= len(a.tasks) {
			a.selectedIdx = max(0, len(a.tasks)-1)
		}

	case taskDetailLoadedMsg:
		a.currentTask = msg.task

	case agentsLoadedMsg:
		a.agents = msg.agents

	case serverStatusMsg:
		a.serverOnline = msg.online

	case commandResultMsg:
		a.message = msg.message
		if a.mode == "detail" && a.currentTask != nil {
			return a, a.fetchTaskDetail(a.currentTask.ID)
		}
		return a, a.fetchTasks()

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}

	// Update input
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	serverStatus := agentActiveStyle.Render("● API")
	if !a.serverOnline {
		serverStatus = agentIdleStyle.Render("○ API")
	}

	header := titleStyle.Render("🚀 Mission Control")
	header += "  " + serverStatus
	header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(fmt.Sprintf("[%d agents]", len(a.agents)))

	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", a.width) + "\n")

	contentHeight := a.height - 8
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.mode {
	case "list":
		filterLabel := fmt.Sprintf(" Filter: [%s]", filterNames[a.filterIdx])
		b.WriteString(mutedTextStyle.Render(filterLabel) + "\n")
		b.WriteString(a.renderTaskList(contentHeight - 1))
	case "detail":
		b.WriteString(a.renderTaskDetail(contentHeight))
	case "agents":
		b.WriteString(a.renderAgentsPanel(contentHeight))
	}

	// Message bar
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	// Input box
	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))
	b.WriteString("\n")

	// Status bar
	var status string
	switch a.mode {
	case "list":
		status = fmt.Sprintf(" Tasks: %d | ↑↓:nav | Enter:detail | Tab:filter | a:agents | r:refresh | Ctrl+C:quit", len(a.tasks))
	case "agents":
		status = fmt.Sprintf(" Agents: %d | ↑↓:nav | r:refresh | Esc:back", len(a.agents))
	default:
		status = " Esc:back | r:refresh | Ctrl+C:quit"
	}
	b.WriteString(statusBarStyle.Width(a.width).Render(status))

	return b.String()
}

func (a *App) renderAgentsPanel(height int) string {
	var b strings.Builder

	b.WriteString("\n  🤖 Board Agents\n")
	b.WriteString("  " + strings.Repeat("─", 40) + "\n\n")

	if len(a.agents) == 0 {
		b.WriteString("  No agents registered.\n")
		return b.String()
	}

	for i, agent := range a.agents {
		statusIcon := agentActiveStyle.Render("●")
		if agent.Status != "active" {
			statusIcon = agentIdleStyle.Render("○")
		}

		name := fmt.Sprintf("%s %s", agent.Emoji, agent.Name)
		roleLabel := ""
		if agent.Role != "" {
			roleLabel = mutedTextStyle.Render(fmt.Sprintf("(%s)", agent.Role))
		}

		var line string
		if i == a.agentIdx {
			line = selectedStyle.Render(fmt.Sprintf("▶ %s %s %s", statusIcon, name, roleLabel))
		} else {
			line = fmt.Sprintf("    %s %s %s", statusIcon, name, roleLabel)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n  " + helpStyle.Render("Commands: assign <name> assigns the selected task") + "\n")

	return b.String()
}

func (a *App) fetchTasks() tea.Cmd {
	a.loading = true
	return func() tea.Msg {
		tasks, err := a.client.ListTasks(a.filter)
		if err != nil {
			return errMsg{err}
		}
		return tasksLoadedMsg{tasks}
	}
}

func (a *App) fetchTaskDetail(taskID string) tea.Cmd {
	return func() tea.Msg {
		task, err := a.client.GetTask(taskID)
		if err != nil {
			return errMsg{err}
		}
		return taskDetailLoadedMsg{task}
	}
}

func (a *App) fetchAgents() tea.Cmd {
	return func() tea.Msg {
		agents, err := a.client.ListAgents()
		if err != nil {
			return errMsg{err}
		}
		return agentsLoadedMsg{agents}
	}
}

func (a *App) checkServer() tea.Cmd {
	return func() tea.Msg {
		ok, err := a.client.CheckHealth()
		return serverStatusMsg{online: err == nil && ok}
	}
}

func (a *App) selectedTaskID() string {
	if a.mode == "detail" && a.currentTask != nil {
		return a.currentTask.ID
	}
	if len(a.tasks) == 0 {
		return ""
	}
	return a.tasks[a.selectedIdx].ID
}

func (a *App) executeCommand(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := parts[0]
	args := parts[1:]

	return func() tea.Msg {
		switch cmd {
		case "add":
			if len(args) < 1 {
				return commandResultMsg{"Usage: add <title>"}
			}
			title := strings.Join(args, " ")
			id, err := a.client.CreateTask(title)
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Created task: %s", shortID(id))}

		case "move":
			if len(args) < 1 {
				return commandResultMsg{"Usage: move <backlog|todo|in-progress|done|parked>"}
			}
			taskID := a.selectedTaskID()
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			if err := a.client.MoveTask(taskID, args[0]); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Moved to %s", args[0])}

		case "assign":
			if len(args) < 1 {
				return commandResultMsg{"Usage: assign <agent name>"}
			}
			taskID := a.selectedTaskID()
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			name := strings.Join(args, " ")
			agent := a.findAgent(name)
			if agent == nil {
				return commandResultMsg{fmt.Sprintf("Unknown agent: %s", name)}
			}
			if err := a.client.AssignTask(taskID, agent.ID); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Assigned to %s %s", agent.Emoji, agent.Name)}

		case "comment":
			if len(args) < 1 {
				return commandResultMsg{"Usage: comment <text>"}
			}
			taskID := a.selectedTaskID()
			if taskID == "" {
				return commandResultMsg{"No task selected"}
			}
			content := strings.Join(args, " ")
			if err := a.client.AddComment(taskID, "", content); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Comment added"}

		case "agents":
			a.mode = "agents"
			return commandResultMsg{fmt.Sprintf("%d agents on the board", len(a.agents))}

		default:
			return commandResultMsg{fmt.Sprintf("Unknown command: %s", cmd)}
		}
	}
}

func (a *App) findAgent(name string) *AgentItem {
	for i := range a.agents {
		if strings.EqualFold(a.agents[i].Name, name) {
			return &a.agents[i]
		}
	}
	return nil
}
