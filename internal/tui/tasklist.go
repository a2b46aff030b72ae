package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	priorityUrgent = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true) // Red
	priorityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))            // Yellow
	priorityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))            // Blue
	priorityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))          // Gray

	statusBacklog    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")) // Gray
	statusTodo       = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))   // Yellow
	statusInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))   // Cyan
	statusDone       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))   // Green
	statusParked     = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))   // Magenta
)

func formatStatus(status string) string {
	switch status {
	case "backlog":
		return statusBacklog.Render("○ backlog")
	case "todo":
		return statusTodo.Render("◌ todo")
	case "in-progress":
		return statusInProgress.Render("◑ in-progress")
	case "done":
		return statusDone.Render("● done")
	case "parked":
		return statusParked.Render("◍ parked")
	default:
		return status
	}
}

func formatPriority(priority string) string {
	switch priority {
	case "urgent":
		return priorityUrgent.Render("URGENT")
	case "high":
		return priorityHigh.Render("HIGH  ")
	case "medium":
		return priorityMedium.Render("MED   ")
	case "low":
		return priorityLow.Render("LOW   ")
	default:
		return priority
	}
}

func statusGlyph(status string) string {
	switch status {
	case "backlog":
		return "○"
	case "todo":
		return "◌"
	case "in-progress":
		return "◑"
	case "done":
		return "●"
	case "parked":
		return "◍"
	default:
		return "?"
	}
}

func (a *App) renderTaskList(height int) string {
	if a.loading {
		return "\n  Loading tasks...\n"
	}
	if len(a.tasks) == 0 {
		return "\n  No tasks found. Type: add <title> to create one.\n"
	}

	var lines []string
	for i, task := range a.tasks {
		meta := formatPriority(task.Priority)
		title := task.Title
		if task.AssigneeName != "" {
			title += mutedTextStyle.Render(fmt.Sprintf("  %s %s", task.AssigneeEmoji, task.AssigneeName))
		}
		if task.ProjectName != "" {
			title += mutedTextStyle.Render(fmt.Sprintf("  [%s]", task.ProjectName))
		}

		if i == a.selectedIdx {
			line := selectedStyle.Render(fmt.Sprintf("▶ %s %s  %s", statusGlyph(task.Status), task.Priority, task.Title))
			lines = append(lines, line)
		} else {
			line := taskItemStyle.Render(fmt.Sprintf("  %s %s  %s", formatStatus(task.Status), meta, title))
			lines = append(lines, line)
		}
	}

	// Limit visible lines
	if len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}
