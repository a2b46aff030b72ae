package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginTop(1)
)

func (a *App) renderTaskDetail(height int) string {
	if a.currentTask == nil {
		return "\n  Loading...\n"
	}

	var b strings.Builder
	t := a.currentTask

	b.WriteString(fmt.Sprintf("\n  📋 %s\n", lipgloss.NewStyle().Bold(true).Render(t.Title)))
	b.WriteString(renderField("ID", shortID(t.ID)))
	b.WriteString(renderField("Status", formatStatus(t.Status)))
	b.WriteString(renderField("Priority", formatPriority(t.Priority)))
	if t.Description != "" {
		b.WriteString(renderField("Description", t.Description))
	}
	if t.AssigneeName != "" {
		b.WriteString(renderField("Assignee", fmt.Sprintf("%s %s", t.AssigneeEmoji, t.AssigneeName)))
	}
	if t.ProjectName != "" {
		b.WriteString(renderField("Project", t.ProjectName))
	}
	if t.Tags != "" {
		b.WriteString(renderField("Tags", t.Tags))
	}
	if t.DueDate != "" {
		b.WriteString(renderField("Due", t.DueDate))
	}
	b.WriteString(renderField("Created", t.CreatedAt))
	b.WriteString(renderField("Updated", t.UpdatedAt))

	if len(t.Comments) > 0 {
		b.WriteString(sectionStyle.Render("  💬 Comments") + "\n")
		for i, cm := range t.Comments {
			if i >= 5 {
				b.WriteString(fmt.Sprintf("    ... and %d more\n", len(t.Comments)-5))
				break
			}
			content := truncate(cm.Content, 70)
			b.WriteString(fmt.Sprintf("    • %s: %s\n", labelStyle.Render(cm.Author), content))
		}
	}

	if len(t.History) > 0 {
		b.WriteString(sectionStyle.Render("  📜 History") + "\n")
		for i, h := range t.History {
			if i >= 5 {
				b.WriteString(fmt.Sprintf("    ... and %d more\n", len(t.History)-5))
				break
			}
			line := h.Action
			if h.Field != "" {
				line = fmt.Sprintf("%s %s: %s → %s", h.Action, h.Field, h.OldValue, h.NewValue)
			}
			b.WriteString(fmt.Sprintf("    • %s %s\n", line, labelStyle.Render("by "+h.Actor)))
		}
	}

	return b.String()
}

func renderField(label, value string) string {
	return fmt.Sprintf("  %s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
