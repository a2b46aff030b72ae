package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bpweber1/mission-control/internal/models"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new task",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in board order",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details with comments and history",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskMoveCmd = &cobra.Command{
	Use:   "move [task-id] [status]",
	Short: "Move a task to another status column",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskMove,
}

var taskAssignCmd = &cobra.Command{
	Use:   "assign [task-id] [agent-id]",
	Short: "Assign a task to an agent",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskAssign,
}

var taskCommentCmd = &cobra.Command{
	Use:   "comment [task-id]",
	Short: "Comment on a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskComment,
}

var (
	taskTitle      string
	taskDesc       string
	taskStatus     string
	taskPriority   string
	taskAssignee   string
	taskProject    string
	taskTags       string
	taskDue        string
	commentAuthor  string
	commentContent string
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskMoveCmd, taskAssignCmd, taskCommentCmd)

	taskAddCmd.Flags().StringVar(&taskTitle, "title", "", "Task title (required)")
	taskAddCmd.Flags().StringVar(&taskDesc, "desc", "", "Task description")
	taskAddCmd.Flags().StringVar(&taskStatus, "status", "", "Status (backlog, todo, in-progress, done, parked)")
	taskAddCmd.Flags().StringVar(&taskPriority, "priority", "", "Priority (urgent, high, medium, low)")
	taskAddCmd.Flags().StringVar(&taskAssignee, "assignee", "", "Assignee agent id")
	taskAddCmd.Flags().StringVar(&taskProject, "project", "", "Project id")
	taskAddCmd.Flags().StringVar(&taskTags, "tags", "", "Comma-separated tags")
	taskAddCmd.Flags().StringVar(&taskDue, "due", "", "Due date (YYYY-MM-DD)")
	taskAddCmd.MarkFlagRequired("title")

	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "Filter by status")
	taskListCmd.Flags().StringVar(&taskAssignee, "assignee", "", "Filter by assignee agent id")
	taskListCmd.Flags().StringVar(&taskProject, "project", "", "Filter by project id")

	taskCommentCmd.Flags().StringVar(&commentAuthor, "author", "", "Comment author")
	taskCommentCmd.Flags().StringVar(&commentContent, "content", "", "Comment text (required)")
	taskCommentCmd.MarkFlagRequired("content")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	body := models.NewTask{
		Title:       taskTitle,
		Description: taskDesc,
		Status:      models.TaskStatus(taskStatus),
		Priority:    models.TaskPriority(taskPriority),
		AssigneeID:  taskAssignee,
		ProjectID:   taskProject,
		Tags:        models.TagList(models.SplitTags(taskTags)),
		DueDate:     taskDue,
	}

	resp, err := apiPost("/api/tasks", body)
	if err != nil {
		return err
	}

	var task models.Task
	if err := json.Unmarshal(resp, &task); err != nil {
		return err
	}

	fmt.Printf("Created task: %s\n", task.ID)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	if taskStatus != "" {
		q.Set("status", taskStatus)
	}
	if taskAssignee != "" {
		q.Set("assignee", taskAssignee)
	}
	if taskProject != "" {
		q.Set("project", taskProject)
	}
	path := "/api/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := apiGet(path)
	if err != nil {
		return err
	}

	var tasks []models.Task
	if err := json.Unmarshal(resp, &tasks); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRIORITY\tSTATUS\tTITLE\tASSIGNEE\tPROJECT")
	for _, t := range tasks {
		assignee := t.AssigneeName
		if assignee == "" {
			assignee = "-"
		}
		project := t.ProjectName
		if project == "" {
			project = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Priority, t.Status, t.Title, assignee, project)
	}
	return w.Flush()
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/tasks/" + args[0])
	if err != nil {
		return err
	}

	var detail models.TaskDetail
	if err := json.Unmarshal(resp, &detail); err != nil {
		return err
	}

	fmt.Printf("Task:     %s\n", detail.Title)
	fmt.Printf("ID:       %s\n", detail.ID)
	fmt.Printf("Status:   %s\n", detail.Status)
	fmt.Printf("Priority: %s\n", detail.Priority)
	if detail.AssigneeName != "" {
		fmt.Printf("Assignee: %s %s\n", detail.AssigneeEmoji, detail.AssigneeName)
	}
	if detail.ProjectName != "" {
		fmt.Printf("Project:  %s\n", detail.ProjectName)
	}
	if detail.Tags != "" {
		fmt.Printf("Tags:     %s\n", strings.Join(models.SplitTags(detail.Tags), ", "))
	}
	if detail.DueDate != "" {
		fmt.Printf("Due:      %s\n", detail.DueDate)
	}
	if detail.Description != "" {
		fmt.Printf("\n%s\n", detail.Description)
	}

	if len(detail.Comments) > 0 {
		fmt.Printf("\nComments (%d):\n", len(detail.Comments))
		for _, c := range detail.Comments {
			fmt.Printf("  [%s] %s: %s\n", c.CreatedAt.Format("2006-01-02 15:04"), c.Author, c.Content)
		}
	}
	if len(detail.History) > 0 {
		fmt.Printf("\nHistory (%d):\n", len(detail.History))
		for _, h := range detail.History {
			line := h.Action
			if h.Field != "" {
				line = fmt.Sprintf("%s %s: %s -> %s", h.Action, h.Field, h.OldValue, h.NewValue)
			}
			fmt.Printf("  [%s] %s (%s)\n", h.CreatedAt.Format("2006-01-02 15:04"), line, h.Actor)
		}
	}
	return nil
}

func runTaskMove(cmd *cobra.Command, args []string) error {
	status := models.TaskStatus(args[1])
	patch := models.TaskPatch{Status: &status}

	if _, err := apiPatch("/api/tasks/"+args[0], patch); err != nil {
		return err
	}
	fmt.Printf("Moved task %s to %s\n", args[0], status)
	return nil
}

func runTaskAssign(cmd *cobra.Command, args []string) error {
	patch := models.TaskPatch{AssigneeID: &args[1]}

	if _, err := apiPatch("/api/tasks/"+args[0], patch); err != nil {
		return err
	}
	fmt.Printf("Assigned task %s to %s\n", args[0], args[1])
	return nil
}

func runTaskComment(cmd *cobra.Command, args []string) error {
	body := map[string]string{
		"author":  commentAuthor,
		"content": commentContent,
	}
	if _, err := apiPost("/api/tasks/"+args[0]+"/comments", body); err != nil {
		return err
	}
	fmt.Println("Comment added")
	return nil
}
