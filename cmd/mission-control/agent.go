package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bpweber1/mission-control/internal/models"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage agents",
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	RunE:  runAgentList,
}

var agentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new agent",
	RunE:  runAgentAdd,
}

var (
	agentName  string
	agentEmoji string
	agentRole  string
)

func init() {
	agentCmd.AddCommand(agentListCmd, agentAddCmd)

	agentAddCmd.Flags().StringVar(&agentName, "name", "", "Agent name (required)")
	agentAddCmd.Flags().StringVar(&agentEmoji, "emoji", "", "Display glyph")
	agentAddCmd.Flags().StringVar(&agentRole, "role", "", "Agent role")
	agentAddCmd.MarkFlagRequired("name")
}

func runAgentList(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/api/agents")
	if err != nil {
		return err
	}

	var agents []models.Agent
	if err := json.Unmarshal(resp, &agents); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tSTATUS")
	for _, a := range agents {
		role := a.Role
		if role == "" {
			role = "-"
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\n", a.ID, a.Emoji, a.Name, role, a.Status)
	}
	return w.Flush()
}

func runAgentAdd(cmd *cobra.Command, args []string) error {
	body := map[string]string{
		"name":  agentName,
		"emoji": agentEmoji,
		"role":  agentRole,
	}

	resp, err := apiPost("/api/agents", body)
	if err != nil {
		return err
	}

	var agent models.Agent
	if err := json.Unmarshal(resp, &agent); err != nil {
		return err
	}

	fmt.Printf("Created agent: %s (%s)\n", agent.Name, agent.ID)
	return nil
}
