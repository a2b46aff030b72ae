package main

import (
	"fmt"

	"github.com/bpweber1/mission-control/internal/tui"
	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive task board",
	RunE:  runBoard,
}

func runBoard(cmd *cobra.Command, args []string) error {
	app := tui.New(apiAddr)
	if err := app.Run(); err != nil {
		return fmt.Errorf("board error: %w", err)
	}
	return nil
}
