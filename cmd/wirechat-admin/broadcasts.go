package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-admin/internal/app"
	"github.com/vovakirdan/wirechat-admin/internal/core"
)

var publishText string

func init() {
	broadcastsCmd.Flags().StringVar(&publishText, "publish", "", "post this text to everyone before listing")
	rootCmd.AddCommand(broadcastsCmd)
}

var broadcastsCmd = &cobra.Command{
	Use:   "broadcasts",
	Short: "List general announcements, optionally posting a new one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		board := core.NewBoard(app.NewClient(cfg, nil, logger), app.Identity(cfg), logger)

		if publishText != "" {
			if err := board.Publish(cmd.Context(), publishText); err != nil {
				return err
			}
			color.Green("✓ Broadcast sent")
		} else if err := board.Refresh(cmd.Context()); err != nil {
			return err
		}

		items := board.Announcements()
		if len(items) == 0 {
			color.Yellow("No broadcasts yet")
			return nil
		}

		cyan := color.New(color.FgCyan)
		for _, a := range items {
			stamp := ""
			if !a.CreatedAt.IsZero() {
				stamp = a.CreatedAt.Local().Format(cfg.Display.TimeLayout)
			}
			fmt.Printf("%s %s\n", cyan.Sprint(stamp), a.Text)
		}
		return nil
	},
}
