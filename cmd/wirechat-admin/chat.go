package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-admin/internal/app"
	"github.com/vovakirdan/wirechat-admin/internal/config"
	"github.com/vovakirdan/wirechat-admin/internal/core"
	"github.com/vovakirdan/wirechat-admin/internal/store"
)

var (
	targetRole string
	targetUser string
	userRole   string
	searchRole string
	searchName string
)

func init() {
	historyCmd.Flags().StringVar(&targetRole, "role", "", "broadcast channel: driver, manager or others")
	historyCmd.Flags().StringVar(&targetUser, "user", "", "user id of a direct thread")
	historyCmd.MarkFlagsMutuallyExclusive("role", "user")

	sendCmd.Flags().StringVar(&targetRole, "role", "", "broadcast to every member of this role")
	sendCmd.Flags().StringVar(&targetUser, "user", "", "send directly to this user id")
	sendCmd.Flags().StringVar(&userRole, "user-role", "", "role of the --user recipient, required with --user")
	sendCmd.MarkFlagsMutuallyExclusive("role", "user")

	searchCmd.Flags().StringVar(&searchRole, "role", string(core.RoleDriver), "role to search in")
	searchCmd.Flags().StringVar(&searchName, "name", "", "name to look for")
	_ = searchCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(historyCmd, sendCmd, searchCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the history of a broadcast channel or direct thread",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		target, err := targetFromFlags()
		if err != nil {
			return err
		}
		key, err := target.Key()
		if err != nil {
			return err
		}

		session := newCLISession(cfg, logger, nil)
		defer session.Close()

		if err := session.Sync(cmd.Context(), key); err != nil {
			return err
		}
		printMessages(key, session.Messages(key))
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send TEXT",
	Short: "Send a message to a role broadcast or a user",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		target, err := targetFromFlags()
		if err != nil {
			return err
		}

		ledger, err := app.OpenLedger(cfg)
		if err != nil {
			return err
		}
		if ledger != nil {
			defer ledger.Close()
		}

		session := newCLISession(cfg, logger, ledger)
		defer session.Close()

		key, _ := target.Key()
		sendErr := session.SendTo(cmd.Context(), target, strings.Join(args, " "))

		msgs := session.Messages(key)
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			fmt.Printf("%s %s %s\n", color.CyanString(last.Time), key, deliveryTag(last.Delivery))
		}
		return sendErr
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find users of a role by name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		role, err := core.ParseRole(searchRole)
		if err != nil {
			return err
		}

		session := newCLISession(cfg, logger, nil)
		defer session.Close()

		users, err := session.Search(cmd.Context(), role, searchName)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			color.Yellow("No users found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tROLE")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Name, u.Role)
		}
		return w.Flush()
	},
}

func newCLISession(cfg *config.Config, logger *zerolog.Logger, ledger store.SendLog) *core.Session {
	return core.NewSession(core.SessionConfig{
		API:        app.NewClient(cfg, nil, logger),
		Identity:   app.Identity(cfg),
		Ledger:     ledger,
		Logger:     logger,
		TimeLayout: cfg.Display.TimeLayout,
		Location:   time.Local,
	})
}

func targetFromFlags() (core.Target, error) {
	switch {
	case targetUser != "":
		u := core.UserRecord{ID: targetUser}
		if userRole != "" {
			role, err := core.ParseRole(userRole)
			if err != nil {
				return core.Target{}, err
			}
			u.Role = role
		}
		return core.UserTarget(u), nil
	case targetRole != "":
		role, err := core.ParseRole(targetRole)
		if err != nil {
			return core.Target{}, err
		}
		return core.RoleTarget(role), nil
	}
	return core.Target{}, errors.New("one of --role or --user is required")
}

func printMessages(key core.ConversationKey, msgs []core.ChatMessage) {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Printf("%s (%d messages)\n", key, len(msgs))
	for _, m := range msgs {
		sender := yellow.Sprint(m.Sender)
		if m.Sender == core.SenderAdmin {
			sender = green.Sprint(m.Sender)
		}
		fmt.Printf("  %s %s: %s\n", cyan.Sprint(m.Time), sender, m.Text)
	}
}

func deliveryTag(d core.Delivery) string {
	switch d {
	case core.DeliverySent:
		return color.GreenString(string(d))
	case core.DeliveryFailed:
		return color.RedString(string(d))
	default:
		return color.YellowString(string(d))
	}
}
