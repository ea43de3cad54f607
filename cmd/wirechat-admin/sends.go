package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-admin/internal/app"
	"github.com/vovakirdan/wirechat-admin/internal/core"
)

var (
	sendsLimit    int
	sendsDelivery string
)

func init() {
	sendsCmd.Flags().IntVar(&sendsLimit, "limit", 50, "maximum rows to show")
	sendsCmd.Flags().StringVar(&sendsDelivery, "delivery", "", "only show pending, sent or failed attempts")
	rootCmd.AddCommand(sendsCmd)
}

var sendsCmd = &cobra.Command{
	Use:   "sends",
	Short: "Show the local audit trail of dashboard sends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		ledger, err := app.OpenLedger(cfg)
		if err != nil {
			return err
		}
		if ledger == nil {
			return errors.New("send ledger disabled: database_path is empty")
		}
		defer ledger.Close()

		records, err := ledger.ListSends(cmd.Context(), sendsLimit, sendsDelivery)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			color.Yellow("No sends recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tCONVERSATION\tDELIVERY\tTEXT\tERROR")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				rec.CreatedAt.Local().Format(time.DateTime),
				rec.Conversation,
				deliveryTag(core.Delivery(rec.Delivery)),
				truncate(rec.Text, 40),
				rec.Error,
			)
		}
		return w.Flush()
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
