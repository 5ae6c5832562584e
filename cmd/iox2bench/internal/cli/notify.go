package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"iox2"
	xstrings "iox2/pkg/strings"
)

var (
	notifyService  string
	notifyEventID  uint64
	notifyCount    int
	notifyInterval time.Duration
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Ring an event service's attached listeners on an interval",
	RunE:  runNotify,
}

func init() {
	notifyCmd.Flags().StringVar(&notifyService, "service", "iox2bench/event", "service name")
	notifyCmd.Flags().Uint64Var(&notifyEventID, "event-id", 0, "custom event id to notify with")
	notifyCmd.Flags().IntVar(&notifyCount, "count", 10, "number of notifications to send")
	notifyCmd.Flags().DurationVar(&notifyInterval, "interval", 200*time.Millisecond, "delay between notifications")
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, _ []string) error {
	node, err := newNode()
	if err != nil {
		return err
	}

	name, err := iox2.NewServiceName(notifyService)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), secondsToDuration(timeoutSec))
	defer cancel()
	factory, err := node.ServiceBuilder(name).Event().
		EventIDMax(notifyEventID + 1).
		MaxNodes(2).
		OpenOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("open_or_create event service: %w", err)
	}
	defer factory.Drop()

	notifier, ok := factory.NotifierBuilder().Create()
	if !ok {
		return fmt.Errorf("notifier slots exhausted")
	}
	defer notifier.Drop()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	defer daemon.SdNotify(false, daemon.SdNotifyStopping)

	var sent, failed int
	for i := 0; i < notifyCount; i++ {
		if err := notifier.NotifyWithCustomEventID(notifyEventID); err != nil {
			failed++
		} else {
			sent++
		}
		time.Sleep(notifyInterval)
	}

	t := table.NewWriter()
	t.SetTitle(xstrings.FormatServiceLabel(notifyService))
	t.AppendHeader(table.Row{"metric", "value"})
	t.AppendRow(table.Row{"sent", sent})
	t.AppendRow(table.Row{"failed", failed})
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
