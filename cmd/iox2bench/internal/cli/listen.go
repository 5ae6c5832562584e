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
	listenService string
	listenEventID uint64
	listenFor     int
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Block on an event service's listener and report what arrives",
	RunE:  runListen,
}

func init() {
	listenCmd.Flags().StringVar(&listenService, "service", "iox2bench/event", "service name")
	listenCmd.Flags().Uint64Var(&listenEventID, "event-id", 0, "event id the service must accept")
	listenCmd.Flags().IntVar(&listenFor, "for-seconds", 10, "how long to wait for notifications before reporting")
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, _ []string) error {
	node, err := newNode()
	if err != nil {
		return err
	}

	name, err := iox2.NewServiceName(listenService)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), secondsToDuration(timeoutSec))
	defer cancel()
	factory, err := node.ServiceBuilder(name).Event().
		EventIDMax(listenEventID + 1).
		MaxNodes(2).
		OpenOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("open_or_create event service: %w", err)
	}
	defer factory.Drop()

	listener, ok, err := factory.ListenerBuilder().Create()
	if err != nil {
		return fmt.Errorf("creating listener: %w", err)
	}
	if !ok {
		return fmt.Errorf("listener slots exhausted")
	}
	defer listener.Drop()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	defer daemon.SdNotify(false, daemon.SdNotifyStopping)

	var received int
	counts := map[uint64]int{}
	deadline := time.Now().Add(secondsToDuration(listenFor))
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		id, ok, err := listener.TimedWaitOne(remaining)
		if err != nil {
			return fmt.Errorf("waiting for event: %w", err)
		}
		if !ok {
			break
		}
		received++
		counts[id]++
	}

	t := table.NewWriter()
	t.SetTitle(xstrings.FormatServiceLabel(listenService))
	t.AppendHeader(table.Row{"event_id", "count"})
	for id, n := range counts {
		t.AppendRow(table.Row{id, n})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"total", received})
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
