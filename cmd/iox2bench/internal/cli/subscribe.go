package cli

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"iox2"
)

var (
	subscribeService string
	subscribeFor     int
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Run a subscriber loop against a publish-subscribe service",
	RunE:  runSubscribe,
}

func init() {
	subscribeCmd.Flags().StringVar(&subscribeService, "service", "iox2bench/pubsub", "service name")
	subscribeCmd.Flags().IntVar(&subscribeFor, "for-seconds", 10, "how long to poll for samples before reporting")
	rootCmd.AddCommand(subscribeCmd)
}

func runSubscribe(cmd *cobra.Command, _ []string) error {
	node, err := newNode()
	if err != nil {
		return err
	}

	name, err := iox2.NewServiceName(subscribeService)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), secondsToDuration(timeoutSec))
	defer cancel()
	factory, err := node.ServiceBuilder(name).PublishSubscribe().
		PayloadSize(8).
		MaxNodes(2).
		OpenOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("open_or_create publish-subscribe service: %w", err)
	}
	defer factory.Drop()

	subscriber, ok := factory.SubscriberBuilder().Create()
	if !ok {
		return fmt.Errorf("subscriber slots exhausted")
	}
	defer subscriber.Drop()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	defer daemon.SdNotify(false, daemon.SdNotifyStopping)

	var received int
	var last uint64
	deadline := time.Now().Add(secondsToDuration(subscribeFor))
	for time.Now().Before(deadline) {
		sample, err := subscriber.Receive()
		if err != nil {
			continue
		}
		if sample == nil {
			time.Sleep(time.Millisecond)
			continue
		}
		last = binary.LittleEndian.Uint64(sample.Payload())
		sample.Release()
		received++
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"metric", "value"})
	t.AppendRow(table.Row{"received", received})
	t.AppendRow(table.Row{"last_value", last})
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
