package cli

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"iox2"
)

var (
	publishService    string
	publishIterations int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Run a publisher loop against a publish-subscribe service",
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishService, "service", "iox2bench/pubsub", "service name")
	publishCmd.Flags().IntVar(&publishIterations, "iterations", 1_000_000, "number of samples to send")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	node, err := newNode()
	if err != nil {
		return err
	}

	name, err := iox2.NewServiceName(publishService)
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Suffix = " opening or creating the service..."
	s.Start()

	ctx, cancel := context.WithTimeout(cmd.Context(), secondsToDuration(timeoutSec))
	defer cancel()
	factory, err := node.ServiceBuilder(name).PublishSubscribe().
		PayloadSize(8).
		MaxNodes(2).
		OpenOrCreate(ctx)
	s.Stop()
	if err != nil {
		return fmt.Errorf("open_or_create publish-subscribe service: %w", err)
	}
	defer factory.Drop()

	publisher, ok := factory.PublisherBuilder().Create()
	if !ok {
		return fmt.Errorf("publisher slots exhausted")
	}
	defer publisher.Drop()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	defer daemon.SdNotify(false, daemon.SdNotifyStopping)

	var sent, failed int
	start := time.Now()
	for i := 0; i < publishIterations; i++ {
		sample, err := publisher.Loan()
		if err != nil {
			failed++
			continue
		}
		binary.LittleEndian.PutUint64(sample.Payload(), uint64(i))
		if _, err := publisher.Send(sample); err != nil {
			failed++
			continue
		}
		sent++
		if i%4096 == 0 {
			publisher.UpdateConnections()
		}
	}
	elapsed := time.Since(start)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"metric", "value"})
	t.AppendRow(table.Row{"sent", sent})
	t.AppendRow(table.Row{"failed", failed})
	t.AppendRow(table.Row{"elapsed", elapsed})
	if sent > 0 {
		t.AppendRow(table.Row{"ns/sample", elapsed.Nanoseconds() / int64(sent)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
