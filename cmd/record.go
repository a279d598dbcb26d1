// cmd/record.go
package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/racketlab/swingsense/internal/config"
	"github.com/racketlab/swingsense/internal/imu"
)

var recordCmd = &cobra.Command{
	Use:   "record <out.csv>",
	Short: "Capture a raw session file from the sensor",
	Long: `Writes the raw sample stream to a CSV session file without running
detection. The file can be fed back through the replay command, which
makes it the ground truth for tuning the engine.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringP("source", "s", "mqtt", "sample source: mqtt or serial")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}

	src, err := newSource(cmd, settings)
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(imu.CSVHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	count := 0
	err = src.Run(ctx, func(s imu.Sample) {
		if err := w.Write(imu.Record(s)); err != nil {
			log.Printf("record: write error: %v", err)
			stop()
			return
		}
		count++
	})
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush session file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "recorded %d samples to %s\n", count, args[0])
	return nil
}
