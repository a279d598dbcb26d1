// cmd/replay.go
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/racketlab/swingsense/internal/config"
	"github.com/racketlab/swingsense/internal/dsp"
	"github.com/racketlab/swingsense/internal/imu"
	"github.com/racketlab/swingsense/internal/store"
	"github.com/racketlab/swingsense/internal/swing"
	"github.com/racketlab/swingsense/internal/transport"
)

var replayCmd = &cobra.Command{
	Use:   "replay <session.csv>",
	Short: "Re-run detection over a recorded session file",
	Long: `Feeds a recorded session file through the same detection pipeline the
live command uses and prints every detected swing. By default the file
is processed at full speed; --pace follows the recorded timestamps.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().Bool("pace", false, "follow the recorded timestamps instead of full speed")
	replayCmd.Flags().Bool("save", false, "record detected swings into the database")
	replayCmd.Flags().String("label", "", "label stored with the session (with --save)")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}

	cfg := settings.EngineConfig()
	// Offline analysis re-runs the pass on every sample; there is no
	// real-time deadline to protect.
	cfg.MinNewSamples = 1

	engine, err := swing.NewEngine(cfg, settings.CalibrationTable(), dsp.NewFFTTransform())
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if settings.Debug {
		engine.SetDiagnostics(func(d swing.Diagnostic) {
			log.Printf("engine: %s: %s (t=%.3f, sample %d)", d.Stage, d.Reason, d.T, d.SampleID)
		})
	}

	var st *store.Store
	var sessionID string
	if save, _ := cmd.Flags().GetBool("save"); save {
		st, err = store.Open(settings.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		label, _ := cmd.Flags().GetString("label")
		if sessionID, err = st.CreateSession(label); err != nil {
			return err
		}
	}

	pace, _ := cmd.Flags().GetBool("pace")
	src := transport.NewReplaySource(args[0], pace)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	count := 0
	var maxTip float64
	err = src.Run(ctx, func(s imu.Sample) {
		ev := engine.Ingest(s)
		if ev == nil {
			return
		}
		count++
		if ev.PeakTipSpeed > maxTip {
			maxTip = ev.PeakTipSpeed
		}
		fmt.Fprintf(out, "swing %d: t=%7.2fs  tip %5.1f m/s  impact %6.0f N  dur %3.0f ms  ratio %5.1f\n",
			count, ev.T, ev.PeakTipSpeed, ev.ImpactForce, ev.DurationMs, ev.ValidationRatio)
		if st != nil {
			if _, err := st.RecordSwing(sessionID, *ev); err != nil {
				log.Printf("store: %v", err)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	fmt.Fprintf(out, "%d swings in %d samples\n", count, engine.SampleCount())
	if count > 0 {
		fmt.Fprintf(out, "max tip speed %.1f m/s\n", maxTip)
	}
	if st != nil {
		fmt.Fprintf(out, "saved as session %s\n", sessionID)
	}
	return nil
}
