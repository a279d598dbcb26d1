// cmd/live.go
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/racketlab/swingsense/internal/api"
	"github.com/racketlab/swingsense/internal/config"
	"github.com/racketlab/swingsense/internal/dsp"
	"github.com/racketlab/swingsense/internal/imu"
	"github.com/racketlab/swingsense/internal/recovery"
	"github.com/racketlab/swingsense/internal/store"
	"github.com/racketlab/swingsense/internal/swing"
	"github.com/racketlab/swingsense/internal/transport"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Detect swings on a live sensor stream",
	Long: `Connects to the racket sensor (MQTT dongle or direct serial port),
runs the detection pipeline, records accepted swings into the database
and serves them over the HTTP/WebSocket API.`,
	RunE: runLive,
}

func init() {
	liveCmd.Flags().StringP("source", "s", "mqtt", "sample source: mqtt or serial")
	liveCmd.Flags().String("label", "", "label stored with the session")
	rootCmd.AddCommand(liveCmd)
}

func runLive(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}

	engine, err := swing.NewEngine(settings.EngineConfig(), settings.CalibrationTable(), dsp.NewFFTTransform())
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if settings.Debug {
		engine.SetDiagnostics(func(d swing.Diagnostic) {
			log.Printf("engine: %s: %s (t=%.3f, sample %d)", d.Stage, d.Reason, d.T, d.SampleID)
		})
	}

	st, err := store.Open(settings.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	label, _ := cmd.Flags().GetString("label")
	sessionID, err := st.CreateSession(label)
	if err != nil {
		return err
	}
	log.Printf("live: session %s started", sessionID)

	src, err := newSource(cmd, settings)
	if err != nil {
		return err
	}

	var statusMu sync.Mutex
	status := api.Status{
		SessionID: sessionID,
		Rate:      settings.Engine.NominalSampleRate,
		Gate:      "idle",
	}
	srv := api.New(st, func() api.Status {
		statusMu.Lock()
		defer statusMu.Unlock()
		return status
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		defer recovery.HandlePanicFunc(func() { st.Close() })
		if err := srv.Run(ctx, settings.API.Listen); err != nil {
			log.Printf("api: server error: %v", err)
			stop()
		}
	}()

	err = src.Run(ctx, func(s imu.Sample) {
		ev := engine.Ingest(s)

		statusMu.Lock()
		status.Samples = engine.SampleCount()
		status.Swings = engine.SwingCount()
		status.Rate = engine.Rate()
		status.Gate = engine.GateState()
		statusMu.Unlock()

		if ev == nil {
			return
		}
		id, err := st.RecordSwing(sessionID, *ev)
		if err != nil {
			log.Printf("store: %v", err)
		} else {
			ev.ID = id
		}
		srv.Broadcast(*ev)
		log.Printf("swing: t=%.2fs tip=%.1f m/s impact=%.0f N ratio=%.1f",
			ev.T, ev.PeakTipSpeed, ev.ImpactForce, ev.ValidationRatio)
	})
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}

	sum, err := st.SessionSummary(sessionID)
	if err != nil {
		return err
	}
	log.Printf("live: session %s finished: %d swings, max tip %.1f m/s",
		sessionID, sum.Count, sum.MaxTipSpeed)
	return nil
}

// newSource builds the sample source selected by the --source flag.
func newSource(cmd *cobra.Command, settings *config.Settings) (transport.Source, error) {
	name, _ := cmd.Flags().GetString("source")
	switch name {
	case "mqtt":
		return transport.NewMQTTSource(transport.MQTTConfig{
			Broker:   settings.MQTT.Broker,
			Topic:    settings.MQTT.Topic,
			ClientID: settings.MQTT.ClientID,
		}), nil
	case "serial":
		return transport.NewSerialSource(transport.SerialConfig{
			Port: settings.Serial.Port,
			Baud: settings.Serial.BaudRate,
		}), nil
	default:
		return nil, fmt.Errorf("unknown source %q (want mqtt or serial)", name)
	}
}
