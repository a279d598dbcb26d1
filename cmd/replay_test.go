package cmd

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/racketlab/swingsense/internal/imu"
	"github.com/racketlab/swingsense/internal/store"
)

// writeSessionFile writes a synthetic session: a resting 1 g baseline
// with alternating sensor dither, plus (when swingAt > 0) one swing
// made of a gyro burst, a mic transient and an acceleration jerk
// centered at swingAt.
func writeSessionFile(t *testing.T, seconds, rate, swingAt float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "session.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create session file: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(imu.CSVHeader()); err != nil {
		t.Fatalf("write header: %v", err)
	}

	n := int(seconds * rate)
	halfSample := 0.5 / rate
	for i := 0; i < n; i++ {
		ts := float64(i) / rate
		dither := 0.002
		if i%2 == 1 {
			dither = -0.002
		}
		s := imu.Sample{T: ts, AccelZ: 1.0 + dither}
		if swingAt > 0 {
			dt := ts - swingAt
			if math.Abs(dt) <= 0.15 {
				s.GyroZ = 300 * math.Cos(math.Pi*dt/0.3)
			}
			if math.Abs(dt) <= 1.2/rate {
				s.MicRMS = 2000
			}
			if math.Abs(dt) < halfSample {
				s.AccelZ += 3.0
			}
		}
		if err := w.Write(imu.Record(s)); err != nil {
			t.Fatalf("write record: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush session file: %v", err)
	}
	return path
}

func TestReplayCmd_NoSwings(t *testing.T) {
	setupTestConfig(t, "debug: false\n")
	path := writeSessionFile(t, 2.0, 100, 0)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"replay", path})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "0 swings in 200 samples") {
		t.Errorf("output = %q, want a zero-swing summary", buf.String())
	}
}

func TestReplayCmd_DetectsSwing(t *testing.T) {
	setupTestConfig(t, "debug: false\n")
	path := writeSessionFile(t, 2.0, 100, 0.8)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"replay", path})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "swing 1:") {
		t.Errorf("output = %q, want a swing line", output)
	}
	if !strings.Contains(output, "1 swings in 200 samples") {
		t.Errorf("output = %q, want a one-swing summary", output)
	}
	if !strings.Contains(output, "max tip speed") {
		t.Errorf("output = %q, want a max tip speed line", output)
	}
}

func TestReplayCmd_MissingFile(t *testing.T) {
	setupTestConfig(t, "debug: false\n")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"replay", filepath.Join(t.TempDir(), "missing.csv")})

	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error for missing session file, got nil")
	}
}

func TestReplayCmd_RequiresArg(t *testing.T) {
	setupTestConfig(t, "debug: false\n")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"replay"})

	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error for missing argument, got nil")
	}
}

func TestReplayCmd_InvalidEngineConfig(t *testing.T) {
	setupTestConfig(t, "engine:\n  capacity: 5\n")
	path := writeSessionFile(t, 1.0, 100, 0)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"replay", path})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for invalid engine config, got nil")
	}
	if !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("error = %v, want invalid config", err)
	}
}

func TestReplayCmd_SaveToDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "swings.db")
	setupTestConfig(t, fmt.Sprintf("store:\n  path: %s\n", dbPath))
	path := writeSessionFile(t, 2.0, 100, 0.8)

	t.Cleanup(func() {
		replayCmd.Flags().Set("save", "false")
		replayCmd.Flags().Set("label", "")
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"replay", path, "--save", "--label", "replayed drill"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "saved as session") {
		t.Errorf("output = %q, want a saved-session line", buf.String())
	}

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	sessions, err := st.Sessions()
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].Label != "replayed drill" {
		t.Errorf("session label = %q, want %q", sessions[0].Label, "replayed drill")
	}

	events, err := st.SessionSwings(sessions[0].ID)
	if err != nil {
		t.Fatalf("SessionSwings failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d recorded swings, want 1", len(events))
	}
	if math.Abs(events[0].T-0.8) > 0.02 {
		t.Errorf("recorded swing T = %v, want ≈0.8", events[0].T)
	}
}
