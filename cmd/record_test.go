package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordCmd_UnknownSource(t *testing.T) {
	setupTestConfig(t, "debug: false\n")
	out := filepath.Join(t.TempDir(), "out.csv")

	t.Cleanup(func() { recordCmd.Flags().Set("source", "mqtt") })

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"record", out, "--source", "bogus"})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for unknown source, got nil")
	}
	if !strings.Contains(err.Error(), "unknown source") {
		t.Errorf("error = %v, want unknown source", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output file should not be created when the source is unknown")
	}
}

func TestRecordCmd_RequiresArg(t *testing.T) {
	setupTestConfig(t, "debug: false\n")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"record"})

	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error for missing argument, got nil")
	}
}
