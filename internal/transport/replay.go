// internal/transport/replay.go
package transport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/racketlab/swingsense/internal/imu"
)

// ReplaySource streams a recorded session file: one CSV sample record
// per line, optionally paced to the recorded timestamps. Unpaced replay
// runs the whole file at full speed, which is the batch-analysis mode.
type ReplaySource struct {
	path string
	pace bool
}

// NewReplaySource creates a source reading the session file at path.
// With pace set, inter-sample gaps follow the recorded timestamps.
func NewReplaySource(path string, pace bool) *ReplaySource {
	return &ReplaySource{path: path, pace: pace}
}

// Run delivers the whole file, then returns nil. A malformed record is
// logged and skipped so one corrupt line cannot end a session replay.
func (r *ReplaySource) Run(ctx context.Context, fn SampleFunc) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Field count is the codec's concern, not the CSV layer's.
	reader.FieldsPerRecord = -1

	var prevT float64
	havePrev := false

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read session file: %w", err)
		}
		if imu.IsHeader(rec) {
			continue
		}

		sample, err := imu.ParseRecord(rec)
		if err != nil {
			log.Printf("replay: skipping bad record: %v", err)
			continue
		}

		if r.pace && havePrev && sample.T > prevT {
			select {
			case <-time.After(time.Duration((sample.T - prevT) * float64(time.Second))):
			case <-ctx.Done():
				return nil
			}
		}
		prevT = sample.T
		havePrev = true

		fn(sample)
	}
}
