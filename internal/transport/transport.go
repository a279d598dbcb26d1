// internal/transport/transport.go
package transport

import (
	"context"

	"github.com/racketlab/swingsense/internal/imu"
)

// SampleFunc receives one decoded sensor sample.
type SampleFunc func(s imu.Sample)

// Source streams sensor samples into a callback until the context is
// canceled or the stream ends. Every Source delivers samples from a
// single goroutine, so a callback that feeds the detection engine needs
// no locking of its own.
type Source interface {
	Run(ctx context.Context, fn SampleFunc) error
}
