// internal/transport/serial.go
package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"go.bug.st/serial"

	"github.com/racketlab/swingsense/internal/imu"
)

// SerialConfig holds the sensor dongle port settings.
type SerialConfig struct {
	// Port is the device path (from config: serial.port)
	Port string
	// Baud is the line rate (from config: serial.baud_rate)
	Baud int
}

// SerialSource reads the racket dongle's serial stream: one CSV sample
// record per line, same framing as recorded session files.
type SerialSource struct {
	cfg SerialConfig

	// open is replaced in tests to run against a fake port
	open func() (io.ReadCloser, error)
}

// NewSerialSource creates a sample source for the given port settings.
func NewSerialSource(cfg SerialConfig) *SerialSource {
	return &SerialSource{
		cfg: cfg,
		open: func() (io.ReadCloser, error) {
			mode := &serial.Mode{
				BaudRate: cfg.Baud,
				DataBits: 8,
				Parity:   serial.NoParity,
				StopBits: serial.OneStopBit,
			}
			return serial.Open(cfg.Port, mode)
		},
	}
}

// Run reads lines until the context is canceled or the port closes.
// Header lines and malformed records are logged and skipped; the dongle
// re-emits the header after every reset.
func (s *SerialSource) Run(ctx context.Context, fn SampleFunc) error {
	port, err := s.open()
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.cfg.Port, err)
	}

	// Closing the port is the only way to unblock a pending read. The
	// derived context also closes it when Run returns normally.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	scan := bufio.NewScanner(port)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if imu.IsHeader(fields) {
			continue
		}
		sample, err := imu.ParseRecord(fields)
		if err != nil {
			log.Printf("serial: skipping bad record: %v", err)
			continue
		}
		fn(sample)
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scan.Err(); err != nil {
		return fmt.Errorf("read serial port: %w", err)
	}
	return nil
}
