// internal/imu/codec.go
package imu

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrBadRecord indicates a CSV record does not hold a full sample
	ErrBadRecord = errors.New("record does not hold a full sample")
)

// csvFields is the number of columns in a sample record.
const csvFields = 8

// CSVHeader is the column header for recorded sample files. The serial
// dongle emits the same framing, one record per line.
func CSVHeader() []string {
	return []string{"t", "ax", "ay", "az", "gx", "gy", "gz", "mic"}
}

// Record encodes a sample as a CSV record matching CSVHeader.
func Record(s Sample) []string {
	return []string{
		formatField(s.T),
		formatField(s.AccelX),
		formatField(s.AccelY),
		formatField(s.AccelZ),
		formatField(s.GyroX),
		formatField(s.GyroY),
		formatField(s.GyroZ),
		formatField(s.MicRMS),
	}
}

// ParseRecord decodes a CSV record produced by Record (or by the sensor
// dongle). Returns ErrBadRecord when the field count is wrong, or a
// parse error naming the offending column.
func ParseRecord(fields []string) (Sample, error) {
	if len(fields) != csvFields {
		return Sample{}, fmt.Errorf("%w: got %d fields, want %d", ErrBadRecord, len(fields), csvFields)
	}

	vals := make([]float64, csvFields)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Sample{}, fmt.Errorf("field %q (%s): %w", CSVHeader()[i], f, err)
		}
		vals[i] = v
	}

	return Sample{
		T:      vals[0],
		AccelX: vals[1],
		AccelY: vals[2],
		AccelZ: vals[3],
		GyroX:  vals[4],
		GyroY:  vals[5],
		GyroZ:  vals[6],
		MicRMS: vals[7],
	}, nil
}

// IsHeader reports whether a record is the column header row, so readers
// can skip it when present.
func IsHeader(fields []string) bool {
	return len(fields) > 0 && fields[0] == "t"
}

func formatField(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
