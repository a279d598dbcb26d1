// internal/swing/refine_test.go
package swing

import (
	"math"
	"testing"
)

// refineTestConfig carves generous windows so clamping behavior is easy
// to exercise.
func refineTestConfig() Config {
	cfg := defaultTestConfig()
	cfg.PreSeconds = 0.15
	cfg.PostSeconds = 0.25
	cfg.SearchRadiusSec = 0.10
	return cfg
}

// generateGyroPeak builds a flat series with a triangular angular-rate
// peak of the given height centered at the given index.
func generateGyroPeak(numSamples, peakIdx int, height float64, halfWidth int) []float64 {
	series := make([]float64, numSamples)
	for i := -halfWidth; i <= halfWidth; i++ {
		idx := peakIdx + i
		if idx < 0 || idx >= numSamples {
			continue
		}
		series[idx] = height * (1 - math.Abs(float64(i))/float64(halfWidth+1))
	}
	return series
}

func generateTimeline(numSamples int, rate float64) []float64 {
	ts := make([]float64, numSamples)
	for i := range ts {
		ts[i] = float64(i) / rate
	}
	return ts
}

func TestRefineWindow_RecentersOnGyroPeak(t *testing.T) {
	const rate = 100.0
	cfg := refineTestConfig()

	// Peak at 105, candidate at 100: inside the ±10 sample radius the
	// refiner must slide the center onto the true apex.
	gyro := generateGyroPeak(300, 105, 300, 8)
	ts := generateTimeline(300, rate)

	win, ok := refineWindow(gyro, ts, 100, rate, cfg)
	if !ok {
		t.Fatal("refineWindow rejected a clean candidate")
	}
	if win.center != 105 {
		t.Errorf("center = %d, want 105", win.center)
	}
	if win.start != 105-15 || win.end != 105+25 {
		t.Errorf("window = [%d, %d], want [90, 130]", win.start, win.end)
	}
	if win.impactT != ts[105] {
		t.Errorf("impactT = %v, want %v", win.impactT, ts[105])
	}
	if win.length() != 41 {
		t.Errorf("length() = %d, want 41", win.length())
	}
}

func TestRefineWindow_PeakOutsideRadiusStaysLocal(t *testing.T) {
	const rate = 100.0
	cfg := refineTestConfig()

	// A taller peak 50 samples away must not capture the window; the
	// refiner only searches within the radius.
	gyro := generateGyroPeak(300, 100, 200, 5)
	far := generateGyroPeak(300, 150, 400, 5)
	for i := range gyro {
		gyro[i] += far[i]
	}
	ts := generateTimeline(300, rate)

	win, ok := refineWindow(gyro, ts, 100, rate, cfg)
	if !ok {
		t.Fatal("refineWindow rejected a clean candidate")
	}
	if win.center != 100 {
		t.Errorf("center = %d, want 100 (local apex)", win.center)
	}
}

func TestRefineWindow_ClampsAtBufferEdges(t *testing.T) {
	const rate = 100.0
	cfg := refineTestConfig()
	ts := generateTimeline(60, rate)

	t.Run("start clamped", func(t *testing.T) {
		gyro := generateGyroPeak(60, 5, 300, 3)

		win, ok := refineWindow(gyro, ts, 5, rate, cfg)
		if !ok {
			t.Fatal("refineWindow rejected a clamped-but-long window")
		}
		if win.start != 0 {
			t.Errorf("start = %d, want 0 (clamped, not wrapped)", win.start)
		}
		if win.end != 5+25 {
			t.Errorf("end = %d, want 30", win.end)
		}
	})

	t.Run("end clamped", func(t *testing.T) {
		gyro := generateGyroPeak(60, 55, 300, 3)

		win, ok := refineWindow(gyro, ts, 55, rate, cfg)
		if !ok {
			t.Fatal("refineWindow rejected a clamped-but-long window")
		}
		if win.end != 59 {
			t.Errorf("end = %d, want 59 (clamped, not wrapped)", win.end)
		}
		if win.start != 55-15 {
			t.Errorf("start = %d, want 40", win.start)
		}
	})
}

func TestRefineWindow_RejectsShortWindow(t *testing.T) {
	// 12 samples total: a candidate at the tail end clamps to fewer
	// than the minimum window and must be discarded.
	const rate = 100.0
	cfg := refineTestConfig()
	cfg.PreSeconds = 0.02
	cfg.PostSeconds = 0.02

	gyro := generateGyroPeak(12, 6, 300, 2)
	ts := generateTimeline(12, rate)

	if _, ok := refineWindow(gyro, ts, 6, rate, cfg); ok {
		t.Error("refineWindow accepted a window shorter than the minimum")
	}
}

func TestRefineWindow_RejectsOutOfRangeCandidate(t *testing.T) {
	const rate = 100.0
	cfg := refineTestConfig()
	gyro := generateGyroPeak(50, 25, 300, 3)
	ts := generateTimeline(50, rate)

	for _, candidate := range []int{-1, 50, 1000} {
		if _, ok := refineWindow(gyro, ts, candidate, rate, cfg); ok {
			t.Errorf("refineWindow accepted out-of-range candidate %d", candidate)
		}
	}

	if _, ok := refineWindow(nil, nil, 0, rate, cfg); ok {
		t.Error("refineWindow accepted an empty series")
	}
}
