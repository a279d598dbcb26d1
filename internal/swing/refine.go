// internal/swing/refine.go
package swing

// minWindowSamples is the shortest analysis window worth carving. A
// window below this cannot hold a swing profile at any supported rate.
const minWindowSamples = 10

// analysisWindow is one carved slice of the buffer snapshot, centered
// on the refined angular-rate peak. Transient: created per candidate,
// consumed within the same pass. Indices address the snapshot series;
// end is inclusive and end > start always holds for a constructed
// window.
type analysisWindow struct {
	start   int
	end     int
	center  int
	impactT float64
}

func (w analysisWindow) length() int {
	return w.end - w.start + 1
}

// refineWindow snaps a candidate index to the true swing apex and
// carves the analysis window around it. The gyro-magnitude peak within
// searchRadius seconds of the candidate is a steadier apex proxy than
// the acceleration-derivative spike that proposed it, so the window is
// re-centered there before carving [-pre, +post] seconds at the current
// rate. Bounds are clamped to the snapshot, never wrapped. Returns
// false when the clamped window would be shorter than minWindowSamples.
func refineWindow(gyroMag, timestamps []float64, candidate int, rate float64, cfg Config) (analysisWindow, bool) {
	n := len(gyroMag)
	if n == 0 || candidate < 0 || candidate >= n {
		return analysisWindow{}, false
	}

	radius := int(cfg.SearchRadiusSec * rate)
	lo := candidate - radius
	if lo < 0 {
		lo = 0
	}
	hi := candidate + radius
	if hi > n-1 {
		hi = n - 1
	}

	center := lo
	for i := lo + 1; i <= hi; i++ {
		if gyroMag[i] > gyroMag[center] {
			center = i
		}
	}

	start := center - int(cfg.PreSeconds*rate)
	if start < 0 {
		start = 0
	}
	end := center + int(cfg.PostSeconds*rate)
	if end > n-1 {
		end = n - 1
	}

	win := analysisWindow{start: start, end: end, center: center, impactT: timestamps[center]}
	if win.length() < minWindowSamples {
		return analysisWindow{}, false
	}
	return win, true
}
