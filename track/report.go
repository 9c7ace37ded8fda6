/*
DESCRIPTION
  report.go provides the Reporter, which writes measurement lines at a
  fixed maximum rate independent of the frame rate.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package track

import (
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultReportRate is the default maximum report rate in Hz.
const DefaultReportRate = 5

// Reporter writes observation lines to w, at most once per interval.
type Reporter struct {
	w        io.Writer
	clk      clock.Clock
	interval time.Duration
	last     time.Time
}

// NewReporter returns a Reporter writing at most rate times a second. The
// first report is allowed one interval after construction.
func NewReporter(w io.Writer, rate float64, clk clock.Clock) *Reporter {
	r := &Reporter{w: w, clk: clk, last: clk.Now()}
	r.SetRate(rate)
	return r
}

// SetRate changes the maximum report rate, keeping the time of the last
// report.
func (r *Reporter) SetRate(rate float64) {
	if rate <= 0 {
		rate = DefaultReportRate
	}
	r.interval = time.Duration(float64(time.Second) / rate)
}

// Line returns the report line for o.
func Line(o Observation) string {
	s := fmt.Sprintf("Marker ID: %d - X: %.2f mm, Y: %.2f mm", o.Marker.ID, o.X, o.Y)
	if o.HasAngle {
		s += fmt.Sprintf(", Angle: %.2f°", o.Angle)
	}
	return s
}

// Report writes a line for each relative observation in obs if an interval
// has passed since the last report. It returns true if anything was written.
func (r *Reporter) Report(obs []Observation) (bool, error) {
	now := r.clk.Now()
	if now.Sub(r.last) < r.interval {
		return false, nil
	}

	var wrote bool
	for _, o := range obs {
		if !o.Relative {
			continue
		}
		_, err := fmt.Fprintln(r.w, Line(o))
		if err != nil {
			return wrote, fmt.Errorf("could not write report: %w", err)
		}
		wrote = true
	}
	if wrote {
		r.last = now
	}
	return wrote, nil
}

// Calibration writes a calibration factor change line, unthrottled.
func (r *Reporter) Calibration(f float64) error {
	_, err := fmt.Fprintf(r.w, "Calibration Factor: %.3f\n", f)
	return err
}
