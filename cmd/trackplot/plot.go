/*
DESCRIPTION
  plot.go renders recorded marker trajectories using gonum plot.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ausocean/utils/logging"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/fiducial/record"
)

// Plot dimensions.
const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// errNoData is returned when a session has no recorded markers.
var errNoData = errors.New("no recorded markers")

// trajectories provides the recorded samples of a session.
type trajectories interface {
	Markers(session string) ([]int, error)
	Trajectory(session string, id int) ([]record.Sample, error)
}

// plotSession writes a time series plot for each marker of a session and a
// plot of all marker paths to dir, returning the file paths written.
func plotSession(src trajectories, session, dir string, l logging.Logger) ([]string, error) {
	ids, err := src.Markers(session)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errNoData
	}

	paths := plot.New()
	paths.Title.Text = fmt.Sprintf("Session %s - Marker Paths", session)
	paths.X.Label.Text = "X (mm)"
	paths.Y.Label.Text = "Y (mm)"
	paths.Add(plotter.NewGrid())

	var files []string
	for i, id := range ids {
		samples, err := src.Trajectory(session, id)
		if err != nil {
			return files, err
		}
		l.Debug(pkg+"plotting marker", "id", id, "samples", len(samples))

		p, err := timeSeries(session, id, samples)
		if err != nil {
			return files, err
		}
		name := filepath.Join(dir, fmt.Sprintf("session_%s_marker_%d.png", session, id))
		err = p.Save(plotWidth, plotHeight, name)
		if err != nil {
			return files, fmt.Errorf("could not save plot: %w", err)
		}
		files = append(files, name)

		xy := make(plotter.XYs, len(samples))
		for j, s := range samples {
			xy[j] = plotter.XY{X: s.X, Y: s.Y}
		}
		line, err := plotter.NewLine(xy)
		if err != nil {
			return files, err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		paths.Add(line)
		paths.Legend.Add(fmt.Sprintf("Marker %d", id), line)
	}

	paths.Legend.Top = true
	name := filepath.Join(dir, fmt.Sprintf("session_%s_paths.png", session))
	err = paths.Save(plotHeight, plotHeight, name)
	if err != nil {
		return files, fmt.Errorf("could not save plot: %w", err)
	}
	return append(files, name), nil
}

// timeSeries returns a plot of the X and Y positions of a marker against
// seconds since its first sample.
func timeSeries(session string, id int, samples []record.Sample) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Session %s - Marker %d", session, id)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Position (mm)"
	p.Add(plotter.NewGrid())
	if len(samples) == 0 {
		return p, nil
	}

	t0 := samples[0].Time
	xs := make(plotter.XYs, len(samples))
	ys := make(plotter.XYs, len(samples))
	for i, s := range samples {
		t := s.Time.Sub(t0).Seconds()
		xs[i] = plotter.XY{X: t, Y: s.X}
		ys[i] = plotter.XY{X: t, Y: s.Y}
	}
	err := plotutil.AddLines(p, "X", xs, "Y", ys)
	if err != nil {
		return nil, err
	}
	p.Legend.Top = true
	return p, nil
}
