/*
DESCRIPTION
  overlay.go provides annotation of frames with detected markers, their
  relative positions and pose axes.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package overlay draws tracking annotations onto frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/golang/geo/r2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ausocean/fiducial/pose"
	"github.com/ausocean/fiducial/track"
)

// Drawing colours.
var (
	Outline = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Center  = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Label   = color.RGBA{R: 128, G: 0, B: 128, A: 255}
	Angled  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Status  = color.RGBA{R: 255, G: 255, B: 255, A: 255}

	AxisX = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	AxisY = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	AxisZ = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// Layout in pixels.
const (
	fontSize     = 12
	centerRadius = 5
	outlineWidth = 2
	axisWidth    = 2
	axisLength   = 1 // In marker side lengths.
	nameOffset   = 30
	coordOffset  = 10
	angleOffset  = 20
	statusMargin = 10
)

var face font.Face

func init() {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
	face = truetype.NewFace(f, &truetype.Options{Size: fontSize})
}

// Options controls what is drawn in addition to the markers.
type Options struct {
	// Camera projects pose axes. Axes are not drawn if nil.
	Camera *pose.Camera

	// Calibration, if non-zero, is shown in the top left corner.
	Calibration float64
}

// Draw returns a copy of img annotated with obs.
func Draw(img image.Image, obs []track.Observation, opt Options) *image.RGBA {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(face)

	for _, o := range obs {
		outline(dc, o)
		if o.Pose != nil && opt.Camera != nil {
			axes(dc, o, opt.Camera)
		}
		annotate(dc, o)
	}

	if opt.Calibration != 0 {
		dc.SetColor(Status)
		dc.DrawStringAnchored(fmt.Sprintf("Calibration: %.3f", opt.Calibration), statusMargin, statusMargin, 0, 1)
	}

	return dc.Image().(*image.RGBA)
}

// Labels returns the text lines drawn next to an observation, top first.
func Labels(o track.Observation) []string {
	switch {
	case o.IsOrigin:
		return []string{fmt.Sprintf("Origin %d", o.Marker.ID)}
	case !o.Relative:
		return []string{fmt.Sprintf("Marker %d", o.Marker.ID)}
	case o.HasAngle:
		return []string{fmt.Sprintf("ID %d | X: %.2f mm, Y: %.2f mm, Angle: %.2f°", o.Marker.ID, o.X, o.Y, o.Angle)}
	default:
		return []string{
			fmt.Sprintf("Marker %d", o.Marker.ID),
			fmt.Sprintf("X: %.2f mm, Y: %.2f mm", o.X, o.Y),
		}
	}
}

func outline(dc *gg.Context, o track.Observation) {
	c := o.Marker.Corners
	dc.SetColor(Outline)
	dc.SetLineWidth(outlineWidth)
	dc.MoveTo(c[0].X, c[0].Y)
	for _, p := range c[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.Stroke()
}

func annotate(dc *gg.Context, o track.Observation) {
	x, y := float64(o.Center.X), float64(o.Center.Y)
	dc.SetColor(Center)
	dc.DrawCircle(x, y, centerRadius)
	dc.Fill()

	l := Labels(o)
	switch len(l) {
	case 1:
		col := Label
		if o.HasAngle {
			col = Angled
		}
		dc.SetColor(col)
		dc.DrawString(l[0], x, y-angleOffset)
	case 2:
		dc.SetColor(Label)
		dc.DrawString(l[0], x, y-nameOffset)
		dc.DrawString(l[1], x, y-coordOffset)
	}
}

func axes(dc *gg.Context, o track.Observation, cam *pose.Camera) {
	pts := cam.Project(pose.Axes(axisLength), *o.Pose)
	dc.SetLineWidth(axisWidth)
	for i, col := range []color.Color{AxisX, AxisY, AxisZ} {
		line(dc, pts[0], pts[i+1], col)
	}
}

func line(dc *gg.Context, a, b r2.Point, c color.Color) {
	dc.SetColor(c)
	dc.DrawLine(a.X, a.Y, b.X, b.Y)
	dc.Stroke()
}
