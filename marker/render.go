/*
DESCRIPTION
  render.go provides decoration of generated markers with a border and ID
  label, and saving of marker bitmaps as PNG files.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package marker

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ausocean/utils/logging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Used to indicate package in logging.
const pkg = "marker: "

// Decoration constants.
const (
	BorderWidth  = 5  // White border added around each marker, in pixels.
	labelMargin  = 10 // Distance of the label baseline from the bottom edge.
	borderBits   = 1  // Width of the black marker border in marker bits.
	filePrefix   = "aruco_marker_"
	fileSuffix   = ".png"
	minSidePixel = 8
)

// ErrNoCV is returned by operations that need OpenCV when the package was
// built without the withcv tag.
var ErrNoCV = errors.New("built without OpenCV support (withcv tag)")

// Render returns the decorated bitmap of marker id of variant v, with the
// marker itself sidePixels wide. The returned bitmap is
// sidePixels+2*BorderWidth wide.
func Render(v Variant, id, sidePixels int) (*image.Gray, error) {
	err := CheckID(v, id)
	if err != nil {
		return nil, err
	}
	if sidePixels < minSidePixel {
		return nil, fmt.Errorf("marker side too small: %d pixels", sidePixels)
	}
	img, err := Generate(v, id, sidePixels)
	if err != nil {
		return nil, fmt.Errorf("could not generate marker %d: %w", id, err)
	}
	return Decorate(img, id), nil
}

// Decorate returns a copy of img with a white border of BorderWidth pixels
// and the ID drawn in black, centred horizontally near the bottom edge.
func Decorate(img *image.Gray, id int) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx()+2*BorderWidth, b.Dy()+2*BorderWidth))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, b.Sub(b.Min).Add(image.Pt(BorderWidth, BorderWidth)), img, b.Min, draw.Src)

	d := &font.Drawer{
		Dst:  out,
		Src:  image.Black,
		Face: basicfont.Face7x13,
	}
	text := strconv.Itoa(id)
	w := d.MeasureString(text).Ceil()
	d.Dot = fixed.P((out.Bounds().Dx()-w)/2, out.Bounds().Dy()-labelMargin)
	d.DrawString(text)
	return out
}

// FileName returns the file name used for the bitmap of marker id.
func FileName(id int) string { return filePrefix + strconv.Itoa(id) + fileSuffix }

// Save writes img as a single channel PNG named by FileName(id) in dir and
// returns the path written.
func Save(dir string, id int, img *image.Gray) (string, error) {
	path := filepath.Join(dir, FileName(id))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("could not create marker file: %w", err)
	}
	err = png.Encode(f, img)
	if err != nil {
		f.Close()
		return "", fmt.Errorf("could not encode marker %d: %w", id, err)
	}
	return path, f.Close()
}

// Batch renders and saves count markers of variant v starting at ID first,
// returning the paths of the files written.
func Batch(l logging.Logger, dir string, v Variant, first, count, sidePixels int) ([]string, error) {
	l.Info(pkg+"generating markers", "variant", v.String(), "first", first, "count", count)
	var paths []string
	for id := first; id < first+count; id++ {
		l.Debug(pkg+"generating marker", "id", id)
		img, err := Render(v, id, sidePixels)
		if err != nil {
			return paths, err
		}
		path, err := Save(dir, id, img)
		if err != nil {
			return paths, err
		}
		l.Info(pkg+"marker saved", "id", id, "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}
