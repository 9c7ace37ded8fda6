/*
DESCRIPTION
  file_test.go tests the file FrameSource.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package file

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/fiducial/config"
	"github.com/ausocean/fiducial/device"
)

// writeVideo writes an MJPEG file of gray frames with the given shades and
// returns its path.
func writeVideo(t *testing.T, shades ...uint8) string {
	var buf bytes.Buffer
	for _, c := range shades {
		img := image.NewGray(image.Rect(0, 0, 16, 16))
		for i := range img.Pix {
			img.Pix[i] = c
		}
		err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95})
		if err != nil {
			t.Fatalf("could not encode frame: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "video.mjpeg")
	err := os.WriteFile(path, buf.Bytes(), 0o644)
	if err != nil {
		t.Fatalf("could not write video: %v", err)
	}
	return path
}

func shade(img image.Image) int {
	return int(color.GrayModel.Convert(img.At(8, 8)).(color.Gray).Y)
}

func near(a, b int) bool {
	d := a - b
	return d >= -4 && d <= 4
}

func TestIsRunning(t *testing.T) {
	d := New((*logging.TestLogger)(t))

	err := d.Set(config.Config{InputPath: writeVideo(t, 0)})
	if err != nil {
		t.Fatalf("could not set device: %v", err)
	}

	err = d.Start()
	if err != nil {
		t.Fatalf("could not start device %v", err)
	}

	if !d.IsRunning() {
		t.Error("device isn't running, when it should be")
	}

	err = d.Stop()
	if err != nil {
		t.Error(err.Error())
	}

	if d.IsRunning() {
		t.Error("device is running, when it should not be")
	}

	_, err = d.Next()
	if !errors.Is(err, device.ErrNotRunning) {
		t.Errorf("expected ErrNotRunning after stop, got: %v", err)
	}
}

func TestNext(t *testing.T) {
	shades := []uint8{20, 120, 220}
	d := NewWith((*logging.TestLogger)(t), writeVideo(t, shades...), false, 0)
	err := d.Start()
	if err != nil {
		t.Fatalf("could not start device %v", err)
	}
	defer d.Stop()

	for i, c := range shades {
		img, err := d.Next()
		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
		if got := shade(img); !near(got, int(c)) {
			t.Errorf("frame %d: got shade %d want %d", i, got, c)
		}
	}
	_, err = d.Next()
	if err != io.EOF {
		t.Errorf("expected io.EOF at end of file, got: %v", err)
	}
}

func TestLoop(t *testing.T) {
	shades := []uint8{30, 200}
	d := NewWith((*logging.TestLogger)(t), writeVideo(t, shades...), true, 0)
	err := d.Start()
	if err != nil {
		t.Fatalf("could not start device %v", err)
	}
	defer d.Stop()

	for i := 0; i < 3*len(shades); i++ {
		img, err := d.Next()
		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
		want := int(shades[i%len(shades)])
		if got := shade(img); !near(got, want) {
			t.Errorf("frame %d: got shade %d want %d", i, got, want)
		}
	}
}

func TestStartMissing(t *testing.T) {
	d := NewWith((*logging.TestLogger)(t), filepath.Join(t.TempDir(), "missing.mjpeg"), false, 0)
	err := d.Start()
	if !errors.Is(err, device.ErrCameraUnavailable) {
		t.Errorf("expected ErrCameraUnavailable, got: %v", err)
	}
}
