/*
DESCRIPTION
  headless.go provides a Display without a window, reading operator keys from
  a terminal or other input stream.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package display

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/ausocean/utils/logging"
	"golang.org/x/term"
)

// keyBuffer is the number of pending keys held before further keys are
// dropped.
const keyBuffer = 16

const ctrlC = 0x03

// Headless is a Display that discards frames and takes keys from an input
// stream. When the input is a terminal it is put in raw mode so that keys
// take effect without a newline.
type Headless struct {
	log     logging.Logger
	keys    chan Key
	frames  int
	restore func() error
}

// NewHeadless returns a Headless display reading keys from in.
func NewHeadless(in *os.File, l logging.Logger) (*Headless, error) {
	h := newHeadless(l)
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		st, err := term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("could not put terminal in raw mode: %w", err)
		}
		h.restore = func() error { return term.Restore(fd, st) }
	}
	go h.read(in)
	return h, nil
}

func newHeadless(l logging.Logger) *Headless {
	return &Headless{log: l, keys: make(chan Key, keyBuffer)}
}

// read forwards recognised keys from r until r returns an error.
func (h *Headless) read(r io.Reader) {
	keys := h.keys
	defer close(keys)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, c := range buf[:n] {
			if c == ctrlC {
				// Raw mode disables the interrupt signal.
				c = byte(KeyQuit)
			}
			k, ok := ParseKey(rune(c))
			if !ok {
				continue
			}
			select {
			case keys <- k:
			default:
				h.log.Warning(pkg+"key dropped", "key", string(k))
			}
		}
		if errors.Is(err, io.EOF) {
			h.log.Debug(pkg + "key input closed")
			return
		}
		if err != nil {
			h.log.Error(pkg+"could not read key input", "error", err.Error())
			return
		}
	}
}

// Show counts the frame and discards it.
func (h *Headless) Show(img image.Image) error {
	h.frames++
	return nil
}

// Discards returns true; frames shown to a Headless display are dropped.
func (h *Headless) Discards() bool { return true }

// Frames returns the number of frames shown.
func (h *Headless) Frames() int { return h.frames }

// PollKey waits up to timeout for a key.
func (h *Headless) PollKey(timeout time.Duration) (Key, bool) {
	if timeout <= 0 {
		select {
		case k, ok := <-h.keys:
			return h.got(k, ok)
		default:
			return 0, false
		}
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case k, ok := <-h.keys:
		return h.got(k, ok)
	case <-t.C:
		return 0, false
	}
}

func (h *Headless) got(k Key, ok bool) (Key, bool) {
	if !ok {
		// Input has closed; block on a nil channel from now on.
		h.keys = nil
		return 0, false
	}
	return k, true
}

// Output wraps w so that lines written to it display correctly while the
// terminal is in raw mode.
func (h *Headless) Output(w io.Writer) io.Writer {
	if h.restore == nil {
		return w
	}
	return crlfWriter{w}
}

// Close restores the terminal mode if it was changed.
func (h *Headless) Close() error {
	if h.restore == nil {
		return nil
	}
	err := h.restore()
	h.restore = nil
	return err
}

// crlfWriter translates line feeds to carriage return line feed pairs.
type crlfWriter struct{ w io.Writer }

func (c crlfWriter) Write(p []byte) (int, error) {
	_, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n")))
	if err != nil {
		return 0, err
	}
	return len(p), nil
}
