/*
NAME
  lex.go

DESCRIPTION
  lex.go provides a lexer to extract separate JPEG images from a JPEG stream.
  This could either be a series of discrete JPEG images, or an MJPEG stream.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package mjpeg provides lexing and decoding of MJPEG streams into frames.
package mjpeg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ausocean/utils/logging"
)

// JPEG markers delimiting an image.
const (
	markerPrefix = 0xff
	markerSOI    = 0xd8
	markerEOI    = 0xd9
)

// ErrNotJPEG is returned when the stream does not start a frame with an SOI
// marker where one is expected.
var ErrNotJPEG = errors.New("not JPEG frame start")

var noDelay = make(chan time.Time)

func init() {
	close(noDelay)
}

// Lex parses JPEG frames read from src into separate writes to dst with
// successive writes being performed not earlier than the specified delay.
// Embedded images, such as EXIF thumbnails, are kept within their enclosing
// frame. Lex returns io.EOF if src ends between frames and
// io.ErrUnexpectedEOF if it ends within one.
func Lex(dst io.Writer, src io.Reader, delay time.Duration, l logging.Logger) error {
	var tick <-chan time.Time
	if delay == 0 {
		tick = noDelay
	} else {
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		tick = ticker.C
	}

	r := bufio.NewReader(src)
	for {
		buf := make([]byte, 2, 4<<10)
		n, err := io.ReadFull(r, buf)
		if n == 0 && err == io.EOF {
			return io.EOF
		}
		if err != nil {
			return err
		}

		if !bytes.Equal(buf, []byte{markerPrefix, markerSOI}) {
			return fmt.Errorf("%w: %#v", ErrNotJPEG, buf)
		}

		nImg := 1

		var last byte
		for {
			b, err := r.ReadByte()
			if err != nil {
				if err == io.EOF {
					return io.ErrUnexpectedEOF
				}
				return err
			}

			buf = append(buf, b)

			if last == markerPrefix && b == markerSOI {
				nImg++
			}

			if last == markerPrefix && b == markerEOI {
				nImg--
			}

			if nImg == 0 {
				<-tick
				l.Debug("writing frame", "len(buf)", len(buf))
				_, err = dst.Write(buf)
				if err != nil {
					return err
				}
				break
			}

			last = b
		}
	}
}
