/*
DESCRIPTION
  stream.go provides Stream, which decodes the frames of an MJPEG byte stream
  into images.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package mjpeg

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "mjpeg: "

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("stream closed")

type result struct {
	img image.Image
	err error
}

// Stream lexes and decodes an MJPEG byte stream in a background routine,
// delivering one decoded frame per call to Next. Frames that fail to decode
// are logged and skipped.
type Stream struct {
	out  chan result
	done chan struct{}
	once sync.Once
	log  logging.Logger
}

// NewStream starts decoding frames read from src, no faster than one per
// delay if delay is non-zero.
func NewStream(src io.Reader, delay time.Duration, l logging.Logger) *Stream {
	s := &Stream{
		out:  make(chan result),
		done: make(chan struct{}),
		log:  l,
	}
	go s.run(src, delay)
	return s
}

func (s *Stream) run(src io.Reader, delay time.Duration) {
	defer close(s.out)
	err := Lex(decoder{s}, src, delay, s.log)
	if err == ErrClosed {
		return
	}
	select {
	case s.out <- result{err: err}:
	case <-s.done:
	}
}

// Next blocks until the next frame is decoded. At the end of the stream it
// returns the error that ended lexing, io.EOF for a clean end, and io.EOF
// thereafter.
func (s *Stream) Next() (image.Image, error) {
	select {
	case <-s.done:
		return nil, ErrClosed
	default:
	}
	select {
	case r, ok := <-s.out:
		if !ok {
			return nil, io.EOF
		}
		return r.img, r.err
	case <-s.done:
		return nil, ErrClosed
	}
}

// Close stops delivery of frames. The background routine exits at the next
// frame boundary, or when src returns an error, for example because the
// underlying reader was closed.
func (s *Stream) Close() {
	s.once.Do(func() { close(s.done) })
}

// decoder is the io.Writer given to Lex; each write holds one JPEG image.
type decoder struct{ s *Stream }

func (d decoder) Write(p []byte) (int, error) {
	img, err := jpeg.Decode(bytes.NewReader(p))
	if err != nil {
		d.s.log.Warning(pkg+"could not decode frame", "error", err.Error(), "len", len(p))
		return len(p), nil
	}
	select {
	case d.s.out <- result{img: img}:
		return len(p), nil
	case <-d.s.done:
		return 0, ErrClosed
	}
}
