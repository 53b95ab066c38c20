// Package serialbus forwards drivetrain commands to a motor controller over a
// line-oriented serial protocol:
//
//	D <left> <right>   per-side command in volts
//	C <pct>            velocity cap in percent
//	S                  stop both sides
package serialbus

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// Sink is a hal.Drivetrain that writes every command to w. Write failures do
// not stop the caller; the first one is kept and reported by Err.
type Sink struct {
	logger golog.Logger

	mu  sync.Mutex
	w   io.Writer
	err error
}

func NewSink(w io.Writer, logger golog.Logger) *Sink {
	if logger == nil {
		logger = golog.Global()
	}
	return &Sink{w: w, logger: logger}
}

// Open opens a serial port and returns a sink writing to it.
func Open(port string, baud int, logger golog.Logger) (*Sink, error) {
	p, err := serial.OpenPort(&serial.Config{Name: port, Baud: baud, ReadTimeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", port)
	}
	return NewSink(p, logger), nil
}

func (s *Sink) Drive(left, right float64) {
	s.send("D %.3f %.3f\n", left, right)
}

func (s *Sink) SetVelocityCap(pct float64) {
	s.send("C %.1f\n", pct)
}

func (s *Sink) Stop() {
	s.send("S\n")
}

func (s *Sink) send(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, format, args...); err != nil {
		if s.err == nil {
			s.logger.Warnw("serial write failed", "error", err)
			s.err = errors.Wrap(err, "serial write")
		}
	}
}

// Err returns the first write error, if any.
func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the drivetrain and closes the underlying port if it can be
// closed.
func (s *Sink) Close() error {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.w.(io.Closer); ok {
		return errors.Wrap(c.Close(), "close serial")
	}
	return nil
}
