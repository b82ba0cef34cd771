// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// SerialSource reads $WBVIT sentences from a wrist sensor board on a serial
// port. Every valid sentence is delivered as a batch of one reading. The
// board has no permission model, so every requested kind is granted.
type SerialSource struct {
	port   io.ReadCloser
	logger *log.Logger
	g      *grants
	now    func() time.Time

	once    sync.Once
	started atomic.Bool
	closed  atomic.Bool
	done    chan struct{}
}

// closeWait bounds how long Close waits for the reader. A read on a silent
// port blocks until the next byte and closing the file does not wake it.
const closeWait = 250 * time.Millisecond

// NewSerialSource opens portName at baud.
func NewSerialSource(portName string, baud int, logger *log.Logger) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", portName, err)
	}
	logger.Printf("sensors: serial port opened on %s at %d baud", portName, baud)
	return newLineSource(port, logger), nil
}

func newLineSource(r io.ReadCloser, logger *log.Logger) *SerialSource {
	return &SerialSource{
		port:   r,
		logger: logger,
		g:      newGrants(),
		now:    time.Now,
		done:   make(chan struct{}),
	}
}

func (s *SerialSource) Authorize(_ context.Context, kinds []vitals.Kind) error {
	for _, k := range kinds {
		s.g.set(k, true)
	}
	return nil
}

// Subscribe registers h. The port is read from the first subscription on.
func (s *SerialSource) Subscribe(_ context.Context, kind vitals.Kind, h Handler) error {
	if !s.g.register(kind, h) {
		s.logger.Printf("sensors: %s not authorized, no readings will be delivered", kind)
		return nil
	}
	s.once.Do(func() {
		if s.closed.Load() {
			return
		}
		s.started.Store(true)
		go s.readLoop()
	})
	return nil
}

func (s *SerialSource) readLoop() {
	defer close(s.done)
	reader := bufio.NewReader(s.port)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "$") {
			s.handleLine(line)
		}
		if err != nil {
			if err != io.EOF && !s.closed.Load() {
				s.logger.Printf("sensors: serial read error: %v", err)
			}
			return
		}
	}
}

func (s *SerialSource) handleLine(line string) {
	if s.closed.Load() {
		return
	}
	vit, err := parseSentence(line)
	if err != nil {
		// boards print boot banners and partial lines
		return
	}
	h := s.g.handler(vit.Kind)
	if h == nil {
		return
	}
	r, err := vitals.NewReading(vit.Kind, vitals.Quantity{Value: vit.Value, Unit: vit.Unit}, s.now())
	if err != nil {
		s.logger.Printf("sensors: %v", err)
		return
	}
	h([]vitals.Reading{r})
}

// Close closes the port and stops delivering readings. It waits up to
// closeWait for the reader to exit.
func (s *SerialSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	err := s.port.Close()
	if s.started.Load() {
		select {
		case <-s.done:
		case <-time.After(closeWait):
			s.logger.Printf("sensors: serial reader still blocked, leaving it behind")
		}
	}
	return err
}
