// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// txer is the part of i2c.Dev the source needs.
type txer interface {
	Tx(w, r []byte) error
}

// I2CSource polls a finger-clip heart rate sensor (Grove, default address
// 0x50). Each read returns one byte of BPM; zero means no finger on the clip
// and is delivered as an empty batch. Only pulse is measured, other kinds
// are denied.
type I2CSource struct {
	dev      txer
	bus      i2c.BusCloser
	interval time.Duration
	logger   *log.Logger
	g        *grants
	now      func() time.Time

	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewI2CSource initializes the periph host and opens the sensor on busName.
func NewI2CSource(busName string, addr uint16, interval time.Duration, logger *log.Logger) (*I2CSource, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("i2c open failed on bus %s: %w", busName, err)
	}
	logger.Printf("sensors: heart rate clip on i2c bus %s addr 0x%X", busName, addr)

	s := newI2CSource(&i2c.Dev{Bus: bus, Addr: addr}, interval, logger)
	s.bus = bus
	return s, nil
}

func newI2CSource(dev txer, interval time.Duration, logger *log.Logger) *I2CSource {
	ctx, cancel := context.WithCancel(context.Background())
	return &I2CSource{
		dev:      dev,
		interval: interval,
		logger:   logger,
		g:        newGrants(),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *I2CSource) Authorize(_ context.Context, kinds []vitals.Kind) error {
	var errs []error
	for _, k := range kinds {
		ok := k == vitals.Pulse
		s.g.set(k, ok)
		if !ok {
			errs = append(errs, denied(k))
		}
	}
	return errors.Join(errs...)
}

func (s *I2CSource) Subscribe(ctx context.Context, kind vitals.Kind, h Handler) error {
	if !s.g.register(kind, h) {
		s.logger.Printf("sensors: %s not measured by the i2c clip, no readings will be delivered", kind)
		return nil
	}
	s.once.Do(func() {
		s.wg.Add(1)
		go s.poll(ctx)
	})
	return nil
}

func (s *I2CSource) poll(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			batch, err := s.read()
			if err != nil {
				s.logger.Printf("sensors: i2c read: %v", err)
				continue
			}
			if h := s.g.handler(vitals.Pulse); h != nil {
				h(batch)
			}
		}
	}
}

// read performs one transaction and returns the resulting batch.
func (s *I2CSource) read() ([]vitals.Reading, error) {
	buf := make([]byte, 1)
	if err := s.dev.Tx(nil, buf); err != nil {
		return nil, err
	}
	if buf[0] == 0 {
		return nil, nil
	}
	return []vitals.Reading{{Kind: vitals.Pulse, Value: float64(buf[0]), ObservedAt: s.now()}}, nil
}

func (s *I2CSource) Close() error {
	s.cancel()
	s.wg.Wait()
	if s.bus != nil {
		return s.bus.Close()
	}
	return nil
}
