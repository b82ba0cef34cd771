// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/relabs-tech/vitals_relay/internal/config"
	"github.com/relabs-tech/vitals_relay/internal/relay"
	"github.com/relabs-tech/vitals_relay/internal/sensors"
	"github.com/relabs-tech/vitals_relay/internal/sink"
)

// NewSource builds the sensor platform selected by SENSOR_SOURCE.
func NewSource(cfg *config.Config, logger *log.Logger) (sensors.Source, error) {
	switch cfg.SensorSource {
	case "mock":
		return sensors.NewMockSource(cfg.MockEvery(), cfg.MockBatchSize, cfg.SensorDeniedKinds, logger), nil
	case "mqtt":
		return sensors.NewMQTTSource(cfg.MQTTBroker, cfg.MQTTClientIDWatch, cfg.TopicReadings, logger)
	case "serial":
		return sensors.NewSerialSource(cfg.SerialPort, cfg.SerialBaudRate, logger)
	case "i2c":
		return sensors.NewI2CSource(cfg.I2CBus, cfg.I2CAddr, cfg.I2CEvery(), logger)
	}
	return nil, fmt.Errorf("unknown sensor source %q", cfg.SensorSource)
}

type noClose struct{}

func (noClose) Close() error { return nil }

// NewSubmitter builds the remote store selected by RELAY_SINK. The returned
// closer releases its connection.
func NewSubmitter(ctx context.Context, cfg *config.Config) (relay.Submitter, io.Closer, error) {
	switch cfg.RelaySink {
	case "rest":
		return sink.NewRESTClient(cfg.FirebaseBaseURL, cfg.FirebaseAPIKey, nil).Node(cfg.RelayNodePath), noClose{}, nil
	case "firestore":
		s, err := sink.NewFirestoreSink(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile, cfg.FirestoreCollection)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "mqtt":
		p, err := sink.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientIDWatch+"-relay", cfg.TopicRelayed)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	}
	return nil, nil, fmt.Errorf("unknown relay sink %q", cfg.RelaySink)
}

// RunWatch wires the sensor source, the relay loop and the display surface
// and runs them until ctx is cancelled.
func RunWatch(ctx context.Context, cfg *config.Config, staticDir string) error {
	logger := log.Default()

	if err := cfg.ValidateSink(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	sub, closer, err := NewSubmitter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	defer closer.Close()

	src, err := NewSource(cfg, logger)
	if err != nil {
		return fmt.Errorf("sensors: %w", err)
	}
	defer src.Close()

	r := relay.New(sub, relay.Options{
		Interval: cfg.RelayEvery(),
		Kind:     cfg.RelayKind,
		Logger:   logger,
	})
	r.Start(ctx)
	defer r.Stop()

	if err := src.Authorize(ctx, cfg.SensorKinds); err != nil {
		logger.Printf("sensors: authorization incomplete:\n%v", err)
	} else {
		logger.Printf("sensors: authorized %v", cfg.SensorKinds)
	}
	for _, kind := range cfg.SensorKinds {
		if err := src.Subscribe(ctx, kind, r.Deliver); err != nil {
			return fmt.Errorf("subscribe %s: %w", kind, err)
		}
	}
	logger.Printf("relay: sending %s to %s sink every %v", r.Kind(), cfg.RelaySink, cfg.RelayEvery())

	if cfg.DisplayI2CAddr != 0 {
		panel, err := OpenPanel(cfg.I2CBus, cfg.DisplayI2CAddr)
		if err != nil {
			logger.Printf("display: panel unavailable, web display only: %v", err)
		} else {
			defer panel.Close()
			go RunPanel(ctx, panel, r, cfg.DisplayEvery())
		}
	}

	return RunWeb(ctx, cfg.WebServerPort, NewWebHandler(r, cfg.DisplayEvery(), staticDir))
}
