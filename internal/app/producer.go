// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/vitals_relay/internal/config"
	"github.com/relabs-tech/vitals_relay/internal/sensors"
	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// ReadingsTopic is where readings of kind are published.
func ReadingsTopic(prefix string, kind vitals.Kind) string {
	return prefix + "/" + string(kind)
}

// encodeBatch renders a batch in the sample array format MQTTSource reads.
func encodeBatch(batch []vitals.Reading) ([]byte, error) {
	samples := make([]vitals.Sample, 0, len(batch))
	for _, r := range batch {
		samples = append(samples, vitals.Sample{
			Quantity:   vitals.Quantity{Value: r.Value, Unit: r.Kind.Unit()},
			ObservedAt: r.ObservedAt,
		})
	}
	return json.Marshal(samples)
}

// RunProducer publishes mock readings for every configured kind to MQTT so
// a watch running with SENSOR_SOURCE=mqtt has something to relay.
func RunProducer(ctx context.Context, cfg *config.Config) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	src := sensors.NewMockSource(cfg.MockEvery(), cfg.MockBatchSize, nil, log.Default())
	defer src.Close()
	src.Authorize(ctx, cfg.SensorKinds)

	for _, kind := range cfg.SensorKinds {
		topic := ReadingsTopic(cfg.TopicReadings, kind)
		err := src.Subscribe(ctx, kind, func(batch []vitals.Reading) {
			payload, err := encodeBatch(batch)
			if err != nil {
				log.Printf("producer: JSON marshal error: %v", err)
				return
			}
			token := client.Publish(topic, 0, false, payload)
			token.Wait()
			if token.Error() != nil {
				log.Printf("producer: publish error on %s: %v", topic, token.Error())
			}
		})
		if err != nil {
			return err
		}
		log.Printf("producer: publishing %s on %s", kind, topic)
	}

	<-ctx.Done()
	log.Println("producer: shutting down")
	return nil
}
