// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/vitals_relay/internal/config"
	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// formatReadings renders a readings message, one line per sample.
func formatReadings(topic string, payload []byte) (string, error) {
	kind, err := vitals.ParseKind(topic[strings.LastIndex(topic, "/")+1:])
	if err != nil {
		return "", err
	}
	var samples []vitals.Sample
	if err := json.Unmarshal(payload, &samples); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range samples {
		fmt.Fprintf(&b, "[%-6s] %7.1f %-9s at %s\n",
			kind.Label(), s.Value, s.Unit, s.ObservedAt.Format("15:04:05"))
	}
	return b.String(), nil
}

// formatRelayed renders a relayed record, e.g. "[RELAY ] heartRate=72 ts=1767225600".
func formatRelayed(payload []byte) (string, error) {
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return "", err
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != "timestamp" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("[RELAY ]")
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	fmt.Fprintf(&b, " ts=%.0f\n", fields["timestamp"])
	return b.String(), nil
}

// RunConsoleMQTT prints readings and relayed records until ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	subs := map[string]func(topic string, payload []byte) (string, error){
		cfg.TopicReadings + "/+": formatReadings,
		cfg.TopicRelayed: func(_ string, payload []byte) (string, error) {
			return formatRelayed(payload)
		},
	}
	for topic, format := range subs {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			line, err := format(msg.Topic(), msg.Payload())
			if err != nil {
				log.Printf("console: %s unmarshal error: %v", msg.Topic(), err)
				return
			}
			fmt.Fprint(out, line)
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topic)
	}

	<-ctx.Done()
	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
