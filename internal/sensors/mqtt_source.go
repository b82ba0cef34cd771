// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// subackFailure is the SUBACK return code a broker sends when it refuses a
// subscription, typically because of an ACL.
const subackFailure = 0x80

// subscriber is the part of mqtt.Client the source needs.
type subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSource receives readings published on <prefix>/<kind>. The payload is
// a JSON sample object or an array of them:
//
//	[{"value":1.2,"unit":"count/s","observed_at":"2026-01-01T00:00:00Z"}]
//
// A broker that refuses the subscription for a kind counts as a denial.
type MQTTSource struct {
	client subscriber
	prefix string
	logger *log.Logger
	g      *grants
	now    func() time.Time

	mu    sync.Mutex
	kinds []vitals.Kind // requested in Authorize, replayed on reconnect
}

// NewMQTTSource connects to broker and returns a source reading under prefix.
// Subscriptions are issued again after every automatic reconnect.
func NewMQTTSource(broker, clientID, prefix string, logger *log.Logger) (*MQTTSource, error) {
	s := newMQTTSource(nil, prefix, logger)

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Printf("sensors: MQTT connection lost: %v", err)
		})

	client := mqtt.NewClient(opts)
	s.client = client
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	logger.Printf("sensors: connected to MQTT broker at %s", broker)
	return s, nil
}

func newMQTTSource(client subscriber, prefix string, logger *log.Logger) *MQTTSource {
	return &MQTTSource{
		client: client,
		prefix: prefix,
		logger: logger,
		g:      newGrants(),
		now:    time.Now,
	}
}

func (s *MQTTSource) topic(kind vitals.Kind) string {
	return s.prefix + "/" + string(kind)
}

// Authorize subscribes to every kind's topic. Messages only reach a handler
// once Subscribe has registered one.
func (s *MQTTSource) Authorize(_ context.Context, kinds []vitals.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range kinds {
		if !slices.Contains(s.kinds, kind) {
			s.kinds = append(s.kinds, kind)
		}
	}
	return s.subscribe(kinds)
}

// onConnect replays the requested subscriptions. The broker forgets them
// when a clean session reconnects; grants follow the new SUBACK.
func (s *MQTTSource) onConnect(_ mqtt.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.kinds) == 0 {
		return
	}
	s.logger.Printf("sensors: (re)subscribing %d topics under %s", len(s.kinds), s.prefix)
	if err := s.subscribe(s.kinds); err != nil {
		s.logger.Printf("sensors: after reconnect:\n%v", err)
	}
}

// subscribe must be called with s.mu held.
func (s *MQTTSource) subscribe(kinds []vitals.Kind) error {
	var errs []error
	for _, kind := range kinds {
		topic := s.topic(kind)
		token := s.client.Subscribe(topic, 0, s.onMessage(kind))
		token.Wait()

		ok := token.Error() == nil
		if st, isSub := token.(*mqtt.SubscribeToken); ok && isSub {
			if code, found := st.Result()[topic]; found && code == subackFailure {
				ok = false
			}
		}
		if !ok {
			if token.Error() != nil {
				s.logger.Printf("sensors: subscribe %s failed: %v", topic, token.Error())
			}
			errs = append(errs, denied(kind))
		}
		s.g.set(kind, ok)
	}
	return errors.Join(errs...)
}

func (s *MQTTSource) Subscribe(_ context.Context, kind vitals.Kind, h Handler) error {
	if !s.g.register(kind, h) {
		s.logger.Printf("sensors: %s not authorized, no readings will be delivered", kind)
	}
	return nil
}

func (s *MQTTSource) onMessage(kind vitals.Kind) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		h := s.g.handler(kind)
		if h == nil {
			return
		}
		batch, err := decodeSamples(kind, msg.Payload(), s.now())
		if err != nil {
			s.logger.Printf("sensors: bad payload on %s: %v", msg.Topic(), err)
			return
		}
		h(batch)
	}
}

// decodeSamples converts a JSON sample or sample array to readings in the
// kind's canonical unit. A sample without a unit is taken as canonical and
// one without a timestamp as observed at now.
func decodeSamples(kind vitals.Kind, payload []byte, now time.Time) ([]vitals.Reading, error) {
	var samples []vitals.Sample
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &samples); err != nil {
			return nil, err
		}
	} else {
		var one vitals.Sample
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, err
		}
		samples = []vitals.Sample{one}
	}

	batch := make([]vitals.Reading, 0, len(samples))
	for _, sm := range samples {
		if sm.Unit == "" {
			sm.Unit = kind.Unit()
		}
		if sm.ObservedAt.IsZero() {
			sm.ObservedAt = now
		}
		r, err := vitals.NewReading(kind, sm.Quantity, sm.ObservedAt)
		if err != nil {
			return nil, err
		}
		batch = append(batch, r)
	}
	return batch, nil
}

func (s *MQTTSource) Close() error {
	s.client.Disconnect(250)
	return nil
}
