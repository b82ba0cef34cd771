// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/vitals_relay/internal/config"
	"github.com/relabs-tech/vitals_relay/internal/sensors"
	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

func TestNewSubmitterRest(t *testing.T) {
	hits := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- r.URL.Path
	}))
	defer srv.Close()

	cfg := &config.Config{
		RelaySink:       "rest",
		FirebaseBaseURL: srv.URL + "/",
		FirebaseAPIKey:  "k",
		RelayNodePath:   "heartRates",
	}
	sub, closer, err := NewSubmitter(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewSubmitter: %v", err)
	}
	defer closer.Close()

	if err := sub.Submit(context.Background(), vitals.NewRecord(vitals.Pulse, 70, t0)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if path := <-hits; path != "/heartRates.json" {
		t.Errorf("unexpected path %q", path)
	}
}

func TestNewSubmitterUnknown(t *testing.T) {
	if _, _, err := NewSubmitter(context.Background(), &config.Config{RelaySink: "ftp"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewSourceMock(t *testing.T) {
	cfg := &config.Config{
		SensorSource:       "mock",
		MockSampleInterval: 10,
		MockBatchSize:      1,
		SensorDeniedKinds:  []vitals.Kind{vitals.RespirationRate},
	}
	src, err := NewSource(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	defer src.Close()
	if _, ok := src.(*sensors.MockSource); !ok {
		t.Fatalf("expected mock source, got %T", src)
	}

	if err := src.Authorize(context.Background(), vitals.AllKinds); err == nil {
		t.Error("denied kind should be reported")
	}

	got := make(chan []vitals.Reading, 1)
	src.Subscribe(context.Background(), vitals.Pulse, func(b []vitals.Reading) {
		select {
		case got <- b:
		default:
		}
	})
	select {
	case b := <-got:
		if len(b) != 1 || b[0].Kind != vitals.Pulse {
			t.Errorf("unexpected batch %+v", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no batch from mock source")
	}

	if _, err := NewSource(&config.Config{SensorSource: "ble"}, log.Default()); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestRunWatchRequiresSinkSettings(t *testing.T) {
	cfg := &config.Config{RelaySink: "rest", SensorSource: "mock"}
	err := RunWatch(context.Background(), cfg, "")
	if err == nil || !strings.Contains(err.Error(), "FIREBASE_BASE_URL is required") {
		t.Fatalf("expected sink validation error, got %v", err)
	}
}
