// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/vitals_relay/internal/relay"
	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

var t0 = time.Date(2026, 1, 1, 8, 30, 0, 0, time.UTC)

func newMonitor(t *testing.T) *relay.Relay {
	t.Helper()
	sub := relay.SubmitterFunc(func(context.Context, vitals.Record) error { return nil })
	return relay.New(sub, relay.Options{Logger: log.New(io.Discard, "", 0)})
}

func TestAPIVitalsBeforeFirstReading(t *testing.T) {
	h := NewWebHandler(newMonitor(t), time.Second, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vitals", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var v VitalsView
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.HaveReading || v.Value != 0 || v.Kind != vitals.Pulse || v.Label != "BPM" {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestAPIVitalsAndStatus(t *testing.T) {
	m := newMonitor(t)
	m.Latest().Apply([]vitals.Reading{
		{Kind: vitals.Pulse, Value: 72, ObservedAt: t0},
		{Kind: vitals.OxygenSaturation, Value: 97, ObservedAt: t0},
	}, t0)
	h := NewWebHandler(m, time.Second, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vitals", nil))
	var v VitalsView
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !v.HaveReading || v.Value != 72 || len(v.Readings) != 2 {
		t.Errorf("unexpected view %+v", v)
	}
	if v.ObservedAt == nil || !v.ObservedAt.Equal(t0) {
		t.Errorf("unexpected observed_at %v", v.ObservedAt)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	var s relay.Stats
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if s.Ticks != 0 {
		t.Errorf("relay never started, got %d ticks", s.Ticks)
	}
}

func TestDisplayPNG(t *testing.T) {
	m := newMonitor(t)
	h := NewWebHandler(m, time.Second, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/display.png", nil))
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != BadgeWidth || b.Dy() != BadgeHeight {
		t.Errorf("unexpected size %v", b)
	}
}

func litPixels(t *testing.T, kind vitals.Kind, value float64, have bool) (n int, raw []byte) {
	t.Helper()
	img := RenderBadge(kind, value, have)
	for _, p := range img.Pix {
		if p != 0 {
			n++
		}
	}
	return n, img.Pix
}

func TestRenderBadge(t *testing.T) {
	waiting, waitingPix := litPixels(t, vitals.Pulse, 0, false)
	if waiting == 0 {
		t.Fatal("waiting screen is blank")
	}
	v72, pix72 := litPixels(t, vitals.Pulse, 72, true)
	if v72 == 0 {
		t.Fatal("value screen is blank")
	}
	_, pix90 := litPixels(t, vitals.Pulse, 90, true)

	if bytes.Equal(waitingPix, pix72) {
		t.Error("waiting and value screens should differ")
	}
	if bytes.Equal(pix72, pix90) {
		t.Error("different values rendered identically")
	}
}

func TestWebSocketPushesView(t *testing.T) {
	m := newMonitor(t)
	m.Latest().Apply([]vitals.Reading{{Kind: vitals.Pulse, Value: 64, ObservedAt: t0}}, t0)

	srv := httptest.NewServer(NewWebHandler(m, 10*time.Millisecond, ""))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 2; i++ {
		var v VitalsView
		if err := conn.ReadJSON(&v); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if v.Value != 64 {
			t.Errorf("push %d: expected 64, got %v", i, v.Value)
		}
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>vitals</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := NewWebHandler(newMonitor(t), time.Second, dir)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "vitals") {
		t.Errorf("index not served: %q", rec.Body.String())
	}
}

func TestEncodeBatch(t *testing.T) {
	payload, err := encodeBatch([]vitals.Reading{{Kind: vitals.OxygenSaturation, Value: 97, ObservedAt: t0}})
	if err != nil {
		t.Fatalf("encodeBatch: %v", err)
	}
	want := `[{"value":97,"unit":"%","observed_at":"2026-01-01T08:30:00Z"}]`
	if string(payload) != want {
		t.Errorf("got %s, want %s", payload, want)
	}
	if got := ReadingsTopic("vitals/readings", vitals.OxygenSaturation); got != "vitals/readings/oxygenSaturation" {
		t.Errorf("unexpected topic %q", got)
	}
}

func TestFormatReadings(t *testing.T) {
	payload, _ := encodeBatch([]vitals.Reading{{Kind: vitals.Pulse, Value: 72, ObservedAt: t0}})
	line, err := formatReadings("vitals/readings/pulse", payload)
	if err != nil {
		t.Fatalf("formatReadings: %v", err)
	}
	if !strings.HasPrefix(line, "[BPM   ]") || !strings.Contains(line, "72.0") || !strings.Contains(line, "08:30:00") {
		t.Errorf("unexpected line %q", line)
	}

	if _, err := formatReadings("vitals/readings/glucose", payload); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestFormatRelayed(t *testing.T) {
	line, err := formatRelayed([]byte(`{"heartRate":72,"timestamp":1767225600}`))
	if err != nil {
		t.Fatalf("formatRelayed: %v", err)
	}
	if line != "[RELAY ] heartRate=72 ts=1767225600\n" {
		t.Errorf("unexpected line %q", line)
	}
	if _, err := formatRelayed([]byte("nope")); err == nil {
		t.Error("expected error for bad payload")
	}
}
