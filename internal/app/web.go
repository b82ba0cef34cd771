// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/vitals_relay/internal/relay"
	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // watch page may be served from another host during development
	},
}

// Monitor is the read side of the relay the display surface needs.
type Monitor interface {
	Kind() vitals.Kind
	Latest() *relay.Latest
	Stats() relay.Stats
}

// VitalsView is the JSON shape served on /api/vitals and pushed on /ws.
type VitalsView struct {
	Kind        vitals.Kind                    `json:"kind"`
	Label       string                         `json:"label"`
	Value       float64                        `json:"value"`
	HaveReading bool                           `json:"have_reading"`
	ObservedAt  *time.Time                     `json:"observed_at,omitempty"`
	Readings    map[vitals.Kind]vitals.Reading `json:"readings"`
}

func viewOf(m Monitor) VitalsView {
	kind := m.Kind()
	v := VitalsView{
		Kind:     kind,
		Label:    kind.Label(),
		Readings: m.Latest().Snapshot(),
	}
	if r, ok := v.Readings[kind]; ok {
		v.Value = r.Value
		v.HaveReading = true
		at := r.ObservedAt
		v.ObservedAt = &at
	}
	return v
}

// NewWebHandler serves the display surface for m. Static files come from
// staticDir; websocket clients get a fresh view every pushEvery.
func NewWebHandler(m Monitor, pushEvery time.Duration, staticDir string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/vitals", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, viewOf(m))
	})

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, m.Stats())
	})

	mux.HandleFunc("/display.png", func(w http.ResponseWriter, r *http.Request) {
		v := viewOf(m)
		var buf bytes.Buffer
		if err := png.Encode(&buf, RenderBadge(v.Kind, v.Value, v.HaveReading)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(w, r, m, pushEvery)
	})

	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// serveWS pushes the current view until the client goes away.
func serveWS(w http.ResponseWriter, r *http.Request, m Monitor, every time.Duration) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		if err := conn.WriteJSON(viewOf(m)); err != nil {
			log.Printf("web: websocket write error: %v", err)
			return
		}
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// RunWeb serves h on port until ctx is cancelled.
func RunWeb(ctx context.Context, port int, h http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("web: server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
