// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/vitals_relay/internal/app"
	"github.com/relabs-tech/vitals_relay/internal/config"
)

func main() {
	configPath := flag.String("config", "vitals_config.txt", "path to the KEY=VALUE config file")
	webDir := flag.String("web", "web", "directory with the static watch page")
	flag.Parse()

	log.Println("starting vitals-relay watch")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunWatch(ctx, config.Get(), *webDir); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.Println("watch: shutting down")
}
