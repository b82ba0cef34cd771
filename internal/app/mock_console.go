// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/relabs-tech/vitals_relay/internal/config"
	"github.com/relabs-tech/vitals_relay/internal/sensors"
	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// RunMockConsole prints mock readings straight to out, without a broker,
// honouring SENSOR_DENIED_KINDS like the watch does.
func RunMockConsole(ctx context.Context, cfg *config.Config, out io.Writer) error {
	src := sensors.NewMockSource(cfg.MockEvery(), cfg.MockBatchSize, cfg.SensorDeniedKinds, log.Default())
	defer src.Close()

	if err := src.Authorize(ctx, cfg.SensorKinds); err != nil {
		log.Printf("console: %v", err)
	}

	var mu sync.Mutex
	for _, kind := range cfg.SensorKinds {
		err := src.Subscribe(ctx, kind, func(batch []vitals.Reading) {
			mu.Lock()
			defer mu.Unlock()
			for _, r := range batch {
				fmt.Fprintf(out, "%-17s %6.1f %s\n", r.Kind, r.Value, r.Kind.Unit())
			}
		})
		if err != nil {
			return err
		}
	}

	<-ctx.Done()
	return nil
}
