package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fizzball/controller/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"uart_tx", snap.UARTTx,
					"uart_rx", snap.UARTRx,
					"malformed", snap.Malformed,
					"errors", snap.Errors,
					"dispenses", snap.Dispenses,
					"rejects", snap.Rejects,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
