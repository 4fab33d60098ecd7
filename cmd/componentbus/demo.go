package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/componentbus/bridge"
	"github.com/c360/componentbus/component"
	"github.com/c360/componentbus/message"
	"github.com/c360/componentbus/pkg/timestamp"
)

// demoComponentIDs names the components the daemon runs so the bus has
// live traffic out of the box.
var demoComponentIDs = []string{"sphere-left", "sphere-right"}

const connectTimeout = 5 * time.Second

// runDemo starts two sphere components, connects them, and keeps sensor
// readings flowing between them until ctx is cancelled.
func runDemo(ctx context.Context, b *bridge.Bridge, logger *slog.Logger, interval time.Duration) error {
	left, err := component.NewInterface("sphere-left", message.ComponentSphere, b, logger)
	if err != nil {
		return fmt.Errorf("create sphere-left: %w", err)
	}
	right, err := component.NewInterface("sphere-right", message.ComponentSphere, b, logger)
	if err != nil {
		return fmt.Errorf("create sphere-right: %w", err)
	}

	for _, ci := range []*component.Interface{left, right} {
		if err := ci.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", ci.ID(), err)
		}
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		for _, ci := range []*component.Interface{left, right} {
			if err := ci.Stop(stopCtx); err != nil {
				logger.Error("component stop failed", "component", ci.ID(), "error", err)
			}
		}
	}()

	right.RegisterSensorCallback(func(_ context.Context, sourceID string, data *message.SensorData) {
		logger.Info("sensor reading received",
			"component", "sphere-right",
			"source", sourceID,
			"sensor", data.SensorID,
			"values", data.Values)
	})
	if err := right.WatchSensor(ctx, "sphere-left"); err != nil {
		return fmt.Errorf("watch sphere-left sensors: %w", err)
	}

	if !left.ConnectToComponent(ctx, "sphere-right", connectTimeout) {
		return fmt.Errorf("sphere-left could not connect to sphere-right")
	}
	logger.Info("demo components connected", "components", demoComponentIDs)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return emitSensorReadings(gctx, left, interval)
	})
	g.Go(func() error {
		return emitStateHeartbeat(gctx, right, interval)
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return err
	}
	return nil
}

// emitSensorReadings publishes a proximity reading every interval.
func emitSensorReadings(ctx context.Context, ci *component.Interface, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	seq := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			seq++
			ci.SendSensorData(ctx, &message.SensorData{
				SensorID:   ci.ID() + "-proximity",
				SensorType: message.SensorProximity,
				Values:     map[string]any{"distance_mm": 40 + seq%20},
				Timestamp:  timestamp.Now(),
				Confidence: 0.98,
				Units:      map[string]string{"distance_mm": "mm"},
			})
		}
	}
}

// emitStateHeartbeat republishes the component state every interval so
// observers always see a fresh snapshot.
func emitStateHeartbeat(ctx context.Context, ci *component.Interface, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			ci.PublishState(ctx)
		}
	}
}
