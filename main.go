package main

import (
	"context"
	"time"

	"relaycode-go/bus"
	"relaycode-go/services/config"
	"relaycode-go/services/heartbeat"
	"relaycode-go/services/logging"
)

const deviceID = "relay"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	opts := logging.DefaultOptions()
	opts.HTTPAddr = ":8080"
	eng := logging.Init(opts)
	eng.Info(logging.FeatureMain, "boot")

	ctx := config.WithDevice(context.Background(), deviceID)
	b := bus.NewBus(8)

	go logging.Run(ctx, b.NewConnection("logging"), eng)

	hb := &heartbeat.Service{Log: eng}
	if err := hb.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		eng.Error(logging.FeatureMain, "heartbeat: %v", err)
	}

	config.NewConfigService(eng).Start(ctx, b.NewConnection("config"))

	select {}
}
