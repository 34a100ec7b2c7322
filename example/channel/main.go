package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/NkanyeziNgobese/ares-1"
)

func main() {
	flow, err := ares.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, frames, closeFrames := ares.NewChannelSink("dashboard", 32)
	defer closeFrames()

	go dashboard(frames)

	if err := flow.To(ares.ToSink(sink)).Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func dashboard(frames <-chan ares.Frame) {
	for f := range frames {
		if !f.Applied {
			continue
		}
		fmt.Printf("tick=%d state=%s link=%s severity=%s", f.Tick, f.Mission, f.Freshness, f.MaxSeverity)
		for _, r := range f.Readings() {
			fmt.Printf(" %s=%.1f", r.Channel, r.Smoothed)
		}
		fmt.Println()
	}
}
