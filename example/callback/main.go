package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/NkanyeziNgobese/ares-1/pkg/ares"
)

func main() {
	flow, err := ares.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callback := func(f ares.Frame) error {
		for _, ev := range f.Events {
			fmt.Printf("%s tick=%d %s %s %s -> %s depth=%.2f\n",
				ev.At.Format(time.RFC3339Nano),
				ev.Tick,
				ev.Type,
				ev.Channel,
				ev.From,
				ev.To,
				ev.Depth,
			)
		}
		return nil
	}

	if err := flow.To(ares.ToCallback("stdout", callback)).Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
