package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/NkanyeziNgobese/ares-1"
)

// Drives the engine directly from an in-process simulator, without a broker.
func main() {
	pub, err := ares.NewExternalPublisher(&ares.ExternalPublisherConfig{}, func(f ares.Frame) error {
		for _, ev := range f.Events {
			fmt.Printf("tick=%d %s %s -> %s\n", ev.Tick, ev.Type, ev.From, ev.To)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("publisher: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = pub.Close(ctx)
	}()

	depth := -3.0
	for i := 0; i < 300; i++ {
		depth -= 0.5
		s := ares.NewSample(depth, 12+rand.Float64(), 18, 120, 20+rand.Float64()*5, 850, 840)
		if err := pub.Publish(s); err != nil {
			log.Fatalf("publish: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
