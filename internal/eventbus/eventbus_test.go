package eventbus

import (
	"context"
	"testing"
)

type ping struct{ n int }
type pong struct{ n int }

func TestPublishReachesSubscribersOfType(t *testing.T) {
	Use(New())
	defer Use(nil)

	var pings, pongs []int
	unsub := Subscribe(func(_ context.Context, e ping) { pings = append(pings, e.n) })
	defer unsub()
	Subscribe(func(_ context.Context, e pong) { pongs = append(pongs, e.n) })

	Publish(context.Background(), ping{1})
	Publish(context.Background(), ping{2})
	Publish(context.Background(), pong{3})

	if len(pings) != 2 || pings[0] != 1 || pings[1] != 2 {
		t.Fatalf("pings = %v", pings)
	}
	if len(pongs) != 1 || pongs[0] != 3 {
		t.Fatalf("pongs = %v", pongs)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	Use(New())
	defer Use(nil)

	var got int
	unsub := Subscribe(func(_ context.Context, e ping) { got += e.n })
	Publish(context.Background(), ping{1})
	unsub()
	Publish(context.Background(), ping{1})

	if got != 1 {
		t.Fatalf("got %d deliveries worth, want 1", got)
	}
}

func TestPublishWithoutBusIsNoop(t *testing.T) {
	Use(nil)
	Publish(context.Background(), ping{1})
}
