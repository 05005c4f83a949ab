package events

import (
	"testing"
	"time"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()

	got1 := make(chan ItemScored, 1)
	got2 := make(chan ItemScored, 1)
	bus.Subscribe(func(ev ItemScored) { got1 <- ev })
	bus.Subscribe(func(ev ItemScored) { got2 <- ev })

	ev := ItemScored{NewsID: 7, Title: "High scoring story", FinalScore: 88, Priority: "high"}
	bus.Publish(ev)

	for i, ch := range []chan ItemScored{got1, got2} {
		select {
		case received := <-ch:
			if received.NewsID != 7 || received.FinalScore != 88 {
				t.Errorf("subscriber %d got %+v", i, received)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %d never received the event", i)
		}
	}
}

func TestBusSurvivesPanickingSubscriber(t *testing.T) {
	bus := NewBus()

	bus.Subscribe(func(ev ItemScored) { panic("bad subscriber") })
	got := make(chan ItemScored, 1)
	bus.Subscribe(func(ev ItemScored) { got <- ev })

	bus.Publish(ItemScored{NewsID: 1, Title: "Still delivered"})

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy subscriber starved by panicking one")
	}
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	// 没有订阅方时发布不应阻塞或崩溃
	bus := NewBus()
	bus.Publish(ItemScored{NewsID: 1})
}
