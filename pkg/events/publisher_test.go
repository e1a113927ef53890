package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	p := NewPublisher()

	first := make(chan Event, 1)
	second := make(chan Event, 1)
	p.Subscribe(EventGameEnded, func(e Event) { first <- e })
	p.Subscribe(EventGameEnded, func(e Event) { second <- e })

	p.Publish(Event{Type: EventGameEnded, GameID: "g1"})

	for _, ch := range []chan Event{first, second} {
		select {
		case e := <-ch:
			assert.Equal(t, "g1", e.GameID)
		case <-time.After(time.Second):
			t.Fatal("handler was not invoked")
		}
	}
}

func TestPublishIgnoresOtherEventTypes(t *testing.T) {
	p := NewPublisher()

	called := make(chan Event, 1)
	p.Subscribe(EventGameStarted, func(e Event) { called <- e })

	p.Publish(Event{Type: EventGameEnded, GameID: "g1"})

	select {
	case <-called:
		t.Fatal("handler invoked for an unsubscribed event type")
	case <-time.After(50 * time.Millisecond):
	}
}
