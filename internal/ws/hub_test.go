package ws

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
)

func testHub() *Hub {
	return NewHub(log.NewWithOptions(io.Discard, log.Options{}))
}

func TestHubAddRemove(t *testing.T) {
	hub := testHub()
	a := NewClient(nil)
	b := NewClient(nil)

	hub.Add(a)
	hub.Add(b)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("ClientCount = %d, want 2", got)
	}
	if a.ID() == b.ID() {
		t.Fatalf("client ids must be unique")
	}

	hub.Remove(a)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("ClientCount after remove = %d, want 1", got)
	}

	// Removing twice is a no-op.
	hub.Remove(a)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("ClientCount after double remove = %d, want 1", got)
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := testHub()
	a := NewClient(nil)
	b := NewClient(nil)
	hub.Add(a)
	hub.Add(b)

	hub.Broadcast(Event{Event: "chart_update", Message: "new entries"})

	for _, client := range []*Client{a, b} {
		select {
		case event := <-client.send:
			if event.Event != "chart_update" {
				t.Fatalf("event = %q, want chart_update", event.Event)
			}
		default:
			t.Fatalf("client %d received nothing", client.ID())
		}
	}
}

func TestHubBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := testHub()
	client := NewClient(nil)
	hub.Add(client)

	// Fill the buffer; the extra broadcast must not block.
	for i := 0; i < sendBufferSize+10; i++ {
		hub.Broadcast(Event{Event: "echo"})
	}
	if got := len(client.send); got != sendBufferSize {
		t.Fatalf("buffered = %d, want exactly %d with the rest dropped", got, sendBufferSize)
	}
}

func TestHubRemoveUnregisteredClientIsSilent(t *testing.T) {
	var buf bytes.Buffer
	hub := NewHub(log.NewWithOptions(&buf, log.Options{}))

	hub.Remove(NewClient(nil))
	if strings.Contains(buf.String(), "disconnected") {
		t.Fatalf("unregistered remove logged a disconnect: %q", buf.String())
	}

	client := NewClient(nil)
	hub.Add(client)
	buf.Reset()
	hub.Remove(client)
	if !strings.Contains(buf.String(), "disconnected") {
		t.Fatalf("registered remove did not log a disconnect: %q", buf.String())
	}
}

func TestHubSendAfterRemoveDoesNotPanic(t *testing.T) {
	hub := testHub()
	client := NewClient(nil)
	hub.Add(client)
	hub.Remove(client)

	// The send channel is closed now; Send must swallow the race.
	client.Send(Event{Event: "echo"})
}

func TestHubConcurrentUse(t *testing.T) {
	hub := testHub()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := NewClient(nil)
			hub.Add(client)
			hub.Broadcast(Event{Event: "echo"})
			hub.Remove(client)
		}()
	}
	wg.Wait()
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("ClientCount = %d, want 0 after all clients removed", got)
	}
}

func TestHubClose(t *testing.T) {
	hub := testHub()
	hub.Add(NewClient(nil))
	hub.Add(NewClient(nil))
	hub.Close()
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("ClientCount after Close = %d, want 0", got)
	}
}
