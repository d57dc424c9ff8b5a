package web

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cjeanneret/ballplate/internal/telemetry"
)

func receiveEvent(t *testing.T, ch <-chan []byte) StatusEvent {
	t.Helper()
	select {
	case msg := <-ch:
		var evt StatusEvent
		if err := json.Unmarshal(msg, &evt); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for broadcast")
	}
	return StatusEvent{}
}

func TestBroadcaster_SubscribeAndReceive(t *testing.T) {
	b := NewStatusBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	b.Broadcast("error", "link lost")

	evt := receiveEvent(t, ch)
	if evt.Msg != "link lost" || evt.Level != "error" {
		t.Errorf("event = %+v", evt)
	}
	if evt.Time == "" {
		t.Error("event should have a timestamp")
	}
}

func TestBroadcaster_MultipleSubscribers(t *testing.T) {
	b := NewStatusBroadcaster()
	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.BroadcastMsg("homing complete")

	for i, ch := range []<-chan []byte{ch1, ch2} {
		if evt := receiveEvent(t, ch); evt.Msg != "homing complete" || evt.Level != "info" {
			t.Errorf("subscriber %d: event = %+v", i, evt)
		}
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewStatusBroadcaster()
	ch, unsub := b.Subscribe()
	unsub()
	unsub() // second call is a no-op

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
	if b.Subscribers() != 0 {
		t.Errorf("subscribers = %d after unsubscribe", b.Subscribers())
	}
	b.Broadcast("info", "after unsub")
}

func TestBroadcaster_FullChannelDropsMessage(t *testing.T) {
	b := NewStatusBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < subscriberBuffer; i++ {
		b.Broadcast("info", "fill")
	}
	b.Broadcast("info", "overflow") // must not block

	count := 0
	for {
		select {
		case <-ch:
			count++
			continue
		default:
		}
		break
	}
	if count != subscriberBuffer {
		t.Errorf("expected %d buffered messages, got %d", subscriberBuffer, count)
	}
}

func TestBroadcastWriter(t *testing.T) {
	b := NewStatusBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	w := BroadcastWriter(b)
	in := "[ballplate] 12:00:00 Homing complete  \n"
	n, err := w.Write([]byte(in))
	if err != nil || n != len(in) {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if evt := receiveEvent(t, ch); evt.Msg != "[ballplate] 12:00:00 Homing complete" {
		t.Errorf("msg = %q", evt.Msg)
	}

	w.Write([]byte("   \n"))
	select {
	case <-ch:
		t.Error("expected no message for whitespace-only write")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTelemetryHub_OnCycle(t *testing.T) {
	h := NewTelemetryHub()
	h.OnCycle(telemetry.Sample{Cycle: 1}) // no subscribers: dropped

	ch, unsub := h.Subscribe()
	defer unsub()
	h.OnCycle(telemetry.Sample{Cycle: 2, Mode: "vision", BallX: 1.5, Angles: []float64{0.1, 0.2, 0.3}})

	select {
	case msg := <-ch:
		var s telemetry.Sample
		if err := json.Unmarshal(msg, &s); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if s.Cycle != 2 || s.BallX != 1.5 || len(s.Angles) != 3 {
			t.Errorf("sample = %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
	select {
	case msg := <-ch:
		t.Errorf("unexpected extra message %s", msg)
	default:
	}
}
