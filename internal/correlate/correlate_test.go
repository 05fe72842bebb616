package correlate

import (
	"testing"
	"time"
)

func TestRTTZeroFloorsOnClockSkew(t *testing.T) {
	sentAt := time.Now()
	recvAt := sentAt.Add(-5 * time.Millisecond)
	if got := rtt(sentAt, recvAt); got != 0 {
		t.Fatalf("want 0 for a response observed before send, got %v", got)
	}
}

func TestRTTComputesForwardDelta(t *testing.T) {
	sentAt := time.Now()
	recvAt := sentAt.Add(12 * time.Millisecond)
	if got := rtt(sentAt, recvAt); got != 12*time.Millisecond {
		t.Fatalf("want 12ms, got %v", got)
	}
}

func TestTakeRemovesOutstandingEntry(t *testing.T) {
	c := New()
	key := Key{Identifier: 1, Seq: 1}
	sentAt := time.Now()
	c.Register(key, sentAt)

	got, ok := c.take(key)
	if !ok || !got.Equal(sentAt) {
		t.Fatalf("want %v true, got %v %v", sentAt, got, ok)
	}
	if _, ok := c.take(key); ok {
		t.Fatal("expected second take to miss after the entry was consumed")
	}
}
