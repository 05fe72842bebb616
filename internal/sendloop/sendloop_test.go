package sendloop

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakeSender struct {
	sent    [][]byte
	failAt  map[int]bool
	calls   int
}

func (f *fakeSender) Send(frame []byte) error {
	idx := f.calls
	f.calls++
	if f.failAt[idx] {
		return errors.New("send failed")
	}
	f.sent = append(f.sent, frame)
	return nil
}

func closedReady() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func TestRunSendsAllProbesInOrder(t *testing.T) {
	probes := []Probe{{Frame: []byte{1}}, {Frame: []byte{2}}, {Frame: []byte{3}}}
	sender := &fakeSender{}
	log := logrus.NewEntry(logrus.New())

	stats, err := Run(context.Background(), sender, probes, Config{}, closedReady(), log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Sent != 3 || stats.Failed != 0 {
		t.Fatalf("want sent=3 failed=0, got %+v", stats)
	}
	if len(sender.sent) != 3 || sender.sent[0][0] != 1 || sender.sent[2][0] != 3 {
		t.Fatalf("unexpected send order: %v", sender.sent)
	}
}

func TestRunRandomizeIsDeterministicForSeed(t *testing.T) {
	probes := make([]Probe, 10)
	for i := range probes {
		probes[i] = Probe{Frame: []byte{byte(i)}}
	}
	cfg := Config{Randomize: true, Seed: 42}

	s1 := &fakeSender{}
	if _, err := Run(context.Background(), s1, probes, cfg, closedReady(), logrus.NewEntry(logrus.New())); err != nil {
		t.Fatalf("Run 1: %v", err)
	}
	s2 := &fakeSender{}
	if _, err := Run(context.Background(), s2, probes, cfg, closedReady(), logrus.NewEntry(logrus.New())); err != nil {
		t.Fatalf("Run 2: %v", err)
	}
	if len(s1.sent) != len(s2.sent) {
		t.Fatalf("length mismatch")
	}
	for i := range s1.sent {
		if s1.sent[i][0] != s2.sent[i][0] {
			t.Fatalf("same seed produced different order at %d: %v vs %v", i, s1.sent[i], s2.sent[i])
		}
	}
}

func TestRunAbortsAfterConsecutiveErrorThreshold(t *testing.T) {
	probes := make([]Probe, maxConsecutiveErrors+10)
	for i := range probes {
		probes[i] = Probe{Frame: []byte{byte(i)}}
	}
	failAt := make(map[int]bool)
	for i := 0; i < maxConsecutiveErrors; i++ {
		failAt[i] = true
	}
	sender := &fakeSender{failAt: failAt}

	stats, err := Run(context.Background(), sender, probes, Config{}, closedReady(), logrus.NewEntry(logrus.New()))
	if err == nil {
		t.Fatal("expected an abort error")
	}
	if stats.Failed != maxConsecutiveErrors {
		t.Fatalf("want %d failures, got %d", maxConsecutiveErrors, stats.Failed)
	}
}

func TestRunWaitsForReady(t *testing.T) {
	ready := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := &fakeSender{}
	stats, err := Run(ctx, sender, []Probe{{Frame: []byte{1}}}, Config{}, ready, logrus.NewEntry(logrus.New()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Sent != 0 {
		t.Fatalf("expected no sends when ctx is already cancelled before ready, got %+v", stats)
	}
}
