package connectscan

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/poros-project/netreco/internal/model"
)

type fakeDialer struct {
	responses map[string]error
}

func (f *fakeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if err, ok := f.responses[address]; ok {
		if err != nil {
			return nil, err
		}
		c1, c2 := net.Pipe()
		c2.Close()
		return c1, nil
	}
	return nil, errors.New("unconfigured address")
}

func TestRunClassifiesOpenAndClosed(t *testing.T) {
	dialer := &fakeDialer{responses: map[string]error{
		"127.0.0.1:18080": nil,
		"127.0.0.1:18081": &net.OpError{Op: "dial", Err: errors.New("connection refused")},
	}}
	targets := []Target{
		{Host: "127.0.0.1", Port: model.Port{Number: 18080, Transport: model.TransportTCP}},
		{Host: "127.0.0.1", Port: model.Port{Number: 18081, Transport: model.TransportTCP}},
	}

	got := map[int]model.PortState{}
	for outcome := range Run(context.Background(), dialer, targets, 2, time.Second) {
		got[outcome.Target.Port.Number] = outcome.State
	}

	if got[18080] != model.StateOpen {
		t.Fatalf("want 18080 Open, got %v", got[18080])
	}
	if got[18081] != model.StateClosed {
		t.Fatalf("want 18081 Closed, got %v", got[18081])
	}
}

func TestClassifyDialErrorTimeout(t *testing.T) {
	err := &timeoutError{}
	if classifyDialError(err) != dialTimeout {
		t.Fatal("expected a net.Error with Timeout()==true to classify as dialTimeout")
	}
}

type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
