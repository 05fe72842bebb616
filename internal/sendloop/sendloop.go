// Package sendloop paces and transmits the probe plan for one run,
// optionally in a seeded-random order, and aborts after too many
// consecutive send failures (spec §4.3).
package sendloop

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/poros-project/netreco/internal/reconerr"
)

// maxConsecutiveErrors is the hard abort threshold for repeated send
// failures (spec §4.3: "N=32 consecutive-error abort threshold").
const maxConsecutiveErrors = 32

// Probe is one unit of work the loop transmits: a pre-built frame and an
// optional callback run once it is sent. Builders live in internal/wire; sendloop only
// paces and sequences them.
type Probe struct {
	Frame []byte
	// OnSent, if set, is invoked with the actual transmit instant right
	// after a successful Send — the correlator registers its outstanding
	// key from this callback rather than from build time, since build and
	// transmit can be separated by pacing and (optional) shuffling.
	OnSent func(sentAt time.Time)
}

// Sender transmits one raw frame on the bound interface.
type Sender interface {
	Send(frame []byte) error
}

// Config controls pacing and ordering.
type Config struct {
	SendRate  time.Duration
	Randomize bool
	Seed      int64
}

// Stats summarizes one run of the send loop.
type Stats struct {
	Sent   int
	Failed int
}

// Run transmits every probe in order (or, if cfg.Randomize, in an order
// derived from cfg.Seed) paced by cfg.SendRate, waiting for ready before
// the first send (spec §5). It returns once all probes are sent, ctx is
// cancelled, or the consecutive-error threshold is reached.
func Run(ctx context.Context, sender Sender, probes []Probe, cfg Config, ready <-chan struct{}, log *logrus.Entry) (Stats, error) {
	select {
	case <-ready:
	case <-ctx.Done():
		return Stats{}, nil
	}

	order := sequentialOrder(len(probes))
	if cfg.Randomize {
		order = shuffledOrder(len(probes), cfg.Seed)
	}

	var stats Stats
	var consecutiveErrors int
	var ticker *time.Ticker
	if cfg.SendRate > 0 {
		ticker = time.NewTicker(cfg.SendRate)
		defer ticker.Stop()
	}

	for _, idx := range order {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return stats, nil
			case <-ticker.C:
			}
		} else {
			select {
			case <-ctx.Done():
				return stats, nil
			default:
			}
		}

		sentAt := time.Now()
		if err := sender.Send(probes[idx].Frame); err != nil {
			stats.Failed++
			consecutiveErrors++
			log.WithError(err).WithField("index", idx).Warn("sendloop: send failed")
			if consecutiveErrors >= maxConsecutiveErrors {
				return stats, reconerr.Send("sendloop.run", err)
			}
			continue
		}
		consecutiveErrors = 0
		stats.Sent++
		if cb := probes[idx].OnSent; cb != nil {
			cb(sentAt)
		}
	}
	return stats, nil
}

func sequentialOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// shuffledOrder returns a Fisher-Yates permutation of [0,n) deterministic
// for a given seed, so a run can be replayed exactly (spec §9, "Supplemented
// features": randomized send order with recorded seed).
func shuffledOrder(n int, seed int64) []int {
	order := sequentialOrder(n)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}
