package scaler

// Contains the Monitor object, which publishes JSON-encoded reading
// snapshots so clients can follow the live scaler state.

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	zmq "github.com/pebbe/zmq4"
	"gonum.org/v1/gonum/stat"
)

// rateWindow is how many recent readings feed the per-channel rate
// statistics.
const rateWindow = 20

// RateStats summarizes recent count rates of one channel in counts per
// second of elapsed counting time.
type RateStats struct {
	Mean float64
	Std  float64
	N    int
}

// ReadingUpdate is the published message: a snapshot plus per-channel rate
// statistics keyed by sub-device identifier.
type ReadingUpdate struct {
	Reading
	Rates map[string]RateStats
}

// ReadingSink consumes published reading updates, e.g. a telemetry bridge.
type ReadingSink interface {
	Publish(*ReadingUpdate) error
}

// Monitor periodically snapshots the scaler and publishes the result on a
// ZMQ PUB socket, frame 1 the topic "reading" and frame 2 the JSON body.
// The read function is supplied by the owner so it can serialize access to
// the device against other users (the device models hold no locks).
type Monitor struct {
	read    func() (*Reading, error)
	period  time.Duration
	pub     *zmq.Socket
	sinks   []ReadingSink
	log     *log.Logger
	abort   chan struct{}
	prev    *Reading
	history map[string][]float64
}

// NewMonitor binds the PUB socket on the given port. A period of zero means
// one reading per second.
func NewMonitor(read func() (*Reading, error), port int, period time.Duration, logger *log.Logger) (*Monitor, error) {
	if period <= 0 {
		period = time.Second
	}
	if logger == nil {
		logger = ProblemLogger
	}
	pub, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return nil, err
	}
	if err := pub.Bind(fmt.Sprintf("tcp://*:%d", port)); err != nil {
		pub.Close()
		return nil, err
	}
	return &Monitor{
		read:    read,
		period:  period,
		pub:     pub,
		log:     logger,
		abort:   make(chan struct{}),
		history: make(map[string][]float64),
	}, nil
}

// AddSink registers an additional consumer of published updates. Call
// before Run.
func (mon *Monitor) AddSink(sink ReadingSink) {
	mon.sinks = append(mon.sinks, sink)
}

// Run publishes one update per period until Stop is called. Failed reads
// are logged and skipped; the loop keeps going.
func (mon *Monitor) Run() {
	ticker := time.NewTicker(mon.period)
	defer ticker.Stop()
	defer mon.pub.Close()
	for {
		select {
		case <-mon.abort:
			return
		case <-ticker.C:
			r, err := mon.read()
			if err != nil {
				mon.log.Printf("monitor read failed: %v", err)
				continue
			}
			update := mon.makeUpdate(r)
			if err := mon.publish(update); err != nil {
				mon.log.Printf("monitor publish failed: %v", err)
			}
			for _, sink := range mon.sinks {
				if err := sink.Publish(update); err != nil {
					mon.log.Printf("monitor sink failed: %v", err)
				}
			}
		}
	}
}

// Stop ends the Run loop.
func (mon *Monitor) Stop() {
	close(mon.abort)
}

// makeUpdate folds a snapshot into the rate history and attaches the
// statistics. Rates come from count deltas between consecutive snapshots; a
// negative delta means a new run started, which resets nothing but yields
// no sample.
func (mon *Monitor) makeUpdate(r *Reading) *ReadingUpdate {
	update := &ReadingUpdate{Reading: *r, Rates: make(map[string]RateStats)}
	if mon.prev != nil {
		dt := r.Elapsed - mon.prev.Elapsed
		prevCounts := make(map[string]float64, len(mon.prev.Channels))
		for _, ch := range mon.prev.Channels {
			prevCounts[ch.Attr] = ch.Counts
		}
		for _, ch := range r.Channels {
			prev, ok := prevCounts[ch.Attr]
			if !ok || dt <= 0 || ch.Counts < prev {
				continue
			}
			h := append(mon.history[ch.Attr], (ch.Counts-prev)/dt)
			if len(h) > rateWindow {
				h = h[len(h)-rateWindow:]
			}
			mon.history[ch.Attr] = h
		}
	}
	mon.prev = r
	for _, ch := range r.Channels {
		if h := mon.history[ch.Attr]; len(h) > 0 {
			rs := RateStats{Mean: stat.Mean(h, nil), N: len(h)}
			if len(h) > 1 {
				// a single sample has no spread, and NaN would
				// poison the JSON encoding
				rs.Std = stat.StdDev(h, nil)
			}
			update.Rates[ch.Attr] = rs
		}
	}
	return update
}

func (mon *Monitor) publish(update *ReadingUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}
	if _, err := mon.pub.Send("reading", zmq.SNDMORE); err != nil {
		return err
	}
	_, err = mon.pub.SendBytes(body, 0)
	return err
}
