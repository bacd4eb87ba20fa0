package scaler

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func snapshotAt(elapsed float64, counts float64) *Reading {
	return &Reading{
		Time:    time.Now(),
		Elapsed: elapsed,
		Channels: []ChannelReading{
			{Attr: "chan01", Name: "time", Counts: 1e7 * elapsed},
			{Attr: "chan03", Name: "mon", Counts: counts},
		},
	}
}

func TestMonitorRateStats(t *testing.T) {
	mon := &Monitor{history: make(map[string][]float64)}

	// First snapshot: no deltas yet, so no rates.
	update := mon.makeUpdate(snapshotAt(1.0, 1000))
	if len(update.Rates) != 0 {
		t.Errorf("first update has %d rate entries, want 0", len(update.Rates))
	}

	// 1000 counts over 1 s, then 3000 over the next 1 s.
	update = mon.makeUpdate(snapshotAt(2.0, 2000))
	rs, ok := update.Rates["chan03"]
	if !ok {
		t.Fatal("second update lacks a chan03 rate")
	}
	if rs.Mean != 1000 || rs.N != 1 || rs.Std != 0 {
		t.Errorf("chan03 rate after one delta = %+v, want {Mean:1000 Std:0 N:1}", rs)
	}

	update = mon.makeUpdate(snapshotAt(3.0, 5000))
	rs = update.Rates["chan03"]
	if rs.Mean != 2000 || rs.N != 2 {
		t.Errorf("chan03 rate = %+v, want mean 2000 of 2 samples", rs)
	}
	if math.Abs(rs.Std-math.Sqrt2*1000) > 1e-9 {
		t.Errorf("chan03 rate std = %v, want %v", rs.Std, math.Sqrt2*1000)
	}
}

func TestMonitorRateStatsNewRun(t *testing.T) {
	mon := &Monitor{history: make(map[string][]float64)}
	mon.makeUpdate(snapshotAt(1.0, 1000))
	mon.makeUpdate(snapshotAt(2.0, 2000))

	// A restart drops counts back toward zero; that transition must not
	// produce a bogus negative rate sample.
	update := mon.makeUpdate(snapshotAt(0.5, 250))
	if rs := update.Rates["chan03"]; rs.N != 1 {
		t.Errorf("after a run restart the history has %d samples, want the 1 valid one", rs.N)
	}
}

func TestMonitorRateWindow(t *testing.T) {
	mon := &Monitor{history: make(map[string][]float64)}
	for i := 0; i <= rateWindow+5; i++ {
		mon.makeUpdate(snapshotAt(float64(i+1), float64(i+1)*1000))
	}
	if n := len(mon.history["chan03"]); n != rateWindow {
		t.Errorf("history holds %d samples, want it capped at %d", n, rateWindow)
	}
}

func TestReadingUpdateJSON(t *testing.T) {
	mon := &Monitor{history: make(map[string][]float64)}
	mon.makeUpdate(snapshotAt(1.0, 1000))
	update := mon.makeUpdate(snapshotAt(2.0, 2000))

	body, err := json.Marshal(update)
	if err != nil {
		t.Fatalf("update does not marshal: %v", err)
	}
	var decoded ReadingUpdate
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("update does not round-trip: %v", err)
	}
	if decoded.Elapsed != 2.0 || len(decoded.Channels) != 2 {
		t.Errorf("round-tripped update = %+v", decoded)
	}
	if decoded.Rates["chan03"].Mean != 1000 {
		t.Errorf("round-tripped rate mean = %v, want 1000", decoded.Rates["chan03"].Mean)
	}
}
