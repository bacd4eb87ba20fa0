package scaler

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SimulatedScaler is an in-memory ChannelAccess implementation that behaves
// like a SynApps scaler record, for tests and hardware-free operation.
// Counting starts when 1 is written to .CNT and stops when the preset time
// elapses or 0 is written; channel 1 counts the reference clock at .FREQ,
// the others accumulate at their configured simulated rates.
//
// The device models themselves are synchronous and lock-free; any
// concurrency lands here, so the simulator serializes access with a mutex
// the way a real channel-access client would.
type SimulatedScaler struct {
	prefix string

	mu       sync.Mutex
	now      func() time.Time
	fields   map[string]any
	names    [NumChannels + 1]string
	presets  [NumChannels + 1]float64
	gates    [NumChannels + 1]float64
	rates    [NumChannels + 1]float64
	counting bool
	started  time.Time
	elapsed  float64
}

// NewSimulatedScaler creates a simulated record answering for the given
// prefix, with a 10 MHz reference clock and a 1 second preset.
func NewSimulatedScaler(prefix string) *SimulatedScaler {
	return &SimulatedScaler{
		prefix: prefix,
		now:    time.Now,
		fields: map[string]any{
			".CONT": 1, // autocount, as records power up in practice
			".DLY":  0.0,
			".DLY1": 0.0,
			".FREQ": 1e7,
			".TP":   1.0,
			".TP1":  0.1,
			".RATE": 10.0,
			".RAT1": 1.0,
			".EGU":  "",
		},
	}
}

// SetChannelName presets a channel label, as an operator would through the
// record's .NM fields.
func (ss *SimulatedScaler) SetChannelName(num int, name string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.names[num] = name
}

// SetChannelRate sets the simulated count rate of a channel in counts per
// second of elapsed time.
func (ss *SimulatedScaler) SetChannelRate(num int, cps float64) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.rates[num] = cps
}

// Get implements ChannelAccess.
func (ss *SimulatedScaler) Get(pv string) (any, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	suffix, err := ss.suffix(pv)
	if err != nil {
		return nil, err
	}
	switch {
	case suffix == ".T":
		return ss.elapsedNow(), nil
	case suffix == ".CNT":
		ss.elapsedNow() // settle a preset-expired run before reporting
		if ss.counting {
			return 1, nil
		}
		return 0, nil
	}
	if num, ok := chanSuffix(suffix, ".S"); ok {
		return ss.counts(num), nil
	}
	if num, ok := chanSuffix(suffix, ".NM"); ok {
		return ss.names[num], nil
	}
	if num, ok := chanSuffix(suffix, ".PR"); ok {
		return ss.presets[num], nil
	}
	if num, ok := chanSuffix(suffix, ".G"); ok {
		return ss.gates[num], nil
	}
	if v, ok := ss.fields[suffix]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("simulated scaler %s: no such field %q", ss.prefix, suffix)
}

// Put implements ChannelAccess.
func (ss *SimulatedScaler) Put(pv string, value any) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	suffix, err := ss.suffix(pv)
	if err != nil {
		return err
	}
	switch suffix {
	case ".CNT":
		f, err := asFloat64(value)
		if err != nil {
			return err
		}
		if f != 0 {
			ss.counting = true
			ss.started = ss.now()
			ss.elapsed = 0
		} else if ss.counting {
			ss.elapsed = ss.elapsedNow()
			ss.counting = false
		}
		return nil
	case ".T":
		return fmt.Errorf("simulated scaler %s: field %q is read-only", ss.prefix, suffix)
	}
	if _, ok := chanSuffix(suffix, ".S"); ok {
		return fmt.Errorf("simulated scaler %s: field %q is read-only", ss.prefix, suffix)
	}
	if num, ok := chanSuffix(suffix, ".NM"); ok {
		ss.names[num] = asString(value)
		return nil
	}
	if num, ok := chanSuffix(suffix, ".PR"); ok {
		f, err := asFloat64(value)
		if err != nil {
			return err
		}
		ss.presets[num] = f
		return nil
	}
	if num, ok := chanSuffix(suffix, ".G"); ok {
		f, err := asFloat64(value)
		if err != nil {
			return err
		}
		ss.gates[num] = f
		return nil
	}
	if _, ok := ss.fields[suffix]; ok {
		ss.fields[suffix] = value
		return nil
	}
	return fmt.Errorf("simulated scaler %s: no such field %q", ss.prefix, suffix)
}

func (ss *SimulatedScaler) suffix(pv string) (string, error) {
	s, ok := strings.CutPrefix(pv, ss.prefix)
	if !ok || !strings.HasPrefix(s, ".") {
		return "", fmt.Errorf("simulated scaler %s: unknown process variable %q", ss.prefix, pv)
	}
	return s, nil
}

// elapsedNow returns seconds of counting so far, freezing the run when the
// preset time is reached. Callers hold the mutex.
func (ss *SimulatedScaler) elapsedNow() float64 {
	if !ss.counting {
		return ss.elapsed
	}
	e := ss.now().Sub(ss.started).Seconds()
	tp, _ := asFloat64(ss.fields[".TP"])
	if tp > 0 && e >= tp {
		ss.counting = false
		ss.elapsed = tp
		return tp
	}
	return e
}

// counts returns the accumulated counts of one channel. Channel 1 counts
// the reference clock.
func (ss *SimulatedScaler) counts(num int) float64 {
	e := ss.elapsedNow()
	if num == 1 {
		freq, _ := asFloat64(ss.fields[".FREQ"])
		return freq * e
	}
	return ss.rates[num] * e
}

// chanSuffix matches suffixes of the form base+index with index in 1..32,
// e.g. ".S7" against base ".S". The index is never zero-padded.
func chanSuffix(suffix, base string) (int, bool) {
	rest, ok := strings.CutPrefix(suffix, base)
	if !ok || rest == "" {
		return 0, false
	}
	num, err := strconv.Atoi(rest)
	if err != nil || num < 1 || num > NumChannels {
		return 0, false
	}
	return num, true
}
