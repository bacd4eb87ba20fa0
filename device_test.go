package scaler

import (
	"errors"
	"fmt"
	"testing"
)

// failingCA is a ChannelAccess whose every call fails, for checking that
// hardware errors propagate unmodified.
type failingCA struct {
	err error
}

func (f failingCA) Get(pv string) (any, error) { return nil, f.err }
func (f failingCA) Put(pv string, v any) error { return f.err }

const testPrefix = "SIM:scaler1"

func TestSignalGroupDefaults(t *testing.T) {
	sim := NewSimulatedScaler(testPrefix)
	g := newSignalGroup(sim, testPrefix,
		scalerFields("chan", ".S", 1, NumChannels, SignalOpts{Kind: KindHinted, ReadOnly: true}))
	if n := len(g.Attrs()); n != NumChannels {
		t.Fatalf("group has %d members, want %d", n, NumChannels)
	}
	if n := len(g.ReadAttrs()); n != NumChannels {
		t.Errorf("hinted group has %d read attrs, want %d", n, NumChannels)
	}
	if n := len(g.ConfigurationAttrs()); n != 0 {
		t.Errorf("hinted group has %d configuration attrs, want 0", n)
	}

	cfg := newSignalGroup(sim, testPrefix,
		scalerFields("name", ".NM", 1, NumChannels, SignalOpts{Kind: KindConfig}))
	if n := len(cfg.ReadAttrs()); n != 0 {
		t.Errorf("config group has %d read attrs, want 0", n)
	}
	if n := len(cfg.ConfigurationAttrs()); n != NumChannels {
		t.Errorf("config group has %d configuration attrs, want %d", n, NumChannels)
	}

	omitted := newSignalGroup(sim, testPrefix,
		scalerFields("gate", ".G", 1, NumChannels, SignalOpts{Kind: KindOmitted}))
	if len(omitted.ReadAttrs()) != 0 || len(omitted.ConfigurationAttrs()) != 0 {
		t.Error("omitted group belongs to neither read nor configuration set")
	}
}

func TestSignalGroupSetAttrs(t *testing.T) {
	sim := NewSimulatedScaler(testPrefix)
	g := newSignalGroup(sim, testPrefix,
		scalerFields("chan", ".S", 1, 4, SignalOpts{Kind: KindHinted, ReadOnly: true}))
	if err := g.SetReadAttrs([]string{"chan2", "chan4"}); err != nil {
		t.Fatalf("SetReadAttrs failed: %v", err)
	}
	if fmt.Sprint(g.ReadAttrs()) != "[chan2 chan4]" {
		t.Errorf("ReadAttrs()=%v, want [chan2 chan4]", g.ReadAttrs())
	}
	if err := g.SetReadAttrs([]string{"chan99"}); err == nil {
		t.Error("SetReadAttrs with an unknown attribute should error")
	}
	if err := g.SetConfigurationAttrs([]string{"nope"}); err == nil {
		t.Error("SetConfigurationAttrs with an unknown attribute should error")
	}
}

func TestSignalReadOnly(t *testing.T) {
	sim := NewSimulatedScaler(testPrefix)
	s := NewSignal(sim, testPrefix+".S3", "chan3", SignalOpts{Kind: KindHinted, ReadOnly: true})
	if err := s.Put(12); err == nil {
		t.Error("Put on a read-only signal should error")
	}
}

func TestStageUnstage(t *testing.T) {
	sim := NewSimulatedScaler(testPrefix)
	s := NewScaler(sim, testPrefix, nil)

	staged := s.StageSigs()
	if len(staged) != 1 || staged[0].Sig != s.CountMode {
		t.Fatalf("Scaler should register exactly one staged setting, on count mode")
	}

	// The simulated record powers up in autocount mode (1); staging must
	// force one-shot (0) and unstaging must restore what it found.
	if err := s.Stage(); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if v, _ := s.CountMode.GetFloat64(); v != CountModeOneShot {
		t.Errorf("after Stage, count mode is %v, want %v", v, CountModeOneShot)
	}
	if err := s.Unstage(); err != nil {
		t.Fatalf("Unstage failed: %v", err)
	}
	if v, _ := s.CountMode.GetFloat64(); v != 1 {
		t.Errorf("after Unstage, count mode is %v, want the prior value 1", v)
	}
}

func TestStageFailurePropagates(t *testing.T) {
	boom := errors.New("CA timeout")
	s := NewScaler(failingCA{err: boom}, testPrefix, nil)
	if err := s.Stage(); !errors.Is(err, boom) {
		t.Errorf("Stage error=%v, want the CA failure unmodified", err)
	}
}
