package scaler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// riggedScaler builds a MultiChannelScaler over a simulated record whose
// channels are named per the given map.
func riggedScaler(t *testing.T, names map[int]string) (*SimulatedScaler, *MultiChannelScaler) {
	t.Helper()
	sim := NewSimulatedScaler(testPrefix)
	for num, name := range names {
		sim.SetChannelName(num, name)
	}
	mcs, err := NewMultiChannelScaler(sim, testPrefix, nil)
	if err != nil {
		t.Fatalf("NewMultiChannelScaler failed: %v", err)
	}
	return sim, mcs
}

func TestInitialActiveChannels(t *testing.T) {
	_, mcs := riggedScaler(t, map[int]string{1: "time", 4: "mon", 9: "det"})

	// The construction-time snapshot holds exactly the named channels in
	// ascending numeric order; no channel is forced in at this stage.
	want := []string{"chan01", "chan04", "chan09"}
	assert.Equal(t, want, mcs.Channels.ReadAttrs())
	assert.Equal(t, want, mcs.Channels.ConfigurationAttrs())
}

func TestInitialActiveChannelsNoForcedClock(t *testing.T) {
	// Channel 1 unnamed: it must NOT appear in the initial snapshot, even
	// though explicit selection would force it.
	_, mcs := riggedScaler(t, map[int]string{4: "mon"})
	assert.Equal(t, []string{"chan04"}, mcs.Channels.ReadAttrs())
}

func TestSelectChannels(t *testing.T) {
	_, mcs := riggedScaler(t, map[int]string{1: "time", 3: "A", 5: "B"})

	if err := mcs.SelectChannels([]string{"A", "B"}); err != nil {
		t.Fatalf("SelectChannels failed: %v", err)
	}
	assert.Equal(t, []string{"chan01", "chan03", "chan05"}, mcs.Channels.ReadAttrs())
	assert.Equal(t, []string{"chan01", "chan03", "chan05"}, mcs.Channels.ConfigurationAttrs())
	// Hints carry the requested channels' display names, caller order,
	// excluding the forced clock channel.
	assert.Equal(t, []string{"A", "B"}, mcs.Hints["fields"])
}

func TestSelectChannelsCallerOrder(t *testing.T) {
	_, mcs := riggedScaler(t, map[int]string{3: "A", 5: "B"})

	// Caller order is preserved and repeats are allowed.
	if err := mcs.SelectChannels([]string{"B", "A", "A"}); err != nil {
		t.Fatalf("SelectChannels failed: %v", err)
	}
	assert.Equal(t, []string{"chan01", "chan05", "chan03", "chan03"}, mcs.Channels.ReadAttrs())
	assert.Equal(t, []string{"B", "A", "A"}, mcs.Hints["fields"])
}

func TestSelectChannelsUnknownName(t *testing.T) {
	_, mcs := riggedScaler(t, map[int]string{1: "time", 3: "A"})
	before := mcs.Channels.ReadAttrs()
	beforeCfg := mcs.Channels.ConfigurationAttrs()

	err := mcs.SelectChannels([]string{"nonexistent"})
	if err == nil {
		t.Fatal("SelectChannels with an unknown name should error")
	}
	if !strings.Contains(err.Error(), "nonexistent") {
		t.Errorf("error %q does not identify the bad name", err)
	}
	if !strings.Contains(err.Error(), "A") {
		t.Errorf("error %q does not enumerate the valid names", err)
	}
	// The failed selection is atomic: nothing changed.
	assert.Equal(t, before, mcs.Channels.ReadAttrs())
	assert.Equal(t, beforeCfg, mcs.Channels.ConfigurationAttrs())
}

func TestSelectChannelsDuplicateNames(t *testing.T) {
	// Two channels share the label "X": the reverse lookup is
	// last-write-wins, so the higher-numbered channel wins.
	_, mcs := riggedScaler(t, map[int]string{2: "X", 7: "X"})
	if err := mcs.SelectChannels([]string{"X"}); err != nil {
		t.Fatalf("SelectChannels failed: %v", err)
	}
	assert.Equal(t, []string{"chan01", "chan07"}, mcs.Channels.ReadAttrs())
}

func TestSelectChannelsRefreshesNames(t *testing.T) {
	sim, mcs := riggedScaler(t, map[int]string{3: "old"})

	// Rename on the hardware side after construction; selection must see
	// the live name, not the stale snapshot.
	sim.SetChannelName(3, "new")
	if err := mcs.SelectChannels([]string{"new"}); err != nil {
		t.Fatalf("SelectChannels failed: %v", err)
	}
	assert.Equal(t, []string{"chan01", "chan03"}, mcs.Channels.ReadAttrs())
	if err := mcs.SelectChannels([]string{"old"}); err == nil {
		t.Error("selecting by a stale name should error after the rename")
	}
}

func TestMatchNames(t *testing.T) {
	sim, mcs := riggedScaler(t, map[int]string{6: "a"})
	sim.SetChannelName(6, "b")
	sim.SetChannelName(8, "c")
	if err := mcs.MatchNames(); err != nil {
		t.Fatalf("MatchNames failed: %v", err)
	}
	if got := mcs.Channels.Channel("chan06").S.Name(); got != "b" {
		t.Errorf("chan06 display name=%q, want \"b\"", got)
	}
	if got := mcs.Channels.Channel("chan08").S.Name(); got != "c" {
		t.Errorf("chan08 display name=%q, want \"c\"", got)
	}
}

func TestMultiChannelScalerAddresses(t *testing.T) {
	_, mcs := riggedScaler(t, nil)
	if got := mcs.Count.PVName(); got != testPrefix+".CNT" {
		t.Errorf("Count address=%q, want %q", got, testPrefix+".CNT")
	}
	if got := mcs.Channels.Channel("chan32").S.PVName(); got != testPrefix+".S32" {
		t.Errorf("chan32 value address=%q, want %q", got, testPrefix+".S32")
	}
	if n := len(mcs.Channels.Attrs()); n != NumChannels {
		t.Errorf("composite device has %d channels, want %d", n, NumChannels)
	}
}
