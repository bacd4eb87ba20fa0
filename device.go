package scaler

import "fmt"

// ComponentDef is one row of a device's component table: the attribute name
// the signal is known by, the suffix appended to the device prefix to form
// its PV address, and its options.
type ComponentDef struct {
	Attr   string
	Suffix string
	Opts   SignalOpts
}

// SignalGroup is an ordered collection of signals materialized from a
// component table. Member identifiers enumerate in declared order. The read
// and configuration sets are mutable lists of member identifiers; they start
// out respecting each member's Kind.
type SignalGroup struct {
	attrs       []string
	signals     map[string]*Signal
	readAttrs   []string
	configAttrs []string
}

// newSignalGroup attaches one signal per table row, addressed prefix+suffix.
func newSignalGroup(ca ChannelAccess, prefix string, defs []ComponentDef) *SignalGroup {
	g := &SignalGroup{signals: make(map[string]*Signal, len(defs))}
	for _, def := range defs {
		sig := NewSignal(ca, prefix+def.Suffix, def.Attr, def.Opts)
		g.attrs = append(g.attrs, def.Attr)
		g.signals[def.Attr] = sig
		switch def.Opts.Kind {
		case KindNormal, KindHinted:
			g.readAttrs = append(g.readAttrs, def.Attr)
		case KindConfig:
			g.configAttrs = append(g.configAttrs, def.Attr)
		}
	}
	return g
}

// Attrs returns the member identifiers in declared order.
func (g *SignalGroup) Attrs() []string {
	return append([]string(nil), g.attrs...)
}

// Signal returns the member with the given identifier, or nil.
func (g *SignalGroup) Signal(attr string) *Signal {
	return g.signals[attr]
}

// ReadAttrs returns the current read set.
func (g *SignalGroup) ReadAttrs() []string {
	return append([]string(nil), g.readAttrs...)
}

// ConfigurationAttrs returns the current configuration read set.
func (g *SignalGroup) ConfigurationAttrs() []string {
	return append([]string(nil), g.configAttrs...)
}

// SetReadAttrs replaces the read set. Every identifier must name a member.
func (g *SignalGroup) SetReadAttrs(attrs []string) error {
	for _, a := range attrs {
		if _, ok := g.signals[a]; !ok {
			return fmt.Errorf("unknown signal attribute %q", a)
		}
	}
	g.readAttrs = append([]string(nil), attrs...)
	return nil
}

// SetConfigurationAttrs replaces the configuration read set.
func (g *SignalGroup) SetConfigurationAttrs(attrs []string) error {
	for _, a := range attrs {
		if _, ok := g.signals[a]; !ok {
			return fmt.Errorf("unknown signal attribute %q", a)
		}
	}
	g.configAttrs = append([]string(nil), attrs...)
	return nil
}

// ChannelGroup is the sub-device analogue of SignalGroup: an ordered
// collection of ScalerChannel devices with the same mutable read and
// configuration sets.
type ChannelGroup struct {
	attrs       []string
	chans       map[string]*ScalerChannel
	readAttrs   []string
	configAttrs []string
}

func newChannelGroup() *ChannelGroup {
	return &ChannelGroup{chans: make(map[string]*ScalerChannel)}
}

func (g *ChannelGroup) add(attr string, ch *ScalerChannel) {
	g.attrs = append(g.attrs, attr)
	g.chans[attr] = ch
}

// Attrs returns the sub-device identifiers in declared order.
func (g *ChannelGroup) Attrs() []string {
	return append([]string(nil), g.attrs...)
}

// Channel returns the sub-device with the given identifier, or nil.
func (g *ChannelGroup) Channel(attr string) *ScalerChannel {
	return g.chans[attr]
}

// ReadAttrs returns the current read set.
func (g *ChannelGroup) ReadAttrs() []string {
	return append([]string(nil), g.readAttrs...)
}

// ConfigurationAttrs returns the current configuration read set.
func (g *ChannelGroup) ConfigurationAttrs() []string {
	return append([]string(nil), g.configAttrs...)
}

// SetReadAttrs replaces the read set. Every identifier must name a member.
// Duplicates are allowed; order is preserved.
func (g *ChannelGroup) SetReadAttrs(attrs []string) error {
	for _, a := range attrs {
		if _, ok := g.chans[a]; !ok {
			return fmt.Errorf("unknown channel attribute %q", a)
		}
	}
	g.readAttrs = append([]string(nil), attrs...)
	return nil
}

// SetConfigurationAttrs replaces the configuration read set.
func (g *ChannelGroup) SetConfigurationAttrs(attrs []string) error {
	for _, a := range attrs {
		if _, ok := g.chans[a]; !ok {
			return fmt.Errorf("unknown channel attribute %q", a)
		}
	}
	g.configAttrs = append([]string(nil), attrs...)
	return nil
}

// StagedSetting pairs a signal with the value forced onto it for the
// duration of an acquisition run.
type StagedSetting struct {
	Sig   *Signal
	Value any
}

// stageList applies staged settings before a count run and restores the
// prior values afterward. Stage reads each signal first so Unstage can put
// things back exactly as found.
type stageList struct {
	staged  []StagedSetting
	restore []StagedSetting
}

func (sl *stageList) addStageSig(sig *Signal, value any) {
	sl.staged = append(sl.staged, StagedSetting{Sig: sig, Value: value})
}

// StageSigs returns the registered pre-acquisition settings in order.
func (sl *stageList) StageSigs() []StagedSetting {
	return append([]StagedSetting(nil), sl.staged...)
}

// Stage forces every registered setting onto its signal, remembering the
// previous values. A failed read or write aborts and leaves already-applied
// settings for Unstage to revert.
func (sl *stageList) Stage() error {
	for _, st := range sl.staged {
		prev, err := st.Sig.Get()
		if err != nil {
			return err
		}
		if err := st.Sig.Put(st.Value); err != nil {
			return err
		}
		sl.restore = append(sl.restore, StagedSetting{Sig: st.Sig, Value: prev})
	}
	return nil
}

// Unstage restores the remembered values in reverse order.
func (sl *stageList) Unstage() error {
	for i := len(sl.restore) - 1; i >= 0; i-- {
		st := sl.restore[i]
		if err := st.Sig.Put(st.Value); err != nil {
			return err
		}
	}
	sl.restore = nil
	return nil
}
