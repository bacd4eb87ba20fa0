package scaler

import (
	"fmt"
	"log"
)

// clockChannel is the always-present elapsed-time reference channel; it is
// forced to the front of every explicit selection.
const clockChannel = "chan01"

// MultiChannelScaler is the channel-oriented interface to the scaler
// record: 32 ScalerChannel sub-devices plus the shared global signals. It
// adds the logic for deciding which channels are active and for selecting a
// working subset by their hardware-reported labels.
type MultiChannelScaler struct {
	scalerGlobals
	stageList

	Channels *ChannelGroup

	// Hints tells downstream consumers which display names carry the
	// primary data, keyed by role.
	Hints map[string][]string

	prefix string
	ca     ChannelAccess
	log    *log.Logger
}

// NewMultiChannelScaler builds the composite device: sub-devices chan01
// through chan32, each synchronizing its own display name from hardware.
// After construction the channel read and configuration sets hold exactly
// the channels whose label is currently non-empty, in ascending numeric
// order. No channel is forced into this initial snapshot; only an explicit
// SelectChannels forces chan01. The snapshot goes stale if labels are
// changed externally.
func NewMultiChannelScaler(ca ChannelAccess, prefix string, logger *log.Logger) (*MultiChannelScaler, error) {
	if logger == nil {
		logger = ProblemLogger
	}
	m := &MultiChannelScaler{
		scalerGlobals: newScalerGlobals(ca, prefix),
		Channels:      newChannelGroup(),
		Hints:         make(map[string][]string),
		prefix:        prefix,
		ca:            ca,
		log:           logger,
	}
	for _, def := range scalerChans("chan", 1, NumChannels) {
		ch, err := NewScalerChannel(ca, prefix, def.Num)
		if err != nil {
			return nil, err
		}
		m.Channels.add(def.Attr, ch)
	}
	m.addStageSig(m.CountMode, CountModeOneShot)

	var active []string
	for _, attr := range m.Channels.Attrs() {
		if m.Channels.Channel(attr).S.Name() != "" {
			active = append(active, attr)
		}
	}
	if err := m.Channels.SetReadAttrs(active); err != nil {
		return nil, err
	}
	if err := m.Channels.SetConfigurationAttrs(active); err != nil {
		return nil, err
	}
	return m, nil
}

// Prefix returns the record's base PV address.
func (m *MultiChannelScaler) Prefix() string { return m.prefix }

// MatchNames re-synchronizes every sub-device's display name from
// hardware, in channel order. The first read failure aborts and propagates.
func (m *MultiChannelScaler) MatchNames() error {
	for _, attr := range m.Channels.Attrs() {
		if err := m.Channels.Channel(attr).MatchName(); err != nil {
			return err
		}
	}
	return nil
}

// SelectChannels makes the channels with the given hardware-reported labels
// the working set. Labels resolve against the live name PVs after a full
// MatchNames refresh; chan01 is always included first as the elapsed-time
// reference, requested or not. An unknown label fails the whole call with
// no change to the read or configuration sets.
//
// If two channels currently carry the same label, the lookup resolves to
// the higher-numbered one. Whether the hardware ever intends duplicate
// labels is unclear; the behavior is kept rather than rejected.
func (m *MultiChannelScaler) SelectChannels(chanNames []string) error {
	if err := m.MatchNames(); err != nil {
		return err
	}

	nameMap := make(map[string]string, NumChannels)
	var known []string
	for _, attr := range m.Channels.Attrs() {
		name, err := m.Channels.Channel(attr).ChName.GetString()
		if err != nil {
			return err
		}
		if _, seen := nameMap[name]; !seen {
			known = append(known, name)
		}
		nameMap[name] = attr
	}

	readAttrs := []string{clockChannel} // always include time
	for _, name := range chanNames {
		attr, ok := nameMap[name]
		if !ok {
			return fmt.Errorf("the channel %q is not configured on the scaler; the named channels are %q", name, known)
		}
		readAttrs = append(readAttrs, attr)
	}

	if err := m.Channels.SetReadAttrs(readAttrs); err != nil {
		return err
	}
	if err := m.Channels.SetConfigurationAttrs(readAttrs); err != nil {
		return err
	}
	fields := make([]string, 0, len(readAttrs)-1)
	for _, attr := range readAttrs[1:] {
		fields = append(fields, m.Channels.Channel(attr).S.Name())
	}
	m.Hints["fields"] = fields
	return nil
}
