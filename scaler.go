package scaler

import "log"

// CountModeOneShot is the .CONT value for one-shot counting. Staging forces
// it so every acquisition run starts from a known trigger mode.
const CountModeOneShot = 0

// scalerGlobals holds the trigger, timing and engineering-unit signals that
// the scaler record exposes once per device, shared by both device models.
type scalerGlobals struct {
	// Trigger: writing 1 starts a count.
	Count     *Signal
	CountMode *Signal

	// Delay from triggering to the start of counting.
	Delay          *Signal
	AutoCountDelay *Signal

	Time *Signal
	Freq *Signal

	PresetTime    *Signal
	AutoCountTime *Signal

	UpdateRate          *Signal
	AutoCountUpdateRate *Signal

	EGU *Signal
}

func newScalerGlobals(ca ChannelAccess, prefix string) scalerGlobals {
	return scalerGlobals{
		Count:               NewSignal(ca, prefix+".CNT", "count", SignalOpts{Kind: KindOmitted, TriggerValue: 1}),
		CountMode:           NewSignal(ca, prefix+".CONT", "count_mode", SignalOpts{Kind: KindConfig, String: true}),
		Delay:               NewSignal(ca, prefix+".DLY", "delay", SignalOpts{Kind: KindConfig}),
		AutoCountDelay:      NewSignal(ca, prefix+".DLY1", "auto_count_delay", SignalOpts{Kind: KindConfig}),
		Time:                NewSignal(ca, prefix+".T", "time", SignalOpts{Kind: KindNormal}),
		Freq:                NewSignal(ca, prefix+".FREQ", "freq", SignalOpts{Kind: KindConfig}),
		PresetTime:          NewSignal(ca, prefix+".TP", "preset_time", SignalOpts{Kind: KindConfig}),
		AutoCountTime:       NewSignal(ca, prefix+".TP1", "auto_count_time", SignalOpts{Kind: KindConfig}),
		UpdateRate:          NewSignal(ca, prefix+".RATE", "update_rate", SignalOpts{Kind: KindOmitted}),
		AutoCountUpdateRate: NewSignal(ca, prefix+".RAT1", "auto_count_update_rate", SignalOpts{Kind: KindOmitted}),
		EGU:                 NewSignal(ca, prefix+".EGU", "egu", SignalOpts{Kind: KindConfig}),
	}
}

// StartCount arms the trigger signal with its trigger value.
func (g *scalerGlobals) StartCount() error {
	return g.Count.Put(g.Count.TriggerValue())
}

// StopCount clears the trigger signal.
func (g *scalerGlobals) StopCount() error {
	return g.Count.Put(0)
}

// Scaler is the flat interface to a SynApps scaler record: the global
// trigger and timing signals plus four 32-wide signal families addressed by
// unpadded channel index.
type Scaler struct {
	scalerGlobals
	stageList

	// Channels are the counts, read-only and hinted.
	Channels *SignalGroup
	// Names are the writable channel labels.
	Names *SignalGroup

	Presets *SignalGroup
	Gates   *SignalGroup

	prefix string
	ca     ChannelAccess
	log    *log.Logger
}

// NewScaler builds the device model for the record at the given prefix.
// Construction attaches every signal and registers the one staged setting
// this device has: count mode forced to one-shot for the duration of a run.
// A nil logger falls back to the package problem logger.
func NewScaler(ca ChannelAccess, prefix string, logger *log.Logger) *Scaler {
	if logger == nil {
		logger = ProblemLogger
	}
	s := &Scaler{
		scalerGlobals: newScalerGlobals(ca, prefix),
		Channels: newSignalGroup(ca, prefix,
			scalerFields("chan", ".S", 1, NumChannels, SignalOpts{Kind: KindHinted, ReadOnly: true})),
		Names: newSignalGroup(ca, prefix,
			scalerFields("name", ".NM", 1, NumChannels, SignalOpts{Kind: KindConfig})),
		Presets: newSignalGroup(ca, prefix,
			scalerFields("preset", ".PR", 1, NumChannels, SignalOpts{Kind: KindOmitted})),
		Gates: newSignalGroup(ca, prefix,
			scalerFields("gate", ".G", 1, NumChannels, SignalOpts{Kind: KindOmitted})),
		prefix: prefix,
		ca:     ca,
		log:    logger,
	}
	s.addStageSig(s.CountMode, CountModeOneShot)
	return s
}

// Prefix returns the record's base PV address.
func (s *Scaler) Prefix() string { return s.prefix }
