package scaler

import "fmt"

// Kind classifies a signal for read-set and configuration-set membership.
type Kind int

const (
	// KindNormal signals belong to the read set but are not plot hints.
	KindNormal Kind = iota
	// KindHinted signals belong to the read set and are the primary data.
	KindHinted
	// KindConfig signals belong to the configuration read set.
	KindConfig
	// KindOmitted signals belong to neither set.
	KindOmitted
)

func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindHinted:
		return "hinted"
	case KindConfig:
		return "config"
	case KindOmitted:
		return "omitted"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// SignalOpts carries the per-signal options of a component table entry.
type SignalOpts struct {
	Kind     Kind
	ReadOnly bool
	// String requests the string form of enum-valued PVs.
	String bool
	// TriggerValue, when non-nil, is the value written to this signal to
	// arm the device (e.g. 1 on .CNT starts a count).
	TriggerValue any
}

// Signal binds one named attribute to one process variable. The display name
// is mutable local state, distinct from the PV address, and is what
// downstream consumers label the data with.
type Signal struct {
	ca     ChannelAccess
	pvname string
	name   string
	opts   SignalOpts
}

// NewSignal builds a signal bound to the given process variable. The display
// name starts out equal to the attribute name it was declared under.
func NewSignal(ca ChannelAccess, pvname, name string, opts SignalOpts) *Signal {
	return &Signal{ca: ca, pvname: pvname, name: name, opts: opts}
}

// PVName returns the hardware address this signal is bound to.
func (s *Signal) PVName() string { return s.pvname }

// Name returns the current display name.
func (s *Signal) Name() string { return s.name }

// SetName replaces the display name. Assigning the current name again is a
// no-op in effect.
func (s *Signal) SetName(name string) { s.name = name }

// Kind returns the read-set classification of this signal.
func (s *Signal) Kind() Kind { return s.opts.Kind }

// TriggerValue returns the arming value for this signal, or nil if the
// signal does not trigger anything.
func (s *Signal) TriggerValue() any { return s.opts.TriggerValue }

// Get reads the live process-variable value. Errors from the channel-access
// layer propagate unmodified.
func (s *Signal) Get() (any, error) {
	return s.ca.Get(s.pvname)
}

// GetString reads the live value and renders it as a string.
func (s *Signal) GetString() (string, error) {
	v, err := s.ca.Get(s.pvname)
	if err != nil {
		return "", err
	}
	return asString(v), nil
}

// GetFloat64 reads the live value and coerces it to a float64.
func (s *Signal) GetFloat64() (float64, error) {
	v, err := s.ca.Get(s.pvname)
	if err != nil {
		return 0, err
	}
	return asFloat64(v)
}

// Put writes a value to the process variable. Read-only signals reject the
// write before it reaches the channel-access layer.
func (s *Signal) Put(value any) error {
	if s.opts.ReadOnly {
		return fmt.Errorf("signal %s (%s) is read-only", s.name, s.pvname)
	}
	return s.ca.Put(s.pvname, value)
}
