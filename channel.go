package scaler

import "fmt"

// ScalerChannel models one counting input of the scaler record: its label,
// live count, preset and gate, addressed by the parent prefix plus the
// channel number. The channel number is fixed at construction.
type ScalerChannel struct {
	// ChName is the writable hardware label, .NM{num}.
	// TODO: subscribe to this PV so the display name tracks renames
	// without an explicit MatchName call.
	ChName *Signal
	// S is the live count, read-only; its display name mirrors ChName.
	S *Signal
	// Preset is the count preset, .PR{num}.
	Preset *Signal
	// Gate controls whether the channel participates in a run, .G{num}.
	Gate *Signal

	prefix string
	num    int
}

// NewScalerChannel builds the channel model for index num under the given
// parent prefix and immediately synchronizes the display name from
// hardware. A failed read during that sync propagates unmodified.
func NewScalerChannel(ca ChannelAccess, prefix string, num int) (*ScalerChannel, error) {
	c := &ScalerChannel{
		ChName: NewSignal(ca, fmt.Sprintf("%s.NM%d", prefix, num), fmt.Sprintf("chname%d", num), SignalOpts{Kind: KindConfig}),
		S:      NewSignal(ca, fmt.Sprintf("%s.S%d", prefix, num), fmt.Sprintf("s%d", num), SignalOpts{Kind: KindHinted, ReadOnly: true}),
		Preset: NewSignal(ca, fmt.Sprintf("%s.PR%d", prefix, num), fmt.Sprintf("preset%d", num), SignalOpts{Kind: KindConfig}),
		Gate:   NewSignal(ca, fmt.Sprintf("%s.G%d", prefix, num), fmt.Sprintf("gate%d", num), SignalOpts{Kind: KindConfig, String: true}),
		prefix: prefix,
		num:    num,
	}
	if err := c.MatchName(); err != nil {
		return nil, err
	}
	return c, nil
}

// Num returns the channel number, 1-based.
func (c *ScalerChannel) Num() int { return c.num }

// MatchName reads the live hardware label and assigns it as the display
// name of the count signal. Safe to call repeatedly: re-assigning an
// unchanged label has no effect.
func (c *ScalerChannel) MatchName() error {
	name, err := c.ChName.GetString()
	if err != nil {
		return err
	}
	c.S.SetName(name)
	return nil
}
