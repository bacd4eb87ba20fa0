package scaler

import "time"

// ChannelReading is one channel's contribution to a snapshot: the
// sub-device identifier, the display name resolved from hardware, and the
// accumulated counts.
type ChannelReading struct {
	Attr   string
	Name   string
	Counts float64
}

// Reading is a snapshot of the composite device's read set.
type Reading struct {
	Time     time.Time
	Elapsed  float64
	Channels []ChannelReading
}

// Read snapshots the elapsed time and every channel currently in the read
// set, in read-set order. Hardware read failures propagate unmodified and
// no partial snapshot is returned.
func (m *MultiChannelScaler) Read() (*Reading, error) {
	elapsed, err := m.Time.GetFloat64()
	if err != nil {
		return nil, err
	}
	r := &Reading{Time: time.Now(), Elapsed: elapsed}
	for _, attr := range m.Channels.ReadAttrs() {
		ch := m.Channels.Channel(attr)
		counts, err := ch.S.GetFloat64()
		if err != nil {
			return nil, err
		}
		r.Channels = append(r.Channels, ChannelReading{
			Attr:   attr,
			Name:   ch.S.Name(),
			Counts: counts,
		})
	}
	return r, nil
}
