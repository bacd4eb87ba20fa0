package scaler

import "fmt"

// NumChannels is the channel count of a SynApps scaler record.
const NumChannels = 32

// scalerFields produces one component-table row per channel index in
// [first, last], attribute attrBase+i and suffix fieldBase+i, both with the
// index unpadded. The same generator serves the channel-value, name, preset
// and gate families; only the base strings and options differ.
func scalerFields(attrBase, fieldBase string, first, last int, opts SignalOpts) []ComponentDef {
	defs := make([]ComponentDef, 0, last-first+1)
	for i := first; i <= last; i++ {
		defs = append(defs, ComponentDef{
			Attr:   fmt.Sprintf("%s%d", attrBase, i),
			Suffix: fmt.Sprintf("%s%d", fieldBase, i),
			Opts:   opts,
		})
	}
	return defs
}

// ChannelDef is one row of the composite device's channel table: the
// zero-padded sub-device identifier and the channel number it addresses.
type ChannelDef struct {
	Attr string
	Num  int
}

// scalerChans produces the sub-device table for the composite device:
// identifiers attrPrefix plus the zero-padded channel number, one per index
// in [first, last]. Identifiers zero-pad to two digits (chan01..chan32)
// while PV suffixes never pad.
func scalerChans(attrPrefix string, first, last int) []ChannelDef {
	defs := make([]ChannelDef, 0, last-first+1)
	for i := first; i <= last; i++ {
		defs = append(defs, ChannelDef{
			Attr: fmt.Sprintf("%s%02d", attrPrefix, i),
			Num:  i,
		})
	}
	return defs
}
