package scaler

import (
	"fmt"
	"testing"
)

func TestScalerFields(t *testing.T) {
	var tests = []struct {
		attrBase  string
		fieldBase string
	}{
		{"chan", ".S"},
		{"name", ".NM"},
		{"preset", ".PR"},
		{"gate", ".G"},
	}
	for _, test := range tests {
		defs := scalerFields(test.attrBase, test.fieldBase, 1, NumChannels, SignalOpts{Kind: KindOmitted})
		if len(defs) != NumChannels {
			t.Fatalf("scalerFields(%q, %q) produced %d defs, want %d",
				test.attrBase, test.fieldBase, len(defs), NumChannels)
		}
		seen := make(map[string]bool)
		for i, def := range defs {
			num := i + 1
			wantAttr := fmt.Sprintf("%s%d", test.attrBase, num)
			wantSuffix := fmt.Sprintf("%s%d", test.fieldBase, num)
			if def.Attr != wantAttr {
				t.Errorf("defs[%d].Attr=%q, want %q", i, def.Attr, wantAttr)
			}
			if def.Suffix != wantSuffix {
				t.Errorf("defs[%d].Suffix=%q, want %q", i, def.Suffix, wantSuffix)
			}
			if seen[def.Attr] {
				t.Errorf("duplicate attribute %q", def.Attr)
			}
			seen[def.Attr] = true
		}
	}
}

func TestScalerFieldsPreservesOptions(t *testing.T) {
	opts := SignalOpts{Kind: KindHinted, ReadOnly: true}
	defs := scalerFields("chan", ".S", 1, 3, opts)
	for i, def := range defs {
		if def.Opts != opts {
			t.Errorf("defs[%d].Opts=%+v, want %+v", i, def.Opts, opts)
		}
	}
}

func TestScalerChans(t *testing.T) {
	defs := scalerChans("chan", 1, NumChannels)
	if len(defs) != NumChannels {
		t.Fatalf("scalerChans produced %d defs, want %d", len(defs), NumChannels)
	}
	for i, def := range defs {
		num := i + 1
		// Sub-device identifiers zero-pad; PV suffixes never do.
		want := fmt.Sprintf("chan%02d", num)
		if def.Attr != want {
			t.Errorf("defs[%d].Attr=%q, want %q", i, def.Attr, want)
		}
		if def.Num != num {
			t.Errorf("defs[%d].Num=%d, want %d", i, def.Num, num)
		}
	}
	if defs[6].Attr != "chan07" {
		t.Errorf("channel 7 identifier is %q, want \"chan07\"", defs[6].Attr)
	}
	if defs[31].Attr != "chan32" {
		t.Errorf("channel 32 identifier is %q, want \"chan32\"", defs[31].Attr)
	}
}
