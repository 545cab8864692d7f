package main

import (
	"testing"

	"github.com/backkem/crownstone/pkg/broadcast"
)

func TestParseSwitches(t *testing.T) {
	tests := []struct {
		in      string
		want    []broadcast.SwitchItem
		wantErr bool
	}{
		{"3=100", []broadcast.SwitchItem{{StoneID: 3, Value: 100}}, false},
		{"3=100, 4=0", []broadcast.SwitchItem{{StoneID: 3, Value: 100}, {StoneID: 4, Value: 0}}, false},
		{"3=100,", []broadcast.SwitchItem{{StoneID: 3, Value: 100}}, false},
		{"", nil, true},
		{"3", nil, true},
		{"300=1", nil, true},
		{"3=101", nil, true},
		{"x=1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSwitches(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSwitches(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseSwitches(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCommandFlagsBuild(t *testing.T) {
	tests := []struct {
		name     string
		flags    commandFlags
		wantKind broadcast.Kind
		wantN    int
		wantErr  bool
	}{
		{"switch", commandFlags{sphere: "home", switches: "1=0,2=100", setTime: -1}, broadcast.KindSwitch, 2, false},
		{"time", commandFlags{sphere: "home", setTime: 1700000000}, broadcast.KindSetTime, 1, false},
		{"behaviour", commandFlags{sphere: "home", behaviour: "off", setTime: -1}, broadcast.KindBehaviourSettings, 1, false},
		{"no sphere", commandFlags{switches: "1=0", setTime: -1}, 0, 0, true},
		{"nothing", commandFlags{sphere: "home", setTime: -1}, 0, 0, true},
		{"two kinds", commandFlags{sphere: "home", switches: "1=0", setTime: 5}, 0, 0, true},
		{"bad behaviour", commandFlags{sphere: "home", behaviour: "maybe", setTime: -1}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, err := tt.flags.build()
			if (err != nil) != tt.wantErr {
				t.Fatalf("build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(cmds) != tt.wantN {
				t.Fatalf("build() returned %d commands, want %d", len(cmds), tt.wantN)
			}
			for _, c := range cmds {
				if c.Kind != tt.wantKind || c.SphereID != "home" {
					t.Errorf("command %+v, want kind %s in sphere home", c, tt.wantKind)
				}
			}
		})
	}
}

func TestDecodeHex(t *testing.T) {
	if _, err := decodeHex("key", "0011", 16); err == nil {
		t.Error("short key should fail")
	}
	if _, err := decodeHex("key", "zz", 0); err == nil {
		t.Error("bad hex should fail")
	}
	b, err := decodeHex("nonce", " 0102030405 ", 5)
	if err != nil || len(b) != 5 {
		t.Errorf("decodeHex = %x, %v", b, err)
	}
}
