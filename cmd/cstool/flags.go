package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/backkem/crownstone/pkg/broadcast"
	"github.com/backkem/crownstone/pkg/config"
)

// loadConfig loads path, or the default path when path is empty. A missing
// default file yields the default config.
func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// decodeHex decodes s and checks its length when want > 0.
func decodeHex(name, s string, want int) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("-%s: %w", name, err)
	}
	if want > 0 && len(b) != want {
		return nil, fmt.Errorf("-%s: want %d bytes, got %d", name, want, len(b))
	}
	return b, nil
}

// parseSwitches parses "stone=value,stone=value".
func parseSwitches(s string) ([]broadcast.SwitchItem, error) {
	var items []broadcast.SwitchItem
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		stone, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("switch %q: want stone=value", pair)
		}
		id, err := strconv.ParseUint(stone, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("switch %q: stone id: %w", pair, err)
		}
		v, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("switch %q: value: %w", pair, err)
		}
		if v > 100 {
			return nil, fmt.Errorf("switch %q: value must be 0-100", pair)
		}
		items = append(items, broadcast.SwitchItem{StoneID: uint8(id), Value: uint8(v)})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no switch items")
	}
	return items, nil
}

// commandFlags are the options shared by broadcast and advertise.
type commandFlags struct {
	configPath string
	sphere     string
	switches   string
	setTime    int64
	behaviour  string
}

func (c *commandFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file (default: "+config.DefaultPath()+")")
	fs.StringVar(&c.sphere, "sphere", "", "sphere id")
	fs.StringVar(&c.switches, "switch", "", "switch commands, e.g. 3=100,4=0")
	fs.Int64Var(&c.setTime, "time", -1, "set the sphere time to this Unix time")
	fs.StringVar(&c.behaviour, "behaviour", "", "enable or disable behaviour (on|off)")
}

// build turns the flags into queue commands. Exactly one command kind must
// be selected.
func (c *commandFlags) build() ([]broadcast.Command, error) {
	if c.sphere == "" {
		return nil, fmt.Errorf("-sphere is required")
	}
	var cmds []broadcast.Command
	kinds := 0
	if c.switches != "" {
		kinds++
		items, err := parseSwitches(c.switches)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			cmds = append(cmds, broadcast.Command{SphereID: c.sphere, Kind: broadcast.KindSwitch, Switch: it})
		}
	}
	if c.setTime >= 0 {
		kinds++
		if c.setTime > int64(^uint32(0)) {
			return nil, fmt.Errorf("-time out of range")
		}
		cmds = append(cmds, broadcast.Command{SphereID: c.sphere, Kind: broadcast.KindSetTime, Time: uint32(c.setTime)})
	}
	if c.behaviour != "" {
		kinds++
		var enabled bool
		switch c.behaviour {
		case "on":
			enabled = true
		case "off":
		default:
			return nil, fmt.Errorf("-behaviour must be on or off, got %q", c.behaviour)
		}
		cmds = append(cmds, broadcast.Command{SphereID: c.sphere, Kind: broadcast.KindBehaviourSettings, BehaviourEnabled: enabled})
	}
	if kinds != 1 {
		return nil, fmt.Errorf("choose exactly one of -switch, -time, -behaviour")
	}
	return cmds, nil
}
