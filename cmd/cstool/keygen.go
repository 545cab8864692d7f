package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"os"

	"github.com/backkem/crownstone/pkg/config"
	"github.com/backkem/crownstone/pkg/keys"
)

func runKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	sphere := fs.String("sphere", "", "sphere id (required)")
	short := fs.Uint("short", 0, "sphere short id (0-255)")
	master := fs.String("master", "", "hex master secret, at least 16 bytes (default: random)")
	fs.Parse(args)

	if *sphere == "" {
		return fmt.Errorf("-sphere is required")
	}
	if *short > 0xFF {
		return fmt.Errorf("-short must be 0-255")
	}

	var secret []byte
	if *master == "" {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
	} else {
		var err error
		if secret, err = decodeHex("master", *master, 0); err != nil {
			return err
		}
	}

	ks, err := keys.Derive(secret, *sphere)
	if err != nil {
		return err
	}
	out, err := config.MarshalSpheres(config.SphereFromKeySet(*sphere, uint8(*short), ks))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
