package main

import (
	"encoding/hex"
	"flag"
	"fmt"

	"github.com/backkem/crownstone/pkg/crypto"
	"github.com/backkem/crownstone/pkg/keys"
)

type envelopeFlags struct {
	nonce string
	vkey  string
	key   string
}

func (e *envelopeFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&e.nonce, "nonce", "", "hex session nonce (5 bytes)")
	fs.StringVar(&e.vkey, "vkey", "", "hex validation key (4 bytes, default: first 4 nonce bytes)")
	fs.StringVar(&e.key, "key", "", "hex AES key (16 bytes)")
}

func (e *envelopeFlags) parse() (nonce, vkey, key []byte, err error) {
	if nonce, err = decodeHex("nonce", e.nonce, crypto.SessionNonceSize); err != nil {
		return
	}
	if e.vkey == "" {
		vkey = nonce[:crypto.ValidationKeySize]
	} else if vkey, err = decodeHex("vkey", e.vkey, crypto.ValidationKeySize); err != nil {
		return
	}
	key, err = decodeHex("key", e.key, crypto.KeySize)
	return
}

func runEncrypt(args []string) error {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	var ef envelopeFlags
	ef.register(fs)
	levelName := fs.String("level", "admin", "access level written to the envelope")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("want one hex payload argument")
	}
	level, err := keys.ParseAccessLevel(*levelName)
	if err != nil {
		return err
	}
	if level == keys.AccessHighestAvailable {
		return fmt.Errorf("-level must name a concrete level")
	}
	payload, err := decodeHex("payload", fs.Arg(0), 0)
	if err != nil {
		return err
	}

	var nonce, vkey, key []byte
	if level != keys.AccessEncryptionDisabled {
		if nonce, vkey, key, err = ef.parse(); err != nil {
			return err
		}
	}
	env, err := crypto.EncryptCTR(payload, nonce, vkey, key, level)
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(env))
	return nil
}

func runDecrypt(args []string) error {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	var ef envelopeFlags
	ef.register(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("want one hex envelope argument")
	}
	env, err := decodeHex("envelope", fs.Arg(0), 0)
	if err != nil {
		return err
	}
	nonce, vkey, key, err := ef.parse()
	if err != nil {
		return err
	}
	k, err := keys.KeyFromBytes(key)
	if err != nil {
		return err
	}

	level, err := crypto.EnvelopeAccessLevel(env)
	if err != nil {
		return err
	}
	payload, err := crypto.DecryptCTR(env, nonce, vkey, keys.SetupKeySource{SetupKey: k})
	if err != nil {
		return err
	}
	fmt.Printf("level:   %s\npayload: %s\n", level, hex.EncodeToString(payload))
	return nil
}
