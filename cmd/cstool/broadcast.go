package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/backkem/crownstone/pkg/ble"
	"github.com/backkem/crownstone/pkg/broadcast"
	"github.com/backkem/crownstone/pkg/config"
	"github.com/google/uuid"
)

func newEncoder(cfg *config.Config) (*broadcast.Encoder, config.BroadcastSettings, error) {
	store, err := cfg.KeyStore()
	if err != nil {
		return nil, config.BroadcastSettings{}, err
	}
	settings := cfg.BroadcastSettings()
	enc := broadcast.NewEncoder(broadcast.EncoderConfig{
		Keys:        store,
		DeviceToken: settings.DeviceToken,
		Background:  settings.Background,
	})
	return enc, settings, nil
}

func runBroadcast(args []string) error {
	fs := flag.NewFlagSet("broadcast", flag.ExitOnError)
	var cf commandFlags
	cf.register(fs)
	verify := fs.Bool("verify", false, "decode and decrypt the result again")
	fs.Parse(args)

	cmds, err := cf.build()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cf.configPath)
	if err != nil {
		return err
	}
	enc, _, err := newEncoder(cfg)
	if err != nil {
		return err
	}

	// Run the commands through a queue so they coalesce into one window
	// the same way the scheduler would.
	q := broadcast.NewQueue(broadcast.QueueConfig{})
	for _, c := range cmds {
		q.Add(c)
	}
	w := q.NextWindow()
	payload, err := w.Payload()
	if err != nil {
		return err
	}
	adv, err := enc.Encode(w.SphereID, w.CommandType(), payload)
	if err != nil {
		return err
	}
	for _, u := range adv.List() {
		fmt.Println(u)
	}
	if n := len(cmds) - len(w.Items); n > 0 {
		fmt.Fprintf(os.Stderr, "%d command(s) did not fit this window\n", n)
	}

	if *verify {
		return verifyAdvertisement(cfg, cf.sphere, adv.List())
	}
	return nil
}

func verifyAdvertisement(cfg *config.Config, sphereID string, uuids []uuid.UUID) error {
	store, err := cfg.KeyStore()
	if err != nil {
		return err
	}
	sphere, ok := store.Get(sphereID)
	if !ok {
		return broadcast.ErrUnknownSphere
	}
	parsed, err := broadcast.Parse(uuids)
	if err != nil {
		return err
	}
	pkt, err := parsed.Decrypt(sphere.Keys)
	if err != nil {
		return err
	}
	h := parsed.Header
	fmt.Printf("\nprotocol %d, sphere %d, access %d, device token %d\n", h.Protocol, h.SphereShortID, h.AccessLevel, h.DeviceToken)
	if rc5Key, err := store.RC5Key(sphereID); err == nil {
		bg, vw := broadcast.DecryptBackground(h.EncryptedBackground, rc5Key)
		fmt.Printf("background %+v, validation word %#04x\n", bg, vw)
	}
	fmt.Printf("command %s, validation time %d, payload %x\n", pkt.Type, pkt.ValidationTimestamp, pkt.Payload)
	if pkt.Type == broadcast.CommandMultiSwitch {
		items, err := broadcast.DecodeSwitchPayload(pkt.Payload)
		if err != nil {
			return err
		}
		for _, it := range items {
			fmt.Printf("  stone %d -> %d\n", it.StoneID, it.Value)
		}
	}
	return nil
}

func runAdvertise(args []string) error {
	fs := flag.NewFlagSet("advertise", flag.ExitOnError)
	var cf commandFlags
	cf.register(fs)
	fs.Parse(args)

	cmds, err := cf.build()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cf.configPath)
	if err != nil {
		return err
	}
	enc, settings, err := newEncoder(cfg)
	if err != nil {
		return err
	}
	lf := cfg.LoggerFactory(os.Stderr)

	adv, err := ble.NewTinygoAdvertiser(ble.TinygoConfig{LoggerFactory: lf})
	if err != nil {
		return err
	}
	sched := broadcast.NewScheduler(broadcast.SchedulerConfig{
		Queue: broadcast.NewQueue(broadcast.QueueConfig{
			DefaultRetries: settings.Retries,
			LoggerFactory:  lf,
		}),
		Encoder:       enc,
		Advertiser:    adv,
		Interval:      settings.Interval,
		LoggerFactory: lf,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sched.Start(ctx)
	defer sched.Stop()

	handles := make([]<-chan error, len(cmds))
	for i, c := range cmds {
		handles[i] = sched.Add(c)
	}

	start := time.Now()
	for i, h := range handles {
		select {
		case err := <-h:
			if err != nil {
				return fmt.Errorf("command %d: %w", i, err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	fmt.Printf("advertised %d command(s) in %v\n", len(cmds), time.Since(start).Round(time.Millisecond))
	return nil
}
