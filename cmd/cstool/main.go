// cstool is a command line companion for the Crownstone secure packet and
// broadcast layer.
//
// Usage:
//
//	cstool <command> [options]
//
// Commands:
//
//	keygen     derive a sphere's keys from a master secret and print YAML
//	encrypt    wrap a hex payload in a session envelope
//	decrypt    open a hex session envelope
//	broadcast  print the service UUIDs of a broadcast command
//	advertise  broadcast a command through the local Bluetooth adapter
//
// Example:
//
//	cstool keygen -sphere home -short 42 >> ~/.config/crownstone/config.yaml
//	cstool broadcast -sphere home -switch 3=100,4=0 -verify
package main

import (
	"fmt"
	"log"
	"os"
)

type command struct {
	name    string
	summary string
	run     func(args []string) error
}

var commands = []command{
	{"keygen", "derive a sphere's keys and print a YAML stanza", runKeygen},
	{"encrypt", "wrap a hex payload in a session envelope", runEncrypt},
	{"decrypt", "open a hex session envelope", runDecrypt},
	{"broadcast", "print the service UUIDs of a broadcast command", runBroadcast},
	{"advertise", "broadcast a command through the local adapter", runAdvertise},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: cstool <command> [options]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(os.Stderr, "\nrun 'cstool <command> -h' for command options\n")
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("cstool: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	name := os.Args[1]
	for _, c := range commands {
		if c.name == name {
			if err := c.run(os.Args[2:]); err != nil {
				log.Fatalf("%s: %v", name, err)
			}
			return
		}
	}
	if name == "-h" || name == "help" {
		usage()
		return
	}
	usage()
	log.Fatalf("unknown command %q", name)
}
