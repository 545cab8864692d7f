// Package broadcast implements the connectionless command channel that rides
// on BLE advertisements.
//
// A broadcast advertises five 128-bit service UUIDs and nothing else:
//
//	UUID 0    AES-CTR encrypted 16-byte command packet
//	UUID 1-4  one 16-bit header word each, in the Bluetooth base UUID
//
// Each header word carries a 2-bit sequence number in its top bits so the
// receiver can order the words regardless of how the phone's OS sorts the
// UUID list. The remaining 56 bits hold the protocol version, the sphere's
// short ID, the access level, a device token and the RC5-encrypted
// background payload.
//
// The header bytes are the AES-CTR nonce for the command packet. There is no
// acknowledgment; the Queue repeats each command for a bounded number of
// advertisement windows.
package broadcast

import "fmt"

// CommandType is the type byte of a command packet.
type CommandType uint8

const (
	// CommandNoOp carries no command, only the background payload.
	CommandNoOp CommandType = 0
	// CommandMultiSwitch sets the switch state of up to MaxSwitchItems stones.
	CommandMultiSwitch CommandType = 1
	// CommandSetTime sets the time of every stone in the sphere.
	CommandSetTime CommandType = 2
	// CommandBehaviourSettings enables or disables behaviour.
	CommandBehaviourSettings CommandType = 3
)

// String returns a human-readable name for the command type.
func (c CommandType) String() string {
	switch c {
	case CommandNoOp:
		return "NoOp"
	case CommandMultiSwitch:
		return "MultiSwitch"
	case CommandSetTime:
		return "SetTime"
	case CommandBehaviourSettings:
		return "BehaviourSettings"
	default:
		return fmt.Sprintf("CommandType(%d)", uint8(c))
	}
}

// IsValid returns true if the command type is a defined value.
func (c CommandType) IsValid() bool {
	return c <= CommandBehaviourSettings
}

// Kind is the kind of a queued broadcast item. Items of one kind share a
// payload format; only Switch items are batched into a list.
type Kind int

const (
	// KindSwitch sets one stone's switch state.
	KindSwitch Kind = iota
	// KindSetTime sets the sphere time.
	KindSetTime
	// KindBehaviourSettings enables or disables behaviour.
	KindBehaviourSettings
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindSwitch:
		return "Switch"
	case KindSetTime:
		return "SetTime"
	case KindBehaviourSettings:
		return "BehaviourSettings"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsValid returns true if the kind is a defined value.
func (k Kind) IsValid() bool {
	return k >= KindSwitch && k <= KindBehaviourSettings
}

// CommandType returns the command packet type used for the kind.
func (k Kind) CommandType() CommandType {
	switch k {
	case KindSwitch:
		return CommandMultiSwitch
	case KindSetTime:
		return CommandSetTime
	case KindBehaviourSettings:
		return CommandBehaviourSettings
	default:
		return CommandNoOp
	}
}

// batches reports whether several items of this kind share one payload.
func (k Kind) batches() bool {
	return k == KindSwitch
}
