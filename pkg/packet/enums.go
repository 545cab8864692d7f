// Package packet implements the binary framing shared by every command, state
// and result exchanged with a Crownstone over GATT.
//
// All multi-byte fields are little-endian. The generic envelope is the stream
// packet:
//
//	type (1) | opcode (1) | length (2) | payload (length)
//
// Headers are pluggable through the Header interface so new header shapes
// (for example the indexed header used by configuration and state packets)
// compose with the same Encode/Decode helpers.
package packet

import "fmt"

// Opcode selects the direction and meaning of a stream packet.
type Opcode uint8

const (
	// OpcodeRead requests a value.
	OpcodeRead Opcode = 0
	// OpcodeWrite sets a value or executes a command.
	OpcodeWrite Opcode = 1
	// OpcodeNotify is an unsolicited update.
	OpcodeNotify Opcode = 2
	// OpcodeResult answers a previous Read or Write.
	OpcodeResult Opcode = 3
)

// String returns a human-readable name for the opcode.
func (o Opcode) String() string {
	switch o {
	case OpcodeRead:
		return "Read"
	case OpcodeWrite:
		return "Write"
	case OpcodeNotify:
		return "Notify"
	case OpcodeResult:
		return "Result"
	default:
		return fmt.Sprintf("Opcode(%d)", uint8(o))
	}
}

// IsValid returns true if the opcode is a defined value.
func (o Opcode) IsValid() bool {
	return o <= OpcodeResult
}

// ResultCode is the status carried at the start of a result payload.
type ResultCode uint16

const (
	ResultSuccess          ResultCode = 0
	ResultWaitForSuccess   ResultCode = 1
	ResultBufferUnassigned ResultCode = 16
	ResultBufferLocked     ResultCode = 17
	ResultBufferTooSmall   ResultCode = 18
	ResultWrongPayloadSize ResultCode = 32
	ResultWrongParameter   ResultCode = 33
	ResultInvalidMessage   ResultCode = 34
	ResultUnknownOpCode    ResultCode = 35
	ResultUnknownType      ResultCode = 36
	ResultNotFound         ResultCode = 37
	ResultNoAccess         ResultCode = 48
	ResultNotAvailable     ResultCode = 64
	ResultNotImplemented   ResultCode = 65
	ResultUnspecified      ResultCode = 0xFFFF
)

// String returns a human-readable name for the result code.
func (r ResultCode) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultWaitForSuccess:
		return "WaitForSuccess"
	case ResultBufferUnassigned:
		return "BufferUnassigned"
	case ResultBufferLocked:
		return "BufferLocked"
	case ResultBufferTooSmall:
		return "BufferTooSmall"
	case ResultWrongPayloadSize:
		return "WrongPayloadSize"
	case ResultWrongParameter:
		return "WrongParameter"
	case ResultInvalidMessage:
		return "InvalidMessage"
	case ResultUnknownOpCode:
		return "UnknownOpCode"
	case ResultUnknownType:
		return "UnknownType"
	case ResultNotFound:
		return "NotFound"
	case ResultNoAccess:
		return "NoAccess"
	case ResultNotAvailable:
		return "NotAvailable"
	case ResultNotImplemented:
		return "NotImplemented"
	case ResultUnspecified:
		return "Unspecified"
	default:
		return fmt.Sprintf("ResultCode(%d)", uint16(r))
	}
}
