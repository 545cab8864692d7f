package connection

import "github.com/google/uuid"

// UUIDs names the GATT service and characteristics of one mode.
type UUIDs struct {
	Service  uuid.UUID
	Session  uuid.UUID
	Control  uuid.UUID
	Result   uuid.UUID
	SetupKey uuid.UUID // ModeSetup only
}

// Crownstone GATT identifiers for normal and setup mode.
var (
	CrownstoneService = uuid.MustParse("24f00000-7d10-4805-bfc1-7663a01c3bff")
	ControlChar       = uuid.MustParse("24f0000c-7d10-4805-bfc1-7663a01c3bff")
	ResultChar        = uuid.MustParse("24f0000d-7d10-4805-bfc1-7663a01c3bff")
	SessionDataChar   = uuid.MustParse("24f0000e-7d10-4805-bfc1-7663a01c3bff")

	SetupService         = uuid.MustParse("24f10000-7d10-4805-bfc1-7663a01c3bff")
	SetupKeyChar         = uuid.MustParse("24f10003-7d10-4805-bfc1-7663a01c3bff")
	SetupControlChar     = uuid.MustParse("24f1000c-7d10-4805-bfc1-7663a01c3bff")
	SetupResultChar      = uuid.MustParse("24f1000d-7d10-4805-bfc1-7663a01c3bff")
	SetupSessionDataChar = uuid.MustParse("24f1000e-7d10-4805-bfc1-7663a01c3bff")
)

// DefaultUUIDs returns the characteristic set used in mode m.
func DefaultUUIDs(m Mode) UUIDs {
	if m == ModeSetup {
		return UUIDs{
			Service:  SetupService,
			Session:  SetupSessionDataChar,
			Control:  SetupControlChar,
			Result:   SetupResultChar,
			SetupKey: SetupKeyChar,
		}
	}
	return UUIDs{
		Service: CrownstoneService,
		Session: SessionDataChar,
		Control: ControlChar,
		Result:  ResultChar,
	}
}
