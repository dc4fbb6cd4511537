package ax25

import (
	"fmt"
	"strconv"
	"strings"
)

// Control and PID byte values used for standard APRS UI frames. Build emits
// these; Parse requires them.
const (
	ControlUI byte = 0x03
	PIDNone   byte = 0xF0
)

// Address is a decoded AX.25 address field: a callsign, its SSID, and
// whether the path H-bit (has-been-repeated) was set.
type Address struct {
	Call string
	SSID int
	HBit bool
}

// String renders the address as "CALL-SSID" (SSID omitted when zero),
// appending '*' if the H-bit is set — the conventional decoded-path form.
func (a Address) String() string {
	s := a.Call
	if a.SSID != 0 {
		s += "-" + strconv.Itoa(a.SSID)
	}
	if a.HBit {
		s += "*"
	}
	return s
}

// ParseAddress splits a "CALL-SSID" or "CALL-SSID*" string into its parts.
// A trailing '*' path marker is recognised and stripped into HBit; it is
// never part of Call.
func ParseAddress(s string) (Address, error) {
	hBit := strings.HasSuffix(s, "*")
	s = strings.TrimSuffix(s, "*")

	call := s
	ssid := 0
	if i := strings.IndexByte(s, '-'); i >= 0 {
		call = s[:i]
		n, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return Address{}, fmt.Errorf("ax25: invalid SSID in %q: %w", s, err)
		}
		ssid = n
	}
	call = strings.ToUpper(call)
	if call == "" || len(call) > 6 {
		return Address{}, fmt.Errorf("ax25: callsign %q must be 1-6 characters", call)
	}
	if ssid < 0 || ssid > 15 {
		return Address{}, fmt.Errorf("ax25: SSID %d out of range 0-15", ssid)
	}
	return Address{Call: call, SSID: ssid, HBit: hBit}, nil
}

// EncodeAddress packs an address into its 7-octet AX.25 wire form: six
// callsign characters shifted left one bit (space-padded), followed by an
// SSID byte carrying the H-bit (bit 7), two reserved bits (6-5, set per
// convention), the SSID (bits 4-1), and the extension bit (bit 0, set on
// the last address of the field).
func EncodeAddress(a Address, last bool) ([]byte, error) {
	call := strings.ToUpper(a.Call)
	if len(call) == 0 || len(call) > 6 {
		return nil, fmt.Errorf("ax25: callsign %q must be 1-6 characters", call)
	}
	if a.SSID < 0 || a.SSID > 15 {
		return nil, fmt.Errorf("ax25: SSID %d out of range 0-15", a.SSID)
	}

	out := make([]byte, 7)
	padded := call + strings.Repeat(" ", 6-len(call))
	for i := 0; i < 6; i++ {
		out[i] = padded[i] << 1
	}

	ssidByte := byte(0x60) | byte(a.SSID<<1)
	if a.HBit {
		ssidByte |= 0x80
	}
	if last {
		ssidByte |= 0x01
	}
	out[6] = ssidByte
	return out, nil
}

// DecodeAddress unpacks a 7-octet AX.25 address field.
func DecodeAddress(b []byte) (a Address, last bool, err error) {
	if len(b) != 7 {
		return Address{}, false, &FrameError{Reason: fmt.Sprintf("address field must be 7 bytes, got %d", len(b))}
	}
	var call strings.Builder
	for i := 0; i < 6; i++ {
		c := b[i] >> 1
		if c != ' ' {
			call.WriteByte(c)
		}
	}
	ssidByte := b[6]
	a = Address{
		Call: call.String(),
		SSID: int((ssidByte >> 1) & 0x0F),
		HBit: ssidByte&0x80 != 0,
	}
	last = ssidByte&0x01 != 0
	if a.Call == "" {
		return Address{}, false, &FrameError{Reason: "empty callsign in address field"}
	}
	return a, last, nil
}
