package ax25

import "fmt"

// MaxDigipeaters is the largest path the UI frame builder accepts (spec
// §4.1: digi path of at most 8 entries).
const MaxDigipeaters = 8

// UIFrame is a decoded AX.25 UI (unnumbered information) frame carrying an
// APRS information field.
type UIFrame struct {
	Dest    Address
	Source  Address
	Path    []Address
	Info    []byte
}

// BuildUIFrame assembles the AX.25 address/control/PID/info bytes for a UI
// frame. The transmit side never sets H-bits on outbound path entries.
func BuildUIFrame(source, dest Address, path []Address, info []byte) ([]byte, error) {
	if len(path) > MaxDigipeaters {
		return nil, fmt.Errorf("ax25: path has %d entries, max %d", len(path), MaxDigipeaters)
	}

	var out []byte

	destBytes, err := EncodeAddress(dest, false)
	if err != nil {
		return nil, err
	}
	out = append(out, destBytes...)

	lastIsSource := len(path) == 0
	srcBytes, err := EncodeAddress(source, lastIsSource)
	if err != nil {
		return nil, err
	}
	out = append(out, srcBytes...)

	for i, hop := range path {
		clean := hop
		clean.HBit = false // never set H-bits on transmit
		last := i == len(path)-1
		hopBytes, err := EncodeAddress(clean, last)
		if err != nil {
			return nil, err
		}
		out = append(out, hopBytes...)
	}

	out = append(out, ControlUI, PIDNone)
	out = append(out, info...)
	return out, nil
}

// ParseUIFrame decodes AX.25 address/control/PID/info bytes into a UIFrame.
// Returns a *FrameError if the frame is truncated, addresses are malformed,
// or the control/PID bytes do not identify a standard APRS UI frame.
func ParseUIFrame(data []byte) (*UIFrame, error) {
	if len(data) < 7*2+2 {
		return nil, &FrameError{Reason: "frame shorter than minimum dest+src+control+pid"}
	}

	dest, destLast, err := DecodeAddress(data[0:7])
	if err != nil {
		return nil, err
	}
	if destLast {
		return nil, &FrameError{Reason: "destination address set the extension bit; no source address follows"}
	}

	src, srcLast, err := DecodeAddress(data[7:14])
	if err != nil {
		return nil, err
	}

	offset := 14
	var path []Address
	last := srcLast
	for !last {
		if offset+7 > len(data) {
			return nil, &FrameError{Reason: "truncated digipeater path"}
		}
		if len(path) >= MaxDigipeaters {
			return nil, &FrameError{Reason: "digipeater path exceeds maximum length"}
		}
		addr, addrLast, err := DecodeAddress(data[offset : offset+7])
		if err != nil {
			return nil, err
		}
		path = append(path, addr)
		last = addrLast
		offset += 7
	}

	if offset+2 > len(data) {
		return nil, &FrameError{Reason: "truncated control/PID"}
	}
	control, pid := data[offset], data[offset+1]
	if control != ControlUI {
		return nil, &FrameError{Reason: fmt.Sprintf("unsupported control byte 0x%02X, only UI (0x03) is handled", control)}
	}
	if pid != PIDNone {
		return nil, &FrameError{Reason: fmt.Sprintf("unsupported PID 0x%02X, only 0xF0 is handled", pid)}
	}

	return &UIFrame{
		Dest:   dest,
		Source: src,
		Path:   path,
		Info:   data[offset+2:],
	}, nil
}
