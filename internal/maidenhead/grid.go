// Package maidenhead converts between latitude/longitude and Maidenhead
// grid square locators (2 to 10 characters), the nested geographic
// identifier scheme used throughout amateur radio.
package maidenhead

import (
	"fmt"
	"strings"
)

// Encode converts a latitude/longitude pair into its enclosing 6-character
// Maidenhead grid square, e.g. "FN31pr".
func Encode(lat, lon float64) string {
	return encodeToLength(lat, lon, 6)
}

// EncodeLength converts a latitude/longitude pair into a grid square of
// the given length (2, 4, 6, 8, or 10 characters).
func EncodeLength(lat, lon float64, length int) (string, error) {
	switch length {
	case 2, 4, 6, 8, 10:
	default:
		return "", fmt.Errorf("maidenhead: length must be 2, 4, 6, 8, or 10, got %d", length)
	}
	return encodeToLength(lat, lon, length), nil
}

func encodeToLength(lat, lon float64, length int) string {
	lonAdj := lon + 180
	latAdj := lat + 90

	fieldLon := int(lonAdj / 20)
	fieldLat := int(latAdj / 10)

	var b strings.Builder
	b.WriteByte(byte('A' + fieldLon))
	b.WriteByte(byte('A' + fieldLat))
	if length == 2 {
		return b.String()
	}

	squareLon := int(mod(lonAdj, 20) / 2)
	squareLat := int(mod(latAdj, 10) / 1)
	fmt.Fprintf(&b, "%d%d", squareLon, squareLat)
	if length == 4 {
		return b.String()
	}

	subLon := int((mod(lonAdj, 2) * 60) / 5)
	subLat := int((mod(latAdj, 1) * 60) / 2.5)
	b.WriteByte(byte('a' + subLon))
	b.WriteByte(byte('a' + subLat))
	if length == 6 {
		return b.String()
	}

	extLon := int(mod(lonAdj, 2.0/24) / (2.0 / 240))
	extLat := int(mod(latAdj, 1.0/24) / (1.0 / 240))
	fmt.Fprintf(&b, "%d%d", extLon, extLat)
	if length == 8 {
		return b.String()
	}

	superLon := int(mod(lonAdj, 2.0/240) / (2.0 / 5760))
	superLat := int(mod(latAdj, 1.0/240) / (1.0 / 5760))
	b.WriteByte(byte('a' + superLon))
	b.WriteByte(byte('a' + superLat))
	return b.String()
}

func mod(a, b float64) float64 {
	m := a - floor(a/b)*b
	if m < 0 {
		m += b
	}
	return m
}

func floor(x float64) float64 {
	i := int64(x)
	if x < 0 && float64(i) != x {
		i--
	}
	return float64(i)
}

// Decode converts a Maidenhead grid square (2-10 characters, even length)
// into the latitude/longitude at its centre.
func Decode(grid string) (lat, lon float64, err error) {
	grid = strings.ToUpper(grid)
	n := len(grid)
	if n < 2 || n > 10 || n%2 != 0 {
		return 0, 0, fmt.Errorf("maidenhead: grid must be 2, 4, 6, 8, or 10 characters, got %d", n)
	}

	if !isAlpha(grid[0]) || !isAlpha(grid[1]) {
		return 0, 0, fmt.Errorf("maidenhead: first 2 characters must be letters: %q", grid[:2])
	}
	fieldLon := int(grid[0] - 'A')
	fieldLat := int(grid[1] - 'A')
	if fieldLon < 0 || fieldLon > 17 || fieldLat < 0 || fieldLat > 17 {
		return 0, 0, fmt.Errorf("maidenhead: field must be A-R: %q", grid[:2])
	}
	lon = float64(fieldLon)*20 - 180
	lat = float64(fieldLat)*10 - 90

	if n >= 4 {
		if !isDigit(grid[2]) || !isDigit(grid[3]) {
			return 0, 0, fmt.Errorf("maidenhead: characters 3-4 must be digits: %q", grid[2:4])
		}
		lon += float64(grid[2]-'0') * 2
		lat += float64(grid[3]-'0') * 1
	}

	if n >= 6 {
		lo := strings.ToLower(grid[4:6])
		if !isAlphaLower(lo[0]) || !isAlphaLower(lo[1]) {
			return 0, 0, fmt.Errorf("maidenhead: characters 5-6 must be letters: %q", grid[4:6])
		}
		subLon := int(lo[0] - 'a')
		subLat := int(lo[1] - 'a')
		if subLon < 0 || subLon > 23 || subLat < 0 || subLat > 23 {
			return 0, 0, fmt.Errorf("maidenhead: subsquare must be a-x: %q", grid[4:6])
		}
		lon += float64(subLon) * (2.0 / 24)
		lat += float64(subLat) * (1.0 / 24)
	}

	if n >= 8 {
		if !isDigit(grid[6]) || !isDigit(grid[7]) {
			return 0, 0, fmt.Errorf("maidenhead: characters 7-8 must be digits: %q", grid[6:8])
		}
		lon += float64(grid[6]-'0') * (2.0 / 240)
		lat += float64(grid[7]-'0') * (1.0 / 240)
	}

	if n >= 10 {
		lo := strings.ToLower(grid[8:10])
		if !isAlphaLower(lo[0]) || !isAlphaLower(lo[1]) {
			return 0, 0, fmt.Errorf("maidenhead: characters 9-10 must be letters: %q", grid[8:10])
		}
		superLon := int(lo[0] - 'a')
		superLat := int(lo[1] - 'a')
		if superLon < 0 || superLon > 23 || superLat < 0 || superLat > 23 {
			return 0, 0, fmt.Errorf("maidenhead: super-extended must be a-x: %q", grid[8:10])
		}
		lon += float64(superLon) * (2.0 / 5760)
		lat += float64(superLat) * (1.0 / 5760)
	}

	switch n {
	case 2:
		lon += 10
		lat += 5
	case 4:
		lon += 1
		lat += 0.5
	case 6:
		lon += 2.0 / 48
		lat += 1.0 / 48
	case 8:
		lon += 2.0 / 480
		lat += 1.0 / 480
	case 10:
		lon += 2.0 / 11520
		lat += 1.0 / 11520
	}

	return lat, lon, nil
}

func isAlpha(c byte) bool      { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }
func isAlphaLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
