// Package wx extracts embedded weather fields from an APRS info-field tail
// and cleans the remaining freeform comment, shared by the position and
// weather-only dialect parsers.
package wx

import (
	"strconv"
	"strings"

	"aprsgw/internal/aprs"
	"aprsgw/internal/aprsregex"
)

// Extract scans tail for weather field patterns, returning the populated
// Weather (nil, false if none found) and the comment left after removing
// every recognised field plus altitude/course-speed/PHG/RNG/DFS markers.
func Extract(tail string) (w *aprs.Weather, found bool, comment string) {
	working := tail
	result := &aprs.Weather{RawInfo: tail}

	if m := aprsregex.WindDirSpeed.FindStringSubmatchIndex(working); m != nil {
		dir, _ := strconv.Atoi(working[m[2]:m[3]])
		spd, _ := strconv.Atoi(working[m[4]:m[5]])
		result.HasWindDir, result.WindDirDeg = true, dir
		result.HasWindSpeed, result.WindSpeedMph = true, spd
		found = true
		working = cut(working, m[0], m[1])
	} else if m := aprsregex.WindDirSpeedCompact.FindStringSubmatchIndex(working); m != nil {
		dir, _ := strconv.Atoi(working[m[2]:m[3]])
		spd, _ := strconv.Atoi(working[m[4]:m[5]])
		result.HasWindDir, result.WindDirDeg = true, dir
		result.HasWindSpeed, result.WindSpeedMph = true, spd
		found = true
		working = cut(working, m[0], m[1])
	}

	if m := aprsregex.Gust.FindStringSubmatchIndex(working); m != nil {
		v, _ := strconv.Atoi(working[m[2]:m[3]])
		result.HasWindGust, result.WindGustMph = true, v
		found = true
		working = cut(working, m[0], m[1])
	}

	if m := aprsregex.Temperature.FindStringSubmatchIndex(working); m != nil {
		v, _ := strconv.Atoi(working[m[2]:m[3]])
		if v > 200 {
			v -= 256 // two's-complement style negative encoding, e.g. t253 == -3
		}
		result.HasTemperatureF, result.TemperatureF = true, v
		found = true
		working = cut(working, m[0], m[1])
	}

	if m := aprsregex.Rain1h.FindStringSubmatchIndex(working); m != nil {
		v, _ := strconv.Atoi(working[m[2]:m[3]])
		result.HasRain1h, result.Rain1hIn = true, float64(v)/100
		found = true
		working = cut(working, m[0], m[1])
	}
	if m := aprsregex.Rain24h.FindStringSubmatchIndex(working); m != nil {
		v, _ := strconv.Atoi(working[m[2]:m[3]])
		result.HasRain24h, result.Rain24hIn = true, float64(v)/100
		found = true
		working = cut(working, m[0], m[1])
	}
	if m := aprsregex.RainMidnight.FindStringSubmatchIndex(working); m != nil {
		v, _ := strconv.Atoi(working[m[2]:m[3]])
		result.HasRainMidnight, result.RainMidnightIn = true, float64(v)/100
		found = true
		working = cut(working, m[0], m[1])
	}

	if m := aprsregex.Humidity.FindStringSubmatchIndex(working); m != nil {
		v, _ := strconv.Atoi(working[m[2]:m[3]])
		if v == 0 {
			v = 100
		}
		result.HasHumidity, result.HumidityPct = true, v
		found = true
		working = cut(working, m[0], m[1])
	}

	if m := aprsregex.Pressure.FindStringSubmatchIndex(working); m != nil {
		raw, _ := strconv.Atoi(working[m[2]:m[3]])
		if mb, ok := decodePressure(raw); ok {
			result.HasPressure, result.PressureMb = true, mb
			found = true
		}
		working = cut(working, m[0], m[1])
	}

	comment = cleanComment(working)

	if !found {
		return nil, false, comment
	}
	return result, true, comment
}

// decodePressure auto-detects units: tenths of mb in plausible range
// 900-1100, else hundredths of inHg in 25-32 converted to mb.
func decodePressure(raw int) (mb float64, ok bool) {
	tenthsMb := float64(raw) / 10
	if tenthsMb >= 900 && tenthsMb <= 1100 {
		return tenthsMb, true
	}
	hundredthsInHg := float64(raw) / 100
	if hundredthsInHg >= 25 && hundredthsInHg <= 32 {
		return hundredthsInHg * 33.8639, true
	}
	return 0, false
}

// ParsePressureFromRaw re-derives a pressure value from a raw info string,
// used by the persistence pressure-migration-on-load path.
func ParsePressureFromRaw(raw string) (mb float64, ok bool) {
	m := aprsregex.Pressure.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return decodePressure(v)
}

func cut(s string, start, end int) string {
	return s[:start] + s[end:]
}

func cleanComment(s string) string {
	s = aprsregex.Altitude.ReplaceAllString(s, "")
	s = aprsregex.CourseSpeed.ReplaceAllString(s, "")
	s = aprsregex.PHG.ReplaceAllString(s, "")
	s = aprsregex.RNG.ReplaceAllString(s, "")
	s = aprsregex.DFS.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
