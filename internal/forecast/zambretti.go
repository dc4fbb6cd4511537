// Package forecast implements the Zambretti weather forecasting algorithm
// (the beteljuice.com June 2008 formulation of the 1915 Negretti and Zambra
// weather forecaster) and the barometric sea-level pressure reduction that
// feeds it. Ported from weather_forecast.py.
package forecast

import "math"

// Descriptions are the 26 Zambretti forecast texts, indexed by the code
// CalculateCode returns.
var Descriptions = [26]string{
	"Settled fine",
	"Fine weather",
	"Becoming fine",
	"Fine, becoming less settled",
	"Fine, possible showers",
	"Fairly fine, improving",
	"Fairly fine, possible showers early",
	"Fairly fine, showery later",
	"Showery early, improving",
	"Changeable, mending",
	"Fairly fine, showers likely",
	"Rather unsettled clearing later",
	"Unsettled, probably improving",
	"Showery, bright intervals",
	"Showery, becoming less settled",
	"Changeable, some rain",
	"Unsettled, short fine intervals",
	"Unsettled, rain later",
	"Unsettled, some rain",
	"Mostly very unsettled",
	"Occasional rain, worsening",
	"Rain at times, very unsettled",
	"Rain at frequent intervals",
	"Rain, very unsettled",
	"Stormy, may improve",
	"Stormy, much rain",
}

// PressureTrend is the three-way classification the store derives from
// weather history (see internal/station's derivePressureTendency).
type PressureTrend string

const (
	TrendRising  PressureTrend = "rising"
	TrendFalling PressureTrend = "falling"
	TrendSteady  PressureTrend = "steady"
)

// Hemisphere selects the wind-adjustment table and seasonal window used by
// CalculateCode.
type Hemisphere string

const (
	HemisphereNorth Hemisphere = "N"
	HemisphereSouth Hemisphere = "S"
)

// AdjustPressureToSeaLevel reduces a station pressure reading to its
// sea-level equivalent via the barometric formula. haveTemperature=false
// means "use the standard atmosphere temperature" (15C / 59F) and
// temperatureF is ignored; altitudeM of 0 is a no-op.
func AdjustPressureToSeaLevel(stationPressureMb, altitudeM, temperatureF float64, haveTemperature bool) float64 {
	if altitudeM == 0 {
		return stationPressureMb
	}

	tempK := 288.15
	if haveTemperature {
		tempC := (temperatureF - 32) * 5 / 9
		tempK = tempC + 273.15
	}

	const exponent = -5.257
	return stationPressureMb * math.Pow(1-(0.0065*altitudeM)/tempK, exponent)
}

type windPoint struct {
	name  string
	angle float64
}

var compass16 = [16]windPoint{
	{"N", 0}, {"NNE", 22.5}, {"NE", 45}, {"ENE", 67.5},
	{"E", 90}, {"ESE", 112.5}, {"SE", 135}, {"SSE", 157.5},
	{"S", 180}, {"SSW", 202.5}, {"SW", 225}, {"WSW", 247.5},
	{"W", 270}, {"WNW", 292.5}, {"NW", 315}, {"NNW", 337.5},
}

var windAdjustmentsNorth = map[string]float64{
	"N": 6, "NNE": 5, "NE": 5, "ENE": 2,
	"E": -0.5, "ESE": -2, "SE": -5, "SSE": -8.5,
	"S": -12, "SSW": -10, "SW": -6, "WSW": -4.5,
	"W": -3, "WNW": -0.5, "NW": 1.5, "NNW": 3,
}

var windAdjustmentsSouth = map[string]float64{
	"S": 6, "SSW": 5, "SW": 5, "WSW": 2,
	"W": -0.5, "WNW": -2, "NW": -5, "NNW": -8.5,
	"N": -12, "NNE": -10, "NE": -6, "ENE": -4.5,
	"E": -3, "ESE": -0.5, "SE": 1.5, "SSE": 3,
}

// rise/steady/fall lookup tables: option index (0-21) -> forecast code (0-25).
var riseOptions = [22]int{25, 25, 25, 24, 24, 19, 16, 12, 11, 9, 8, 6, 5, 2, 1, 1, 0, 0, 0, 0, 0, 0}
var steadyOptions = [22]int{25, 25, 25, 25, 25, 25, 23, 23, 22, 18, 15, 13, 10, 4, 1, 1, 0, 0, 0, 0, 0, 0}
var fallOptions = [22]int{25, 25, 25, 25, 25, 25, 25, 25, 23, 23, 21, 20, 17, 14, 7, 3, 1, 1, 1, 0, 0, 0}

const (
	zBaroTop    = 1050.0
	zBaroBottom = 950.0
)

// CalculateCode returns the Zambretti forecast index (0-25) for a sea-level
// pressure reading, pressure trend, optional wind direction (degrees,
// hasWind=false means calm/unknown), optional month (1-12, month=0 means no
// seasonal adjustment) and hemisphere.
func CalculateCode(seaLevelPressureMb float64, trend PressureTrend, windDirection int, hasWind bool, month int, hemisphere Hemisphere) int {
	zRange := zBaroTop - zBaroBottom
	zConstant := zRange / 22.0
	zHpa := seaLevelPressureMb

	isSummer := false
	if month != 0 {
		if hemisphere == HemisphereNorth {
			isSummer = month >= 4 && month <= 9
		} else {
			isSummer = month <= 3 || month >= 10
		}
	}

	if hasWind {
		cardinal := nearestCardinal(float64(windDirection))
		table := windAdjustmentsNorth
		if hemisphere == HemisphereSouth {
			table = windAdjustmentsSouth
		}
		if adj, ok := table[cardinal]; ok {
			zHpa += (adj / 100.0) * zRange
		}
	}

	applySeasonal := month != 0 && ((hemisphere == HemisphereNorth && isSummer) || (hemisphere == HemisphereSouth && !isSummer))
	if applySeasonal {
		switch trend {
		case TrendRising:
			zHpa += (7.0 / 100.0) * zRange
		case TrendFalling:
			zHpa -= (7.0 / 100.0) * zRange
		}
	}

	if zHpa >= zBaroTop {
		zHpa = zBaroTop - 1
	}

	option := int((zHpa - zBaroBottom) / zConstant)
	if option < 0 {
		option = 0
	}
	if option > 21 {
		option = 21
	}

	switch trend {
	case TrendRising:
		return riseOptions[option]
	case TrendFalling:
		return fallOptions[option]
	default:
		return steadyOptions[option]
	}
}

func nearestCardinal(degrees float64) string {
	best := compass16[0].name
	minDiff := 360.0
	for _, p := range compass16 {
		diff := math.Abs(degrees - p.angle)
		if diff > 180 {
			diff = 360 - diff
		}
		if diff < minDiff {
			minDiff = diff
			best = p.name
		}
	}
	return best
}

// Describe returns the forecast text for a Zambretti code, or "" if the
// code is out of range.
func Describe(code int) string {
	if code < 0 || code >= len(Descriptions) {
		return ""
	}
	return Descriptions[code]
}
