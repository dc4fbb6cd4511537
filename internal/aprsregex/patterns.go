// Package aprsregex centralises the regular expressions shared across APRS
// dialect parsers, following the convention of keeping cross-parser regexes
// in one place with a doc comment per pattern.
package aprsregex

import "regexp"

// WindDirSpeed matches the "_ddd/sss" wind direction/speed field.
var WindDirSpeed = regexp.MustCompile(`_(\d{3})/(\d{3})`)

// WindDirSpeedCompact matches the compact "cdddsddd" wind form sometimes
// seen without a leading underscore.
var WindDirSpeedCompact = regexp.MustCompile(`c(\d{3})s(\d{3})`)

// Gust matches wind gust in mph, "gNNN".
var Gust = regexp.MustCompile(`g(\d{3})`)

// Temperature matches temperature in degrees F, "t-NN" or "tNNN" (values
// over 200 are two's-complement negatives, e.g. t253 => -3).
var Temperature = regexp.MustCompile(`t(-?\d{1,3})`)

// Rain1h matches rainfall in the last hour, hundredths of an inch.
var Rain1h = regexp.MustCompile(`r(\d{3})`)

// Rain24h matches rainfall in the last 24 hours, hundredths of an inch.
var Rain24h = regexp.MustCompile(`p(\d{3})`)

// RainMidnight matches rainfall since local midnight, hundredths of an inch.
var RainMidnight = regexp.MustCompile(`P(\d{3})`)

// Humidity matches relative humidity, "hNN" (00 means 100%).
var Humidity = regexp.MustCompile(`h(\d{2})`)

// Pressure matches barometric pressure, "bNNNNN", unit ambiguous until
// range-checked by the caller (tenths of mb vs hundredths of inHg).
var Pressure = regexp.MustCompile(`b(\d{5})`)

// Altitude matches the "/A=NNNNNN" altitude-in-feet suffix.
var Altitude = regexp.MustCompile(`/A=(\d{6})`)

// CourseSpeed matches a "ddd/sss" course/speed pair in a comment tail.
var CourseSpeed = regexp.MustCompile(`(\d{3})/(\d{3})`)

// PHG matches a station capability field (power-height-gain).
var PHG = regexp.MustCompile(`PHG(\d{4})`)

// RNG matches a station range field.
var RNG = regexp.MustCompile(`RNG(\d{4})`)

// DFS matches a direction-finding strength field.
var DFS = regexp.MustCompile(`DFS(\d{4})`)

// AllWeatherFields lists every regex considered part of a "weather field"
// for the purposes of comment cleaning: anything matched by one of these
// is stripped from the freeform comment tail.
var AllWeatherFields = []*regexp.Regexp{
	WindDirSpeed, WindDirSpeedCompact, Gust, Temperature,
	Rain1h, Rain24h, RainMidnight, Humidity, Pressure,
}
