// Rewind - Playback History Archive for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rewind

package importer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Playback Reporting exports carry dates in whatever format the plugin
// version and host locale produced. ParseDate works through an ordered
// chain of independent strategies; the first one that succeeds wins.

// dateStrategy attempts one interpretation of a raw date string.
type dateStrategy func(string) (time.Time, bool)

// dateStrategies is evaluated in order. The fixed seven-digit form must
// run before the generic space-separated form because Go's time package
// cannot express a seven-digit fraction directly.
var dateStrategies = []dateStrategy{
	parseSevenDigitFraction,
	parseSpaceSeparatedFraction,
	parseSpaceSeparated,
	parseISO8601,
	parseNaiveDateTime,
	parseTextual,
	parseUnixTimestamp,
}

// sevenDigitPattern matches the .NET round-trip style
// "2024-01-15 10:30:00.1234567" with exactly seven fractional digits.
var sevenDigitPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{7}$`)

// ParseDate converts a raw date string to a UTC timestamp. Returns
// false if every strategy fails; the caller treats that as a fatal
// per-record error, not a pipeline abort.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, strategy := range dateStrategies {
		if t, ok := strategy(raw); ok {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseSevenDigitFraction handles the fixed-width seven-digit
// fractional form by truncating to microseconds before parsing.
func parseSevenDigitFraction(raw string) (time.Time, bool) {
	if !sevenDigitPattern.MatchString(raw) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05.999999", raw[:len(raw)-1], time.UTC)
	return t, err == nil
}

// parseSpaceSeparatedFraction handles "2006-01-02 15:04:05.<frac>" with
// a variable-width fractional part.
func parseSpaceSeparatedFraction(raw string) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02 15:04:05.999999999", raw, time.UTC)
	return t, err == nil
}

// parseSpaceSeparated handles "2006-01-02 15:04:05" with no fraction.
func parseSpaceSeparated(raw string) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", raw, time.UTC)
	return t, err == nil
}

// parseISO8601 handles RFC 3339 / ISO-8601 forms with an explicit
// offset or Z suffix.
func parseISO8601(raw string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	return t, err == nil
}

// parseNaiveDateTime handles "2006-01-02T15:04:05" with no timezone,
// assumed UTC.
func parseNaiveDateTime(raw string) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", raw, time.UTC)
	return t, err == nil
}

// textualLayouts are verbose forms with weekday/month names and a
// timezone abbreviation.
var textualLayouts = []string{
	time.RFC1123,  // "Mon, 02 Jan 2006 15:04:05 MST"
	time.RFC1123Z, // "Mon, 02 Jan 2006 15:04:05 -0700"
	time.UnixDate, // "Mon Jan _2 15:04:05 MST 2006"
	time.ANSIC,    // "Mon Jan _2 15:04:05 2006"
}

// parseTextual handles the verbose textual layouts.
func parseTextual(raw string) (time.Time, bool) {
	for _, layout := range textualLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// millisecondCutoff separates second-scale from millisecond-scale Unix
// timestamps: values above 10^11 are far beyond any plausible
// second-scale date (year 5138) and must be milliseconds.
const millisecondCutoff = int64(100_000_000_000)

// parseUnixTimestamp handles numeric Unix timestamps, auto-detecting
// millisecond-scale values.
func parseUnixTimestamp(raw string) (time.Time, bool) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	if v > millisecondCutoff || v < -millisecondCutoff {
		return time.UnixMilli(v), true
	}
	return time.Unix(v, 0), true
}
