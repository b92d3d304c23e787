package exporter

import (
	"fmt"
	"strconv"
)

// formatChannelValue formats a channel reading using the channel's inferred
// decimal precision, so a value sampled as 13.4 with precision 2 exports as
// 13.40. Sentinel readings export as the dummy marker, never as a number.
func formatChannelValue(v float64, precision int, missingValue float64, dummyMarker string) string {
	if v == missingValue {
		return dummyMarker
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatFlight formats an optional flight number, blank when unset
func formatFlight(flight int, ok bool) string {
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d", flight)
}
