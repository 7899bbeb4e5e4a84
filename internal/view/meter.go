package view

import (
	"fmt"
	"html/template"
)

// Gauge bounds and thresholds of the signal meter.
const (
	MeterMin     = 0
	MeterMax     = 100
	MeterLow     = 50
	MeterHigh    = 70
	MeterOptimum = 100
)

// RSSIOffset shifts a dBm reading into a positive gauge value.
const RSSIOffset = 127

// ClampMeter bounds v to [MeterMin, MeterMax].
func ClampMeter(v int) int {
	switch {
	case v < MeterMin:
		return MeterMin
	case v > MeterMax:
		return MeterMax
	}
	return v
}

// StrengthValue converts an RSSI in dBm to a gauge value. Readings above
// -27 dBm would exceed the gauge and are clamped.
func StrengthValue(rssi int) int {
	return ClampMeter(RSSIOffset + rssi)
}

// Meter renders a gauge element for value, clamped to 0-100.
func Meter(value int) template.HTML {
	v := ClampMeter(value)
	return template.HTML(fmt.Sprintf(
		`<meter min="%d" max="%d" value="%d" low="%d" high="%d" optimum="%d">%d</meter>`,
		MeterMin, MeterMax, v, MeterLow, MeterHigh, MeterOptimum, v,
	))
}

// Strength renders the gauge for an RSSI reading.
func Strength(rssi int) template.HTML {
	return Meter(StrengthValue(rssi))
}
