// Package channel defines the eleven measurement channels of the Enviro+
// HAT, their units, display formatting and safety limit bands.
package channel

import "strconv"

// Channel identifies one measured quantity. The declaration order matches
// the LCD screen rotation order.
type Channel int

const (
	Noise Channel = iota
	Temperature
	Pressure
	Humidity
	Light
	Oxidised
	Reduced
	NH3
	PM1
	PM25
	PM10
	numChannels
)

// Count is the number of measurement channels.
const Count = int(numChannels)

var names = [Count]string{
	"noise", "temperature", "pressure", "humidity", "light",
	"oxidised", "reduced", "nh3", "pm1", "pm25", "pm10",
}

var units = [Count]string{
	"dB", "C", "hPa", "%", "Lux", "kO", "kO", "kO", "ug/m3", "ug/m3", "ug/m3",
}

// limits holds per-channel safety thresholds:
// [dangerously_low, low, high, dangerously_high]. -1 means not applicable.
var limits = [Count][4]float64{
	{40, 55, 70, 85},          // noise dB
	{4, 18, 28, 35},           // temperature C
	{250, 650, 1013.25, 1015}, // pressure hPa
	{20, 30, 60, 70},          // humidity %
	{-1, -1, 30000, 100000},   // light Lux
	{-1, -1, 40, 50},          // oxidised kOhm
	{-1, -1, 450, 550},        // reduced kOhm
	{-1, -1, 200, 300},        // nh3 kOhm
	{-1, -1, 50, 100},         // pm1
	{-1, -1, 50, 100},         // pm25
	{-1, -1, 50, 100},         // pm10
}

// All returns the channels in screen rotation order.
func All() []Channel {
	cs := make([]Channel, Count)
	for i := range cs {
		cs[i] = Channel(i)
	}
	return cs
}

// Parse resolves a channel by its wire name.
func Parse(name string) (Channel, bool) {
	for i, n := range names {
		if n == name {
			return Channel(i), true
		}
	}
	return 0, false
}

func (c Channel) String() string {
	if c < 0 || int(c) >= Count {
		return "unknown"
	}
	return names[c]
}

// Unit returns the display unit for the channel.
func (c Channel) Unit() string {
	return units[c]
}

// Limits returns the safety thresholds for the channel.
func (c Channel) Limits() [4]float64 {
	return limits[c]
}

// Integer reports whether the channel uses zero-decimal formatting.
// Particulate matter counts are whole micrograms; everything else carries
// one decimal place.
func (c Channel) Integer() bool {
	return c == PM1 || c == PM25 || c == PM10
}

// Format renders a value with the channel's decimal precision.
func (c Channel) Format(v float64) string {
	if c.Integer() {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
