package sensor

// The BME280 sits close enough to the Pi's SoC that its temperature
// reading is skewed by CPU heat. Compensation follows the Pimoroni
// formula: raw - (avg_cpu - raw) / factor, with the CPU temperature
// averaged over a small rolling window to smooth load spikes.

const (
	tempCompFactor = 2.25
	cpuTempSamples = 5
)

// TempCompensator wraps a raw temperature Source and corrects it for CPU
// heat soak.
type TempCompensator struct {
	raw     Source
	cpuTemp func() float64
	window  []float64
}

// NewTempCompensator builds a compensator around a raw BME280 temperature
// source. cpuTemp reads the SoC temperature in Celsius.
func NewTempCompensator(raw Source, cpuTemp func() float64) *TempCompensator {
	w := make([]float64, cpuTempSamples)
	first := cpuTemp()
	for i := range w {
		w[i] = first
	}
	return &TempCompensator{raw: raw, cpuTemp: cpuTemp, window: w}
}

// Read returns the compensated temperature.
func (t *TempCompensator) Read() (float64, error) {
	raw, err := t.raw.Read()
	if err != nil {
		return 0, err
	}
	copy(t.window, t.window[1:])
	t.window[len(t.window)-1] = t.cpuTemp()

	sum := 0.0
	for _, v := range t.window {
		sum += v
	}
	avg := sum / float64(len(t.window))

	return raw - ((avg - raw) / tempCompFactor), nil
}
