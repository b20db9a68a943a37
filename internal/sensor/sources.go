package sensor

// Source reads the current value of one analog channel.
type Source interface {
	Read() (float64, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() (float64, error)

func (f SourceFunc) Read() (float64, error) { return f() }

// ParticulateSource reads all three PM fractions from the PMS5003 in a
// single UART transaction. Reads may block for tens of milliseconds, so
// the Aggregator throttles them.
type ParticulateSource interface {
	Read() (pm1, pm25, pm10 float64, err error)
	// Reset re-initializes the sensor after a failed read. Implementations
	// without a reset line return nil.
	Reset() error
}

// ProximitySource reads the LTR559 proximity value in raw counts.
type ProximitySource interface {
	Proximity() (float64, error)
}

// ProximityFunc adapts a function to the ProximitySource interface.
type ProximityFunc func() (float64, error)

func (f ProximityFunc) Proximity() (float64, error) { return f() }

// NoProximity is a proximity source that never triggers.
var NoProximity ProximitySource = ProximityFunc(func() (float64, error) { return 0, nil })
