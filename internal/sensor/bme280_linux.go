//go:build linux && (arm || arm64)

package sensor

import (
	"github.com/d2r2/go-bsbmp"
	"github.com/d2r2/go-i2c"
)

// bme280Addr is the Enviro+ BME280 I2C address. Run 'i2cdetect -y 1' if
// the sensor does not answer; some boards ship at 0x77.
const bme280Addr = 0x76

// BME280 wraps the on-board temperature/pressure/humidity sensor.
type BME280 struct {
	bus    *i2c.I2C
	sensor *bsbmp.BMP
}

// NewBME280 opens I2C bus 1 and probes the BME280.
func NewBME280() (*BME280, error) {
	bus, err := i2c.NewI2C(bme280Addr, 1)
	if err != nil {
		return nil, err
	}
	sensor, err := bsbmp.NewBMP(bsbmp.BME280, bus)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return &BME280{bus: bus, sensor: sensor}, nil
}

// Temperature returns degrees Celsius. Pair with NewTempCompensator; the
// raw value runs hot from the Pi's SoC.
func (b *BME280) Temperature() (float64, error) {
	t, err := b.sensor.ReadTemperatureC(bsbmp.ACCURACY_STANDARD)
	return float64(t), err
}

// Pressure returns hPa.
func (b *BME280) Pressure() (float64, error) {
	p, err := b.sensor.ReadPressurePa(bsbmp.ACCURACY_STANDARD)
	return float64(p) / 100.0, err
}

// Humidity returns relative humidity in percent.
func (b *BME280) Humidity() (float64, error) {
	_, h, err := b.sensor.ReadHumidityRH(bsbmp.ACCURACY_STANDARD)
	return float64(h), err
}

// Close releases the I2C handle.
func (b *BME280) Close() error {
	return b.bus.Close()
}
