// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd30

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/scd30/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// PPM=Parts Per Million. Units of measure for CO2 concentration.
type PPM float32

func (ppm PPM) String() string {
	return fmt.Sprintf("%.0f PPM", float32(ppm))
}

const (
	// SensorAddress is the only I²C address the SCD30 answers on.
	SensorAddress uint16 = 0x61

	// The device needs time between the command and the read phase.
	readDelay = 3 * time.Millisecond
	// Settle time after a soft reset.
	resetDelay = 30 * time.Millisecond
	// How often Sense polls the data ready register.
	pollInterval = 100 * time.Millisecond

	minInterval = 2 * time.Second
	maxInterval = 1800 * time.Second

	minPressure = 700 * 100 * physic.Pascal
	maxPressure = 1400 * 100 * physic.Pascal

	minRecalibration PPM = 400
	maxRecalibration PPM = 2000
)

// Opts holds the configuration applied when the device is opened.
type Opts struct {
	// SensorID is the base identifier of the sensor events. Humidity uses
	// SensorID, temperature SensorID+1 and CO2 SensorID+2.
	SensorID int32
	// Interval between measurements. 2s to 1800s.
	Interval time.Duration
	// AmbientPressure used to compensate CO2 readings. 0 disables
	// compensation, otherwise 700 to 1400 mbar.
	AmbientPressure physic.Pressure
	// SelfCalibration enables Automatic Self Calibration.
	SelfCalibration bool
	// Decode selects how measurements are converted. nil means FloatMode.
	Decode DecodeMode
	// Commands overrides the command map. nil means DefaultCommands.
	Commands *CommandSet
}

// DefaultOpts is the configuration used when nil is passed to NewI2C.
var DefaultOpts = Opts{
	Interval:        minInterval,
	SelfCalibration: true,
	Decode:          FloatMode{},
}

// DevConfig is the current running configuration of the device. Use
// Dev.GetConfiguration() to read the value, and Dev.SetConfiguration() to
// apply changes. The SCD30 stores settings in non-volatile memory as they
// are written.
type DevConfig struct {
	MeasurementInterval time.Duration
	// Automatic-Self-Calibration enabled.
	ASCEnabled      bool
	AmbientPressure physic.Pressure
	// Altitude used for CO2 compensation when no ambient pressure is set.
	SensorAltitude physic.Distance
	// Offset subtracted from the temperature reading. Refer to the datasheet
	// for usage.
	TemperatureOffset physic.Temperature
	// Last forced recalibration reference. Read-Only. Use
	// Dev.ForceRecalibration() to change it.
	ForcedRecalibrationReference PPM
	// Firmware major version in the high byte, minor in the low byte.
	// Read-Only
	FirmwareVersion uint16
}

// Env is a sensor reading: Temperature, Humidity, and CO2 concentration.
type Env struct {
	physic.Env
	CO2 PPM
}

// Return the sensor readings in string format.
func (e *Env) String() string {
	return fmt.Sprintf("Temperature: %s Humidity: %s CO2: %s", e.Temperature.String(), e.Humidity.String(), e.CO2.String())
}

// Dev represents an SCD30 device.
type Dev struct {
	// The i2c bus device. nil when uninitialized.
	d    *i2c.Dev
	opts Opts
	cmds CommandSet

	mu sync.Mutex
	// Most recent successful reading.
	last measurement
	// channel to halt SenseContinuous
	chHalt chan struct{}
}

// NewI2C opens an SCD30 on the supplied bus and starts continuous
// measurement with opts. The constant value SensorAddress should be supplied
// as the value for addr. If opts is nil, DefaultOpts is used.
//
// An error is returned if any of the setup commands fails; the device is not
// usable in that case.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if b == nil {
		return nil, errors.New("scd30: nil bus")
	}
	if addr == 0 || addr > 0x7f {
		return nil, fmt.Errorf("scd30: invalid i2c address 0x%x", addr)
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.Decode == nil {
		o.Decode = FloatMode{}
	}
	if o.Interval == 0 {
		o.Interval = DefaultOpts.Interval
	}
	if err := checkInterval(o.Interval); err != nil {
		return nil, err
	}
	if err := checkPressure(o.AmbientPressure); err != nil {
		return nil, err
	}
	cmds := DefaultCommands
	if o.Commands != nil {
		cmds = *o.Commands
	}
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}, opts: o, cmds: cmds}
	if err := d.start(); err != nil {
		return nil, err
	}
	return d, nil
}

// start issues the setup commands that put the device in continuous
// measurement mode.
func (d *Dev) start() error {
	if err := d.sendCommandArg(d.cmds.StartContinuous, pressureWord(d.opts.AmbientPressure)); err != nil {
		return err
	}
	if err := d.sendCommandArg(d.cmds.SetInterval, uint16(d.opts.Interval/time.Second)); err != nil {
		return err
	}
	return d.sendCommandArg(d.cmds.SelfCalibration, boolWord(d.opts.SelfCalibration))
}

// bound returns ErrNotInitialized if no bus is attached to d.
func (d *Dev) bound() error {
	if d == nil || d.d == nil {
		return ErrNotInitialized
	}
	return nil
}

// encodeCommand returns the frame of a command without argument.
func encodeCommand(c Command) []byte {
	return []byte{byte(c >> 8), byte(c)}
}

// encodeCommandArg returns the frame of a command followed by its argument
// and the CRC of the argument.
func encodeCommandArg(c Command, arg uint16) []byte {
	w := make([]byte, 2+common.WordSize)
	w[0] = byte(c >> 8)
	w[1] = byte(c)
	common.PutWord(w[2:], arg)
	return w
}

func (d *Dev) sendCommand(c Command) error {
	if err := d.d.Tx(encodeCommand(c), nil); err != nil {
		return fmt.Errorf("scd30: cmd %s: %w", c, err)
	}
	return nil
}

func (d *Dev) sendCommandArg(c Command, arg uint16) error {
	if err := d.d.Tx(encodeCommandArg(c, arg), nil); err != nil {
		return fmt.Errorf("scd30: cmd %s: %w", c, err)
	}
	return nil
}

// writeThenRead writes the command, releases the bus with a stop condition,
// waits and then reads len(r) bytes. The SCD30 discards the response if the
// read is issued with a repeated start.
func (d *Dev) writeThenRead(c Command, r []byte) error {
	if err := d.d.Tx(encodeCommand(c), nil); err != nil {
		return fmt.Errorf("scd30: cmd %s: %w", c, err)
	}
	time.Sleep(readDelay)
	if err := d.d.Tx(nil, r); err != nil {
		return fmt.Errorf("scd30: cmd %s: read: %w", c, err)
	}
	return nil
}

// readRegister returns the 16-bit big-endian value of a register. No CRC is
// checked on single register reads.
func (d *Dev) readRegister(c Command) (uint16, error) {
	r := make([]byte, 2)
	if err := d.writeThenRead(c, r); err != nil {
		return 0, err
	}
	return uint16(r[0])<<8 | uint16(r[1]), nil
}

// read fetches and decodes a measurement. The cached reading is only
// replaced when every group is valid.
func (d *Dev) read() error {
	r := make([]byte, measurementSize)
	if err := d.writeThenRead(d.cmds.ReadMeasurement, r); err != nil {
		return err
	}
	m, err := decodeMeasurement(r, d.opts.Decode)
	if err != nil {
		return err
	}
	d.last = m
	return nil
}

// Read fetches a measurement from the device and caches it. On error the
// previous reading is kept.
//
// Read does not wait for new data; use DataReady first to avoid reading the
// same sample twice.
func (d *Dev) Read() error {
	if err := d.bound(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read()
}

// DataReady reports whether a new measurement is available.
func (d *Dev) DataReady() (bool, error) {
	if err := d.bound(); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dataReady()
}

func (d *Dev) dataReady() (bool, error) {
	v, err := d.readRegister(d.cmds.DataReady)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// Reset performs a soft reset and waits for the device to restart. The
// device keeps its stored configuration and resumes continuous measurement
// if it was enabled.
func (d *Dev) Reset() error {
	if err := d.bound(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.sendCommand(d.cmds.SoftReset)
	time.Sleep(resetDelay)
	return err
}

// StartContinuousMeasurement starts sampling at the configured interval.
// pressure is the ambient pressure used for compensation, 0 disables it.
func (d *Dev) StartContinuousMeasurement(pressure physic.Pressure) error {
	if err := d.bound(); err != nil {
		return err
	}
	if err := checkPressure(pressure); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendCommandArg(d.cmds.StartContinuous, pressureWord(pressure))
}

// StopContinuousMeasurement stops sampling on the device.
func (d *Dev) StopContinuousMeasurement() error {
	if err := d.bound(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendCommand(d.cmds.StopContinuous)
}

// AmbientPressure returns the pressure compensation value. 0 means disabled.
func (d *Dev) AmbientPressure() (physic.Pressure, error) {
	v, err := d.register(func(c *CommandSet) Command { return c.StartContinuous })
	return physic.Pressure(v) * 100 * physic.Pascal, err
}

// SetMeasurementInterval sets the time between measurements. interval must
// be between 2s and 1800s.
func (d *Dev) SetMeasurementInterval(interval time.Duration) error {
	if err := d.bound(); err != nil {
		return err
	}
	if err := checkInterval(interval); err != nil {
		return err
	}
	return d.setRegister(func(c *CommandSet) Command { return c.SetInterval }, uint16(interval/time.Second))
}

// MeasurementInterval returns the time between measurements.
func (d *Dev) MeasurementInterval() (time.Duration, error) {
	v, err := d.register(func(c *CommandSet) Command { return c.SetInterval })
	return time.Duration(v) * time.Second, err
}

// SetSelfCalibration enables or disables Automatic Self Calibration.
func (d *Dev) SetSelfCalibration(enabled bool) error {
	return d.setRegister(func(c *CommandSet) Command { return c.SelfCalibration }, boolWord(enabled))
}

// SelfCalibrationEnabled reports whether Automatic Self Calibration is on.
func (d *Dev) SelfCalibrationEnabled() (bool, error) {
	v, err := d.register(func(c *CommandSet) Command { return c.SelfCalibration })
	return v == 1, err
}

// ForceRecalibration sets the current CO2 concentration to reference. The
// sensor must have been running in a stable environment for at least two
// minutes. reference must be between 400 and 2000 PPM.
func (d *Dev) ForceRecalibration(reference PPM) error {
	if err := d.bound(); err != nil {
		return err
	}
	if reference < minRecalibration || reference > maxRecalibration {
		return fmt.Errorf("scd30: invalid recalibration reference %s", reference)
	}
	return d.setRegister(func(c *CommandSet) Command { return c.ForcedRecalibration }, uint16(reference))
}

// ForcedRecalibrationReference returns the last reference value used for a
// forced recalibration.
func (d *Dev) ForcedRecalibrationReference() (PPM, error) {
	v, err := d.register(func(c *CommandSet) Command { return c.ForcedRecalibration })
	return PPM(v), err
}

// SetTemperatureOffset sets the offset subtracted from temperature readings.
// The resolution is 0.01 K and the offset cannot be negative.
func (d *Dev) SetTemperatureOffset(offset physic.Temperature) error {
	if err := d.bound(); err != nil {
		return err
	}
	if offset < 0 || offset/(10*physic.MilliKelvin) > 0xffff {
		return fmt.Errorf("scd30: invalid temperature offset %s", offset)
	}
	return d.setRegister(func(c *CommandSet) Command { return c.TemperatureOffset }, uint16(offset/(10*physic.MilliKelvin)))
}

// TemperatureOffset returns the offset subtracted from temperature readings.
func (d *Dev) TemperatureOffset() (physic.Temperature, error) {
	v, err := d.register(func(c *CommandSet) Command { return c.TemperatureOffset })
	return physic.Temperature(v) * 10 * physic.MilliKelvin, err
}

// SetAltitudeOffset sets the altitude of the sensor, used for CO2
// compensation when no ambient pressure is given.
func (d *Dev) SetAltitudeOffset(altitude physic.Distance) error {
	if err := d.bound(); err != nil {
		return err
	}
	if altitude < 0 || altitude/physic.Metre > 0xffff {
		return fmt.Errorf("scd30: invalid altitude %s", altitude)
	}
	return d.setRegister(func(c *CommandSet) Command { return c.AltitudeCompensation }, uint16(altitude/physic.Metre))
}

// AltitudeOffset returns the altitude used for CO2 compensation.
func (d *Dev) AltitudeOffset() (physic.Distance, error) {
	v, err := d.register(func(c *CommandSet) Command { return c.AltitudeCompensation })
	return physic.Distance(v) * physic.Metre, err
}

// FirmwareVersion returns the major and minor firmware version.
func (d *Dev) FirmwareVersion() (major, minor byte, err error) {
	v, err := d.register(func(c *CommandSet) Command { return c.FirmwareVersion })
	return byte(v >> 8), byte(v), err
}

// register reads the register selected from the command set of d. The
// command is only looked up once d is known to be bound.
func (d *Dev) register(sel func(*CommandSet) Command) (uint16, error) {
	if err := d.bound(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRegister(sel(&d.cmds))
}

func (d *Dev) setRegister(sel func(*CommandSet) Command, v uint16) error {
	if err := d.bound(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendCommandArg(sel(&d.cmds), v)
}

// GetConfiguration returns a structure containing all of the scd30
// configuration variables. You can then alter settings and call
// SetConfiguration with it.
func (d *Dev) GetConfiguration() (*DevConfig, error) {
	cfg := &DevConfig{}
	var err error
	if cfg.MeasurementInterval, err = d.MeasurementInterval(); err != nil {
		return nil, err
	}
	if cfg.ASCEnabled, err = d.SelfCalibrationEnabled(); err != nil {
		return nil, err
	}
	if cfg.AmbientPressure, err = d.AmbientPressure(); err != nil {
		return nil, err
	}
	if cfg.SensorAltitude, err = d.AltitudeOffset(); err != nil {
		return nil, err
	}
	if cfg.TemperatureOffset, err = d.TemperatureOffset(); err != nil {
		return nil, err
	}
	if cfg.ForcedRecalibrationReference, err = d.ForcedRecalibrationReference(); err != nil {
		return nil, err
	}
	major, minor, err := d.FirmwareVersion()
	if err != nil {
		return nil, err
	}
	cfg.FirmwareVersion = uint16(major)<<8 | uint16(minor)
	return cfg, nil
}

// SetConfiguration writes the settings of newCfg that differ from the
// device's current configuration. Read-Only fields are ignored.
func (d *Dev) SetConfiguration(newCfg *DevConfig) error {
	if newCfg == nil {
		return errors.New("scd30: nil configuration")
	}
	current, err := d.GetConfiguration()
	if err != nil {
		return fmt.Errorf("scd30 GetConfiguration(): %w", err)
	}
	if current.MeasurementInterval != newCfg.MeasurementInterval {
		if err := d.SetMeasurementInterval(newCfg.MeasurementInterval); err != nil {
			return err
		}
	}
	if current.ASCEnabled != newCfg.ASCEnabled {
		if err := d.SetSelfCalibration(newCfg.ASCEnabled); err != nil {
			return err
		}
	}
	if current.AmbientPressure != newCfg.AmbientPressure {
		if err := d.StartContinuousMeasurement(newCfg.AmbientPressure); err != nil {
			return err
		}
	}
	if current.SensorAltitude != newCfg.SensorAltitude {
		if err := d.SetAltitudeOffset(newCfg.SensorAltitude); err != nil {
			return err
		}
	}
	if current.TemperatureOffset != newCfg.TemperatureOffset {
		if err := d.SetTemperatureOffset(newCfg.TemperatureOffset); err != nil {
			return err
		}
	}
	return nil
}

// Sense waits for a new measurement and returns it. If no measurement is
// ready within one measurement interval, ErrTimeout is returned.
func (d *Dev) Sense(env *Env) error {
	env.Temperature = 0
	env.Humidity = 0
	env.Pressure = 0
	env.CO2 = 0
	if err := d.bound(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	tCutoff := time.Now().Add(d.opts.Interval + time.Second)
	for {
		ready, err := d.dataReady()
		if err != nil {
			return err
		}
		if ready {
			break
		}
		if time.Now().After(tCutoff) {
			return ErrTimeout
		}
		time.Sleep(pollInterval)
	}
	if err := d.read(); err != nil {
		return err
	}
	d.last.fill(env)
	return nil
}

func (m *measurement) fill(env *Env) {
	env.Temperature = physic.ZeroCelsius + physic.Temperature(float64(m.Temperature)*float64(physic.Celsius))
	env.Humidity = physic.RelativeHumidity(float64(m.Humidity) * float64(physic.PercentRH))
	env.CO2 = PPM(m.CO2)
}

// SenseContinuous reads the sensor every interval and writes readings to the
// returned channel. The device produces a new sample every configured
// measurement interval; a shorter interval blocks until data is ready. To
// terminate a continuous sense, call Halt().
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan Env, error) {
	if err := d.bound(); err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, fmt.Errorf("scd30: invalid interval %s", interval)
	}
	d.mu.Lock()
	if d.chHalt != nil {
		d.mu.Unlock()
		return nil, errors.New("scd30: SenseContinuous() running already")
	}
	halt := make(chan struct{})
	d.chHalt = halt
	d.mu.Unlock()

	channelSize := 16
	channel := make(chan Env, channelSize)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(channel)
		for {
			select {
			case <-halt:
				return
			case <-ticker.C:
				e := Env{}
				if err := d.Sense(&e); err == nil {
					select {
					case channel <- e:
					default:
					}
				}
			}
		}
	}()
	return channel, nil
}

// Halt terminates a SenseContinuous operation if one is running. The device
// keeps sampling; use StopContinuousMeasurement to stop it.
func (d *Dev) Halt() error {
	if err := d.bound(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.chHalt != nil {
		close(d.chHalt)
		d.chHalt = nil
	}
	return nil
}

// Precision returns the sensor's resolution, or minimum value between steps
// the device can make.
func (d *Dev) Precision(env *Env) {
	env.Temperature = physic.Temperature(float64(temperatureDescriptor.Resolution) * float64(physic.Kelvin))
	env.Humidity = physic.RelativeHumidity(float64(humidityDescriptor.Resolution) * float64(physic.PercentRH))
	env.Pressure = 0
	env.CO2 = PPM(co2Descriptor.Resolution)
}

func (d *Dev) String() string {
	if d.bound() != nil {
		return "scd30: not initialized"
	}
	return fmt.Sprintf("scd30: %s", d.d.String())
}

func checkInterval(interval time.Duration) error {
	if interval < minInterval || interval > maxInterval || interval%time.Second != 0 {
		return fmt.Errorf("scd30: invalid measurement interval %s, must be whole seconds from %s to %s", interval, minInterval, maxInterval)
	}
	return nil
}

func checkPressure(p physic.Pressure) error {
	if p != 0 && (p < minPressure || p > maxPressure) {
		return fmt.Errorf("scd30: invalid ambient pressure %s", p)
	}
	return nil
}

// pressureWord converts a pressure to the mbar argument of the device.
func pressureWord(p physic.Pressure) uint16 {
	return uint16(p / (100 * physic.Pascal))
}

func boolWord(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

var _ conn.Resource = &Dev{}
var _ fmt.Stringer = &Dev{}
