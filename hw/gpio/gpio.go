// Package gpio abstracts pin access behind a driver interface so the
// hardware trigger works on a Raspberry Pi and falls back to a mock on
// development machines.
package gpio

import (
	"github.com/Zahlii/godslr/tool"
)

// Level represents the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// PinMode indicates whether a GPIO is input or output.
type PinMode int

const (
	Input PinMode = iota
	Output
)

// Driver is the abstract pin interface. Input pins are set up with the
// internal pull-up, so a bare button to ground reads High idle and Low
// pressed.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	WritePin(pin int, level Level) error
	ReadPin(pin int) (Level, error)
	Close() error
}

// NewDriver returns a mock driver when mock is true, otherwise the real
// Raspberry Pi driver.
func NewDriver(mock bool) (Driver, error) {
	if mock {
		tool.DefaultLogger.Info("using mock GPIO driver")
		return &MockDriver{}, nil
	}
	return NewRPiDriver()
}

// MockDriver logs pin actions and reads every pin as idle.
type MockDriver struct{}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	tool.DefaultLogger.Debugf("gpio setup pin=%d mode=%d", pin, mode)
	return nil
}

func (m *MockDriver) WritePin(pin int, level Level) error {
	tool.DefaultLogger.Debugf("gpio write pin=%d level=%v", pin, level)
	return nil
}

func (m *MockDriver) ReadPin(pin int) (Level, error) {
	return High, nil
}

func (m *MockDriver) Close() error {
	return nil
}
