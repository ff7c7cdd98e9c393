package gpio

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPiDriver drives the Raspberry Pi GPIO header through /dev/gpiomem.
type RPiDriver struct {
	pins map[int]rpio.Pin
}

// NewRPiDriver opens the memory-mapped GPIO range. It fails on hosts
// without one.
func NewRPiDriver() (*RPiDriver, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO (are you running on a Raspberry Pi?): %w", err)
	}
	return &RPiDriver{pins: make(map[int]rpio.Pin)}, nil
}

func (d *RPiDriver) SetupPin(pin int, mode PinMode) error {
	p := rpio.Pin(pin)
	switch mode {
	case Input:
		p.Input()
		p.PullUp()
	case Output:
		p.Output()
	default:
		return fmt.Errorf("unknown pin mode %d", mode)
	}
	d.pins[pin] = p
	return nil
}

func (d *RPiDriver) WritePin(pin int, level Level) error {
	p, ok := d.pins[pin]
	if !ok {
		if err := d.SetupPin(pin, Output); err != nil {
			return err
		}
		p = d.pins[pin]
	}
	if level == High {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

func (d *RPiDriver) ReadPin(pin int) (Level, error) {
	p, ok := d.pins[pin]
	if !ok {
		if err := d.SetupPin(pin, Input); err != nil {
			return Low, err
		}
		p = d.pins[pin]
	}
	return p.Read() == rpio.High, nil
}

// Close resets every touched pin to input and releases the GPIO range.
func (d *RPiDriver) Close() error {
	for _, p := range d.pins {
		p.Input()
	}
	d.pins = make(map[int]rpio.Pin)
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("failed to close GPIO: %w", err)
	}
	return nil
}
