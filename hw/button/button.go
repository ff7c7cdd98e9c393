// Package button turns a push button on a GPIO pin into capture
// triggers. A short press fires one action, holding the button past the
// long-press threshold fires another.
package button

import (
	"fmt"
	"time"

	"github.com/Zahlii/godslr/hw/gpio"
	"github.com/Zahlii/godslr/tool"
)

// Config tunes the polling state machine.
type Config struct {
	// Pin is the BCM pin number the button is wired to, button to
	// ground with the internal pull-up enabled.
	Pin int
	// PollInterval is how often the pin is sampled.
	PollInterval time.Duration
	// Debounce is how long a level must stay stable before it counts.
	Debounce time.Duration
	// LongPress separates short presses from long ones.
	LongPress time.Duration
}

func (c *Config) fillDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Millisecond
	}
	if c.Debounce <= 0 {
		c.Debounce = 30 * time.Millisecond
	}
	if c.LongPress <= 0 {
		c.LongPress = 800 * time.Millisecond
	}
}

// Watcher polls one pin and invokes callbacks on release. Callbacks run
// on the polling goroutine, so presses during a running capture are
// swallowed rather than queued.
type Watcher struct {
	drv     gpio.Driver
	cfg     Config
	onShort func()
	onLong  func()
	stop    chan struct{}
	done    chan struct{}
}

// NewWatcher sets the pin up as input and returns a watcher ready to
// Start. Either callback may be nil.
func NewWatcher(drv gpio.Driver, cfg Config, onShort, onLong func()) (*Watcher, error) {
	cfg.fillDefaults()
	if err := drv.SetupPin(cfg.Pin, gpio.Input); err != nil {
		return nil, fmt.Errorf("failed to set up button pin %d: %w", cfg.Pin, err)
	}
	return &Watcher{
		drv:     drv,
		cfg:     cfg,
		onShort: onShort,
		onLong:  onLong,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start launches the polling loop.
func (w *Watcher) Start() {
	tool.DefaultLogger.Infof("watching button on GPIO %d", w.cfg.Pin)
	go w.run()
}

// Stop ends the polling loop and waits for it to finish.
func (w *Watcher) Stop() {
	close(w.stop)
	<-w.done
}

func (w *Watcher) run() {
	defer close(w.done)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	var (
		pressed     bool
		pressedAt   time.Time
		lastRaw     = gpio.High
		stableSince = time.Now()
	)
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
		}
		raw, err := w.drv.ReadPin(w.cfg.Pin)
		if err != nil {
			tool.DefaultLogger.Warnf("failed to read button pin %d: %v", w.cfg.Pin, err)
			continue
		}
		now := time.Now()
		if raw != lastRaw {
			lastRaw = raw
			stableSince = now
			continue
		}
		if now.Sub(stableSince) < w.cfg.Debounce {
			continue
		}
		// Stable level. Low means pressed with pull-up wiring.
		down := raw == gpio.Low
		switch {
		case down && !pressed:
			pressed = true
			pressedAt = now
		case !down && pressed:
			pressed = false
			hold := now.Sub(pressedAt)
			if hold >= w.cfg.LongPress {
				tool.DefaultLogger.Debugf("button long press (%s)", hold)
				if w.onLong != nil {
					w.onLong()
				}
			} else {
				tool.DefaultLogger.Debugf("button press (%s)", hold)
				if w.onShort != nil {
					w.onShort()
				}
			}
		}
	}
}
