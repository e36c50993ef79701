// Package seg7 drives a seven-segment display behind a serial-in shift
// register.
//
// Bytes are shifted in MSB first on the data line, one clock pulse per bit,
// and committed to the outputs with a latch pulse. The register in use
// inverts the data line: a 1 bit is sent as Low. A fourth line clears the
// register.
package seg7

import (
	"context"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-calamari/errcode"
)

const DefaultDelay = time.Second

// Pins are the four lines wired to the shift register. The driver owns them.
type Pins struct {
	Clock gpio.PinOut
	Latch gpio.PinOut
	Data  gpio.PinOut
	Clear gpio.PinOut
}

// Opts is the driver configuration.
type Opts struct {
	// Delay is how long Puts holds each character. Default: 1s.
	Delay time.Duration
}

// Dev is a handle to the display.
type Dev struct {
	mu    sync.Mutex
	pins  Pins
	delay time.Duration

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New drives every line low, clears the display and shows '.'.
//
// opts can be nil to use defaults.
func New(pins Pins, opts *Opts) (*Dev, error) {
	if pins.Clock == nil || pins.Latch == nil || pins.Data == nil || pins.Clear == nil {
		return nil, errcode.Invalid("seg7.New", "all four pins are required")
	}
	o := Opts{Delay: DefaultDelay}
	if opts != nil {
		o = *opts
	}
	if o.Delay < 0 {
		return nil, errcode.Invalid("seg7.New", "delay %s < 0", o.Delay)
	}

	d := &Dev{
		pins:  pins,
		delay: o.Delay,
		sleep: sleep,
		now:   time.Now,
	}
	for _, p := range []gpio.PinOut{pins.Clock, pins.Latch, pins.Data, pins.Clear} {
		if err := p.Out(gpio.Low); err != nil {
			return nil, errcode.IO("seg7.New", err)
		}
	}
	if err := d.Clear(); err != nil {
		return nil, err
	}
	if err := d.Putc('.', 0); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return "seg7{" + d.pins.Data.String() + "}"
}

func (d *Dev) SetDelay(delay time.Duration) error {
	if delay < 0 {
		return errcode.Invalid("seg7.SetDelay", "delay %s < 0", delay)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
	return nil
}

func (d *Dev) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

// WriteInt writes v, which must fit in a byte.
func (d *Dev) WriteInt(v int) error {
	if v < 0 || v > 255 {
		return errcode.Invalid("seg7.Write", "%d is not a byte (0-255)", v)
	}
	return d.Write(byte(v))
}

// Write shifts b into the register and latches it.
func (d *Dev) Write(b byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return errcode.IO("seg7.Write", d.write(b))
}

// Clear resets the register and latches a blank byte; the clear line alone
// does not update the outputs.
func (d *Dev) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return errcode.IO("seg7.Clear", d.clear())
}

// Putc shows c and then holds for delay.
func (d *Dev) Putc(c rune, delay time.Duration) error {
	p, err := lookup("seg7.Putc", c)
	if err != nil {
		return err
	}
	if delay < 0 {
		return errcode.Invalid("seg7.Putc", "delay %s < 0", delay)
	}
	return d.show(context.Background(), p, delay)
}

// Puts shows each character of s for the configured delay.
func (d *Dev) Puts(s string) error {
	return d.PutsDelay(s, d.Delay())
}

// PutsDelay shows each character of s for delay, with no blank in between.
// Nothing is written unless every character is displayable.
func (d *Dev) PutsDelay(s string, delay time.Duration) error {
	if delay < 0 {
		return errcode.Invalid("seg7.Puts", "delay %s < 0", delay)
	}
	patterns := make([]byte, 0, len(s))
	for _, c := range s {
		p, err := lookup("seg7.Puts", c)
		if err != nil {
			return err
		}
		patterns = append(patterns, p)
	}
	for _, p := range patterns {
		if err := d.show(context.Background(), p, delay); err != nil {
			return err
		}
	}
	return nil
}

func lookup(op string, c rune) (byte, error) {
	p, ok := Pattern(c)
	if !ok {
		return 0, errcode.Invalid(op, "%q is not a hexadecimal symbol", c)
	}
	return p, nil
}

func (d *Dev) show(ctx context.Context, p byte, hold time.Duration) error {
	if err := d.Write(p); err != nil {
		return err
	}
	return d.sleep(ctx, hold)
}

func (d *Dev) write(b byte) error {
	for i := 7; i >= 0; i-- {
		// inverted data line: a 1 bit goes out Low
		if err := d.pins.Data.Out(gpio.Level(b>>uint(i)&1 == 0)); err != nil {
			return err
		}
		if err := d.tick(); err != nil {
			return err
		}
	}
	return d.latch()
}

func (d *Dev) tick() error {
	return pulse(d.pins.Clock, gpio.High, gpio.Low)
}

func (d *Dev) latch() error {
	return pulse(d.pins.Latch, gpio.Low, gpio.High, gpio.Low)
}

func (d *Dev) clear() error {
	if err := pulse(d.pins.Clear, gpio.High, gpio.Low, gpio.High); err != nil {
		return err
	}
	return d.write(0)
}

func pulse(p gpio.PinOut, levels ...gpio.Level) error {
	for _, l := range levels {
		if err := p.Out(l); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
