package seg7

import (
	"context"
	"math"
	"time"

	"github.com/coreman2200/funtimes-calamari/errcode"
)

const (
	DefaultDuty   = 0.5
	DefaultCycles = 5
	DefaultElapse = time.Second
)

// Blinkc blinks c for exactly cycles periods. Each period shows c for
// period*duty, clears, then stays dark for period*(1-duty).
func (d *Dev) Blinkc(ctx context.Context, c rune, period time.Duration, duty float64, cycles int) error {
	p, err := checkBlink("seg7.Blinkc", c, period, duty)
	if err != nil {
		return err
	}
	if cycles < 0 {
		return errcode.Invalid("seg7.Blinkc", "cycles %d < 0", cycles)
	}
	on, off := split(period, duty)
	for i := 0; i < cycles; i++ {
		if err := d.cycle(ctx, p, on, off); err != nil {
			return err
		}
	}
	return nil
}

// Blink blinks c until at least elapse has passed. The clock is only checked
// between whole periods, so the call can run up to one period past elapse.
func (d *Dev) Blink(ctx context.Context, c rune, period time.Duration, duty float64, elapse time.Duration) error {
	p, err := checkBlink("seg7.Blink", c, period, duty)
	if err != nil {
		return err
	}
	if elapse < 0 {
		return errcode.Invalid("seg7.Blink", "elapse %s < 0", elapse)
	}
	on, off := split(period, duty)
	start := d.now()
	for d.now().Sub(start) < elapse {
		if err := d.cycle(ctx, p, on, off); err != nil {
			return err
		}
	}
	return nil
}

func checkBlink(op string, c rune, period time.Duration, duty float64) (byte, error) {
	if period < 0 {
		return 0, errcode.Invalid(op, "period %s < 0", period)
	}
	if math.IsNaN(duty) || duty < 0 || duty > 1 {
		return 0, errcode.Invalid(op, "duty %v outside [0,1]", duty)
	}
	return lookup(op, c)
}

func split(period time.Duration, duty float64) (on, off time.Duration) {
	on = time.Duration(math.Round(float64(period) * duty))
	return on, period - on
}

// cycle is one showing phase followed by one idle phase.
func (d *Dev) cycle(ctx context.Context, p byte, on, off time.Duration) error {
	if err := d.show(ctx, p, on); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	return d.sleep(ctx, off)
}
