package main

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-calamari/seg7"
)

// symbols lists the hex digits in order, leaving out space, '.' and '@'.
func symbols() []rune {
	var out []rune
	for _, c := range seg7.Symbols() {
		switch c {
		case ' ', '.', '@':
			continue
		}
		out = append(out, c)
	}
	return out
}

// demo walks through every operation the way a bench check would.
func demo(ctx context.Context, d *seg7.Dev) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"putc", func() error {
			for _, c := range symbols() {
				if err := d.Putc(c, 250*time.Millisecond); err != nil {
					return err
				}
			}
			return d.Clear()
		}},
		{"puts", func() error {
			s := symbols()
			var b strings.Builder
			for i := len(s) - 1; i >= 0; i-- {
				b.WriteRune(s[i])
			}
			if err := d.PutsDelay(b.String(), 40*time.Millisecond); err != nil {
				return err
			}
			return d.Clear()
		}},
		{"blink period", func() error {
			for pace := 0; pace < 7; pace++ {
				if err := d.Blink(ctx, '@', time.Second>>pace, seg7.DefaultDuty, time.Second); err != nil {
					return err
				}
			}
			return nil
		}},
		{"blinkc period", func() error {
			for pace := 7; pace > 0; pace-- {
				if err := d.Blinkc(ctx, '@', time.Second>>pace, seg7.DefaultDuty, 1<<pace); err != nil {
					return err
				}
			}
			return nil
		}},
		{"blink duty", func() error {
			for pace := 0; pace < 7; pace++ {
				if err := d.Blink(ctx, '@', 20*time.Millisecond, 1/float64(int(1)<<pace), time.Second); err != nil {
					return err
				}
			}
			return nil
		}},
		{"blinkc duty", func() error {
			for pace := 7; pace > 0; pace-- {
				if err := d.Blinkc(ctx, '@', 10*time.Millisecond, 1/float64(int(1)<<pace), 100); err != nil {
					return err
				}
			}
			return nil
		}},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Info().Str("test", s.name).Msg("seg7 demo")
		if err := s.run(); err != nil {
			return err
		}
	}
	return nil
}
