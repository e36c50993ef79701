package spi

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-calamari/model"
)

// Effect is the strip animation applied after every frame.
type Effect string

const (
	Scroll  Effect = "scroll"
	Advance Effect = "advance"
)

func ParseEffect(s string) (Effect, error) {
	switch e := Effect(s); e {
	case Scroll, Advance:
		return e, nil
	}
	return "", fmt.Errorf("spi: unknown effect %q", s)
}

// Looper renders the strip and steps its effect until stopped.
type Looper struct {
	mu       sync.Mutex
	leds     *model.Strip
	renderer Renderer
	fps      int
	effect   Effect
	frames   uint64

	// OnFrame, when set, is called after each rendered frame.
	OnFrame func(frame uint64, s *model.Strip)
}

// NewLooper builds a loop over s. fps <= 0 renders back to back.
func NewLooper(s *model.Strip, r Renderer, fps int, e Effect) *Looper {
	if e == "" {
		e = Scroll
	}
	return &Looper{leds: s, renderer: r, fps: fps, effect: e}
}

func (l *Looper) SetEffect(e Effect) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.effect = e
}

// ApplyEffect switches to the effect named name.
func (l *Looper) ApplyEffect(name string) error {
	e, err := ParseEffect(name)
	if err != nil {
		return err
	}
	l.SetEffect(e)
	return nil
}

// SetBrightness changes the brightness of records the effect produces from
// now on.
func (l *Looper) SetBrightness(b uint8) {
	l.leds.SetBrightness(b)
}

// Fill paints the whole strip with the wheel colour at hue. The running
// effect carries on from there.
func (l *Looper) Fill(hue int) {
	l.leds.Fill(model.NewLed(l.leds.Brightness(), hue))
}

func (l *Looper) Effect() Effect {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.effect
}

func (l *Looper) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Step renders the current buffer, then advances the effect.
func (l *Looper) Step() error {
	if err := l.renderer.Render(); err != nil {
		return err
	}

	l.mu.Lock()
	l.frames++
	frame, effect, hook := l.frames, l.effect, l.OnFrame
	l.mu.Unlock()

	if hook != nil {
		hook(frame, l.leds)
	}

	switch effect {
	case Advance:
		l.leds.AdvanceWheel()
	default:
		l.leds.ScrollWheel()
	}
	return nil
}

// Run steps until ctx is done or rendering fails, then halts the output.
func (l *Looper) Run(ctx context.Context) error {
	defer func() {
		if err := l.renderer.Halt(); err != nil {
			log.Warn().Err(err).Str("renderer", l.renderer.String()).Msg("halt")
		}
	}()

	if l.fps <= 0 {
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if err := l.Step(); err != nil {
				return err
			}
		}
	}

	delta := time.Second / time.Duration(l.fps)
	ticker := time.NewTicker(delta)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.Step(); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Start runs the loop until ctx is done or the process gets an interrupt.
func (l *Looper) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer func() {
		signal.Stop(c)
		cancel()
	}()

	go func() {
		select {
		case sig := <-c:
			log.Info().Str("signal", sig.String()).Msg("aborting")
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	err := l.Run(ctx)
	log.Info().
		Uint64("frames", l.Frames()).
		Dur("elapsed", time.Since(start)).
		Str("renderer", l.renderer.String()).
		Msg("render loop stopped")
	return err
}
