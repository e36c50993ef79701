// Command seg7 drives the seven-segment display: either a command script
// or the built-in demonstration sequence.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-calamari/internal/config"
	"github.com/coreman2200/funtimes-calamari/internal/script"
	"github.com/coreman2200/funtimes-calamari/seg7"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		scriptPath = flag.String("script", "", "command script to run, - for stdin (default: demo)")
		delay      = flag.Duration("delay", -1, "default hold per character")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults and flags")
		cfg = config.Default()
	}
	if *delay >= 0 {
		cfg.Seg7.Delay = *delay
	}

	if _, err := host.Init(); err != nil {
		log.Fatal().Err(err).Msg("host init")
	}
	pins, err := openPins(cfg.Seg7.Pins)
	if err != nil {
		log.Fatal().Err(err).Msg("gpio")
	}
	d, err := seg7.New(pins, &seg7.Opts{Delay: cfg.Seg7.Delay})
	if err != nil {
		log.Fatal().Err(err).Msg("seg7 init failed")
	}
	log.Info().Str("dev", d.String()).Dur("delay", d.Delay()).Msg("display ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *scriptPath {
	case "":
		err = demo(ctx, d)
	case "-":
		err = script.Run(ctx, d, os.Stdin)
	default:
		var f io.ReadCloser
		if f, err = os.Open(*scriptPath); err == nil {
			err = script.Run(ctx, d, f)
			f.Close()
		}
	}
	if cerr := d.Clear(); cerr != nil {
		log.Warn().Err(cerr).Msg("clear")
	}
	if err != nil {
		log.Error().Err(err).Msg("stopped")
		os.Exit(1)
	}
}

func openPins(p config.Pins) (seg7.Pins, error) {
	var pins seg7.Pins
	for _, f := range []struct {
		name string
		dst  *gpio.PinOut
	}{
		{p.Clock, &pins.Clock},
		{p.Latch, &pins.Latch},
		{p.Data, &pins.Data},
		{p.Clear, &pins.Clear},
	} {
		pin := gpioreg.ByName(f.name)
		if pin == nil {
			return pins, fmt.Errorf("seg7: no gpio named %q", f.name)
		}
		*f.dst = pin
	}
	return pins, nil
}
