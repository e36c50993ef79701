// Command dotstar runs a hue wheel animation on an APA102 strip.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-calamari/internal/config"
	"github.com/coreman2200/funtimes-calamari/internal/preview"
	"github.com/coreman2200/funtimes-calamari/model"
	"github.com/coreman2200/funtimes-calamari/spi"
)

func main() {
	// ---- Flags (override config.yaml when set) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		driver     = flag.String("driver", "", "strip driver: apa102 | nrz | console")
		port       = flag.String("spi", "", "SPI port name (default: first available)")
		pixels     = flag.Int("pixels", 0, "number of LEDs on the strip")
		brightness = flag.Int("brightness", -1, "global brightness 0..31")
		effect     = flag.String("effect", "", "animation: scroll | advance")
		fps        = flag.Int("fps", -1, "frame cap, 0 renders as fast as the bus allows")
		addr       = flag.String("preview", "", "serve a websocket preview on this address")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults and flags")
		cfg = config.Default()
	}
	s := &cfg.Strip
	if *driver != "" {
		s.Driver = *driver
	}
	if *port != "" {
		s.SPI.Port = *port
	}
	if *pixels > 0 {
		s.NumPixels = *pixels
	}
	if *brightness >= 0 {
		if err := s.SetBrightness(*brightness); err != nil {
			log.Fatal().Err(err).Msg("invalid -brightness")
		}
	}
	if *effect != "" {
		s.Effect = *effect
	}
	if *fps >= 0 {
		s.FPS = *fps
	}
	if *addr != "" {
		s.Preview = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid settings")
	}

	e, err := spi.ParseEffect(s.Effect)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid effect")
	}
	strip, err := model.NewStrip(s.NumPixels, s.Brightness, s.Hue)
	if err != nil {
		log.Fatal().Err(err).Msg("strip")
	}

	r, err := spi.InitLedRenderer(strip, *s)
	if err != nil {
		log.Fatal().Err(err).Str("driver", s.Driver).Msg("renderer init failed")
	}
	defer r.Close()
	log.Info().
		Str("renderer", r.String()).
		Str("driver", r.Driver).
		Bool("spi", r.Spi).
		Int("pixels", strip.Len()).
		Str("effect", string(e)).
		Int("fps", s.FPS).
		Msg("strip ready")

	looper := spi.NewLooper(strip, r, s.FPS, e)

	var srv *http.Server
	if s.Preview != "" {
		state := preview.NewState(strip, looper)
		looper.OnFrame = state.Publish
		srv = &http.Server{
			Addr:         s.Preview,
			Handler:      state.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", s.Preview).Msg("preview server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("preview server crashed")
			}
		}()
	}

	if err := looper.Start(context.Background()); err != nil {
		log.Error().Err(err).Msg("render loop failed")
	}
	if srv != nil {
		_ = srv.Close()
	}
}
