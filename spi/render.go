package spi

import (
	"fmt"
	"image"
	"io"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	pspi "periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-calamari/dotstar"
	"github.com/coreman2200/funtimes-calamari/internal/config"
	"github.com/coreman2200/funtimes-calamari/model"
)

const (
	DriverAPA102  = "apa102"
	DriverNRZ     = "nrz"
	DriverConsole = "console"
)

// Renderer pushes the current strip contents to an output.
type Renderer interface {
	Render() error
	Halt() error
	String() string
}

// drawerRenderer feeds the strip as an image to a periph display.Drawer.
type drawerRenderer struct {
	strip  *model.Strip
	drawer display.Drawer
}

func (r *drawerRenderer) Render() error {
	return r.drawer.Draw(r.drawer.Bounds(), r.strip.Image(), image.Point{})
}

func (r *drawerRenderer) Halt() error {
	return r.drawer.Halt()
}

func (r *drawerRenderer) String() string {
	return r.drawer.String()
}

// NewDrawerRenderer renders s through any periph display.Drawer.
func NewDrawerRenderer(s *model.Strip, d display.Drawer) Renderer {
	return &drawerRenderer{strip: s, drawer: d}
}

// SPILedRenderer is the renderer picked for the configured driver, plus the
// port it owns.
type SPILedRenderer struct {
	Renderer
	Driver string
	Spi    bool // false when printing at the console
	port   io.Closer
}

// Close halts the output and releases the SPI port.
func (r *SPILedRenderer) Close() error {
	err := r.Renderer.Halt()
	if r.port != nil {
		if cerr := r.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// InitLedRenderer opens the configured SPI port and builds the output for
// cfg.Driver. When no port can be found it falls back to the console.
func InitLedRenderer(s *model.Strip, cfg config.Strip) (*SPILedRenderer, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}

	if cfg.Driver == DriverConsole {
		return consoleRenderer(s), nil
	}

	port, err := spireg.Open(cfg.SPI.Port)
	if err != nil {
		log.Warn().Err(err).Str("port", cfg.SPI.Port).Msg("failed to find a SPI port, printing at the console")
		return consoleRenderer(s), nil
	}

	rr, err := NewLedRenderer(s, cfg, port)
	if err != nil {
		port.Close()
		return nil, err
	}
	return rr, nil
}

// NewLedRenderer builds the cfg.Driver output on an already open port. On
// success the renderer owns port and Close releases it.
func NewLedRenderer(s *model.Strip, cfg config.Strip, port pspi.PortCloser) (*SPILedRenderer, error) {
	rr := &SPILedRenderer{Driver: cfg.Driver, Spi: true, port: port}

	switch cfg.Driver {
	case DriverAPA102, "":
		d, err := dotstar.NewSPI(port, s, &dotstar.Opts{
			Freq:     physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz,
			Mode:     pspi.Mode(cfg.SPI.Mode),
			LSBFirst: cfg.SPI.LSBFirst,
		})
		if err != nil {
			return nil, err
		}
		rr.Driver = DriverAPA102
		rr.Renderer = d

	case DriverNRZ:
		d, err := nrzled.NewSPI(port, &nrzled.Opts{
			NumPixels: s.Len(),
			Channels:  3,
			Freq:      physic.Frequency(cfg.SPI.NRZSpeedHz) * physic.Hertz,
		})
		if err != nil {
			return nil, err
		}
		rr.Renderer = NewDrawerRenderer(s, d)

	default:
		return nil, fmt.Errorf("spi: unknown strip driver %q", cfg.Driver)
	}
	return rr, nil
}

func consoleRenderer(s *model.Strip) *SPILedRenderer {
	return &SPILedRenderer{
		Renderer: NewDrawerRenderer(s, screen.New(s.Len())),
		Driver:   DriverConsole,
	}
}
