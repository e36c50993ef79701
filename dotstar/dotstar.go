// Package dotstar drives an APA102 ("Dotstar") addressable RGB strip.
//
// A frame is a 4-byte all-zero start marker, one 4-byte record per LED
// (0b111 + 5-bit brightness, blue, green, red) and a 4-byte all-0xFF end
// marker. The strip contents live in a model.Strip so the same buffer can be
// shared with other outputs.
package dotstar

import (
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/coreman2200/funtimes-calamari/errcode"
	"github.com/coreman2200/funtimes-calamari/model"
)

const (
	DefaultFreq = 16 * physic.MegaHertz

	startLen = 4
	endLen   = 4
)

// Opts is the bus configuration used by NewSPI.
type Opts struct {
	Freq     physic.Frequency // default: 16MHz
	Mode     spi.Mode         // default: spi.Mode0
	LSBFirst bool             // the strip wants MSB first; leave false
}

// Dev is a handle to one strip on one bus. The bus is owned exclusively.
type Dev struct {
	mu    sync.Mutex
	w     io.ByteWriter
	name  string
	strip *model.Strip
	leds  []model.Led
	frame []byte
}

// New returns a strip driver that emits frames through w.
func New(w io.ByteWriter, s *model.Strip) (*Dev, error) {
	if w == nil {
		return nil, errcode.Invalid("dotstar.New", "nil byte writer")
	}
	if s == nil {
		return nil, errcode.Invalid("dotstar.New", "nil strip")
	}
	return &Dev{
		w:     w,
		name:  fmt.Sprintf("%T", w),
		strip: s,
		leds:  make([]model.Led, 0, s.Len()),
		frame: make([]byte, 0, startLen+4*s.Len()+endLen),
	}, nil
}

// NewSPI connects to p (mode 0, MSB first, 8-bit words unless opts says
// otherwise) and returns a strip driver writing to it.
//
// opts can be nil to use defaults.
func NewSPI(p spi.Port, s *model.Strip, opts *Opts) (*Dev, error) {
	o := Opts{Freq: DefaultFreq, Mode: spi.Mode0}
	if opts != nil {
		o = *opts
		if o.Freq == 0 {
			o.Freq = DefaultFreq
		}
	}
	mode := o.Mode
	if o.LSBFirst {
		mode |= spi.LSBFirst
	}
	c, err := p.Connect(o.Freq, mode, 8)
	if err != nil {
		return nil, errcode.IO("dotstar.NewSPI", err)
	}
	d, err := New(&connWriter{c: c}, s)
	if err != nil {
		return nil, err
	}
	d.name = c.String()
	return d, nil
}

// connWriter turns a spi.Conn into the single byte primitive.
type connWriter struct {
	c spi.Conn
	b [1]byte
}

func (w *connWriter) WriteByte(c byte) error {
	w.b[0] = c
	return w.c.Tx(w.b[:], nil)
}

func (d *Dev) String() string {
	return "dotstar{" + d.name + "}"
}

// Set overwrites the record at index i.
func (d *Dev) Set(i int, brightness, r, g, b uint8) error {
	return d.strip.Set(i, brightness, r, g, b)
}

// AdvanceWheel paints the whole strip with the next hue.
func (d *Dev) AdvanceWheel() {
	d.strip.AdvanceWheel()
}

// ScrollWheel shifts the next hue in at the front of the strip.
func (d *Dev) ScrollWheel() {
	d.strip.ScrollWheel()
}

// Frame returns the bytes Render would send for the current buffer.
func (d *Dev) Frame() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.encode(false)
	return append([]byte(nil), d.frame...)
}

// Render sends one complete frame. It blocks until every byte is written;
// concurrent callers never interleave frames.
func (d *Dev) Render() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.encode(false)
	return d.send("dotstar.Render")
}

// Halt turns every LED off without touching the buffer.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.encode(true)
	return d.send("dotstar.Halt")
}

func (d *Dev) encode(dark bool) {
	d.leds = d.strip.AppendLeds(d.leds[:0])
	f := append(d.frame[:0], 0x00, 0x00, 0x00, 0x00)
	for _, l := range d.leds {
		if dark {
			l = model.Led{}
		}
		rec := l.Frame()
		f = append(f, rec[:]...)
	}
	d.frame = append(f, 0xFF, 0xFF, 0xFF, 0xFF)
}

func (d *Dev) send(op string) error {
	for _, b := range d.frame {
		if err := d.w.WriteByte(b); err != nil {
			return errcode.IO(op, err)
		}
	}
	return nil
}
