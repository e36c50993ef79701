package model

import (
	"image"
	"sync"

	"github.com/coreman2200/funtimes-calamari/errcode"
)

const (
	DefaultNumPixels        = 73
	DefaultBrightness uint8 = 8
)

// Strip is a fixed-length ring of LED records plus the global hue and
// brightness that the wheel effects feed into it. Index 0 is the LED nearest
// the controller.
type Strip struct {
	mu         sync.RWMutex
	leds       []Led
	head       int // ring offset of index 0
	hue        int
	brightness uint8
}

// NewStrip allocates n records, all set to the wheel colour at hue. hue wraps
// around the wheel like HueToRGB.
func NewStrip(n int, brightness uint8, hue int) (*Strip, error) {
	if n <= 0 {
		return nil, errcode.Invalid("model.NewStrip", "led count %d must be positive", n)
	}
	s := &Strip{
		leds:       make([]Led, n),
		hue:        WrapHue(hue),
		brightness: brightness & BRIGHTNESS_MASK,
	}
	s.fill(NewLed(s.brightness, s.hue))
	return s, nil
}

func wrap(hue, reset int) int {
	if hue < 0 || hue > MaxHue {
		return reset
	}
	return hue
}

func (s *Strip) pos(i int) int {
	return (s.head + i) % len(s.leds)
}

func (s *Strip) fill(l Led) {
	for i := range s.leds {
		s.leds[i] = l
	}
	s.head = 0
}

// Len is fixed at construction.
func (s *Strip) Len() int {
	return len(s.leds)
}

func (s *Strip) Hue() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hue
}

func (s *Strip) Brightness() uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.brightness
}

// SetBrightness changes the brightness used by the wheel effects. Records
// already in the buffer keep theirs.
func (s *Strip) SetBrightness(b uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brightness = b & BRIGHTNESS_MASK
}

// At returns the record at index i. It panics if i is out of range, like a
// slice index.
func (s *Strip) At(i int) Led {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.leds) {
		panic("model: strip index out of range")
	}
	return s.leds[s.pos(i)]
}

// Set overwrites a single record.
func (s *Strip) Set(i int, brightness, r, g, b uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.leds) {
		return errcode.Invalid("model.Strip.Set", "index %d outside [0,%d)", i, len(s.leds))
	}
	s.leds[s.pos(i)] = Led{Brightness: brightness, R: r, G: g, B: b}
	return nil
}

// Fill overwrites every record with l.
func (s *Strip) Fill(l Led) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fill(l)
}

// Push prepends l at index 0 and drops the last record.
func (s *Strip) Push(l Led) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.push(l)
}

func (s *Strip) push(l Led) {
	s.head = (s.head + len(s.leds) - 1) % len(s.leds)
	s.leds[s.head] = l
}

// AdvanceWheel steps the hue and paints the whole strip with it.
func (s *Strip) AdvanceWheel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hue = wrap(s.hue+HueStep, 0)
	s.fill(NewLed(s.brightness, s.hue))
}

// ScrollWheel steps the hue and shifts it in at the front of the strip.
// After a full turn it restarts at HueStep rather than 0 so the first frame
// does not repeat the colour already at the front.
func (s *Strip) ScrollWheel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hue = wrap(s.hue+HueStep, HueStep)
	s.push(NewLed(s.brightness, s.hue))
}

// Snapshot is the strip state read under a single lock.
type Snapshot struct {
	Leds       []Led
	Hue        int
	Brightness uint8
}

// Snapshot copies the records in strip order together with the hue and
// brightness they were built from.
func (s *Strip) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Leds:       s.appendLeds(make([]Led, 0, len(s.leds))),
		Hue:        s.hue,
		Brightness: s.brightness,
	}
}

// Leds returns the records in strip order.
func (s *Strip) Leds() []Led {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appendLeds(make([]Led, 0, len(s.leds)))
}

// AppendLeds appends the records in strip order to dst and returns it.
func (s *Strip) AppendLeds(dst []Led) []Led {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appendLeds(dst)
}

func (s *Strip) appendLeds(dst []Led) []Led {
	dst = append(dst, s.leds[s.head:]...)
	return append(dst, s.leds[:s.head]...)
}

// Image renders the strip as a 1-pixel-high image, index 0 at x=0.
func (s *Strip) Image() *image.NRGBA {
	ls := s.Leds()
	im := image.NewNRGBA(image.Rect(0, 0, len(ls), 1))
	for x := 0; x < im.Rect.Max.X; x++ {
		im.SetNRGBA(x, 0, ls[x].NRGBA())
	}
	return im
}
