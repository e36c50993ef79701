package seg7

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/coreman2200/funtimes-calamari/errcode"
)

type event struct {
	pin   string
	level gpio.Level
}

// wire logs every level change on the four lines in order.
type wire struct {
	mu     sync.Mutex
	events []event
	fail   string
}

func (w *wire) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = nil
}

func (w *wire) log() []event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]event(nil), w.events...)
}

type recPin struct {
	*gpiotest.Pin
	w *wire
}

func (p *recPin) Out(l gpio.Level) error {
	p.w.mu.Lock()
	if p.w.fail == p.N {
		p.w.mu.Unlock()
		return errors.New("pin fault")
	}
	p.w.events = append(p.w.events, event{p.N, l})
	p.w.mu.Unlock()
	return p.Pin.Out(l)
}

func newPins(w *wire) Pins {
	mk := func(name string, num int) *recPin {
		return &recPin{Pin: &gpiotest.Pin{N: name, Num: num}, w: w}
	}
	return Pins{
		Clock: mk("CLK", 25),
		Latch: mk("LATCH", 18),
		Data:  mk("DATA", 20),
		Clear: mk("CLR", 16),
	}
}

// decoded is what the shift register would have seen.
type decoded struct {
	latched []byte
	clocks  int
	clears  int
}

// decode replays the log through a model of the register: the data line is
// sampled on each rising clock edge (Low means 1) and the register is copied
// to the outputs on each rising latch edge.
func decode(events []event) decoded {
	var (
		out   decoded
		data  gpio.Level
		reg   byte
		level = map[string]gpio.Level{}
	)
	for _, e := range events {
		prev := level[e.pin]
		level[e.pin] = e.level
		switch e.pin {
		case "DATA":
			data = e.level
		case "CLK":
			if !prev && e.level {
				reg <<= 1
				if data == gpio.Low {
					reg |= 1
				}
				out.clocks++
			}
		case "LATCH":
			if !prev && e.level {
				out.latched = append(out.latched, reg)
			}
		case "CLR":
			if prev && !e.level {
				reg = 0
				out.clears++
			}
		}
	}
	return out
}

func newDev(t *testing.T) (*Dev, *wire) {
	t.Helper()
	w := &wire{}
	d, err := New(newPins(w), &Opts{Delay: 0})
	require.NoError(t, err)
	w.reset()
	return d, w
}

func TestNewPowerUpSequence(t *testing.T) {
	w := &wire{}
	d, err := New(newPins(w), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDelay, d.Delay())

	ev := w.log()
	require.True(t, len(ev) >= 4)
	for i, name := range []string{"CLK", "LATCH", "DATA", "CLR"} {
		assert.Equal(t, event{name, gpio.Low}, ev[i])
	}
	got := decode(ev)
	assert.Equal(t, []byte{0x00, chars['.']}, got.latched)
	assert.Equal(t, 1, got.clears)
}

func TestNewRequiresPins(t *testing.T) {
	pins := newPins(&wire{})
	pins.Clear = nil
	_, err := New(pins, nil)
	assert.True(t, errors.Is(err, errcode.InvalidArgument))
}

func TestWriteBitOrderAndInversion(t *testing.T) {
	d, w := newDev(t)

	require.NoError(t, d.Write(0b10000010))
	var dataLevels []gpio.Level
	for _, e := range w.log() {
		if e.pin == "DATA" {
			dataLevels = append(dataLevels, e.level)
		}
	}
	// MSB first, 1 bits driven Low
	assert.Equal(t, []gpio.Level{
		gpio.Low, gpio.High, gpio.High, gpio.High,
		gpio.High, gpio.High, gpio.Low, gpio.High,
	}, dataLevels)

	ev := w.log()
	tail := ev[len(ev)-3:]
	assert.Equal(t, []event{{"LATCH", gpio.Low}, {"LATCH", gpio.High}, {"LATCH", gpio.Low}}, tail)
}

func TestWriteExtremes(t *testing.T) {
	for _, v := range []int{0, 255} {
		d, w := newDev(t)
		require.NoError(t, d.WriteInt(v))
		got := decode(w.log())
		assert.Equal(t, 8, got.clocks)
		assert.Equal(t, []byte{byte(v)}, got.latched)
	}
}

func TestWriteIntRange(t *testing.T) {
	d, w := newDev(t)
	for _, v := range []int{256, -1} {
		err := d.WriteInt(v)
		assert.True(t, errors.Is(err, errcode.InvalidArgument), "%d", v)
	}
	assert.Empty(t, w.log())
}

func TestClear(t *testing.T) {
	d, w := newDev(t)
	require.NoError(t, d.Write(0xFF))
	w.reset()

	require.NoError(t, d.Clear())
	ev := w.log()
	assert.Equal(t, []event{{"CLR", gpio.High}, {"CLR", gpio.Low}, {"CLR", gpio.High}}, ev[:3])
	got := decode(ev)
	assert.Equal(t, []byte{0}, got.latched)
}

func TestPutcCaseInsensitive(t *testing.T) {
	d, w := newDev(t)
	require.NoError(t, d.Putc('A', 0))
	upper := w.log()
	w.reset()
	require.NoError(t, d.Putc('a', 0))
	assert.Equal(t, upper, w.log())
	assert.Equal(t, []byte{chars['a']}, decode(upper).latched)
}

func TestPutcUnknown(t *testing.T) {
	d, w := newDev(t)
	err := d.Putc('X', 0)
	assert.True(t, errors.Is(err, errcode.InvalidArgument))
	assert.Empty(t, w.log())
}

func TestPutcHolds(t *testing.T) {
	d, _ := newDev(t)
	var slept []time.Duration
	d.sleep = func(ctx context.Context, dd time.Duration) error {
		slept = append(slept, dd)
		return nil
	}
	require.NoError(t, d.Putc('7', 250*time.Millisecond))
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, slept)
}

func TestPuts(t *testing.T) {
	d, w := newDev(t)
	require.NoError(t, d.SetDelay(40*time.Millisecond))
	var slept []time.Duration
	d.sleep = func(ctx context.Context, dd time.Duration) error {
		slept = append(slept, dd)
		return nil
	}

	require.NoError(t, d.Puts("fEd.0"))
	got := decode(w.log())
	assert.Equal(t, []byte{chars['f'], chars['e'], chars['d'], chars['.'], chars['0']}, got.latched)
	assert.Equal(t, 0, got.clears)
	assert.Len(t, slept, 5)
	for _, s := range slept {
		assert.Equal(t, 40*time.Millisecond, s)
	}

	slept = nil
	require.NoError(t, d.PutsDelay("12", time.Millisecond))
	assert.Equal(t, []time.Duration{time.Millisecond, time.Millisecond}, slept)
}

func TestPutsValidatesFirst(t *testing.T) {
	d, w := newDev(t)
	err := d.PutsDelay("abcz", 0)
	assert.True(t, errors.Is(err, errcode.InvalidArgument))
	assert.Empty(t, w.log())

	assert.True(t, errors.Is(d.SetDelay(-time.Second), errcode.InvalidArgument))
}

func TestPinFault(t *testing.T) {
	d, w := newDev(t)
	w.fail = "CLK"
	err := d.Write(1)
	assert.True(t, errors.Is(err, errcode.HardwareIO))
}

func TestPattern(t *testing.T) {
	p, ok := Pattern('F')
	assert.True(t, ok)
	assert.Equal(t, byte(0b10001110), p)
	_, ok = Pattern('g')
	assert.False(t, ok)
	assert.Equal(t, []rune(" .0123456789@abcdef"), Symbols())
}
