package spi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/funtimes-calamari/internal/config"
	"github.com/coreman2200/funtimes-calamari/model"
)

func repeat(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func TestNRZRenderer(t *testing.T) {
	s, err := model.NewStrip(2, 31, 0)
	require.NoError(t, err)
	cfg := config.Default().Strip
	cfg.Driver = DriverNRZ

	var buf bytes.Buffer
	r, err := NewLedRenderer(s, cfg, spitest.NewRecordRaw(&buf))
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", r.String())
	assert.Equal(t, DriverNRZ, r.Driver)
	assert.True(t, r.Spi)

	require.NoError(t, r.Render())
	// GRB per LED, 4 symbol bytes per colour byte, then the 3 byte latch.
	var want []byte
	for i := 0; i < 2; i++ {
		want = append(want, repeat(0x88, 4)...)
		want = append(want, repeat(0xEE, 4)...)
		want = append(want, repeat(0x88, 4)...)
	}
	want = append(want, 0, 0, 0)
	assert.Equal(t, want, buf.Bytes())

	buf.Reset()
	require.NoError(t, r.Close())
	assert.Equal(t, append(repeat(0x88, 24), 0, 0, 0), buf.Bytes())
}

func TestNRZRendererScalesBrightness(t *testing.T) {
	s, err := model.NewStrip(1, 0, 512)
	require.NoError(t, err)
	cfg := config.Default().Strip
	cfg.Driver = DriverNRZ

	var buf bytes.Buffer
	r, err := NewLedRenderer(s, cfg, spitest.NewRecordRaw(&buf))
	require.NoError(t, err)
	require.NoError(t, r.Render())
	assert.Equal(t, append(repeat(0x88, 12), 0, 0, 0), buf.Bytes())
}

func TestNRZRendererRejectsFrequency(t *testing.T) {
	s, err := model.NewStrip(2, 8, 0)
	require.NoError(t, err)
	cfg := config.Default().Strip
	cfg.Driver = DriverNRZ
	cfg.SPI.NRZSpeedHz = cfg.SPI.SpeedHz

	_, err = NewLedRenderer(s, cfg, spitest.NewRecordRaw(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestAPA102Renderer(t *testing.T) {
	s, err := model.NewStrip(2, 8, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	r, err := NewLedRenderer(s, config.Default().Strip, spitest.NewRecordRaw(&buf))
	require.NoError(t, err)
	assert.Equal(t, "dotstar{recordraw}", r.String())
	assert.Equal(t, DriverAPA102, r.Driver)

	require.NoError(t, r.Render())
	assert.Equal(t, []byte{
		0x00, 0x00, 0x00, 0x00,
		0xE8, 0x00, 0x00, 0xFF,
		0xE8, 0x00, 0x00, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF,
	}, buf.Bytes())
}

func TestUnknownDriver(t *testing.T) {
	s, err := model.NewStrip(2, 8, 0)
	require.NoError(t, err)
	cfg := config.Default().Strip
	cfg.Driver = "ws2801"

	_, err = NewLedRenderer(s, cfg, spitest.NewRecordRaw(&bytes.Buffer{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ws2801")
}

func TestConsoleRenderer(t *testing.T) {
	s, err := model.NewStrip(3, 31, 0)
	require.NoError(t, err)

	r := consoleRenderer(s)
	assert.Equal(t, DriverConsole, r.Driver)
	assert.False(t, r.Spi)
	assert.Equal(t, "Screen", r.String())

	require.NoError(t, r.Render())
	s.ScrollWheel()
	require.NoError(t, r.Render())
	assert.NoError(t, r.Close())
}
