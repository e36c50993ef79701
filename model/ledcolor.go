package model

import (
	"image/color"
)

const (
	HueSteps = 1536
	MaxHue   = HueSteps - 1
	HueStep  = 6

	// BRIGHTNESS_MASK keeps the 5 global-brightness bits of an APA102 record.
	BRIGHTNESS_MASK uint8 = 0x1F
	// FRAME_MARKER is OR'd into the first byte of every LED record.
	FRAME_MARKER uint8 = 0xE0
)

// HueToRGB picks one of the 1536 fully saturated colours: one channel is 255,
// another is 0 and the third ramps with hue%256. Hues outside [0, MaxHue]
// wrap around the wheel.
func HueToRGB(hue int) (r, g, b uint8) {
	hue = WrapHue(hue)
	ramp := uint8(hue % 256)

	switch hue / 256 {
	case 0: // green increasing
		return 255, ramp, 0
	case 1: // red decreasing
		return 255 - ramp, 255, 0
	case 2: // blue increasing
		return 0, 255, ramp
	case 3: // green decreasing
		return 0, 255 - ramp, 255
	case 4: // red increasing
		return ramp, 0, 255
	default: // blue decreasing
		return 255, 0, 255 - ramp
	}
}

// WrapHue folds any hue onto the wheel, so -1 is MaxHue.
func WrapHue(hue int) int {
	hue %= HueSteps
	if hue < 0 {
		hue += HueSteps
	}
	return hue
}

// Led is one strip record. Only the low 5 bits of Brightness reach the wire.
type Led struct {
	Brightness uint8
	R, G, B    uint8
}

// NewLed builds a record coloured from the hue wheel.
func NewLed(brightness uint8, hue int) Led {
	r, g, b := HueToRGB(hue)
	return Led{Brightness: brightness, R: r, G: g, B: b}
}

// Frame encodes the record the way the strip expects it: marker|brightness,
// then blue, green, red.
func (l Led) Frame() [4]byte {
	return [4]byte{FRAME_MARKER | (l.Brightness & BRIGHTNESS_MASK), l.B, l.G, l.R}
}

// NRGBA scales the colour by the 5-bit brightness for image based outputs.
func (l Led) NRGBA() color.NRGBA {
	aa := uint16(l.Brightness & BRIGHTNESS_MASK)
	return color.NRGBA{
		R: uint8(uint16(l.R) * aa / uint16(BRIGHTNESS_MASK)),
		G: uint8(uint16(l.G) * aa / uint16(BRIGHTNESS_MASK)),
		B: uint8(uint16(l.B) * aa / uint16(BRIGHTNESS_MASK)),
		A: 255,
	}
}
