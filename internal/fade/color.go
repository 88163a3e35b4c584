package fade

import "fmt"

// Color is a four-channel light colour.
//
// Hue, Saturation and Brightness span the full uint16 range (0x0000-0xFFFF).
// Kelvin is the white-point colour temperature.
type Color struct {
	Hue        uint16 `json:"hue"`
	Saturation uint16 `json:"saturation"`
	Brightness uint16 `json:"brightness"`
	Kelvin     uint16 `json:"kelvin"`
}

// WithBrightness returns a copy of c with the brightness channel replaced.
func (c Color) WithBrightness(brightness uint16) Color {
	c.Brightness = brightness
	return c
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return fmt.Sprintf("hsbk(%d, %d, %d, %dK)", c.Hue, c.Saturation, c.Brightness, c.Kelvin)
}

// channels returns the four channels in a fixed order.
func (c Color) channels() [4]float64 {
	return [4]float64{
		float64(c.Hue),
		float64(c.Saturation),
		float64(c.Brightness),
		float64(c.Kelvin),
	}
}
