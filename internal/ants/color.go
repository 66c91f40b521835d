package ants

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/ojrac/opensimplex-go"
)

// RGB is an 8-bit color triple.
type RGB [3]uint8

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// MarshalJSON writes the color as a three element array.
func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{int(c[0]), int(c[1]), int(c[2])})
}

// UnmarshalJSON reads a three element array.
func (c *RGB) UnmarshalJSON(data []byte) error {
	var v [3]int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	for i := range v {
		c[i] = uint8(clampInt(v[i], 0, 255))
	}
	return nil
}

// ColorFor derives a stable, fairly saturated color from a name. The name
// seeds a simplex field that is sampled for hue, saturation and lightness.
func ColorFor(name string) RGB {
	h := fnv.New64a()
	h.Write([]byte(name))
	noise := opensimplex.NewNormalized(int64(h.Sum64()))

	hue := noise.Eval2(0.5, 0.5)
	sat := 0.5 + noise.Eval2(10.5, 3.25)/2
	light := 0.4 + noise.Eval2(-7.75, 21.5)/5
	r, g, b := hlsToRGB(hue, light, sat)
	return RGB{toByte(r), toByte(g), toByte(b)}
}

func hlsToRGB(h, l, s float64) (float64, float64, float64) {
	if s == 0 {
		return l, l, l
	}
	var m2 float64
	if l <= 0.5 {
		m2 = l * (1 + s)
	} else {
		m2 = l + s - l*s
	}
	m1 := 2*l - m2
	return hueChannel(m1, m2, h+1.0/3), hueChannel(m1, m2, h), hueChannel(m1, m2, h-1.0/3)
}

func hueChannel(m1, m2, h float64) float64 {
	h -= math.Floor(h)
	switch {
	case h < 1.0/6:
		return m1 + (m2-m1)*h*6
	case h < 0.5:
		return m2
	case h < 2.0/3:
		return m1 + (m2-m1)*(2.0/3-h)*6
	}
	return m1
}

func toByte(v float64) uint8 {
	return uint8(clampInt(int(v*256), 0, 255))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
