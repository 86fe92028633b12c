package media

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Codec describes one codec entry as advertised during negotiation: the RTP
// payload type, encoding name, clock rate, channel count and the format
// parameters (fmtp). Codecs are values; equality is structural.
type Codec struct {
	ID        int               `json:"id"`
	Name      string            `json:"name"`
	ClockRate uint32            `json:"clockRate"`
	Channels  uint16            `json:"channels,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
}

// Equal reports whether c and o describe exactly the same codec entry.
func (c Codec) Equal(o Codec) bool {
	return c.ID == o.ID &&
		c.Name == o.Name &&
		c.ClockRate == o.ClockRate &&
		c.Channels == o.Channels &&
		maps.Equal(c.Params, o.Params)
}

// Matches reports whether c and o are the same encoding, ignoring payload
// type and format parameters.
func (c Codec) Matches(o Codec) bool {
	return strings.EqualFold(c.Name, o.Name) &&
		c.ClockRate == o.ClockRate &&
		channelsOrMono(c.Channels) == channelsOrMono(o.Channels)
}

func (c Codec) String() string {
	s := fmt.Sprintf("%d: %s/%d", c.ID, c.Name, c.ClockRate)
	if c.Channels > 1 {
		s += fmt.Sprintf("/%d", c.Channels)
	}
	if len(c.Params) > 0 {
		keys := slices.Sorted(maps.Keys(c.Params))
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+c.Params[k])
		}
		s += " " + strings.Join(parts, ";")
	}
	return s
}

// Clone returns a deep copy of c.
func (c Codec) Clone() Codec {
	c.Params = maps.Clone(c.Params)
	return c
}

// CodecsEqual compares two ordered codec lists element by element.
// A nil list and an empty list are equal.
func CodecsEqual(a, b []Codec) bool {
	return slices.EqualFunc(a, b, Codec.Equal)
}

// CloneCodecs deep-copies a codec list. It returns nil for an empty input.
func CloneCodecs(codecs []Codec) []Codec {
	if len(codecs) == 0 {
		return nil
	}
	out := make([]Codec, len(codecs))
	for i, c := range codecs {
		out[i] = c.Clone()
	}
	return out
}

func channelsOrMono(n uint16) uint16 {
	if n == 0 {
		return 1
	}
	return n
}
