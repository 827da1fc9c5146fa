package curriculum

import (
	"fmt"
	"strings"
)

// Medium is the language of instruction a textbook is printed in.
type Medium int

const (
	English Medium = iota
	Telugu
	Urdu
)

func (m Medium) String() string {
	switch m {
	case English:
		return "English"
	case Telugu:
		return "Telugu"
	case Urdu:
		return "Urdu"
	default:
		return fmt.Sprintf("Medium(%d)", int(m))
	}
}

// ParseMedium accepts a medium name in any case. An empty string means English.
func ParseMedium(s string) (Medium, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "english":
		return English, nil
	case "telugu":
		return Telugu, nil
	case "urdu":
		return Urdu, nil
	default:
		return 0, fmt.Errorf("unknown medium %q", s)
	}
}

func (m Medium) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Medium) UnmarshalText(b []byte) error {
	parsed, err := ParseMedium(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Mediums lists every supported medium in display order.
func Mediums() []Medium {
	return []Medium{English, Telugu, Urdu}
}
