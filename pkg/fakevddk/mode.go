package fakevddk

import "fmt"

// Mode selects how strictly the plugin validates its configuration and where
// disk data comes from.
type Mode string

const (
	ModeValidating Mode = "validating"
	ModeCountOnly  Mode = "count-only"
	ModeSynthetic  Mode = "synthetic"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeValidating, ModeCountOnly, ModeSynthetic:
		return Mode(s), nil
	case "":
		return ModeValidating, nil
	default:
		return "", fmt.Errorf("unknown fake vddk mode: %q", s)
	}
}

func (m Mode) readsExtraConfig() bool {
	return m == ModeValidating
}

func (m Mode) fileBacked() bool {
	return m != ModeSynthetic
}
