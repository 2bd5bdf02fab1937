package unallocated

import (
	"fmt"
	"strings"
)

// Mode selects how unallocated space is turned into synthetic entries
type Mode int

const (
	// ModeNone synthesizes nothing
	ModeNone Mode = iota
	// ModeFragment emits one entry per unallocated run, split at the block cap
	ModeFragment
	// ModeBlock emits one entry per unallocated block
	ModeBlock
)

var modeNames = map[Mode]string{
	ModeNone:     "none",
	ModeFragment: "fragment",
	ModeBlock:    "block",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts none, fragment or block (any case) into a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ModeNone, nil
	case "fragment":
		return ModeFragment, nil
	case "block":
		return ModeBlock, nil
	default:
		return ModeNone, fmt.Errorf("unknown unallocated mode %q: valid modes are none, fragment, block", s)
	}
}

// ValidModes lists the accepted mode names
func ValidModes() []string {
	return []string{"none", "fragment", "block"}
}
