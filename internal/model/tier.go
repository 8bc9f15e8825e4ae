package model

import (
	"fmt"
	"strings"
)

// Tier is an ordered access level. The zero value is TierNone.
type Tier uint8

const (
	TierNone Tier = iota
	TierBasic
	TierPro
	TierElite
)

var tierNames = [...]string{"none", "basic", "pro", "elite"}

func (t Tier) String() string {
	if int(t) < len(tierNames) {
		return tierNames[t]
	}
	return fmt.Sprintf("tier(%d)", uint8(t))
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	if int(t) >= len(tierNames) {
		return nil, fmt.Errorf("unknown tier %d", uint8(t))
	}
	return []byte(tierNames[t]), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, candidate := range tierNames {
		if candidate == name {
			*t = Tier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", name)
}
