package stats

import (
	"fmt"
	"math"
)

// StatID enumerates the primary attributes in their declared order.
type StatID uint8

const (
	StatStrength StatID = iota
	StatAgility
	StatDexterity
	StatStamina
	StatIntelligence
	StatWisdom
	StatCharisma
	StatDefense

	StatCount
)

var statNames = [StatCount]string{
	StatStrength:     "strength",
	StatAgility:      "agility",
	StatDexterity:    "dexterity",
	StatStamina:      "stamina",
	StatIntelligence: "intelligence",
	StatWisdom:       "wisdom",
	StatCharisma:     "charisma",
	StatDefense:      "defense",
}

func (id StatID) String() string {
	if id >= StatCount {
		return fmt.Sprintf("stat(%d)", uint8(id))
	}
	return statNames[id]
}

// ParseStatID resolves a stat by its machine name.
func ParseStatID(name string) (StatID, bool) {
	for id := StatID(0); id < StatCount; id++ {
		if statNames[id] == name {
			return id, true
		}
	}
	return 0, false
}

// StatBlock holds the eight primary attributes. It doubles as a stat delta for
// equipment, augments, buffs and level growth.
type StatBlock struct {
	Strength     int `yaml:"strength,omitempty" json:"strength,omitempty"`
	Agility      int `yaml:"agility,omitempty" json:"agility,omitempty"`
	Dexterity    int `yaml:"dexterity,omitempty" json:"dexterity,omitempty"`
	Stamina      int `yaml:"stamina,omitempty" json:"stamina,omitempty"`
	Intelligence int `yaml:"intelligence,omitempty" json:"intelligence,omitempty"`
	Wisdom       int `yaml:"wisdom,omitempty" json:"wisdom,omitempty"`
	Charisma     int `yaml:"charisma,omitempty" json:"charisma,omitempty"`
	Defense      int `yaml:"defense,omitempty" json:"defense,omitempty"`
}

// Delta is a partial stat change keyed by attribute.
type Delta map[StatID]int

func (b *StatBlock) field(id StatID) *int {
	switch id {
	case StatStrength:
		return &b.Strength
	case StatAgility:
		return &b.Agility
	case StatDexterity:
		return &b.Dexterity
	case StatStamina:
		return &b.Stamina
	case StatIntelligence:
		return &b.Intelligence
	case StatWisdom:
		return &b.Wisdom
	case StatCharisma:
		return &b.Charisma
	case StatDefense:
		return &b.Defense
	}
	return nil
}

// Get returns the value of a single attribute; unknown ids read as zero.
func (b StatBlock) Get(id StatID) int {
	if p := b.field(id); p != nil {
		return *p
	}
	return 0
}

// Set overwrites a single attribute.
func (b *StatBlock) Set(id StatID, v int) {
	if p := b.field(id); p != nil {
		*p = v
	}
}

// Reset zeroes every attribute.
func (b *StatBlock) Reset() {
	*b = StatBlock{}
}

// Merge adds other into b.
func (b *StatBlock) Merge(other StatBlock) {
	for id := StatID(0); id < StatCount; id++ {
		*b.field(id) += other.Get(id)
	}
}

// Remove subtracts other from b. It is the exact inverse of Merge.
func (b *StatBlock) Remove(other StatBlock) {
	for id := StatID(0); id < StatCount; id++ {
		*b.field(id) -= other.Get(id)
	}
}

// ApplyDelta adds a partial change. Unknown ids are ignored.
func (b *StatBlock) ApplyDelta(d Delta) {
	for id, v := range d {
		if p := b.field(id); p != nil {
			*p += v
		}
	}
}

// Plus returns the sum of b and others without mutating b.
func (b StatBlock) Plus(others ...StatBlock) StatBlock {
	out := b
	for _, o := range others {
		out.Merge(o)
	}
	return out
}

// Scaled multiplies every attribute by mult, rounding half away from zero.
func (b StatBlock) Scaled(mult float64) StatBlock {
	var out StatBlock
	for id := StatID(0); id < StatCount; id++ {
		out.Set(id, int(math.Round(float64(b.Get(id))*mult)))
	}
	return out
}

// IsZero reports whether every attribute is zero.
func (b StatBlock) IsZero() bool {
	return b == StatBlock{}
}

// Each visits the attributes in declared order.
func (b StatBlock) Each(fn func(id StatID, v int)) {
	for id := StatID(0); id < StatCount; id++ {
		fn(id, b.Get(id))
	}
}
