package stats

// FormulaBlock holds the linear coefficients and caps that turn attributes into
// combat numbers. Percent caps are expressed in percent (0-100).
type FormulaBlock struct {
	BaseAccuracy             float64 `yaml:"base_accuracy"`
	AccuracyPerStrength      float64 `yaml:"accuracy_per_strength"`
	AccuracyPerDexterity     float64 `yaml:"accuracy_per_dexterity"`
	AttackPerStrength        float64 `yaml:"attack_per_strength"`
	BaseEvasion              float64 `yaml:"base_evasion"`
	EvasionPerAgility        float64 `yaml:"evasion_per_agility"`
	ArmorPerDefense          float64 `yaml:"armor_per_defense"`
	CritPerDexterity         float64 `yaml:"crit_per_dexterity"`
	DodgePerAgility          float64 `yaml:"dodge_per_agility"`
	ParryPerDexterity        float64 `yaml:"parry_per_dexterity"`
	BaseHealth               float64 `yaml:"base_health"`
	HitpointsPerStamina      float64 `yaml:"hitpoints_per_stamina"`
	BaseMana                 float64 `yaml:"base_mana"`
	ManaPerIntOrWis          float64 `yaml:"mana_per_int_or_wis"`
	BaseAttackDelay          float64 `yaml:"base_attack_delay"`
	MinAttackDelay           float64 `yaml:"min_attack_delay"`
	DelayReductionPerAgility float64 `yaml:"delay_reduction_per_agility"`
	MaxCritPercent           float64 `yaml:"max_crit_percent"`
	MaxDodgePercent          float64 `yaml:"max_dodge_percent"`
	MaxParryPercent          float64 `yaml:"max_parry_percent"`
}

// DefaultFormulas returns the coefficients used when a definition leaves the
// block empty.
func DefaultFormulas() FormulaBlock {
	return FormulaBlock{
		BaseAccuracy:             10,
		AccuracyPerStrength:      1,
		AccuracyPerDexterity:     1.5,
		AttackPerStrength:        1,
		BaseEvasion:              10,
		EvasionPerAgility:        1.5,
		ArmorPerDefense:          2,
		CritPerDexterity:         0.25,
		DodgePerAgility:          0.2,
		ParryPerDexterity:        0.1,
		BaseHealth:               50,
		HitpointsPerStamina:      10,
		BaseMana:                 20,
		ManaPerIntOrWis:          5,
		BaseAttackDelay:          2,
		MinAttackDelay:           0.5,
		DelayReductionPerAgility: 0.01,
		MaxCritPercent:           50,
		MaxDodgePercent:          30,
		MaxParryPercent:          25,
	}
}

// IsZero reports whether no coefficient is set.
func (f FormulaBlock) IsZero() bool {
	return f == FormulaBlock{}
}

// AttackPower converts strength into unarmed attack power.
func (f FormulaBlock) AttackPower(strength float64) float64 {
	return nonNegative(strength) * f.AttackPerStrength
}

// Accuracy converts strength and dexterity into an accuracy rating.
func (f FormulaBlock) Accuracy(strength, dexterity float64) float64 {
	return f.BaseAccuracy + nonNegative(strength)*f.AccuracyPerStrength + nonNegative(dexterity)*f.AccuracyPerDexterity
}

// Evasion converts agility into an evasion rating.
func (f FormulaBlock) Evasion(agility float64) float64 {
	return f.BaseEvasion + nonNegative(agility)*f.EvasionPerAgility
}

// Armor converts the defense attribute into armor.
func (f FormulaBlock) Armor(defense float64) float64 {
	return nonNegative(defense) * f.ArmorPerDefense
}

// CritChance returns the crit probability in [0,1].
func (f FormulaBlock) CritChance(dexterity float64) float64 {
	return percent(nonNegative(dexterity)*f.CritPerDexterity, f.MaxCritPercent)
}

// DodgeChance returns the dodge probability in [0,1].
func (f FormulaBlock) DodgeChance(agility float64) float64 {
	return percent(nonNegative(agility)*f.DodgePerAgility, f.MaxDodgePercent)
}

// ParryChance returns the parry probability in [0,1].
func (f FormulaBlock) ParryChance(dexterity float64) float64 {
	return percent(nonNegative(dexterity)*f.ParryPerDexterity, f.MaxParryPercent)
}

// MaxHealth converts stamina into hit points.
func (f FormulaBlock) MaxHealth(stamina float64) float64 {
	return f.BaseHealth + nonNegative(stamina)*f.HitpointsPerStamina
}

// MaxMana converts intelligence and wisdom into mana.
func (f FormulaBlock) MaxMana(intelligence, wisdom float64) float64 {
	return f.BaseMana + (nonNegative(intelligence)+nonNegative(wisdom))*f.ManaPerIntOrWis
}

// AttackDelay returns seconds between swings. A non-positive weaponDelay
// falls back to the base delay.
func (f FormulaBlock) AttackDelay(weaponDelay, agility float64) float64 {
	delay := weaponDelay
	if delay <= 0 {
		delay = f.BaseAttackDelay
	}
	delay -= nonNegative(agility) * f.DelayReductionPerAgility
	if delay < f.MinAttackDelay {
		delay = f.MinAttackDelay
	}
	return delay
}

func percent(v, capPercent float64) float64 {
	return clamp(v, 0, capPercent) / 100
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
