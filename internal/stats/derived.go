package stats

// Derived is the typed record of combat numbers computed from a stat total.
type Derived struct {
	AttackPower        float64
	OffHandAttackPower float64
	Accuracy           float64
	Evasion            float64
	Armor              float64
	CritChance         float64
	DodgeChance        float64
	ParryChance        float64
	MaxHealth          float64
	MaxMana            float64
	MainHandDelay      float64
	OffHandDelay       float64
}

// DerivedField names one derived stat and how to read it.
type DerivedField struct {
	Name string
	Get  func(Derived) float64
}

// DerivedFields lists the derived stats in display order.
var DerivedFields = []DerivedField{
	{"attack_power", func(d Derived) float64 { return d.AttackPower }},
	{"off_hand_attack_power", func(d Derived) float64 { return d.OffHandAttackPower }},
	{"accuracy", func(d Derived) float64 { return d.Accuracy }},
	{"evasion", func(d Derived) float64 { return d.Evasion }},
	{"armor", func(d Derived) float64 { return d.Armor }},
	{"crit_chance", func(d Derived) float64 { return d.CritChance }},
	{"dodge_chance", func(d Derived) float64 { return d.DodgeChance }},
	{"parry_chance", func(d Derived) float64 { return d.ParryChance }},
	{"max_health", func(d Derived) float64 { return d.MaxHealth }},
	{"max_mana", func(d Derived) float64 { return d.MaxMana }},
	{"main_hand_delay", func(d Derived) float64 { return d.MainHandDelay }},
	{"off_hand_delay", func(d Derived) float64 { return d.OffHandDelay }},
}

// Each visits every derived stat in DerivedFields order.
func (d Derived) Each(fn func(name string, v float64)) {
	for _, f := range DerivedFields {
		fn(f.Name, f.Get(d))
	}
}

// WeaponInput is the per-hand weapon contribution to derived stats.
type WeaponInput struct {
	AverageDamage float64
	Delay         float64
}

// Inputs gathers everything Compute needs beyond attributes.
type Inputs struct {
	Total      StatBlock
	BonusArmor float64
	MainHand   WeaponInput
	OffHand    *WeaponInput
}

// Compute derives combat numbers from summed attributes and equipment payloads.
func Compute(f FormulaBlock, in Inputs) Derived {
	str := float64(in.Total.Strength)
	agi := float64(in.Total.Agility)
	dex := float64(in.Total.Dexterity)

	d := Derived{
		AttackPower:   f.AttackPower(str) + in.MainHand.AverageDamage,
		Accuracy:      f.Accuracy(str, dex),
		Evasion:       f.Evasion(agi),
		Armor:         f.Armor(float64(in.Total.Defense)) + in.BonusArmor,
		CritChance:    f.CritChance(dex),
		DodgeChance:   f.DodgeChance(agi),
		ParryChance:   f.ParryChance(dex),
		MaxHealth:     f.MaxHealth(float64(in.Total.Stamina)),
		MaxMana:       f.MaxMana(float64(in.Total.Intelligence), float64(in.Total.Wisdom)),
		MainHandDelay: f.AttackDelay(in.MainHand.Delay, agi),
	}
	if in.OffHand != nil {
		d.OffHandAttackPower = f.AttackPower(str) + in.OffHand.AverageDamage
		d.OffHandDelay = f.AttackDelay(in.OffHand.Delay, agi)
	}
	return d
}
