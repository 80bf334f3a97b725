// Package combat resolves single attacks between two fighters. Every function
// is pure apart from the draws it takes from the supplied random source.
package combat

import "math"

// Hand is an attack channel.
type Hand string

const (
	HandMain Hand = "main"
	HandOff  Hand = "off"
)

// Result is the kind of outcome a swing produced.
type Result string

const (
	ResultHit   Result = "hit"
	ResultMiss  Result = "miss"
	ResultDodge Result = "dodge"
	ResultParry Result = "parry"
)

const (
	armorCap       = 400
	armorConstant  = 100
	critMultiplier = 2
	offHandPenalty = 0.5
	hitScale       = 200
	rollRange      = 100
)

// Fighter exposes the derived numbers resolution needs.
type Fighter interface {
	Name() string
	AttackPower(h Hand) float64
	Accuracy() float64
	Evasion() float64
	Armor() float64
	CritChance() float64
	DodgeChance() float64
	ParryChance() float64
}

// Outcome is the record of one resolved swing.
type Outcome struct {
	Result   Result
	Damage   float64
	Critical bool
	Hand     Hand
	Attacker string
	Defender string
}

// HitThreshold returns the to-hit threshold on a [0,100) roll. Without any
// accuracy or evasion every swing is a hit attempt.
func HitThreshold(accuracy, evasion float64) float64 {
	sum := accuracy + evasion
	if sum <= 0 {
		return rollRange
	}
	return hitScale * accuracy / sum
}

// ResolveToHit reports whether the swing becomes a hit attempt.
func ResolveToHit(r Rand, attacker, defender Fighter) bool {
	roll := r.Float64() * rollRange
	return roll < HitThreshold(attacker.Accuracy(), defender.Evasion())
}

// ResolveAvoidance rolls dodge then parry for a hit attempt. Both draws are
// always taken; dodge wins when both succeed. ResultHit means not avoided.
func ResolveAvoidance(r Rand, defender Fighter) Result {
	dodged := r.Float64() < defender.DodgeChance()
	parried := r.Float64() < defender.ParryChance()
	switch {
	case dodged:
		return ResultDodge
	case parried:
		return ResultParry
	}
	return ResultHit
}

// ResolveCrit reports whether a landed hit is critical.
func ResolveCrit(r Rand, attacker Fighter) bool {
	return r.Float64() < attacker.CritChance()
}

// ArmorFactor is the fraction of damage that gets through armor.
func ArmorFactor(armor float64) float64 {
	a := math.Min(armorCap, math.Max(0, armor))
	return armorConstant / (armorConstant + a)
}

// ComputeDamage returns the damage of a landed swing. Off-hand swings use half
// of the off-hand attack power; critical hits double the result.
func ComputeDamage(attacker, defender Fighter, hand Hand, critical bool) float64 {
	power := attacker.AttackPower(hand)
	if hand == HandOff {
		power *= offHandPenalty
	}
	dmg := ArmorFactor(defender.Armor()) * power
	if critical {
		dmg *= critMultiplier
	}
	if dmg < 0 || math.IsNaN(dmg) {
		return 0
	}
	return dmg
}

// ResolveAttack composes to-hit, avoidance, crit and damage. Draw order is
// to-hit, dodge, parry, crit; avoided or missed swings take no further draws.
func ResolveAttack(r Rand, attacker, defender Fighter, hand Hand) Outcome {
	out := Outcome{
		Hand:     hand,
		Attacker: attacker.Name(),
		Defender: defender.Name(),
	}
	if !ResolveToHit(r, attacker, defender) {
		out.Result = ResultMiss
		return out
	}
	if avoided := ResolveAvoidance(r, defender); avoided != ResultHit {
		out.Result = avoided
		return out
	}
	out.Result = ResultHit
	out.Critical = ResolveCrit(r, attacker)
	out.Damage = ComputeDamage(attacker, defender, hand, out.Critical)
	return out
}
