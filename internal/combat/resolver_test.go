package combat

import (
	"math"
	"testing"
)

type stubFighter struct {
	name     string
	power    float64
	offPower float64
	accuracy float64
	evasion  float64
	armor    float64
	crit     float64
	dodge    float64
	parry    float64
}

func (f stubFighter) Name() string { return f.name }
func (f stubFighter) AttackPower(h Hand) float64 {
	if h == HandOff {
		return f.offPower
	}
	return f.power
}
func (f stubFighter) Accuracy() float64    { return f.accuracy }
func (f stubFighter) Evasion() float64     { return f.evasion }
func (f stubFighter) Armor() float64       { return f.armor }
func (f stubFighter) CritChance() float64  { return f.crit }
func (f stubFighter) DodgeChance() float64 { return f.dodge }
func (f stubFighter) ParryChance() float64 { return f.parry }

// scripted replays fixed draws and repeats the last one when exhausted.
type scripted struct {
	draws []float64
	i     int
}

func (s *scripted) Float64() float64 {
	if len(s.draws) == 0 {
		return 0
	}
	v := s.draws[len(s.draws)-1]
	if s.i < len(s.draws) {
		v = s.draws[s.i]
	}
	s.i++
	return v
}

func (s *scripted) IntN(n int) int {
	return int(s.Float64() * float64(n))
}

func TestHitThresholdScenario(t *testing.T) {
	if got := HitThreshold(50, 50); got != 100 {
		t.Fatalf("expected threshold 100, got %.2f", got)
	}
	if got := HitThreshold(0, 0); got != 100 {
		t.Fatalf("expected threshold 100 with no ratings, got %.2f", got)
	}
	if got := HitThreshold(25, 75); got != 50 {
		t.Fatalf("expected threshold 50, got %.2f", got)
	}
}

func TestResolveAttackScenario(t *testing.T) {
	hero := stubFighter{name: "hero", power: 20, accuracy: 50}
	enemy := stubFighter{name: "rat", evasion: 50}

	// Highest possible to-hit roll still lands.
	out := ResolveAttack(&scripted{draws: []float64{0.9999, 0.5, 0.5, 0.5}}, hero, enemy, HandMain)
	if out.Result != ResultHit || out.Damage != 20 || out.Critical {
		t.Fatalf("expected 20 damage hit, got %+v", out)
	}
	if out.Attacker != "hero" || out.Defender != "rat" || out.Hand != HandMain {
		t.Fatalf("unexpected identity fields %+v", out)
	}

	hero.crit = 1
	out = ResolveAttack(&scripted{draws: []float64{0.1, 0.5, 0.5, 0.5}}, hero, enemy, HandMain)
	if !out.Critical || out.Damage != 40 {
		t.Fatalf("expected 40 damage crit, got %+v", out)
	}
}

func TestCriticalDoublesDamage(t *testing.T) {
	attackers := []stubFighter{
		{power: 20},
		{power: 37.5, offPower: 12},
		{power: 1},
	}
	armors := []float64{0, 55, 400, 1200, -20}
	for _, a := range attackers {
		for _, armor := range armors {
			d := stubFighter{armor: armor}
			for _, hand := range []Hand{HandMain, HandOff} {
				normal := ComputeDamage(a, d, hand, false)
				crit := ComputeDamage(a, d, hand, true)
				if math.Abs(crit-2*normal) > 1e-9 {
					t.Fatalf("power %.1f armor %.0f hand %s: crit %.4f != 2 x %.4f", a.power, armor, hand, crit, normal)
				}
			}
		}
	}
}

func TestComputeDamageArmorAndOffHand(t *testing.T) {
	a := stubFighter{power: 30, offPower: 20}
	tests := []struct {
		name  string
		armor float64
		hand  Hand
		want  float64
	}{
		{"no armor", 0, HandMain, 30},
		{"armor 100 halves", 100, HandMain, 15},
		{"armor capped at 400", 900, HandMain, 6},
		{"negative armor floored", -50, HandMain, 30},
		{"off hand halved", 0, HandOff, 10},
	}
	for _, tc := range tests {
		got := ComputeDamage(a, stubFighter{armor: tc.armor}, tc.hand, false)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: expected %.2f, got %.2f", tc.name, tc.want, got)
		}
	}
}

func TestAvoidedSwingsCarryNoDamage(t *testing.T) {
	hero := stubFighter{name: "hero", power: 20, accuracy: 10}
	tests := []struct {
		name     string
		defender stubFighter
		draws    []float64
		want     Result
	}{
		{"miss", stubFighter{evasion: 90}, []float64{0.5}, ResultMiss},
		{"dodge", stubFighter{dodge: 0.5}, []float64{0, 0.1, 0.9}, ResultDodge},
		{"parry", stubFighter{parry: 0.5}, []float64{0, 0.9, 0.1}, ResultParry},
		{"dodge beats parry", stubFighter{dodge: 0.5, parry: 0.5}, []float64{0, 0.1, 0.1}, ResultDodge},
	}
	for _, tc := range tests {
		out := ResolveAttack(&scripted{draws: tc.draws}, hero, tc.defender, HandMain)
		if out.Result != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, out.Result)
		}
		if out.Damage != 0 || out.Critical {
			t.Errorf("%s: expected no damage, got %+v", tc.name, out)
		}
	}
}

func TestResolveAttackNeverNegative(t *testing.T) {
	r := NewRand(42)
	attacker := stubFighter{power: 12, offPower: 7, accuracy: 40, crit: 0.3}
	defender := stubFighter{evasion: 35, armor: 80, dodge: 0.1, parry: 0.1}
	for i := 0; i < 2000; i++ {
		hand := HandMain
		if i%2 == 1 {
			hand = HandOff
		}
		out := ResolveAttack(r, attacker, defender, hand)
		if out.Damage < 0 {
			t.Fatalf("negative damage %+v", out)
		}
		if out.Result != ResultHit && out.Damage != 0 {
			t.Fatalf("non-hit with damage %+v", out)
		}
	}
}

func TestUniformIntAndChance(t *testing.T) {
	r := NewRand(7)
	for i := 0; i < 500; i++ {
		v := UniformInt(r, 3, 6)
		if v < 3 || v > 6 {
			t.Fatalf("value %d outside [3,6]", v)
		}
	}
	if got := UniformInt(r, 9, 2); got < 2 || got > 9 {
		t.Fatalf("reversed range produced %d", got)
	}
	if UniformInt(r, 4, 4) != 4 {
		t.Fatal("expected degenerate range to return its bound")
	}
	if Chance(r, 0) || !Chance(r, 1) {
		t.Fatal("expected certain outcomes at 0 and 1")
	}
}
