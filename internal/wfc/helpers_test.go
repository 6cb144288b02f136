package wfc

import "math/rand"

// letter is a three-variant tile type used across the package tests
type letter int

const (
	letterA letter = iota
	letterB
	letterC
)

func (letter) Variants() []letter { return []letter{letterA, letterB, letterC} }
func (l letter) Glyph() rune      { return rune('A' + int(l)) }
func (l letter) String() string   { return string(l.Glyph()) }

// pair is a two-variant tile type
type pair int

const (
	pairA pair = iota
	pairB
)

func (pair) Variants() []pair { return []pair{pairA, pairB} }
func (p pair) Glyph() rune    { return rune('a' + int(p)) }

// everything returns a rule set allowing any variant next to any other
func everything() *RuleSet[letter] {
	rs := NewRuleSet[letter]()
	for _, a := range letterA.Variants() {
		for _, b := range letterA.Variants() {
			for _, d := range AllDirections() {
				rs.Add(Rule[letter]{Tile: a, Neighbor: b, Dir: d})
			}
		}
	}
	return rs
}

// checkerboard returns symmetric rules that only allow A next to B
func checkerboard() *RuleSet[pair] {
	rs := NewRuleSet[pair]()
	for _, d := range AllDirections() {
		rs.Add(Rule[pair]{Tile: pairA, Neighbor: pairB, Dir: d})
		rs.Add(Rule[pair]{Tile: pairB, Neighbor: pairA, Dir: d})
	}
	return rs
}

// randomRules returns a random subset of all letter rules
func randomRules(rng *rand.Rand, density float64) *RuleSet[letter] {
	rs := NewRuleSet[letter]()
	for _, r := range everything().Rules() {
		if rng.Float64() < density {
			rs.Add(r)
		}
	}
	return rs
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
