package roulette

import (
	"fmt"
	"sort"
	"strings"

	"telegram-roulette-bot/internal/game"
)

// ItemKind identifies an inventory item.
type ItemKind string

const (
	// ItemExtraBullet loads one more chamber on the holder's next shot.
	ItemExtraBullet ItemKind = "bullet"
	// ItemVest has an independent chance to absorb a lethal outcome. Consumed on use.
	ItemVest ItemKind = "vest"
	// ItemExtraLife always absorbs a lethal outcome. Consumed on use.
	ItemExtraLife ItemKind = "life"
)

// ItemCaps is the maximum count a participant can hold per item kind.
var ItemCaps = map[ItemKind]int{
	ItemExtraBullet: 2,
	ItemVest:        1,
	ItemExtraLife:   1,
}

// itemKinds is the grant order for random item events.
var itemKinds = []ItemKind{ItemExtraBullet, ItemVest, ItemExtraLife}

// ItemName renders an item for chat output.
func ItemName(k ItemKind) string {
	switch k {
	case ItemExtraBullet:
		return "🔸 extra bullet"
	case ItemVest:
		return "🦺 vest"
	case ItemExtraLife:
		return "❤️ extra life"
	default:
		return string(k)
	}
}

// Participant is a player seated in a session.
type Participant struct {
	game.Actor
	Seat  int
	Alive bool
	Role  *Role

	Inventory map[ItemKind]int

	ShotsFired     int
	RoundsSurvived int
	// EliminationOrder is 1 for the first player out, 0 while alive.
	EliminationOrder int
	Surrendered      bool

	blockUsed    bool
	redirectUsed bool
}

func newParticipant(actor game.Actor, seat int) *Participant {
	return &Participant{
		Actor:     actor,
		Seat:      seat,
		Alive:     true,
		Inventory: make(map[ItemKind]int),
	}
}

// Give adds one item if the per-kind cap allows it.
func (p *Participant) Give(kind ItemKind) bool {
	if p.Inventory[kind] >= ItemCaps[kind] {
		return false
	}
	p.Inventory[kind]++
	return true
}

// take consumes one item, reporting whether one was held.
func (p *Participant) take(kind ItemKind) bool {
	if p.Inventory[kind] <= 0 {
		return false
	}
	p.Inventory[kind]--
	return true
}

// Has reports whether the participant's role grants c.
func (p *Participant) Has(c Capability) bool {
	return p.Role.Has(c)
}

// InventoryLabel renders held items, or an empty string.
func (p *Participant) InventoryLabel() string {
	kinds := make([]string, 0, len(p.Inventory))
	for kind, n := range p.Inventory {
		if n > 0 {
			kinds = append(kinds, string(kind))
		}
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		kind := ItemKind(k)
		parts = append(parts, fmt.Sprintf("%s×%d", ItemName(kind), p.Inventory[kind]))
	}
	return strings.Join(parts, ", ")
}

func (p *Participant) result(won bool) game.PlayerResult {
	return game.PlayerResult{
		Actor:          p.Actor,
		Won:            won,
		ShotsFired:     p.ShotsFired,
		RoundsSurvived: p.RoundsSurvived,
	}
}
