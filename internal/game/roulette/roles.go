package roulette

// Capability is a bit set of special abilities a role grants.
type Capability uint8

const (
	// CapBlockOnce absorbs the first lethal outcome against its holder.
	CapBlockOnce Capability = 1 << iota
	// CapRedirectOnce lets the holder pass one incoming shot to another player.
	CapRedirectOnce
	// CapInstantKill gives each shot a chance to eliminate without using the cylinder.
	CapInstantKill
	// CapForesight reveals each random event before it is applied.
	CapForesight
	// CapLifesteal grants an extra life for every elimination the holder causes.
	CapLifesteal
)

// Role is a session-scoped tag carrying a fixed capability set.
type Role struct {
	Name        string
	Emoji       string
	Description string
	Caps        Capability
}

// Has reports whether the role grants every capability in c.
func (r *Role) Has(c Capability) bool {
	return r != nil && r.Caps&c == c
}

// Label renders the role for chat output.
func (r *Role) Label() string {
	if r == nil {
		return "no role"
	}
	return r.Emoji + " " + r.Name
}

// RoleSet is the fixed pool dealt at roster lock. Players beyond its size get no role.
var RoleSet = []Role{
	{Name: "Guardian", Emoji: "🛡", Description: "survives the first lethal shot", Caps: CapBlockOnce},
	{Name: "Trickster", Emoji: "🃏", Description: "may redirect one incoming shot", Caps: CapRedirectOnce},
	{Name: "Executioner", Emoji: "🪓", Description: "25% chance to eliminate without spinning", Caps: CapInstantKill},
	{Name: "Oracle", Emoji: "🔮", Description: "sees random events before they happen", Caps: CapForesight},
	{Name: "Vampire", Emoji: "🧛", Description: "gains an extra life for each kill", Caps: CapLifesteal},
}

// dealRoles shuffles the role set and hands one role to each participant in
// turn order until either runs out.
func dealRoles(participants []*Participant, rng Random) {
	pool := make([]Role, len(RoleSet))
	copy(pool, RoleSet)
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	for i, p := range participants {
		if i >= len(pool) {
			break
		}
		role := pool[i]
		p.Role = &role
	}
}
