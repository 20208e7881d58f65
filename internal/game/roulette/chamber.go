package roulette

// Chamber is the shared cylinder: a shuffled, finite multiset of loaded and
// empty tokens consumed one per shot. When the last token is drawn the
// cylinder is refilled from the current lethality, so a draw never finds it
// empty.
type Chamber struct {
	size      int
	lethality int
	tokens    []bool // true = loaded; drawn from the front
	rng       Random
}

// NewChamber creates a freshly loaded cylinder of size chambers with
// lethality loaded tokens.
func NewChamber(size, lethality int, rng Random) *Chamber {
	c := &Chamber{size: size, rng: rng}
	c.Reload(lethality)
	return c
}

// Reload discards the remaining tokens and refills the cylinder with the
// given lethality, clamped to [1, size-1].
func (c *Chamber) Reload(lethality int) {
	c.lethality = clamp(lethality, 1, c.size-1)
	c.regenerate()
}

func (c *Chamber) regenerate() {
	tokens := make([]bool, c.size)
	for i := c.size - c.lethality; i < c.size; i++ {
		tokens[i] = true
	}
	c.rng.Shuffle(len(tokens), func(i, j int) {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	})
	c.tokens = tokens
}

// Draw removes the next token and reports whether it was loaded.
func (c *Chamber) Draw() bool {
	if len(c.tokens) == 0 {
		c.regenerate()
	}
	loaded := c.tokens[0]
	c.tokens = c.tokens[1:]
	return loaded
}

// Load turns up to n of the remaining empty tokens into loaded ones, picked
// at random, and returns how many were converted. An exhausted cylinder is
// refilled first.
func (c *Chamber) Load(n int) int {
	if n <= 0 {
		return 0
	}
	if len(c.tokens) == 0 {
		c.regenerate()
	}

	empty := make([]int, 0, len(c.tokens))
	for i, loaded := range c.tokens {
		if !loaded {
			empty = append(empty, i)
		}
	}
	c.rng.Shuffle(len(empty), func(i, j int) {
		empty[i], empty[j] = empty[j], empty[i]
	})

	converted := 0
	for _, idx := range empty {
		if converted == n {
			break
		}
		c.tokens[idx] = true
		converted++
	}
	return converted
}

// Lethality returns the loaded count used on the next refill.
func (c *Chamber) Lethality() int {
	return c.lethality
}

// Remaining returns the number of tokens left before a refill.
func (c *Chamber) Remaining() int {
	return len(c.tokens)
}

// LoadedRemaining returns the number of loaded tokens left.
func (c *Chamber) LoadedRemaining() int {
	n := 0
	for _, loaded := range c.tokens {
		if loaded {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
