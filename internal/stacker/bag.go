package stacker

import "math/rand"

// Bag sequences upcoming piece kinds. Every refill is a shuffled permutation
// of all seven kinds, so each kind appears exactly once per seven draws.
type Bag struct {
	rng   *rand.Rand
	queue []Kind
}

// NewBag creates a bag over an existing queue (as loaded from the game
// record). An empty queue is filled on creation.
func NewBag(rng *rand.Rand, queue []Kind) *Bag {
	b := &Bag{rng: rng, queue: append([]Kind(nil), queue...)}
	if len(b.queue) == 0 {
		b.queue = b.GenerateBag()
	}
	return b
}

// GenerateBag returns a uniformly shuffled permutation of all kinds.
func (b *Bag) GenerateBag() []Kind {
	bag := append([]Kind(nil), AllKinds...)
	b.rng.Shuffle(len(bag), func(i, j int) {
		bag[i], bag[j] = bag[j], bag[i]
	})
	return bag
}

// Draw pops the next kind. When the queue runs dry it is refilled straight
// away so a preview is always available.
func (b *Bag) Draw() Kind {
	if len(b.queue) == 0 {
		b.queue = b.GenerateBag()
	}
	k := b.queue[0]
	b.queue = b.queue[1:]
	if len(b.queue) == 0 {
		b.queue = b.GenerateBag()
	}
	return k
}

// Peek returns up to n upcoming kinds without consuming them.
func (b *Bag) Peek(n int) []Kind {
	if n > len(b.queue) {
		n = len(b.queue)
	}
	return append([]Kind(nil), b.queue[:n]...)
}

// Queue returns a copy of the remaining queue for persistence.
func (b *Bag) Queue() []Kind {
	return append([]Kind(nil), b.queue...)
}

// RandomKind picks a single kind uniformly, used for the reserve piece.
func RandomKind(rng *rand.Rand) Kind {
	return AllKinds[rng.Intn(len(AllKinds))]
}
