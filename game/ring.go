package game

import "math/rand"

// TurnRing rotates turns through the currently-alive player ids in a
// fixed order, tracking round boundaries: the round counter increments
// once every player still in the ring has taken at least one turn since
// the last boundary.
type TurnRing struct {
	ids   []string
	idx   int
	taken map[string]struct{}
	round int
}

// NewTurnRing creates a ring over ids starting at a random index.
func NewTurnRing(ids []string) *TurnRing {
	r := &TurnRing{
		ids:   append([]string(nil), ids...),
		taken: make(map[string]struct{}),
		round: 1,
	}
	if len(r.ids) > 0 {
		r.idx = rand.Intn(len(r.ids))
	}
	return r
}

// Current returns the active player id, or "" when the ring is empty.
func (r *TurnRing) Current() string {
	if len(r.ids) == 0 {
		return ""
	}
	return r.ids[r.idx]
}

// Advance marks the active player as having taken a turn and moves to the
// next id, returning it. Crossing a round boundary bumps the round counter.
func (r *TurnRing) Advance() string {
	if len(r.ids) == 0 {
		return ""
	}
	r.taken[r.ids[r.idx]] = struct{}{}
	r.idx = (r.idx + 1) % len(r.ids)
	r.maybeEndRound()
	return r.Current()
}

// Remove drops an id from the ring, reporting whether it was the active
// player. When it was, Current() already points at the next player.
func (r *TurnRing) Remove(id string) bool {
	pos := -1
	for i, v := range r.ids {
		if v == id {
			pos = i
			break
		}
	}
	if pos == -1 {
		return false
	}
	wasCurrent := pos == r.idx
	r.ids = append(r.ids[:pos], r.ids[pos+1:]...)
	delete(r.taken, id)
	if len(r.ids) == 0 {
		r.idx = 0
		return wasCurrent
	}
	if pos < r.idx {
		r.idx--
	} else if r.idx >= len(r.ids) {
		r.idx = 0
	}
	r.maybeEndRound()
	return wasCurrent
}

func (r *TurnRing) maybeEndRound() {
	for _, id := range r.ids {
		if _, ok := r.taken[id]; !ok {
			return
		}
	}
	r.round++
	r.taken = make(map[string]struct{})
}

// Contains reports membership.
func (r *TurnRing) Contains(id string) bool {
	for _, v := range r.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Len returns the number of ids still in the ring.
func (r *TurnRing) Len() int { return len(r.ids) }

// Round returns the current round number, starting at 1.
func (r *TurnRing) Round() int { return r.round }
