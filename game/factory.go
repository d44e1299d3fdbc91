package game

import (
	"fmt"
	"sort"

	"wordroom-server/roomerrors"
)

// DefaultMode is used when neither persisted storage nor the connect
// request names a mode.
const DefaultMode = ModeBombParty

// Mode identifiers, also the prefixes of per-variant wire message types.
const (
	ModeBombParty = "bombparty"
	ModeWordle    = "wordle"
	ModeWordChain = "wordchain"
)

// Constructor builds a fresh Machine bound to a Host.
type Constructor func(h Host) Machine

// Factory maps mode identifiers to variant constructors. The variant set
// is closed: modes are registered once at startup and looked up per room.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory creates an empty Factory.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]Constructor)}
}

// Register binds a mode identifier to a constructor. Registering a
// duplicate mode is a programming error and panics at startup.
func (f *Factory) Register(mode string, c Constructor) {
	if _, dup := f.constructors[mode]; dup {
		panic(fmt.Sprintf("game mode %q registered twice", mode))
	}
	f.constructors[mode] = c
}

// Known reports whether mode is registered.
func (f *Factory) Known(mode string) bool {
	_, ok := f.constructors[mode]
	return ok
}

// Modes returns the registered mode identifiers, sorted.
func (f *Factory) Modes() []string {
	modes := make([]string, 0, len(f.constructors))
	for m := range f.constructors {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}

// Create instantiates the variant for mode, or fails with ErrUnknownMode.
func (f *Factory) Create(mode string, h Host) (Machine, error) {
	c, ok := f.constructors[mode]
	if !ok {
		return nil, fmt.Errorf("mode %q: %w", mode, roomerrors.ErrUnknownMode)
	}
	m := c(h)
	m.OnStart()
	return m, nil
}

// RegisterAll registers the three built-in variants.
func RegisterAll(f *Factory) {
	f.Register(ModeBombParty, func(h Host) Machine { return NewBombParty(h) })
	f.Register(ModeWordle, func(h Host) Machine { return NewWordle(h) })
	f.Register(ModeWordChain, func(h Host) Machine { return NewWordChain(h) })
}
