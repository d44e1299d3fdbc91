package game

import (
	"errors"
	"reflect"
	"testing"

	"wordroom-server/roomerrors"
)

func TestFactoryCreateUnknownMode(t *testing.T) {
	f := NewFactory()
	RegisterAll(f)

	h := newFakeHost(t, []string{"apple"}, "p1")
	if _, err := f.Create("checkers", h); !errors.Is(err, roomerrors.ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestFactoryModes(t *testing.T) {
	f := NewFactory()
	RegisterAll(f)

	want := []string{ModeBombParty, ModeWordChain, ModeWordle}
	if got := f.Modes(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected modes %v, got %v", want, got)
	}
	if !f.Known(DefaultMode) {
		t.Error("expected the default mode to be registered")
	}
}

func TestFactoryCreateEachVariant(t *testing.T) {
	f := NewFactory()
	RegisterAll(f)
	h := newFakeHost(t, []string{"apple"}, "p1")

	for _, mode := range f.Modes() {
		m, err := f.Create(mode, h)
		if err != nil {
			t.Fatalf("mode %s: %v", mode, err)
		}
		if !m.ChatEnabled() || !m.LogEnabled() {
			t.Errorf("mode %s: expected chat and log enabled by default", mode)
		}
		m.Dispose()
	}
}

func TestFactoryDuplicateRegisterPanics(t *testing.T) {
	f := NewFactory()
	f.Register("dup", func(h Host) Machine { return NewBombParty(h) })

	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	f.Register("dup", func(h Host) Machine { return NewBombParty(h) })
}
