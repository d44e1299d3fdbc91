package game

// Player represents one connection's seat in a room. The room owns the
// roster; game variants mutate the game-scoped fields (lives, alive,
// wins, letters) through the pointers the Host hands out.
type Player struct {
	ID       string // connection-scoped, unique within the room
	Name     string // unique within the room, collision-resolved
	IP       string
	ClientID string // stable across reconnects, may be empty

	Admin bool
	Alive bool
	Lives int
	Wins  int

	// Letters is the per-game collected-letter set (elimination variant).
	Letters map[byte]struct{}

	// Send is a reference to the connection's outbound channel.
	Send chan []byte
}

// NewPlayer creates a Player with empty game state.
func NewPlayer(id, name string, send chan []byte) *Player {
	return &Player{
		ID:      id,
		Name:    name,
		Send:    send,
		Letters: make(map[byte]struct{}),
	}
}

// ResetGameState clears the per-game fields at the start of a run.
func (p *Player) ResetGameState(lives int) {
	p.Alive = true
	p.Lives = lives
	p.Letters = make(map[byte]struct{})
}

// CollectLetters adds every letter of an accepted uppercase word and
// reports how many letters are now collected.
func (p *Player) CollectLetters(word string) int {
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c >= 'A' && c <= 'Z' {
			p.Letters[c] = struct{}{}
		}
	}
	return len(p.Letters)
}

// MissingLetters returns the uppercase letters not yet collected.
func (p *Player) MissingLetters() []byte {
	var missing []byte
	for c := byte('A'); c <= 'Z'; c++ {
		if _, ok := p.Letters[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// LetterList returns the collected letters in alphabetical order for snapshots.
func (p *Player) LetterList() []string {
	letters := make([]string, 0, len(p.Letters))
	for c := byte('A'); c <= 'Z'; c++ {
		if _, ok := p.Letters[c]; ok {
			letters = append(letters, string(c))
		}
	}
	return letters
}
