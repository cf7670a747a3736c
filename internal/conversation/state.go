package conversation

import (
	"time"

	"pdfchat/internal/domain"
)

// State is the ordered chat log of one session. It is owned by a single
// app context and is not safe for concurrent use.
type State struct {
	turns []domain.Turn
	now   func() time.Time
}

func NewState() *State {
	return &State{turns: make([]domain.Turn, 0, 16), now: time.Now}
}

func (s *State) Append(role domain.Role, text string) {
	s.turns = append(s.turns, domain.Turn{Role: role, Text: text, CreatedAt: s.now()})
}

func (s *State) Clear() {
	s.turns = s.turns[:0]
}

// All returns a copy of the turns in insertion order.
func (s *State) All() []domain.Turn {
	cp := make([]domain.Turn, len(s.turns))
	copy(cp, s.turns)
	return cp
}

func (s *State) Len() int { return len(s.turns) }
