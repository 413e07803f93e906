package agent

import (
	"time"

	"github.com/google/uuid"

	"github.com/nugget/paperscout/internal/papers"
	"github.com/nugget/paperscout/internal/prompts"
)

// Turn is one conversation entry.
type Turn = prompts.Turn

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// State is the lifecycle position of a session.
type State int

const (
	StateIterating State = iota
	StateFinal
	StateExhausted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIterating:
		return "ITERATING"
	case StateFinal:
		return "FINAL"
	case StateExhausted:
		return "EXHAUSTED"
	}
	return "UNKNOWN"
}

// Session holds the mutable state of one query. Sessions are never
// shared between queries.
type Session struct {
	ID        string
	Query     string
	Turns     []Turn
	Iteration int
	Results   []papers.Record
	State     State
	Started   time.Time

	// lastParamsJSON and lastResultJSON are the serialized parameters
	// and result of the most recent tool call, fed back to the model as
	// the next query.
	lastParamsJSON string
	lastResultJSON string
}

// NewSession starts a session from a copy of prior followed by the user
// query.
func NewSession(query string, prior []Turn) *Session {
	turns := make([]Turn, 0, len(prior)+1)
	turns = append(turns, prior...)
	turns = append(turns, Turn{Role: RoleUser, Content: query})
	return &Session{
		ID:      uuid.NewString(),
		Query:   query,
		Turns:   turns,
		State:   StateIterating,
		Started: time.Now(),
	}
}

// recordToolCall appends the assistant and system turns for a tool call
// and keeps the result set when it is non-empty.
func (s *Session) recordToolCall(tool, paramsJSON, resultJSON string, found []papers.Record) {
	s.Turns = append(s.Turns,
		Turn{Role: RoleAssistant, Content: prompts.ToolCallTurn(tool, paramsJSON)},
		Turn{Role: RoleSystem, Content: prompts.ToolResultTurn(resultJSON)},
	)
	if len(found) > 0 {
		s.Results = found
	}
}
