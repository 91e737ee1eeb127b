package engine

import (
	"fmt"
	"strings"
)

// Command is a typed instruction for the engine. The translator task
// converts each command to its UCI wire form.
type Command interface {
	encode() string
}

// SetPosition loads a position, optionally followed by moves.
type SetPosition struct {
	FEN   string
	Moves []string
}

func (c SetPosition) encode() string {
	var sb strings.Builder
	if c.FEN == "" || c.FEN == "startpos" {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position fen ")
		sb.WriteString(c.FEN)
	}
	if len(c.Moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(c.Moves, " "))
	}
	return sb.String()
}

// SetOption sets a UCI engine option.
type SetOption struct {
	Name  string
	Value string
}

func (c SetOption) encode() string {
	return fmt.Sprintf("setoption name %s value %s", c.Name, c.Value)
}

// Go starts a search. Exactly one of MovetimeMs/Depth/Infinite should
// be set; Infinite wins if several are.
type Go struct {
	MovetimeMs *int
	Depth      *int
	Infinite   bool
}

func (c Go) encode() string {
	switch {
	case c.Infinite:
		return "go infinite"
	case c.Depth != nil:
		return fmt.Sprintf("go depth %d", *c.Depth)
	case c.MovetimeMs != nil:
		return fmt.Sprintf("go movetime %d", *c.MovetimeMs)
	default:
		return "go"
	}
}

// Stop interrupts the current search; the engine still replies with a
// bestmove line.
type Stop struct{}

func (Stop) encode() string { return "stop" }

// Quit asks the engine process to exit. The translator winds down
// after forwarding it.
type Quit struct{}

func (Quit) encode() string { return "quit" }
