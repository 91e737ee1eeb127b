package analysis

import (
	nchess "github.com/corentings/chess/v2"
)

// pieceValues in centipawns, used for tactic detection heuristics.
var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   100,
	nchess.Knight: 320,
	nchess.Bishop: 330,
	nchess.Rook:   500,
	nchess.Queen:  900,
	nchess.King:   20000,
}

var knightSteps = [8][2]int{
	{1, 2}, {2, 1}, {2, -1}, {1, -2},
	{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}

var kingSteps = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

var bishopRays = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookRays = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// boardView is a plain occupancy map over a position, giving the
// analysis passes square-level attack queries the move generator does
// not expose.
type boardView struct {
	pieces map[nchess.Square]nchess.Piece
}

func newBoardView(pos *nchess.Position) *boardView {
	b := &boardView{pieces: make(map[nchess.Square]nchess.Piece, 32)}
	board := pos.Board()
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			sq := nchess.NewSquare(file, rank)
			if p := board.Piece(sq); p != nchess.NoPiece {
				b.pieces[sq] = p
			}
		}
	}
	return b
}

func squareAt(file, rank int) (nchess.Square, bool) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0, false
	}
	return nchess.NewSquare(nchess.File(file), nchess.Rank(rank)), true
}

func (b *boardView) piece(sq nchess.Square) (nchess.Piece, bool) {
	p, ok := b.pieces[sq]
	return p, ok
}

func (b *boardView) kingSquare(color nchess.Color) (nchess.Square, bool) {
	for sq, p := range b.pieces {
		if p.Type() == nchess.King && p.Color() == color {
			return sq, true
		}
	}
	return 0, false
}

// attacksFrom lists the squares the piece on sq attacks, counting the
// first blocker on each sliding ray.
func (b *boardView) attacksFrom(sq nchess.Square) []nchess.Square {
	p, ok := b.pieces[sq]
	if !ok {
		return nil
	}
	file := int(sq.File())
	rank := int(sq.Rank())
	var out []nchess.Square

	step := func(df, dr int) {
		if to, ok := squareAt(file+df, rank+dr); ok {
			out = append(out, to)
		}
	}
	ray := func(df, dr int) {
		f, r := file+df, rank+dr
		for {
			to, ok := squareAt(f, r)
			if !ok {
				return
			}
			out = append(out, to)
			if _, occupied := b.pieces[to]; occupied {
				return
			}
			f += df
			r += dr
		}
	}

	switch p.Type() {
	case nchess.Pawn:
		dir := 1
		if p.Color() == nchess.Black {
			dir = -1
		}
		step(-1, dir)
		step(1, dir)
	case nchess.Knight:
		for _, s := range knightSteps {
			step(s[0], s[1])
		}
	case nchess.King:
		for _, s := range kingSteps {
			step(s[0], s[1])
		}
	case nchess.Bishop:
		for _, r := range bishopRays {
			ray(r[0], r[1])
		}
	case nchess.Rook:
		for _, r := range rookRays {
			ray(r[0], r[1])
		}
	case nchess.Queen:
		for _, r := range bishopRays {
			ray(r[0], r[1])
		}
		for _, r := range rookRays {
			ray(r[0], r[1])
		}
	}
	return out
}

// attackersOf lists the squares of color's pieces attacking target.
func (b *boardView) attackersOf(target nchess.Square, color nchess.Color) []nchess.Square {
	var out []nchess.Square
	for sq, p := range b.pieces {
		if p.Color() != color {
			continue
		}
		for _, att := range b.attacksFrom(sq) {
			if att == target {
				out = append(out, sq)
				break
			}
		}
	}
	return out
}

// attackedSquares is the union of all squares color attacks.
func (b *boardView) attackedSquares(color nchess.Color) map[nchess.Square]struct{} {
	out := make(map[nchess.Square]struct{})
	for sq, p := range b.pieces {
		if p.Color() != color {
			continue
		}
		for _, att := range b.attacksFrom(sq) {
			out[att] = struct{}{}
		}
	}
	return out
}
