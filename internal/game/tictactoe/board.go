package tictactoe

import "strings"

// Mark is the content of a board cell.
type Mark int

// Cell marks.
const (
	Empty Mark = iota
	X
	O
)

// String returns "X", "O" or "".
func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Other returns the opposing mark.
func (m Mark) Other() Mark {
	if m == X {
		return O
	}
	return X
}

// Board holds nine cells in row-major order, indexed 0..8.
type Board [9]Mark

// Lines lists every three-in-a-row: rows, columns, diagonals.
var Lines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Outcome is the evaluated state of a board.
type Outcome int

const (
	InProgress Outcome = iota
	XWins
	OWins
	Draw
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case XWins:
		return "X"
	case OWins:
		return "O"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Winner returns the winning mark, or Empty for draws and running games.
func (o Outcome) Winner() Mark {
	switch o {
	case XWins:
		return X
	case OWins:
		return O
	default:
		return Empty
	}
}

// Evaluate checks the eight lines for a winner, then the board for a draw.
func Evaluate(b Board) Outcome {
	for _, l := range Lines {
		m := b[l[0]]
		if m != Empty && m == b[l[1]] && m == b[l[2]] {
			if m == X {
				return XWins
			}
			return OWins
		}
	}
	if b.Full() {
		return Draw
	}
	return InProgress
}

// Full reports whether every cell is taken.
func (b Board) Full() bool {
	for _, m := range b {
		if m == Empty {
			return false
		}
	}
	return true
}

// OpenCells returns the free cells as 1-based numbers.
func (b Board) OpenCells() []int {
	out := make([]int, 0, 9)
	for i, m := range b {
		if m == Empty {
			out = append(out, i+1)
		}
	}
	return out
}

// Count returns how many cells hold m.
func (b Board) Count(m Mark) int {
	n := 0
	for _, c := range b {
		if c == m {
			n++
		}
	}
	return n
}

// WinningMove returns the empty cell that completes a line of two m marks.
func WinningMove(b Board, m Mark) (int, bool) {
	for _, l := range Lines {
		count, empty := 0, -1
		for _, i := range l {
			switch b[i] {
			case m:
				count++
			case Empty:
				empty = i
			}
		}
		if count == 2 && empty >= 0 {
			return empty, true
		}
	}
	return -1, false
}

// Render draws the board as a monospace grid. Free cells show their number.
func Render(b Board) string {
	cell := func(i int) string {
		if b[i] == Empty {
			return string(rune('1' + i))
		}
		return b[i].String()
	}
	row := func(a, c, d int) string {
		return " " + cell(a) + " | " + cell(c) + " | " + cell(d) + " "
	}
	const sep = "---+---+---"
	return strings.Join([]string{"```", row(0, 1, 2), sep, row(3, 4, 5), sep, row(6, 7, 8), "```"}, "\n")
}
