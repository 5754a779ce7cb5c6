package tictactoe

// Strategy proposes a cell for self on b, or reports that it has none.
type Strategy func(b Board, self Mark) (int, bool)

// Corners in the order the bot tries them.
var Corners = [4]int{0, 2, 6, 8}

const center = 4

// BotStrategies is evaluated in order; the first proposal wins.
var BotStrategies = []Strategy{
	CompleteLine,
	BlockLine,
	TakeCenter,
	TakeCorner,
	FirstOpen,
}

// CompleteLine wins immediately if possible.
func CompleteLine(b Board, self Mark) (int, bool) {
	return WinningMove(b, self)
}

// BlockLine stops the opponent's immediate win.
func BlockLine(b Board, self Mark) (int, bool) {
	return WinningMove(b, self.Other())
}

// TakeCenter picks the center cell when free.
func TakeCenter(b Board, _ Mark) (int, bool) {
	if b[center] == Empty {
		return center, true
	}
	return -1, false
}

// TakeCorner picks the first free corner.
func TakeCorner(b Board, _ Mark) (int, bool) {
	for _, i := range Corners {
		if b[i] == Empty {
			return i, true
		}
	}
	return -1, false
}

// FirstOpen picks the first free cell in board order.
func FirstOpen(b Board, _ Mark) (int, bool) {
	for i, m := range b {
		if m == Empty {
			return i, true
		}
	}
	return -1, false
}

// BotMove runs BotStrategies for self.
func BotMove(b Board, self Mark) (int, bool) {
	for _, s := range BotStrategies {
		if i, ok := s(b, self); ok {
			return i, true
		}
	}
	return -1, false
}
