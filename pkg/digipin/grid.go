package digipin

// symbols is indexed [row][col]. Rows run from north to south, columns from
// west to east.
var symbols = [gridSize][gridSize]byte{
	{'F', 'C', '9', '8'},
	{'J', '3', '2', '7'},
	{'K', '4', '5', '6'},
	{'L', 'M', 'P', 'T'},
}

type cell struct{ row, col int }

var positions = func() map[rune]cell {
	m := make(map[rune]cell, gridSize*gridSize)
	for r, row := range symbols {
		for c, s := range row {
			m[rune(s)] = cell{row: r, col: c}
		}
	}
	return m
}()

// Symbol returns the symbol at the given grid position. It panics if row or
// col is outside 0..3.
func Symbol(row, col int) byte {
	return symbols[row][col]
}

// Position returns the grid position of an upper-case symbol.
func Position(symbol rune) (row, col int, err error) {
	p, ok := positions[symbol]
	if !ok {
		return 0, 0, &CodeError{Symbol: symbol, Err: ErrInvalidSymbol}
	}
	return p.row, p.col, nil
}

// Alphabet returns the 16 symbols in row-major order.
func Alphabet() string {
	b := make([]byte, 0, gridSize*gridSize)
	for _, row := range symbols {
		b = append(b, row[:]...)
	}
	return string(b)
}
