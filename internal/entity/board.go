package entity

import "strings"

// Size is the number of rows and columns of the board.
const Size = 3

// LineCheck selects how diagonals take part in HasLine.
type LineCheck int

const (
	// LineCheckKeyed counts a diagonal only when the placed cell lies on it,
	// the same way rows and columns are keyed to the placed cell.
	LineCheckKeyed LineCheck = iota
	// LineCheckLegacy checks both diagonals wherever the placed cell is.
	LineCheckLegacy
)

// Grid is a row-major view of the board, row 0 is the top row and column 0 the left-most one.
type Grid [Size][Size]Cell

type position struct {
	row, column int
}

type line [Size]position

var (
	mainDiagonal = line{{0, 0}, {1, 1}, {2, 2}}
	antiDiagonal = line{{0, 2}, {1, 1}, {2, 0}}
)

type Board struct {
	cells     Grid
	lineCheck LineCheck
}

func NewBoard(lineCheck LineCheck) *Board {
	return &Board{
		lineCheck: lineCheck,
	}
}

// State returns a copy of the grid.
func (that *Board) State() Grid {
	return that.cells
}

func (that *Board) InBounds(row, column int) bool {
	return row >= 0 && row < Size && column >= 0 && column < Size
}

// IsEmpty panics on coordinates outside the board, check InBounds first.
func (that *Board) IsEmpty(row, column int) bool {
	return that.cells[row][column].IsEmpty()
}

// Place puts token into an empty cell. An occupied cell is left untouched.
func (that *Board) Place(row, column int, token Cell) {
	if !that.IsEmpty(row, column) {
		return
	}

	that.cells[row][column] = token
}

// HasLine reports whether the row or the column of the cell at (row, column),
// or one of the diagonals, is entirely held by token.
func (that *Board) HasLine(row, column int, token Cell) bool {
	if token.IsEmpty() {
		return false
	}

	candidates := []line{rowLine(row), columnLine(column)}

	if that.lineCheck == LineCheckLegacy || row == column {
		candidates = append(candidates, mainDiagonal)
	}

	if that.lineCheck == LineCheckLegacy || row+column == Size-1 {
		candidates = append(candidates, antiDiagonal)
	}

	for _, candidate := range candidates {
		if that.heldBy(candidate, token) {
			return true
		}
	}

	return false
}

func (that *Board) IsFull() bool {
	for _, row := range that.cells {
		for _, cell := range row {
			if cell.IsEmpty() {
				return false
			}
		}
	}

	return true
}

func (that *Board) String() string {
	return that.cells.String()
}

func (that *Board) heldBy(candidate line, token Cell) bool {
	for _, pos := range candidate {
		if that.cells[pos.row][pos.column] != token {
			return false
		}
	}

	return true
}

func rowLine(row int) line {
	var result line
	for column := range result {
		result[column] = position{row: row, column: column}
	}
	return result
}

func columnLine(column int) line {
	var result line
	for row := range result {
		result[row] = position{row: row, column: column}
	}
	return result
}

// String renders the grid as text, one board row per line.
func (that Grid) String() string {
	rows := make([]string, 0, Size)

	for _, row := range that {
		marks := make([]string, 0, Size)
		for _, cell := range row {
			mark := cell.String()
			if mark == MarkEmpty {
				mark = " "
			}
			marks = append(marks, " "+mark+" ")
		}
		rows = append(rows, strings.Join(marks, "|"))
	}

	return strings.Join(rows, "\n---+---+---\n")
}
