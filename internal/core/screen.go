package core

import (
	"strings"
	"unicode/utf8"
)

// Screen is a rune grid the renderer composes a frame into before
// handing it to the terminal as one string. Cells live in a single
// row-major slice, so clearing and rendering walk contiguous memory.
type Screen struct {
	width  int
	height int
	cells  []rune
}

// NewScreen returns a screen of the given size, filled with spaces.
func NewScreen(width, height int) *Screen {
	s := &Screen{
		width:  width,
		height: height,
		cells:  make([]rune, width*height),
	}
	s.Clear()
	return s
}

// Width returns the screen width in cells.
func (s *Screen) Width() int {
	return s.width
}

// Height returns the screen height in cells.
func (s *Screen) Height() int {
	return s.height
}

// Resize changes the dimensions. Content in the overlapping top-left
// region survives; everything else starts blank.
func (s *Screen) Resize(width, height int) {
	if width == s.width && height == s.height {
		return
	}

	old := s.cells
	oldW := s.width

	rows := min(s.height, height)
	cols := min(s.width, width)

	s.width = width
	s.height = height
	s.cells = make([]rune, width*height)
	s.Clear()

	for y := 0; y < rows; y++ {
		copy(s.cells[y*width:y*width+cols], old[y*oldW:y*oldW+cols])
	}
}

// Clear resets every cell to a space.
func (s *Screen) Clear() {
	for i := range s.cells {
		s.cells[i] = ' '
	}
}

// Set writes one rune. Coordinates outside the grid are ignored, so
// callers may draw shapes that hang off an edge without clamping.
func (s *Screen) Set(x, y int, r rune) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	s.cells[y*s.width+x] = r
}

// Get reads one rune, or a space when the coordinates are outside the
// grid.
func (s *Screen) Get(x, y int) rune {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return ' '
	}
	return s.cells[y*s.width+x]
}

// DrawText writes text left to right starting at (x, y), one cell per
// rune, clipping at the edges.
func (s *Screen) DrawText(x, y int, text string) {
	col := x
	for _, r := range text {
		s.Set(col, y, r)
		col++
	}
}

// DrawTextCentered writes text centered on the given row.
func (s *Screen) DrawTextCentered(y int, text string) {
	s.DrawText((s.width-utf8.RuneCountInString(text))/2, y, text)
}

// DrawBox outlines a w by h rectangle with box-drawing characters,
// with corners at (x, y) and (x+w-1, y+h-1).
func (s *Screen) DrawBox(x, y, w, h int) {
	right := x + w - 1
	bottom := y + h - 1

	s.DrawHLine(x+1, y, w-2, '─')
	s.DrawHLine(x+1, bottom, w-2, '─')
	s.DrawVLine(x, y+1, h-2, '│')
	s.DrawVLine(right, y+1, h-2, '│')

	s.Set(x, y, '┌')
	s.Set(right, y, '┐')
	s.Set(x, bottom, '└')
	s.Set(right, bottom, '┘')
}

// DrawHLine draws length cells of r rightward from (x, y).
func (s *Screen) DrawHLine(x, y, length int, r rune) {
	for i := 0; i < length; i++ {
		s.Set(x+i, y, r)
	}
}

// DrawVLine draws length cells of r downward from (x, y).
func (s *Screen) DrawVLine(x, y, length int, r rune) {
	for i := 0; i < length; i++ {
		s.Set(x, y+i, r)
	}
}

// String renders the grid as height lines joined by newlines.
func (s *Screen) String() string {
	var b strings.Builder
	b.Grow(s.height * (s.width + 1))

	for y := 0; y < s.height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(s.cells[y*s.width : (y+1)*s.width]))
	}
	return b.String()
}

// Row returns one row as a string, or all spaces when y is outside the
// grid.
func (s *Screen) Row(y int) string {
	if y < 0 || y >= s.height {
		return strings.Repeat(" ", s.width)
	}
	return string(s.cells[y*s.width : (y+1)*s.width])
}
