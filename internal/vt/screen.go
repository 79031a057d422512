package vt

import "sync"

// Screen is the mutable grid state: a scrollback-backed 2-D cell grid,
// cursor, and pen attributes. Its cells and cursor are mutated by a
// Parser driven from one reader goroutine, and its Width/Height by a
// resize under Lock; any other goroutine (a painter, a
// websocket hub) must go through Lock/Unlock or Snapshot to observe it
// without racing the writer.
//
// Invariants maintained by every method below:
//
//  1. After any write, Row < len(Lines) and Col < len(Lines[Row]).
//  2. If Row >= Top+Height, then Top = Row - Height + 1.
//  3. Attr changes never mutate existing cells, only subsequent writes.
//  4. Attr equality is bit-exact, enabling run-length painting.
type Screen struct {
	mu sync.Mutex

	Lines [][]Cell
	Width int
	Height int

	Top int
	Row int
	Col int

	Attr       Attr
	HideCursor bool
}

// NewScreen returns an empty screen sized to width x height.
func NewScreen(width, height int) *Screen {
	return &Screen{Width: width, Height: height}
}

// Lock acquires the screen's mutex. The reader goroutine holds it for the
// duration of parsing one refill; no I/O may occur while held.
func (s *Screen) Lock() { s.mu.Lock() }

// Unlock releases the screen's mutex.
func (s *Screen) Unlock() { s.mu.Unlock() }

// Snapshot returns a deep copy of the visible state, suitable for a
// painter or a remote viewer to walk without holding the screen lock for
// the duration of a slow draw or network write.
type Snapshot struct {
	Rows       [][]Cell
	Width      int
	Height     int
	Top        int
	Row        int
	Col        int
	HideCursor bool
}

func (s *Screen) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([][]Cell, len(s.Lines))
	for i, r := range s.Lines {
		rows[i] = append([]Cell(nil), r...)
	}
	return Snapshot{
		Rows:       rows,
		Width:      s.Width,
		Height:     s.Height,
		Top:        s.Top,
		Row:        s.Row,
		Col:        s.Col,
		HideCursor: s.HideCursor,
	}
}

// Cell reads the cell at (row, col), returning the default blank cell for
// any position not yet materialized.
func (s *Screen) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.Lines) {
		return blankCell
	}
	line := s.Lines[row]
	if col < 0 || col >= len(line) {
		return blankCell
	}
	return line[col]
}

// EnsurePos materializes rows/cells as needed to address (Row, Col),
// advances Top if the cursor has moved below the viewport, and returns a
// pointer to the addressed cell.
func (s *Screen) EnsurePos() *Cell {
	for s.Row >= len(s.Lines) {
		s.Lines = append(s.Lines, nil)
	}
	row := s.Lines[s.Row]
	for s.Col >= len(row) {
		row = append(row, blankCell)
	}
	s.Lines[s.Row] = row

	if s.Row >= s.Top+s.Height {
		s.Top = s.Row - s.Height + 1
	}
	return &s.Lines[s.Row][s.Col]
}

// Put writes ch with the current pen Attr at the cursor and advances Col,
// wrapping to the next row when Col reaches Width.
func (s *Screen) Put(ch rune) {
	cell := s.EnsurePos()
	*cell = Cell{Ch: ch, Attr: s.Attr}
	s.Col++
	if s.Col == s.Width {
		s.Col = 0
		s.Row++
	}
}

// MoveUp moves the cursor up by n rows, clamped at row 0.
func (s *Screen) MoveUp(n int) {
	s.Row -= n
	if s.Row < 0 {
		s.Row = 0
	}
}

// MoveDown moves the cursor down by n rows. There is no upper clamp;
// materialization is lazy.
func (s *Screen) MoveDown(n int) { s.Row += n }

// MoveLeft moves the cursor left by n columns, clamped at column 0.
func (s *Screen) MoveLeft(n int) {
	s.Col -= n
	if s.Col < 0 {
		s.Col = 0
	}
}

// MoveRight moves the cursor right by n columns. No upper clamp.
func (s *Screen) MoveRight(n int) { s.Col += n }

// MoveTo moves to viewport-relative (r, c), 1-based, clamped to >= 0 and
// mapped onto the absolute line buffer via Top.
func (s *Screen) MoveTo(r, c int) {
	row := r - 1
	if row < 0 {
		row = 0
	}
	col := c - 1
	if col < 0 {
		col = 0
	}
	s.Row = s.Top + row
	s.Col = col
}

// SetRowRelative moves to viewport-relative row r (1-based), leaving Col
// untouched. Used by CSI d (VPA).
func (s *Screen) SetRowRelative(r int) {
	row := r - 1
	if row < 0 {
		row = 0
	}
	s.Row = s.Top + row
}

// InsertBlanks inserts n blank cells at the cursor, shifting the
// remainder of the row right and truncating at Width. The cursor does
// not move.
func (s *Screen) InsertBlanks(n int) {
	if n <= 0 {
		return
	}
	s.EnsurePos()
	row := s.Lines[s.Row]
	col := s.Col
	if col > len(row) {
		col = len(row)
	}

	blanks := make([]Cell, n)
	for i := range blanks {
		blanks[i] = blankCell
	}
	newRow := make([]Cell, 0, len(row)+n)
	newRow = append(newRow, row[:col]...)
	newRow = append(newRow, blanks...)
	newRow = append(newRow, row[col:]...)
	if s.Width > 0 && len(newRow) > s.Width {
		newRow = newRow[:s.Width]
	}
	s.Lines[s.Row] = newRow
}

// DeleteChars shifts the row left by n cells starting at the cursor and
// truncates the row by n. This is the corrected semantics (shift+truncate
// by n); it does not replicate the original's len-2n truncation bug.
func (s *Screen) DeleteChars(n int) {
	if n <= 0 {
		return
	}
	s.EnsurePos()
	row := s.Lines[s.Row]
	col := s.Col
	if col >= len(row) {
		return
	}
	end := col + n
	if end > len(row) {
		end = len(row)
	}
	newRow := make([]Cell, 0, len(row)-(end-col))
	newRow = append(newRow, row[:col]...)
	newRow = append(newRow, row[end:]...)
	s.Lines[s.Row] = newRow
}

// InsertLineAt inserts a blank line at the given absolute row index,
// shifting subsequent lines down.
func (s *Screen) InsertLineAt(row int) {
	if row < 0 {
		row = 0
	}
	if row > len(s.Lines) {
		row = len(s.Lines)
	}
	s.Lines = append(s.Lines, nil)
	copy(s.Lines[row+1:], s.Lines[row:])
	s.Lines[row] = nil
}

// EraseLineRight truncates the current row at the cursor column.
func (s *Screen) EraseLineRight() {
	s.EnsurePos()
	row := s.Lines[s.Row]
	if s.Col < len(row) {
		s.Lines[s.Row] = row[:s.Col]
	}
}

// ClearViewport implements CSI J mode 2: it discards the line at Top and
// every line after it, leaving the viewport blank, and homes the cursor
// to (Top, 0).
func (s *Screen) ClearViewport() {
	top := s.Top
	if top < len(s.Lines) {
		s.Lines = s.Lines[:top]
	}
	s.Row = top
	s.Col = 0
}

// Trim drops the final, never-written row left behind by a trailing
// newline. It is called once, on child exit, so the last visible row is
// the command's last real output line rather than a blank line.
func (s *Screen) Trim() {
	if s.Col != 0 {
		return
	}
	if s.Row >= len(s.Lines) {
		if s.Row > 0 {
			s.Row--
		}
		return
	}
	if len(s.Lines[s.Row]) == 0 {
		s.Lines = s.Lines[:s.Row]
		if s.Row > 0 {
			s.Row--
		}
	}
}
