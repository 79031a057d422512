package vt

import "testing"

func rowText(s *Screen, row int) string {
	var out []rune
	line := s.Lines[row]
	for _, c := range line {
		out = append(out, c.Ch)
	}
	return string(out)
}

func TestScreenPutWraps(t *testing.T) {
	s := NewScreen(3, 5)
	s.Put('a')
	s.Put('b')
	s.Put('c')
	if s.Row != 1 || s.Col != 0 {
		t.Fatalf("after wrap: row=%d col=%d, want 1,0", s.Row, s.Col)
	}
	s.Put('d')
	if s.Cell(0, 0).Ch != 'a' || s.Cell(1, 0).Ch != 'd' {
		t.Fatalf("unexpected cell contents")
	}
}

func TestScreenTrimAfterHelloWorld(t *testing.T) {
	s := NewScreen(80, 24)
	for _, r := range "hello, world" {
		s.Put(r)
	}
	// the parser never calls Put for a control byte; it applies \n as
	// row++/col=0 directly, so emulate that instead of Put('\n')
	s.Row++
	s.Col = 0

	s.Trim()

	if len(s.Lines) != 1 {
		t.Fatalf("lines.len() = %d, want 1", len(s.Lines))
	}
	if s.Row != 0 || s.Col != 0 || s.Top != 0 {
		t.Fatalf("row=%d col=%d top=%d, want 0,0,0", s.Row, s.Col, s.Top)
	}
	if got := rowText(s, 0); got != "hello, world" {
		t.Fatalf("row 0 = %q, want %q", got, "hello, world")
	}
}

func TestScreenInsertAndDeleteChars(t *testing.T) {
	s := NewScreen(10, 5)
	for _, r := range "abcde" {
		s.Put(r)
	}
	s.Row, s.Col = 0, 1
	s.DeleteChars(2)
	if got := rowText(s, 0); got != "ade" {
		t.Fatalf("after delete, row = %q, want %q", got, "ade")
	}

	s.Col = 1
	s.InsertBlanks(2)
	line := s.Lines[0]
	if len(line) != 5 || line[1].Ch != ' ' || line[2].Ch != ' ' || line[3].Ch != 'd' {
		t.Fatalf("after insert blanks, line = %+v", line)
	}
}

func TestScreenClearViewport(t *testing.T) {
	s := NewScreen(10, 2)
	for i := 0; i < 5; i++ {
		s.Put('x')
		s.Row++
		s.Col = 0
	}
	s.ClearViewport()
	if s.Row != s.Top || s.Col != 0 {
		t.Fatalf("after clear: row=%d col=%d top=%d", s.Row, s.Col, s.Top)
	}
}

func TestScreenMoveClampsAtZero(t *testing.T) {
	s := NewScreen(10, 5)
	s.MoveUp(100)
	s.MoveLeft(100)
	if s.Row != 0 || s.Col != 0 {
		t.Fatalf("row=%d col=%d, want 0,0", s.Row, s.Col)
	}
}
