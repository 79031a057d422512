package vt

import (
	"fmt"
	"log"
	"unicode/utf8"
)

// ParseResult is the outcome of parsing one token: ParseOK once the
// token's final byte has been consumed and applied, ParseIncomplete when
// the scanner ran dry. Parser.Run returns ParseIncomplete whenever the
// buffered input is exhausted, whether that happened between tokens or
// mid-token; in the mid-token case the scanner has already been rewound
// to the start of the unfinished token, so the caller need only refill
// and call Run again.
type ParseResult int

const (
	ParseOK ParseResult = iota
	ParseIncomplete
)

// Parser is a recursive-descent automaton over a byte stream, driving
// mutations of a Screen. It carries no parse state between tokens other
// than what lives in the scanner and the Screen itself (its only other
// field kept across tokens is the todo record): a command is applied
// only once its final byte has been consumed, so a rewind-on-incomplete
// never leaves a half-entered CSI or a partial SGR behind.
type Parser struct {
	scanner *ByteScanner
	screen  *Screen

	// Reply sends bytes back to the PTY writer (the secondary device
	// attributes reply; status reports are only recorded as todo
	// entries). It must not block; the caller is expected to
	// wire this to a non-blocking channel send, dropping on a full
	// channel rather than stalling the parser.
	Reply func([]byte)

	todo map[string]struct{}
}

// NewParser returns a Parser reading from s and mutating screen.
func NewParser(s *ByteScanner, screen *Screen) *Parser {
	return &Parser{scanner: s, screen: screen, todo: make(map[string]struct{})}
}

// Todos returns the literal sequences recorded as unimplemented so far,
// each present at most once.
func (p *Parser) Todos() []string {
	out := make([]string, 0, len(p.todo))
	for k := range p.todo {
		out = append(out, k)
	}
	return out
}

func (p *Parser) todoRecord(msg string) {
	if _, ok := p.todo[msg]; ok {
		return
	}
	p.todo[msg] = struct{}{}
	log.Printf("vt: TODO: %s", msg)
}

func (p *Parser) reply(b []byte) {
	if p.Reply != nil {
		p.Reply(b)
	}
}

// Run consumes tokens from the scanner until it runs out of bytes and
// then returns ParseIncomplete, with the scanner rewound to the token
// boundary if it stopped mid-token. It loops internally, so a single Run
// call drains everything currently buffered.
func (p *Parser) Run() ParseResult {
	for {
		mark := p.scanner.Mark()
		b, ok := p.scanner.Next()
		if !ok {
			return ParseIncomplete
		}

		var res ParseResult
		switch {
		case b == 0x07:
			p.todoRecord("bell")
			res = ParseOK
		case b == 0x08:
			if p.screen.Col > 0 {
				p.screen.Col--
			}
			res = ParseOK
		case b == 0x09:
			p.screen.Col += 8 - (p.screen.Col % 8)
			res = ParseOK
		case b == 0x0A:
			p.screen.Row++
			p.screen.Col = 0
			res = ParseOK
		case b == 0x0D:
			p.screen.Col = 0
			res = ParseOK
		case b == 0x1B:
			res = p.handleEscape()
		case b >= 0x20 && b < 0x80:
			p.screen.Put(rune(b))
			res = ParseOK
		case b >= 0x80:
			p.scanner.Back()
			r, status := decodeUTF8(p.scanner)
			switch status {
			case utf8Incomplete:
				res = ParseIncomplete
			case utf8Invalid:
				p.screen.Put(utf8.RuneError)
				res = ParseOK
			default:
				// Valid multi-byte scalar: the core does not attempt
				// grapheme clustering or wide-cell layout, so every
				// decoded scalar occupies exactly one cell as '?'.
				_ = r
				p.screen.Put('?')
				res = ParseOK
			}
		default:
			// Unlisted C0 control byte: ignored rather than treated as
			// an error, consistent with never crashing on input.
			res = ParseOK
		}

		if res == ParseIncomplete {
			p.scanner.RewindTo(mark)
			return ParseIncomplete
		}
	}
}

func (p *Parser) handleEscape() ParseResult {
	b, ok := p.scanner.Next()
	if !ok {
		return ParseIncomplete
	}
	switch b {
	case '(':
		b2, ok := p.scanner.Next()
		if !ok {
			return ParseIncomplete
		}
		if b2 != 'B' {
			p.todoRecord(fmt.Sprintf("g0 charset %c", b2))
		}
	case '=':
		p.todoRecord("application keypad")
	case '>':
		p.todoRecord("normal keypad")
	case 'M':
		p.screen.InsertLineAt(p.screen.Top)
	case '[':
		return p.handleCSI()
	case ']':
		return p.handleOSC()
	default:
		p.todoRecord(fmt.Sprintf("esc %c", b))
	}
	return ParseOK
}

func (p *Parser) handleCSI() ParseResult {
	var raw []byte
	question, gt := false, false
	var params []int
	haveDigit := false

	for {
		b, ok := p.scanner.Next()
		if !ok {
			return ParseIncomplete
		}
		raw = append(raw, b)

		switch {
		case b == '?':
			question = true
		case b == '>':
			gt = true
		case b >= '0' && b <= '9':
			if !haveDigit {
				params = append(params, 0)
				haveDigit = true
			}
			params[len(params)-1] = params[len(params)-1]*10 + int(b-'0')
		case b == ';':
			params = append(params, 0)
			haveDigit = false
		case b >= 0x40 && b <= 0x7E:
			return p.executeCSI(b, params, question, gt, raw)
		}
	}
}

func getParam(params []int, i, def int) int {
	if i < len(params) {
		return params[i]
	}
	return def
}

func (p *Parser) executeCSI(final byte, params []int, question, gt bool, raw []byte) ParseResult {
	arg := func(i, def int) int { return getParam(params, i, def) }

	switch final {
	case '@':
		p.screen.InsertBlanks(arg(0, 1))
	case 'A':
		p.screen.MoveUp(arg(0, 1))
	case 'B':
		p.screen.MoveDown(arg(0, 1))
	case 'C':
		p.screen.MoveRight(arg(0, 1))
	case 'D':
		p.screen.MoveLeft(arg(0, 1))
	case 'H':
		p.screen.MoveTo(arg(0, 1), arg(1, 1))
	case 'J':
		switch mode := arg(0, 0); mode {
		case 2:
			p.screen.ClearViewport()
		default:
			p.todoRecord(fmt.Sprintf("erase in display %d", mode))
		}
	case 'K':
		switch mode := arg(0, 0); mode {
		case 0:
			p.screen.EraseLineRight()
		default:
			p.todoRecord(fmt.Sprintf("erase in line %d", mode))
		}
	case 'L':
		p.screen.InsertLineAt(p.screen.Row)
	case 'P':
		p.screen.DeleteChars(arg(0, 1))
	case 'c':
		if gt {
			// Secondary device attributes reply.
			p.reply([]byte{0x1b, '[', '4', '1', ';', '0', ';', '0', 'c'})
		} else {
			p.todoRecord("primary device attributes")
		}
	case 'd':
		p.screen.SetRowRelative(arg(0, 1))
	case 'h', 'l':
		set := final == 'h'
		if question {
			switch mode := arg(0, 0); mode {
			case 25:
				p.screen.HideCursor = !set
			default:
				p.todoRecord(fmt.Sprintf("dec private mode %d", mode))
			}
		} else {
			p.todoRecord(fmt.Sprintf("ansi mode %d", arg(0, 0)))
		}
	case 'm':
		if len(params) == 0 {
			p.screen.Attr = 0
		}
		for _, v := range params {
			switch {
			case v == 0:
				p.screen.Attr = 0
			case v == 1:
				p.screen.Attr = p.screen.Attr.SetBold()
			case v == 7:
				p.screen.Attr = p.screen.Attr.SetInverse(true)
			case v == 27:
				p.screen.Attr = p.screen.Attr.SetInverse(false)
			case v >= 30 && v <= 37:
				p.screen.Attr = p.screen.Attr.SetFG(v-30, true)
			case v == 39:
				p.screen.Attr = p.screen.Attr.SetFG(0, false)
			case v >= 40 && v <= 47:
				p.screen.Attr = p.screen.Attr.SetBG(v-40, true)
			case v == 49:
				p.screen.Attr = p.screen.Attr.SetBG(0, false)
			default:
				p.todoRecord(fmt.Sprintf("sgr %d", v))
			}
		}
	case 'n':
		switch mode := arg(0, 0); mode {
		case 5:
			p.todoRecord("device status report")
		case 6:
			p.todoRecord("cursor position report")
		default:
			p.todoRecord(fmt.Sprintf("device status %d", mode))
		}
	case 'r':
		top := arg(0, 1)
		bottom := arg(1, p.screen.Height)
		if !(top == 1 && bottom == p.screen.Height) {
			p.todoRecord(fmt.Sprintf("set scrolling region %d:%d", top, bottom))
		}
	default:
		p.todoRecord("csi \x1b[" + string(raw))
	}
	return ParseOK
}

func (p *Parser) readNum() (int, ParseResult) {
	num := 0
	for {
		b, ok := p.scanner.Next()
		if !ok {
			return 0, ParseIncomplete
		}
		if b >= '0' && b <= '9' {
			num = num*10 + int(b-'0')
			continue
		}
		p.scanner.Back()
		return num, ParseOK
	}
}

func (p *Parser) handleOSC() ParseResult {
	ps, res := p.readNum()
	if res == ParseIncomplete {
		return ParseIncomplete
	}

	if b, ok := p.scanner.Next(); !ok {
		return ParseIncomplete
	} else if b != ';' {
		p.scanner.Back()
	}

	var text []byte
	for {
		b, ok := p.scanner.Next()
		if !ok {
			return ParseIncomplete
		}
		if b == 0x07 || b == 0x00 {
			break
		}
		text = append(text, b)
	}

	switch ps {
	case 0:
		p.todoRecord(fmt.Sprintf("osc 0 title+icon %q", text))
	case 1:
		p.todoRecord(fmt.Sprintf("osc 1 icon %q", text))
	case 2:
		p.todoRecord(fmt.Sprintf("osc 2 title %q", text))
	case 11:
		p.todoRecord(fmt.Sprintf("osc 11 background %q", text))
	default:
		p.todoRecord(fmt.Sprintf("osc %d %q", ps, text))
	}
	return ParseOK
}
