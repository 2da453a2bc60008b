package pdf

import (
	"strconv"
	"strings"
)

// Fragment is a run of text positioned on the page in PDF user space.
type Fragment struct {
	X    float64
	Y    float64
	Text string
}

// Ruling is a drawn line segment. Table grids are built from horizontal
// and vertical rulings.
type Ruling struct {
	X0, Y0, X1, Y1 float64
}

// Horizontal reports whether the ruling is (close to) horizontal.
func (r Ruling) Horizontal() bool {
	return abs(r.Y1-r.Y0) <= 1.0 && abs(r.X1-r.X0) > 1.0
}

// Vertical reports whether the ruling is (close to) vertical.
func (r Ruling) Vertical() bool {
	return abs(r.X1-r.X0) <= 1.0 && abs(r.Y1-r.Y0) > 1.0
}

// Content holds everything recovered from a single page content stream.
type Content struct {
	Fragments []Fragment
	Rulings   []Ruling
}

// ParseContent interprets the text and path operators of a decoded PDF
// content stream. It is a best-effort interpreter: it tracks the text
// position through Tm/Td/TD/T*/TL, estimates advance widths from the
// current font size, and records stroked or filled line segments and thin
// rectangles as rulings. Unknown operators are skipped.
func ParseContent(data []byte) *Content {
	p := &parser{toks: tokenize(data)}
	return p.run()
}

type parser struct {
	toks []token
	pos  int

	// text state
	x, y     float64
	lineX    float64 // x at the start of the current text line
	lineY    float64
	leading  float64
	fontSize float64

	// path state
	curX, curY     float64
	startX, startY float64
	segments       []Ruling

	out Content
}

func (p *parser) run() *Content {
	var operands []token
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		p.pos++
		if t.kind == tokOperator {
			p.exec(t.val, operands)
			operands = operands[:0]
			continue
		}
		operands = append(operands, t)
	}
	return &p.out
}

func (p *parser) exec(op string, args []token) {
	switch op {
	case "BT":
		p.x, p.y, p.lineX, p.lineY = 0, 0, 0, 0
	case "Tf":
		if len(args) >= 1 {
			p.fontSize = num(args[len(args)-1])
		}
	case "TL":
		if len(args) >= 1 {
			p.leading = num(args[len(args)-1])
		}
	case "Tm":
		if len(args) >= 6 {
			p.x = num(args[len(args)-2])
			p.y = num(args[len(args)-1])
			p.lineX, p.lineY = p.x, p.y
		}
	case "Td", "TD":
		if len(args) >= 2 {
			tx := num(args[len(args)-2])
			ty := num(args[len(args)-1])
			p.lineX += tx
			p.lineY += ty
			p.x, p.y = p.lineX, p.lineY
			if op == "TD" {
				p.leading = -ty
			}
		}
	case "T*":
		p.lineY -= p.leading
		p.x, p.y = p.lineX, p.lineY
	case "Tj":
		if len(args) >= 1 && args[len(args)-1].kind == tokString {
			p.show(args[len(args)-1].val)
		}
	case "'":
		p.lineY -= p.leading
		p.x, p.y = p.lineX, p.lineY
		if len(args) >= 1 && args[len(args)-1].kind == tokString {
			p.show(args[len(args)-1].val)
		}
	case "TJ":
		p.showArray(args)
	case "m":
		if len(args) >= 2 {
			p.curX = num(args[len(args)-2])
			p.curY = num(args[len(args)-1])
			p.startX, p.startY = p.curX, p.curY
		}
	case "l":
		if len(args) >= 2 {
			x := num(args[len(args)-2])
			y := num(args[len(args)-1])
			p.segments = append(p.segments, Ruling{p.curX, p.curY, x, y})
			p.curX, p.curY = x, y
		}
	case "re":
		if len(args) >= 4 {
			x := num(args[len(args)-4])
			y := num(args[len(args)-3])
			w := num(args[len(args)-2])
			h := num(args[len(args)-1])
			// Thin rectangles are drawn rules, thick ones are cell borders.
			if h <= 2.0 {
				p.segments = append(p.segments, Ruling{x, y, x + w, y})
			} else if w <= 2.0 {
				p.segments = append(p.segments, Ruling{x, y, x, y + h})
			} else {
				p.segments = append(p.segments,
					Ruling{x, y, x + w, y},
					Ruling{x, y + h, x + w, y + h},
					Ruling{x, y, x, y + h},
					Ruling{x + w, y, x + w, y + h},
				)
			}
		}
	case "S", "s", "f", "F", "f*", "B", "B*", "b", "b*":
		for _, s := range p.segments {
			if s.Horizontal() || s.Vertical() {
				p.out.Rulings = append(p.out.Rulings, s)
			}
		}
		p.segments = p.segments[:0]
	case "n":
		p.segments = p.segments[:0]
	}
}

// show records the string at the current position and advances x by an
// estimated width. The width estimate only needs to preserve relative
// ordering within a line.
func (p *parser) show(s string) {
	if s != "" {
		p.out.Fragments = append(p.out.Fragments, Fragment{X: p.x, Y: p.y, Text: s})
	}
	p.x += p.advance(s)
}

// showArray handles TJ: strings interleaved with kerning offsets in
// thousandths of text space. A large negative offset is visual spacing
// between columns, so it splits fragments instead of joining them.
func (p *parser) showArray(args []token) {
	for _, a := range args {
		switch a.kind {
		case tokString:
			p.show(a.val)
		case tokNumber:
			v, _ := strconv.ParseFloat(a.val, 64)
			// offset moves the pen by -v/1000 * fontSize
			p.x -= v / 1000 * p.size()
		}
	}
}

func (p *parser) size() float64 {
	if p.fontSize <= 0 {
		return 10
	}
	return p.fontSize
}

func (p *parser) advance(s string) float64 {
	return float64(len(s)) * p.size() * 0.5
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokName
	tokOperator
	tokOther
)

type token struct {
	kind tokenKind
	val  string
}

// tokenize splits a content stream into numbers, strings, names, and
// operators. Dictionaries and inline images are skipped wholesale.
func tokenize(data []byte) []token {
	var toks []token
	i := 0
	n := len(data)
	for i < n {
		c := data[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0:
			i++
		case c == '%':
			for i < n && data[i] != '\n' {
				i++
			}
		case c == '(':
			s, next := readLiteralString(data, i)
			toks = append(toks, token{tokString, s})
			i = next
		case c == '<' && i+1 < n && data[i+1] == '<':
			i = skipDict(data, i)
		case c == '<':
			s, next := readHexString(data, i)
			toks = append(toks, token{tokString, s})
			i = next
		case c == '/':
			j := i + 1
			for j < n && !isDelim(data[j]) {
				j++
			}
			toks = append(toks, token{tokName, string(data[i+1 : j])})
			i = j
		case c == '[' || c == ']':
			i++
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < n && (data[j] == '.' || data[j] == '-' || (data[j] >= '0' && data[j] <= '9')) {
				j++
			}
			toks = append(toks, token{tokNumber, string(data[i:j])})
			i = j
		default:
			j := i
			for j < n && !isDelim(data[j]) {
				j++
			}
			word := string(data[i:j])
			if word == "BI" {
				// inline image: skip to EI
				if k := strings.Index(string(data[j:]), "EI"); k >= 0 {
					i = j + k + 2
					continue
				}
				i = n
				continue
			}
			toks = append(toks, token{tokOperator, word})
			i = j
		}
	}
	return toks
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func readLiteralString(data []byte, start int) (string, int) {
	var b strings.Builder
	depth := 0
	i := start
	for i < len(data) {
		c := data[i]
		switch c {
		case '\\':
			if i+1 < len(data) {
				i++
				switch data[i] {
				case 'n':
					b.WriteByte('\n')
				case 'r':
					b.WriteByte('\r')
				case 't':
					b.WriteByte('\t')
				case '(', ')', '\\':
					b.WriteByte(data[i])
				case '0', '1', '2', '3', '4', '5', '6', '7':
					// octal escape, up to 3 digits
					v := 0
					k := 0
					for k < 3 && i < len(data) && data[i] >= '0' && data[i] <= '7' {
						v = v*8 + int(data[i]-'0')
						i++
						k++
					}
					i--
					b.WriteByte(byte(v))
				}
			}
		case '(':
			depth++
			if depth > 1 {
				b.WriteByte(c)
			}
		case ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1
			}
			b.WriteByte(c)
		default:
			if depth > 0 {
				b.WriteByte(c)
			}
		}
		i++
	}
	return b.String(), i
}

func readHexString(data []byte, start int) (string, int) {
	var hexDigits []byte
	i := start + 1
	for i < len(data) && data[i] != '>' {
		c := data[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			hexDigits = append(hexDigits, c)
		}
		i++
	}
	if len(hexDigits)%2 == 1 {
		hexDigits = append(hexDigits, '0')
	}
	var b strings.Builder
	for j := 0; j+1 < len(hexDigits); j += 2 {
		hi := hexVal(hexDigits[j])
		lo := hexVal(hexDigits[j+1])
		b.WriteByte(byte(hi<<4 | lo))
	}
	return b.String(), i + 1
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 0
}

func skipDict(data []byte, start int) int {
	depth := 0
	i := start
	for i+1 < len(data) {
		if data[i] == '<' && data[i+1] == '<' {
			depth++
			i += 2
			continue
		}
		if data[i] == '>' && data[i+1] == '>' {
			depth--
			i += 2
			if depth == 0 {
				return i
			}
			continue
		}
		i++
	}
	return len(data)
}

func num(t token) float64 {
	v, _ := strconv.ParseFloat(t.val, 64)
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
