package pdf

import (
	"sort"
	"strings"
)

// Line is a horizontal run of fragments sharing (approximately) one
// baseline, ordered left to right.
type Line struct {
	Y         float64
	Fragments []Fragment
}

// Text joins the line's fragments with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Fragments))
	for _, f := range l.Fragments {
		if s := strings.TrimSpace(f.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// PageText is the positioned text and ruling geometry of a single page.
type PageText struct {
	Number  int // 0-indexed
	Lines   []Line
	Rulings []Ruling
}

// Text returns the full page text, top to bottom.
func (p *PageText) Text() string {
	var b strings.Builder
	for i, l := range p.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Text())
	}
	return b.String()
}

// baselineTolerance is the maximum y-distance between fragments that are
// considered to sit on the same line.
const baselineTolerance = 2.0

// BuildPageText groups a page's fragments into baseline-ordered lines.
// Fragments are clustered by y, clusters are ordered top-down (PDF y grows
// upward) and fragments within a line left-to-right.
func BuildPageText(number int, c *Content) *PageText {
	frags := make([]Fragment, len(c.Fragments))
	copy(frags, c.Fragments)
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].Y != frags[j].Y {
			return frags[i].Y > frags[j].Y
		}
		return frags[i].X < frags[j].X
	})

	var lines []Line
	for _, f := range frags {
		if len(lines) > 0 && abs(lines[len(lines)-1].Y-f.Y) <= baselineTolerance {
			lines[len(lines)-1].Fragments = append(lines[len(lines)-1].Fragments, f)
			continue
		}
		lines = append(lines, Line{Y: f.Y, Fragments: []Fragment{f}})
	}
	for i := range lines {
		sort.SliceStable(lines[i].Fragments, func(a, b int) bool {
			return lines[i].Fragments[a].X < lines[i].Fragments[b].X
		})
	}

	return &PageText{Number: number, Lines: lines, Rulings: c.Rulings}
}
