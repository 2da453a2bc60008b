package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContent_TextPositioning(t *testing.T) {
	stream := []byte(`
BT
/F1 10 Tf
72 700 Td
(Total assets) Tj
300 0 Td
(8,223,383) Tj
0 -14 Td
ET
`)
	c := ParseContent(stream)
	require.Len(t, c.Fragments, 2)

	assert.Equal(t, "Total assets", c.Fragments[0].Text)
	assert.InDelta(t, 72.0, c.Fragments[0].X, 0.01)
	assert.InDelta(t, 700.0, c.Fragments[0].Y, 0.01)

	assert.Equal(t, "8,223,383", c.Fragments[1].Text)
	assert.InDelta(t, 372.0, c.Fragments[1].X, 0.01)
}

func TestParseContent_TJKerningAndEscapes(t *testing.T) {
	stream := []byte(`BT /F1 12 Tf 100 500 Tm [(Stockholders\222 equity) -250 (1,234)] TJ ET`)
	c := ParseContent(stream)
	require.Len(t, c.Fragments, 2)
	assert.Contains(t, c.Fragments[0].Text, "Stockholders")
	assert.Equal(t, "1,234", c.Fragments[1].Text)
	// the kerning offset must push the second fragment to the right
	assert.Greater(t, c.Fragments[1].X, c.Fragments[0].X)
}

func TestParseContent_HexStringAndNestedParens(t *testing.T) {
	stream := []byte(`BT 10 10 Td <48656C6C6F> Tj 0 -12 Td ((15,713)) Tj ET`)
	c := ParseContent(stream)
	require.Len(t, c.Fragments, 2)
	assert.Equal(t, "Hello", c.Fragments[0].Text)
	assert.Equal(t, "(15,713)", c.Fragments[1].Text)
}

func TestParseContent_Rulings(t *testing.T) {
	stream := []byte(`
50 100 m 550 100 l S
72 50 1 300 re f
100 400 200 0.5 re f
`)
	c := ParseContent(stream)
	require.Len(t, c.Rulings, 3)
	assert.True(t, c.Rulings[0].Horizontal())
	assert.True(t, c.Rulings[1].Vertical())
	assert.True(t, c.Rulings[2].Horizontal())
}

func TestParseContent_SkipsDictionariesAndComments(t *testing.T) {
	stream := []byte(`
% comment line
/GS0 gs
BT
<</Type /ExtGState>> BDC
72 700 Td
(Cash and cash equivalents) Tj
ET
`)
	c := ParseContent(stream)
	require.Len(t, c.Fragments, 1)
	assert.Equal(t, "Cash and cash equivalents", c.Fragments[0].Text)
}

func TestBuildPageText_GroupsBaselines(t *testing.T) {
	c := &Content{Fragments: []Fragment{
		{X: 300, Y: 699.2, Text: "1,762,749"},
		{X: 72, Y: 700, Text: "Cash and cash equivalents"},
		{X: 200, Y: 699.8, Text: "1,330,411"},
		{X: 72, Y: 680, Text: "Short-term investments"},
	}}
	pt := BuildPageText(3, c)
	require.Len(t, pt.Lines, 2)
	assert.Equal(t, "Cash and cash equivalents 1,330,411 1,762,749", pt.Lines[0].Text())
	assert.Equal(t, "Short-term investments", pt.Lines[1].Text())
	assert.Equal(t, 3, pt.Number)
	assert.Equal(t, "Cash and cash equivalents 1,330,411 1,762,749\nShort-term investments", pt.Text())
}
