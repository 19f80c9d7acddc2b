// internal/layout/text.go
package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-text/typesetting/segmenter"
	"golang.org/x/text/unicode/bidi"
)

// transformText applies text-transform.
func transformText(s string, t TextTransform) string {
	switch t {
	case TransformUppercase:
		return strings.ToUpper(s)
	case TransformLowercase:
		return strings.ToLower(s)
	case TransformCapitalize:
		var b strings.Builder
		b.Grow(len(s))
		start := true
		for _, r := range s {
			if unicode.IsSpace(r) {
				start = true
				b.WriteRune(r)
				continue
			}
			if start && unicode.IsLetter(r) {
				r = unicode.ToTitle(r)
			}
			start = false
			b.WriteRune(r)
		}
		return b.String()
	}
	return s
}

func isCollapsible(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

// processWhiteSpace collapses white space per the white-space mode.
// Newlines survive only in the modes that preserve them.
func processWhiteSpace(s string, ws WhiteSpace) string {
	switch ws {
	case WhiteSpacePre, WhiteSpacePreWrap, WhiteSpaceBreakSpaces:
		return strings.ReplaceAll(s, "\r\n", "\n")
	case WhiteSpacePreLine:
		s = strings.ReplaceAll(s, "\r\n", "\n")
		lines := strings.Split(s, "\n")
		for i, l := range lines {
			lines[i] = collapseSpaces(l, i > 0, i < len(lines)-1)
		}
		return strings.Join(lines, "\n")
	}
	return collapseSpaces(s, false, false)
}

// collapseSpaces squeezes runs of white space into one space; trimStart
// and trimEnd drop spaces next to a preserved newline.
func collapseSpaces(s string, trimStart, trimEnd bool) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if isCollapsible(r) {
			space = true
			continue
		}
		if space && (b.Len() > 0 || !trimStart) {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	if space && !trimEnd && (b.Len() > 0 || !trimStart) {
		b.WriteByte(' ')
	}
	return b.String()
}

// segment is a piece of text between break opportunities.
type segment struct {
	text      string
	start     int
	mandatory bool
}

// lineSegments splits text at UAX #14 line break opportunities.
func lineSegments(text string) []segment {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var seg segmenter.Segmenter
	seg.Init(runes)
	it := seg.LineIterator()
	var out []segment
	offsets := runeOffsets(text)
	for it.Next() {
		l := it.Line()
		out = append(out, segment{
			text:      string(l.Text),
			start:     offsets[l.Offset],
			mandatory: l.IsMandatoryBreak,
		})
	}
	return out
}

// graphemes splits text into extended grapheme clusters.
func graphemes(text string) []segment {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var seg segmenter.Segmenter
	seg.Init(runes)
	it := seg.GraphemeIterator()
	offsets := runeOffsets(text)
	var out []segment
	for it.Next() {
		g := it.Grapheme()
		out = append(out, segment{text: string(g.Text), start: offsets[g.Offset]})
	}
	return out
}

// spaceSegments splits text only at spaces, for word-break: keep-all.
func spaceSegments(text string) []segment {
	var out []segment
	start := 0
	inSpace := false
	for i, r := range text {
		if r == ' ' {
			inSpace = true
			continue
		}
		if inSpace {
			out = append(out, segment{text: text[start:i], start: start})
			start = i
			inSpace = false
		}
	}
	if start < len(text) {
		out = append(out, segment{text: text[start:], start: start})
	}
	return out
}

// runeOffsets maps rune indexes to byte offsets, with one extra entry
// for the end of the string.
func runeOffsets(s string) []int {
	out := make([]int, 0, utf8.RuneCountInString(s)+1)
	for i := range s {
		out = append(out, i)
	}
	return append(out, len(s))
}

// detectDirection returns the direction of the first strong character,
// LTR when there is none.
func detectDirection(text string) (Direction, bool) {
	for _, r := range text {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.L:
			return LTR, true
		case bidi.R, bidi.AL:
			return RTL, true
		}
	}
	return LTR, false
}

// resolveDirection returns the used direction of a block container;
// auto looks at the text of the descendants in document order.
func (p *pass) resolveDirection(n *Node) Direction {
	switch n.Style.Direction {
	case RTL:
		return RTL
	case LTR:
		return LTR
	}
	dir := LTR
	stack := []NodeID{n.ID}
	for steps := 0; len(stack) > 0 && steps < 4096; steps++ {
		cur := p.tree.Node(stack[len(stack)-1])
		stack = stack[:len(stack)-1]
		if cur.Kind == KindText {
			if d, ok := detectDirection(cur.Text); ok {
				return d
			}
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return dir
}
