// internal/style/shorthand.go
package style

import (
	"strconv"
	"strings"

	"github.com/xkilldash9x/boxflow/internal/css"
)

var sides = [4]string{"top", "right", "bottom", "left"}

// expandShorthand rewrites a shorthand declaration into its longhands so
// that the cascade orders them like any other declaration. Longhands and
// unknown properties pass through unchanged.
func expandShorthand(d css.Declaration) []css.Declaration {
	long := func(pairs ...string) []css.Declaration {
		out := make([]css.Declaration, 0, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			out = append(out, css.Declaration{Property: pairs[i], Value: pairs[i+1], Important: d.Important})
		}
		return out
	}
	v := strings.TrimSpace(d.Value)

	switch d.Property {
	case "margin", "padding":
		return long(boxSides(d.Property+"-%s", v)...)
	case "inset":
		return long(boxSides("%s", v)...)
	case "border-width", "border-style", "border-color":
		suffix := strings.TrimPrefix(d.Property, "border")
		return long(boxSides("border-%s"+suffix, v)...)
	case "border":
		width, style := splitBorder(v)
		var pairs []string
		for _, side := range sides {
			pairs = append(pairs, "border-"+side+"-width", width, "border-"+side+"-style", style)
		}
		return long(pairs...)
	case "border-top", "border-right", "border-bottom", "border-left":
		width, style := splitBorder(v)
		return long(d.Property+"-width", width, d.Property+"-style", style)
	case "flex":
		grow, shrink, basis := splitFlex(v)
		return long("flex-grow", grow, "flex-shrink", shrink, "flex-basis", basis)
	case "flex-flow":
		var pairs []string
		for _, f := range strings.Fields(v) {
			if strings.Contains(f, "wrap") {
				pairs = append(pairs, "flex-wrap", f)
			} else {
				pairs = append(pairs, "flex-direction", f)
			}
		}
		return long(pairs...)
	case "gap", "grid-gap":
		row, col := pair(v)
		return long("row-gap", row, "column-gap", col)
	case "place-items", "place-content", "place-self":
		suffix := strings.TrimPrefix(d.Property, "place-")
		align, justify := pair(v)
		return long("align-"+suffix, align, "justify-"+suffix, justify)
	case "overflow":
		x, _ := pair(v)
		return long("overflow", x)
	case "overflow-x", "overflow-y":
		return long("overflow", v)
	case "word-wrap":
		return long("overflow-wrap", v)
	case "-webkit-line-clamp":
		return long("line-clamp", v)
	case "columns":
		var pairs []string
		for _, f := range strings.Fields(v) {
			if _, err := strconv.Atoi(f); err == nil {
				pairs = append(pairs, "column-count", f)
			} else if f != "auto" {
				pairs = append(pairs, "column-width", f)
			}
		}
		return long(pairs...)
	case "grid-template":
		rows, cols, ok := strings.Cut(v, "/")
		if !ok || strings.Contains(v, `"`) {
			return nil
		}
		return long("grid-template-rows", strings.TrimSpace(rows), "grid-template-columns", strings.TrimSpace(cols))
	case "font":
		return long(splitFont(v)...)
	}
	return []css.Declaration{d}
}

// boxSides expands a one to four value list to top, right, bottom, left.
func boxSides(pattern, value string) []string {
	parts := splitValues(value)
	var vals [4]string
	switch len(parts) {
	case 1:
		vals = [4]string{parts[0], parts[0], parts[0], parts[0]}
	case 2:
		vals = [4]string{parts[0], parts[1], parts[0], parts[1]}
	case 3:
		vals = [4]string{parts[0], parts[1], parts[2], parts[1]}
	case 4:
		vals = [4]string{parts[0], parts[1], parts[2], parts[3]}
	default:
		return nil
	}
	out := make([]string, 0, 8)
	for i, side := range sides {
		out = append(out, strings.Replace(pattern, "%s", side, 1), vals[i])
	}
	return out
}

// splitValues splits on whitespace outside parentheses.
func splitValues(value string) []string {
	var out []string
	depth, start := 0, -1
	for i, r := range value {
		switch {
		case r == '(':
			depth++
		case r == ')':
			depth--
		case (r == ' ' || r == '\t' || r == '\n') && depth == 0:
			if start >= 0 {
				out = append(out, value[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, value[start:])
	}
	return out
}

// pair returns the first value and the second, which defaults to the first.
func pair(value string) (string, string) {
	parts := splitValues(value)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], parts[0]
	}
	return parts[0], parts[1]
}

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "dotted": true, "dashed": true, "solid": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
}

// splitBorder picks the width and style out of a border shorthand. The
// color is ignored.
func splitBorder(value string) (width, style string) {
	width, style = "medium", "none"
	for _, part := range splitValues(value) {
		lower := strings.ToLower(part)
		switch {
		case borderStyles[lower]:
			style = lower
		case borderWidthKeywords[lower] > 0 || looksLikeLength(lower):
			width = lower
		}
	}
	return width, style
}

func looksLikeLength(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "calc(") {
		return true
	}
	c := s[0]
	return (c >= '0' && c <= '9') || c == '.' || ((c == '-' || c == '+') && len(s) > 1)
}

// splitFlex expands the flex shorthand into grow, shrink and basis.
func splitFlex(value string) (grow, shrink, basis string) {
	parts := splitValues(value)
	isNumber := func(s string) bool {
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	}
	switch len(parts) {
	case 1:
		switch parts[0] {
		case "none":
			return "0", "0", "auto"
		case "auto":
			return "1", "1", "auto"
		case "initial":
			return "0", "1", "auto"
		}
		if isNumber(parts[0]) {
			return parts[0], "1", "0px"
		}
		return "1", "1", parts[0]
	case 2:
		if isNumber(parts[1]) {
			return parts[0], parts[1], "0px"
		}
		return parts[0], "1", parts[1]
	case 3:
		return parts[0], parts[1], parts[2]
	}
	return "0", "1", "auto"
}

var fontStyleWords = map[string]string{"italic": "italic", "oblique": "italic"}

var fontWeightWords = map[string]bool{"bold": true, "bolder": true, "lighter": true}

// splitFont expands [style] [weight] size[/line-height] family.
func splitFont(value string) []string {
	parts := splitValues(value)
	var out []string
	for i, p := range parts {
		lower := strings.ToLower(p)
		switch {
		case fontStyleWords[lower] != "":
			out = append(out, "font-style", fontStyleWords[lower])
		case fontWeightWords[lower]:
			out = append(out, "font-weight", lower)
		case len(lower) == 3 && strings.HasSuffix(lower, "00") && lower[0] >= '1' && lower[0] <= '9':
			out = append(out, "font-weight", lower)
		case lower == "normal" || lower == "small-caps":
		case looksLikeLength(lower) || fontSizeKeywords[strings.Split(lower, "/")[0]] > 0:
			size, lh, hasLH := strings.Cut(p, "/")
			out = append(out, "font-size", size)
			if hasLH {
				out = append(out, "line-height", lh)
			}
			if i+1 < len(parts) {
				out = append(out, "font-family", strings.Join(parts[i+1:], " "))
			}
			return out
		}
	}
	return out
}
