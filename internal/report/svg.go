// internal/report/svg.go
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/beevik/etree"
)

// Outline colours by box kind.
var svgStroke = map[string]string{
	"element":   "#1f77b4",
	"anonymous": "#aaaaaa",
	"text":      "#d62728",
}

// WriteSVG draws the border box of every box and the fragments of text
// as outlined rectangles, one <g> per box, so the nesting of the output
// mirrors the tree.
func WriteSVG(w io.Writer, r *Report) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	width, height := r.Viewport.Width, r.Viewport.Height
	if r.Root != nil {
		width = math.Max(width, r.Root.Border.X+r.Root.Border.Width)
		r.Walk(func(b *Box, _ int) {
			height = math.Max(height, b.Border.Y+b.Border.Height)
		})
	}
	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	svg.CreateAttr("width", num(width))
	svg.CreateAttr("height", num(height))
	svg.CreateAttr("viewBox", fmt.Sprintf("0 0 %s %s", num(width), num(height)))
	if r.PassID != "" {
		svg.CreateAttr("data-pass-id", r.PassID)
	}
	if r.Source != "" {
		svg.CreateElement("title").SetText(r.Source)
	}
	if r.Root != nil {
		svgBox(svg, r.Root)
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write SVG report: %w", err)
	}
	return nil
}

func svgBox(parent *etree.Element, b *Box) {
	g := parent.CreateElement("g")
	g.CreateAttr("id", "box-"+strconv.Itoa(b.ID))
	g.CreateAttr("data-label", b.Label)
	stroke := svgStroke[b.Kind]

	if b.Kind == "text" {
		for _, f := range b.Fragments {
			svgRect(g, f.Rect, stroke).CreateAttr("data-line", strconv.Itoa(f.Line))
		}
	} else {
		rect := svgRect(g, b.Border, stroke)
		if b.Unsized {
			rect.CreateAttr("stroke-dasharray", "4 2")
		}
		for _, c := range b.Columns {
			svgRect(g, c, stroke).CreateAttr("stroke-opacity", "0.4")
		}
	}
	for _, c := range b.Children {
		svgBox(g, c)
	}
}

func svgRect(parent *etree.Element, r Rect, stroke string) *etree.Element {
	e := parent.CreateElement("rect")
	e.CreateAttr("x", num(r.X))
	e.CreateAttr("y", num(r.Y))
	e.CreateAttr("width", num(r.Width))
	e.CreateAttr("height", num(r.Height))
	e.CreateAttr("fill", "none")
	e.CreateAttr("stroke", stroke)
	return e
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
