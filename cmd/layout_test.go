// File: cmd/layout_test.go
package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/boxflow/internal/report"
)

const pageA = `<html><head><style>#a { width: 100px; height: 50px }</style></head>
<body><div id="a"></div><div id="b" style="height: 10px"></div></body></html>`

const pageB = `<p class="lead">Hello world</p>`

func findBox(t *testing.T, r *report.Report, label string) *report.Box {
	t.Helper()
	var found *report.Box
	r.Walk(func(b *report.Box, _ int) {
		if found == nil && b.Label == label {
			found = b
		}
	})
	require.NotNil(t, found, "no box labelled %s", label)
	return found
}

func decodeReports(t *testing.T, data string) []*report.Report {
	t.Helper()
	var out []*report.Report
	dec := json.NewDecoder(strings.NewReader(data))
	for dec.More() {
		var r report.Report
		require.NoError(t, dec.Decode(&r))
		out = append(out, &r)
	}
	return out
}

func TestLayoutCmd_SingleJSON(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "a.html", pageA)

	out, err := executeCommand(t, nil, "--config", quietConfig(t, ""), "layout", "--width", "640", "--height", "480", page)
	require.NoError(t, err)

	reports := decodeReports(t, out)
	require.Len(t, reports, 1)
	r := reports[0]
	assert.Equal(t, page, r.Source)
	assert.NotEmpty(t, r.PassID)
	assert.Equal(t, report.Rect{Width: 640, Height: 480}, r.Viewport)
	assert.Equal(t, "html", r.Root.Label)

	a := findBox(t, r, "div#a")
	assert.InDelta(t, 100.0, a.Border.Width, 1e-9)
	assert.InDelta(t, 8.0, a.Border.X, 1e-9, "user-agent body margin")
	b := findBox(t, r, "div#b")
	assert.InDelta(t, 640.0-16, b.Border.Width, 1e-9)
	assert.InDelta(t, a.Border.Y+50, b.Border.Y, 1e-9)
}

func TestLayoutCmd_ExtraStylesheet(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "a.html", pageA)
	sheet := writeFile(t, dir, "extra.css", `#b { width: 300px } #a { width: 10px }`)

	out, err := executeCommand(t, nil, "--config", quietConfig(t, ""), "layout", "--compact", "--css", sheet, page)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1, "compact JSON is one line")

	r := decodeReports(t, out)[0]
	assert.InDelta(t, 300.0, findBox(t, r, "div#b").Border.Width, 1e-9)
	assert.InDelta(t, 100.0, findBox(t, r, "div#a").Border.Width, 1e-9, "the document's own sheet comes later and wins")
}

func TestLayoutCmd_SVG(t *testing.T) {
	page := writeFile(t, t.TempDir(), "a.html", pageA)

	out, err := executeCommand(t, nil, "--config", quietConfig(t, ""), "layout", "-f", "svg", page)
	require.NoError(t, err)
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, `data-label="div#a"`)

	_, err = executeCommand(t, nil, "--config", quietConfig(t, ""), "layout", "-f", "svg", page, page)
	assert.ErrorContains(t, err, "need --output-dir")
}

func TestLayoutCmd_BatchToStdoutKeepsOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "one.html", pageA),
		writeFile(t, dir, "two.html", pageB),
		writeFile(t, dir, "three.html", pageA),
	}
	args := append([]string{"--config", quietConfig(t, ""), "layout", "-j", "3"}, paths...)
	out, err := executeCommand(t, nil, args...)
	require.NoError(t, err)

	reports := decodeReports(t, out)
	require.Len(t, reports, 3)
	for i, r := range reports {
		assert.Equal(t, paths[i], r.Source)
	}
	assert.NotEqual(t, reports[0].PassID, reports[2].PassID, "every document gets its own pass")
	findBox(t, reports[1], "p.lead")
}

func TestLayoutCmd_BatchToDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	outDir := filepath.Join(dir, "reports")
	args := []string{"--config", quietConfig(t, ""), "layout", "--output-dir", outDir, "-f", "svg",
		writeFile(t, dir, "a.html", pageA),
		writeFile(t, dir, "nested/a.html", pageB),
		writeFile(t, dir, "b.html", pageB),
	}
	out, err := executeCommand(t, nil, args...)
	require.NoError(t, err)
	assert.Empty(t, out, "reports go to files, not stdout")

	for _, name := range []string{"a.svg", "a-1.svg", "b.svg"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(data), "<svg", name)
	}
}

func TestLayoutCmd_Errors(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	good := writeFile(t, dir, "a.html", pageA)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no files", args: []string{"layout"}, want: "requires at least 1 arg(s)"},
		{name: "missing file", args: []string{"layout", good, filepath.Join(dir, "missing.html")}, want: "failed to open"},
		{name: "bad format", args: []string{"layout", "-f", "pdf", good}, want: "unsupported report format"},
		{name: "bad concurrency", args: []string{"layout", "-j", "0", good}, want: "--concurrency"},
		{name: "negative viewport", args: []string{"layout", "--width", "-1", good}, want: "viewport must not be negative"},
		{name: "missing sheet", args: []string{"layout", "--css", filepath.Join(dir, "none.css"), good}, want: "failed to read style sheet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", quietConfig(t, "")}, tt.args...)
			_, err := executeCommand(t, nil, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReportNames(t *testing.T) {
	names := reportNames([]string{"a.html", "x/a.html", "b.htm", "noext", "y/a.html"}, "json")
	assert.Equal(t, []string{"a.json", "a-1.json", "b.json", "noext.json", "a-2.json"}, names)
}

func TestReportNames_NumberedInputs(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{"numbered after repeats", []string{"x/a.html", "y/a.html", "a-1.html"}, []string{"a.json", "a-1.json", "a-1-1.json"}},
		{"numbered before repeats", []string{"a-1.html", "a.html", "x/a.html"}, []string{"a-1.json", "a.json", "a-2.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names := reportNames(tt.paths, "json")
			assert.Equal(t, tt.want, names)
			seen := make(map[string]bool)
			for _, n := range names {
				assert.False(t, seen[n], "duplicate report name %s", n)
				seen[n] = true
			}
		})
	}
}

func TestWriteReport_UnknownFormat(t *testing.T) {
	err := writeReport(&bytes.Buffer{}, &report.Report{}, "png", true)
	assert.ErrorContains(t, err, "unsupported report format")
}
