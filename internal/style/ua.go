// internal/style/ua.go
package style

// DefaultUserAgentCSS is the user-agent sheet applied before author
// sheets. Elements it does not mention are inline.
const DefaultUserAgentCSS = `
html, body, div, p, h1, h2, h3, h4, h5, h6, ul, ol, dl, dt, dd, form,
header, footer, section, article, aside, nav, main, figure, figcaption,
blockquote, pre, address, fieldset, legend, hr, details, summary {
    display: block;
}
li { display: list-item; }

body { margin: 8px; }
p, dl, blockquote, figure { margin: 1em 0; }
blockquote, figure { margin-left: 40px; margin-right: 40px; }
dd { margin-left: 40px; }
ul, ol { margin: 1em 0; padding-left: 40px; }

h1 { font-size: 2em; margin: 0.67em 0; font-weight: bold; }
h2 { font-size: 1.5em; margin: 0.83em 0; font-weight: bold; }
h3 { font-size: 1.17em; margin: 1em 0; font-weight: bold; }
h4 { margin: 1.33em 0; font-weight: bold; }
h5 { font-size: 0.83em; margin: 1.67em 0; font-weight: bold; }
h6 { font-size: 0.67em; margin: 2.33em 0; font-weight: bold; }
b, strong, th { font-weight: bold; }
i, em, cite, var { font-style: italic; }
small { font-size: smaller; }
big { font-size: larger; }
sub { vertical-align: sub; font-size: smaller; }
sup { vertical-align: super; font-size: smaller; }

pre, code, kbd, samp, tt { font-family: monospace; }
pre { white-space: pre; margin: 1em 0; }
hr { margin: 0.5em auto; border: 1px inset; }
fieldset { margin: 0 2px; padding: 0.35em 0.75em 0.625em; border: 2px groove; }

table { display: table; border-spacing: 2px; box-sizing: border-box; }
caption { display: table-caption; text-align: center; }
thead { display: table-header-group; vertical-align: middle; }
tbody { display: table-row-group; vertical-align: middle; }
tfoot { display: table-footer-group; vertical-align: middle; }
tr { display: table-row; }
td, th { display: table-cell; padding: 1px; vertical-align: middle; }
th { text-align: center; }
col { display: table-column; }
colgroup { display: table-column-group; }

img, video, canvas, iframe, svg, input, button, textarea, select {
    display: inline-block;
}
input, button, textarea, select {
    box-sizing: border-box;
    margin: 2px 0;
    padding: 1px 2px;
    border: 1px solid;
}
input { width: 170px; }
input[type="checkbox"], input[type="radio"] {
    width: 13px;
    height: 13px;
    padding: 0;
    margin: 3px;
}
button, input[type="submit"], input[type="button"], input[type="reset"] {
    width: auto;
    padding: 1px 6px;
    text-align: center;
}
textarea { width: 180px; height: 36px; }

[hidden], area, base, datalist, head, link, meta, noscript, script, style,
template, title { display: none; }
`
