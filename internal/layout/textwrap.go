// internal/layout/textwrap.go
package layout

import "math"

// wrapSearchSteps is the number of bisection steps used to find the
// narrowest width that keeps the greedy line count.
const wrapSearchSteps = 20

// simulateLines packs units into a band of constant width and returns the
// used width of each line.
func simulateLines(items *inlineItems, units []unit, opt packOptions, width float64) []float64 {
	opt.limit = math.Inf(1)
	band := func(float64, float64) (float64, float64) { return 0, width }
	lines := packLines(items, units, opt, band, nil, nil)
	out := make([]float64, len(lines))
	for i, l := range lines {
		out[i] = l.used
	}
	return out
}

// narrowestWidth bisects for the smallest width in [lo, hi] whose greedy
// packing needs at most count lines.
func narrowestWidth(items *inlineItems, units []unit, opt packOptions, lo, hi float64, count int) float64 {
	for i := 0; i < wrapSearchSteps && hi-lo > 0.01; i++ {
		mid := (lo + hi) / 2
		if len(simulateLines(items, units, opt, mid)) <= count {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}

func contentTotal(units []unit) float64 {
	total := 0.0
	for _, u := range units {
		if u.kind != runBreak {
			total += u.width
		}
	}
	return total
}

func variance(ws []float64) float64 {
	if len(ws) == 0 {
		return 0
	}
	mean := 0.0
	for _, w := range ws {
		mean += w
	}
	mean /= float64(len(ws))
	v := 0.0
	for _, w := range ws {
		v += (w - mean) * (w - mean)
	}
	return v / float64(len(ws))
}

// balanceWidth returns the line width for text-wrap: balance: the line
// count stays what greedy packing at width gives, and the lines are made
// as even as possible.
func balanceWidth(items *inlineItems, units []unit, opt packOptions, width float64) float64 {
	greedy := simulateLines(items, units, opt, width)
	count := len(greedy)
	if count < 2 {
		return width
	}
	lo := math.Min(contentTotal(units)/float64(count), width)
	best := narrowestWidth(items, units, opt, math.Max(lo, 0), width, count)
	bestVar := variance(simulateLines(items, units, opt, best))
	const probes = 16
	for k := 1; k < probes; k++ {
		cand := best + (width-best)*float64(k)/probes
		ws := simulateLines(items, units, opt, cand)
		if len(ws) != count {
			continue
		}
		if v := variance(ws); v < bestVar-1e-9 {
			best, bestVar = cand, v
		}
	}
	return best
}

// prettyWidth returns the line width for text-wrap: pretty. It only
// narrows the lines when the last line would hold less than a quarter of
// the width, and never adds a line.
func prettyWidth(items *inlineItems, units []unit, opt packOptions, width float64) float64 {
	greedy := simulateLines(items, units, opt, width)
	count := len(greedy)
	if count < 2 || greedy[count-1] >= width/4 {
		return width
	}
	lo := math.Min(contentTotal(units)/float64(count), width)
	cand := narrowestWidth(items, units, opt, math.Max(lo, 0), width, count)
	ws := simulateLines(items, units, opt, cand)
	if len(ws) <= count && ws[len(ws)-1] > greedy[count-1] {
		return cand
	}
	return width
}
