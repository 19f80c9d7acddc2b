// internal/textmeasure/measurer.go
package textmeasure

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/tdewolff/canvas"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/xkilldash9x/boxflow/internal/config"
	"github.com/xkilldash9x/boxflow/internal/layout"
)

const (
	// pxPerMM converts canvas millimetres to CSS pixels at 96dpi.
	pxPerMM = 96 / 25.4
	// ptPerPx converts CSS pixels to points.
	ptPerPx = 0.75

	familySans = "sans"
	familyMono = "mono"
)

// faceKey identifies one cached face.
type faceKey struct {
	family string
	style  canvas.FontStyle
	size   float64
}

// FontMeasurer measures text with real glyph advances from the Go font
// family. It is safe for concurrent use.
type FontMeasurer struct {
	mu         sync.Mutex
	families   map[string]*canvas.FontFamily
	faces      map[faceKey]*canvas.FontFace
	sizeAdjust float64
	logger     *zap.Logger
}

// Option configures a FontMeasurer.
type Option func(*FontMeasurer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *FontMeasurer) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithSizeAdjust scales every measured width; values at or below zero
// are ignored.
func WithSizeAdjust(f float64) Option {
	return func(m *FontMeasurer) {
		if f > 0 {
			m.sizeAdjust = f
		}
	}
}

// NewFontMeasurer loads the bundled Go fonts.
func NewFontMeasurer(opts ...Option) (*FontMeasurer, error) {
	m := &FontMeasurer{
		families:   make(map[string]*canvas.FontFamily),
		faces:      make(map[faceKey]*canvas.FontFace),
		sizeAdjust: 1,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	bundled := map[string]map[canvas.FontStyle][]byte{
		familySans: {
			canvas.FontRegular:                     goregular.TTF,
			canvas.FontBold:                        gobold.TTF,
			canvas.FontRegular | canvas.FontItalic: goitalic.TTF,
			canvas.FontBold | canvas.FontItalic:    gobolditalic.TTF,
		},
		familyMono: {
			canvas.FontRegular:                     gomono.TTF,
			canvas.FontBold:                        gomonobold.TTF,
			canvas.FontRegular | canvas.FontItalic: gomonoitalic.TTF,
			canvas.FontBold | canvas.FontItalic:    gomonobolditalic.TTF,
		},
	}
	for name, styles := range bundled {
		family := canvas.NewFontFamily(name)
		for style, data := range styles {
			if err := family.LoadFont(data, 0, style); err != nil {
				return nil, fmt.Errorf("failed to load bundled %s font: %w", name, err)
			}
		}
		m.families[name] = family
	}
	m.logger.Debug("Bundled fonts loaded.", zap.Int("families", len(m.families)))
	return m, nil
}

// MeasureText implements layout.TextMeasurer.
func (m *FontMeasurer) MeasureText(text string, font layout.FontSpec) float64 {
	if text == "" {
		return 0
	}
	size := font.Size
	if size <= 0 {
		size = 16
	}
	m.mu.Lock()
	face := m.face(font, size)
	w := face.TextWidth(text) * pxPerMM
	m.mu.Unlock()

	w = w*m.sizeAdjust + float64(utf8.RuneCountInString(text))*font.LetterSpacing
	return max(w, 0)
}

// face returns the cached face for font at size. Callers hold m.mu.
func (m *FontMeasurer) face(font layout.FontSpec, size float64) *canvas.FontFace {
	key := faceKey{family: familySans, style: canvas.FontRegular, size: size}
	if font.Monospace() {
		key.family = familyMono
	}
	if font.Weight >= 600 {
		key.style = canvas.FontBold
	}
	if font.Italic {
		key.style |= canvas.FontItalic
	}
	if f, ok := m.faces[key]; ok {
		return f
	}
	f := m.families[key.family].Face(size*ptPerPx, canvas.Black, key.style, canvas.FontNormal)
	m.faces[key] = f
	return f
}

// New returns the measurer selected by cfg. The fallback measurer is the
// layout engine's own per-character estimate, so it is reported as nil.
func New(cfg config.FontsConfig, logger *zap.Logger) (layout.TextMeasurer, error) {
	switch cfg.Measurer {
	case "", config.MeasurerFallback:
		return nil, nil
	case config.MeasurerCanvas:
		m, err := NewFontMeasurer(WithLogger(logger), WithSizeAdjust(cfg.SizeAdjust))
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown text measurer %q", cfg.Measurer)
}
