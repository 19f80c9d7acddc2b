// internal/gridsyntax/tracks.go
package gridsyntax

import (
	"fmt"
	"strings"
)

// SizeKind classifies a track sizing function.
type SizeKind uint8

const (
	SizeAuto SizeKind = iota
	SizeLength
	SizePercent
	SizeFr
	SizeMinContent
	SizeMaxContent
)

// Size is one track breadth. Value carries pixels for SizeLength (Unit
// says how to convert), the percentage for SizePercent and the factor for
// SizeFr.
type Size struct {
	Kind  SizeKind
	Value float64
	Unit  string
}

// IsFlexible reports whether the size is an fr value.
func (s Size) IsFlexible() bool { return s.Kind == SizeFr }

// IsFixed reports whether the size is a length or percentage.
func (s Size) IsFixed() bool { return s.Kind == SizeLength || s.Kind == SizePercent }

func (s Size) String() string {
	switch s.Kind {
	case SizeLength:
		return fmt.Sprintf("%g%s", s.Value, s.Unit)
	case SizePercent:
		return fmt.Sprintf("%g%%", s.Value)
	case SizeFr:
		return fmt.Sprintf("%gfr", s.Value)
	case SizeMinContent:
		return "min-content"
	case SizeMaxContent:
		return "max-content"
	}
	return "auto"
}

// Track is a track sizing function: minmax(Min, Max). A plain size sets
// both; fit-content(L) is minmax(auto, max-content) capped at Limit.
type Track struct {
	Min        Size
	Max        Size
	FitContent bool
	Limit      Size
}

// RepeatMode says how a repeat() count is derived.
type RepeatMode uint8

const (
	RepeatCount RepeatMode = iota
	RepeatAutoFill
	RepeatAutoFit
)

// TrackList is a parsed track template. Auto-repeat, when present, is
// kept unexpanded because its count depends on the container size.
type TrackList struct {
	// Tracks and Names are the template outside the auto-repeat. Names
	// has one entry per line, len(Tracks)+1; an auto-repeat adds one more
	// so the lines on both sides of it stay apart.
	Tracks []Track
	Names  [][]string
	// AutoIndex is the track index where the auto-repeat is inserted, or
	// -1 when there is none.
	AutoIndex  int
	AutoMode   RepeatMode
	AutoTracks []Track
	AutoNames  [][]string
}

// HasAutoRepeat reports whether the list contains auto-fill or auto-fit.
func (l *TrackList) HasAutoRepeat() bool { return l != nil && l.AutoIndex >= 0 }

// Expand returns the explicit tracks with the auto-repeat repeated count
// times, the line names, and the range of tracks produced by the
// auto-repeat.
func (l *TrackList) Expand(count int) (tracks []Track, names [][]string, autoStart, autoEnd int) {
	if l == nil {
		return nil, [][]string{nil}, 0, 0
	}
	if !l.HasAutoRepeat() {
		return append([]Track(nil), l.Tracks...), cloneNames(l.Names), 0, 0
	}
	count = max(count, 0)
	tracks = append(tracks, l.Tracks[:l.AutoIndex]...)
	names = cloneNames(l.Names[:l.AutoIndex+1])
	autoStart = len(tracks)
	for i := 0; i < count; i++ {
		for j, t := range l.AutoTracks {
			names[len(names)-1] = append(names[len(names)-1], l.AutoNames[j]...)
			tracks = append(tracks, t)
			names = append(names, nil)
		}
		names[len(names)-1] = append(names[len(names)-1], l.AutoNames[len(l.AutoTracks)]...)
	}
	autoEnd = len(tracks)
	names[len(names)-1] = append(names[len(names)-1], l.Names[l.AutoIndex+1]...)
	tracks = append(tracks, l.Tracks[l.AutoIndex:]...)
	names = append(names, cloneNames(l.Names[l.AutoIndex+2:])...)
	return tracks, names, autoStart, autoEnd
}

func cloneNames(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, n := range in {
		out[i] = append([]string(nil), n...)
	}
	return out
}

// ParseTracks parses a grid-template-columns or grid-template-rows value.
// An empty string and none give an empty list.
func ParseTracks(src string) (*TrackList, error) {
	out := &TrackList{AutoIndex: -1, Names: [][]string{nil}}
	if strings.TrimSpace(src) == "" {
		return out, nil
	}
	ast, err := trackParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("parse track list %q: %w", src, err)
	}
	if ast.None {
		return out, nil
	}
	for _, e := range ast.Entries {
		switch {
		case e.Names != nil:
			out.Names[len(out.Names)-1] = append(out.Names[len(out.Names)-1], e.Names.Names...)
		case e.Track != nil:
			out.Tracks = append(out.Tracks, e.Track.track())
			out.Names = append(out.Names, nil)
		case e.Repeat != nil:
			if err := out.addRepeat(e.Repeat); err != nil {
				return nil, fmt.Errorf("parse track list %q: %w", src, err)
			}
		}
	}
	return out, nil
}

func (l *TrackList) addRepeat(r *repeatAST) error {
	var tracks []Track
	names := [][]string{nil}
	for _, e := range r.Entries {
		switch {
		case e.Names != nil:
			names[len(names)-1] = append(names[len(names)-1], e.Names.Names...)
		case e.Track != nil:
			tracks = append(tracks, e.Track.track())
			names = append(names, nil)
		case e.Repeat != nil:
			return fmt.Errorf("nested repeat()")
		}
	}
	if len(tracks) == 0 {
		return fmt.Errorf("repeat() without tracks")
	}
	if r.AutoFit || r.Auto {
		if l.HasAutoRepeat() {
			return fmt.Errorf("more than one auto repeat()")
		}
		l.AutoIndex = len(l.Tracks)
		l.AutoMode = RepeatAutoFill
		if r.AutoFit {
			l.AutoMode = RepeatAutoFit
		}
		l.AutoTracks = tracks
		l.AutoNames = names
		l.Names = append(l.Names, nil)
		return nil
	}
	count := 0
	if r.Count != nil {
		count = int(r.Count.Value)
	}
	if count < 1 || r.Count.Unit != "" {
		return fmt.Errorf("invalid repeat count")
	}
	for i := 0; i < count; i++ {
		for j, t := range tracks {
			l.Names[len(l.Names)-1] = append(l.Names[len(l.Names)-1], names[j]...)
			l.Tracks = append(l.Tracks, t)
			l.Names = append(l.Names, nil)
		}
		l.Names[len(l.Names)-1] = append(l.Names[len(l.Names)-1], names[len(tracks)]...)
	}
	return nil
}

func (t *trackAST) track() Track {
	switch {
	case t.MinMax != nil:
		return Track{Min: t.MinMax.Min.size(), Max: t.MinMax.Max.size()}
	case t.FitContent != nil:
		return Track{Min: Size{Kind: SizeAuto}, Max: Size{Kind: SizeMaxContent}, FitContent: true, Limit: t.FitContent.size()}
	}
	s := t.Size.size()
	if s.Kind == SizeFr {
		// A bare fr track has an automatic minimum.
		return Track{Min: Size{Kind: SizeAuto}, Max: s}
	}
	return Track{Min: s, Max: s}
}

func (s *sizeAST) size() Size {
	if s.Dim != nil {
		return s.Dim.size()
	}
	switch strings.ToLower(s.Keyword) {
	case "min-content":
		return Size{Kind: SizeMinContent}
	case "max-content":
		return Size{Kind: SizeMaxContent}
	}
	return Size{Kind: SizeAuto}
}

func (d *dimension) size() Size {
	switch d.Unit {
	case "fr":
		return Size{Kind: SizeFr, Value: d.Value}
	case "%":
		return Size{Kind: SizePercent, Value: d.Value}
	case "":
		return Size{Kind: SizeLength, Value: d.Value, Unit: "px"}
	}
	return Size{Kind: SizeLength, Value: d.Value, Unit: d.Unit}
}
