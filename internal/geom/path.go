// Package geom parses the SVG path subset shapes are drawn with and
// spreads marchers along it.
//
// Supported commands: M L H V C Q Z in absolute and relative form.
// Curves are flattened into short line runs, which is accurate to well
// under a step at field scale.
package geom

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// curveSteps is the number of line runs a curve is flattened into.
const curveSteps = 32

// Point is a field coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

func lerp(a, b Point, t float64) Point {
	return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// Segment is one drawing command after the pen position, flattened.
type Segment struct {
	Command byte
	points  []Point // start first, end last
}

// Start returns the segment's first point.
func (s Segment) Start() Point { return s.points[0] }

// End returns the segment's last point.
func (s Segment) End() Point { return s.points[len(s.points)-1] }

// Length returns the flattened arc length.
func (s Segment) Length() float64 {
	var total float64
	for i := 1; i < len(s.points); i++ {
		total += s.points[i-1].dist(s.points[i])
	}
	return total
}

// PointAt returns the point d along the segment, clamped to its ends.
func (s Segment) PointAt(d float64) Point {
	if d <= 0 {
		return s.Start()
	}
	for i := 1; i < len(s.points); i++ {
		run := s.points[i-1].dist(s.points[i])
		if d <= run {
			if run == 0 {
				return s.points[i]
			}
			return lerp(s.points[i-1], s.points[i], d/run)
		}
		d -= run
	}
	return s.End()
}

// Path is a parsed shape outline.
type Path struct {
	Segments []Segment
}

// Length returns the total length of all segments.
func (p Path) Length() float64 {
	var total float64
	for _, s := range p.Segments {
		total += s.Length()
	}
	return total
}

var tokenPattern = regexp.MustCompile(`[MmLlHhVvCcQqZz]|[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)

// Parse reads an SVG path string.
func Parse(d string) (Path, error) {
	tokens, err := tokenize(d)
	if err != nil {
		return Path{}, err
	}

	p := &parser{tokens: tokens}
	if err := p.run(); err != nil {
		return Path{}, err
	}
	if len(p.segments) == 0 {
		return Path{}, fmt.Errorf("svg path %q has no drawable segments", d)
	}
	return Path{Segments: p.segments}, nil
}

func tokenize(d string) ([]string, error) {
	locs := tokenPattern.FindAllStringIndex(d, -1)
	tokens := make([]string, 0, len(locs))
	last := 0
	for _, loc := range locs {
		if gap := d[last:loc[0]]; strings.Trim(gap, " \t\r\n,") != "" {
			return nil, fmt.Errorf("svg path: unexpected %q at offset %d", gap, last)
		}
		tokens = append(tokens, d[loc[0]:loc[1]])
		last = loc[1]
	}
	if tail := d[last:]; strings.Trim(tail, " \t\r\n,") != "" {
		return nil, fmt.Errorf("svg path: unexpected %q at offset %d", tail, last)
	}
	return tokens, nil
}

type parser struct {
	tokens   []string
	pos      int
	pen      Point
	start    Point
	started  bool
	segments []Segment
}

func (p *parser) run() error {
	var cmd byte
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if isCommand(tok) {
			cmd = tok[0]
			p.pos++
		} else if cmd == 0 {
			return fmt.Errorf("svg path: number %q before any command", tok)
		}

		if err := p.apply(cmd); err != nil {
			return err
		}

		// Coordinates following a moveto are implicit linetos.
		switch cmd {
		case 'M':
			cmd = 'L'
		case 'm':
			cmd = 'l'
		}
	}
	return nil
}

func (p *parser) apply(cmd byte) error {
	rel := cmd >= 'a' && cmd <= 'z'
	upper := cmd &^ 0x20

	if upper != 'M' && upper != 'Z' && !p.started {
		return fmt.Errorf("svg path: %c before moveto", cmd)
	}

	switch upper {
	case 'M':
		pt, err := p.point(rel)
		if err != nil {
			return err
		}
		p.pen, p.start, p.started = pt, pt, true
	case 'L':
		pt, err := p.point(rel)
		if err != nil {
			return err
		}
		p.line('L', pt)
	case 'H':
		x, err := p.number()
		if err != nil {
			return err
		}
		if rel {
			x += p.pen.X
		}
		p.line('H', Point{X: x, Y: p.pen.Y})
	case 'V':
		y, err := p.number()
		if err != nil {
			return err
		}
		if rel {
			y += p.pen.Y
		}
		p.line('V', Point{X: p.pen.X, Y: y})
	case 'Q':
		c, err := p.point(rel)
		if err != nil {
			return err
		}
		end, err := p.point(rel)
		if err != nil {
			return err
		}
		p.curve('Q', func(t float64) Point {
			return lerp(lerp(p.pen, c, t), lerp(c, end, t), t)
		}, end)
	case 'C':
		c1, err := p.point(rel)
		if err != nil {
			return err
		}
		c2, err := p.point(rel)
		if err != nil {
			return err
		}
		end, err := p.point(rel)
		if err != nil {
			return err
		}
		start := p.pen
		p.curve('C', func(t float64) Point {
			a, b, c := lerp(start, c1, t), lerp(c1, c2, t), lerp(c2, end, t)
			return lerp(lerp(a, b, t), lerp(b, c, t), t)
		}, end)
	case 'Z':
		if !p.started {
			return fmt.Errorf("svg path: closepath before moveto")
		}
		if p.pen != p.start {
			p.line('Z', p.start)
		}
		p.pen = p.start
	default:
		return fmt.Errorf("svg path: unsupported command %c", cmd)
	}
	return nil
}

func (p *parser) line(cmd byte, to Point) {
	p.segments = append(p.segments, Segment{Command: cmd, points: []Point{p.pen, to}})
	p.pen = to
}

func (p *parser) curve(cmd byte, at func(t float64) Point, end Point) {
	pts := make([]Point, 0, curveSteps+1)
	pts = append(pts, p.pen)
	for i := 1; i < curveSteps; i++ {
		pts = append(pts, at(float64(i)/curveSteps))
	}
	pts = append(pts, end)
	p.segments = append(p.segments, Segment{Command: cmd, points: pts})
	p.pen = end
}

func (p *parser) point(rel bool) (Point, error) {
	x, err := p.number()
	if err != nil {
		return Point{}, err
	}
	y, err := p.number()
	if err != nil {
		return Point{}, err
	}
	if rel {
		x += p.pen.X
		y += p.pen.Y
	}
	return Point{X: x, Y: y}, nil
}

func (p *parser) number() (float64, error) {
	if p.pos >= len(p.tokens) || isCommand(p.tokens[p.pos]) {
		return 0, fmt.Errorf("svg path: missing coordinate at token %d", p.pos)
	}
	v, err := strconv.ParseFloat(p.tokens[p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("svg path: bad number %q: %w", p.tokens[p.pos], err)
	}
	p.pos++
	return v, nil
}

func isCommand(tok string) bool {
	return len(tok) == 1 && strings.ContainsRune("MmLlHhVvCcQqZz", rune(tok[0]))
}
