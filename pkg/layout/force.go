package layout

import (
	"math"

	"github.com/OFFIS-RIT/logicflow/pkg/graph"
)

// ForceConfig tunes the force simulation. Zero fields take the defaults
// from DefaultForceConfig.
type ForceConfig struct {
	// Steps is the fixed number of integration steps.
	Steps int `toml:"steps" json:"steps"`
	// Rest distance of a link is LinkBase + LinkScale*(1-weight).
	LinkBase      float64 `toml:"link_base" json:"link_base"`
	LinkScale     float64 `toml:"link_scale" json:"link_scale"`
	DefaultWeight float64 `toml:"default_weight" json:"default_weight"`
	// Charge is the many-body strength; negative repels.
	Charge          float64 `toml:"charge" json:"charge"`
	CollideRadius   float64 `toml:"collide_radius" json:"collide_radius"`
	CollideStrength float64 `toml:"collide_strength" json:"collide_strength"`
	// VelocityDecay is the fraction of velocity lost per step.
	VelocityDecay float64 `toml:"velocity_decay" json:"velocity_decay"`
	AlphaMin      float64 `toml:"alpha_min" json:"alpha_min"`
}

func DefaultForceConfig() ForceConfig {
	return ForceConfig{
		Steps:           300,
		LinkBase:        60,
		LinkScale:       120,
		DefaultWeight:   0.5,
		Charge:          -300,
		CollideRadius:   35,
		CollideStrength: 0.7,
		VelocityDecay:   0.4,
		AlphaMin:        0.001,
	}
}

func (c ForceConfig) withDefaults() ForceConfig {
	d := DefaultForceConfig()
	if c.Steps <= 0 {
		c.Steps = d.Steps
	}
	if c.LinkBase <= 0 {
		c.LinkBase = d.LinkBase
	}
	if c.LinkScale <= 0 {
		c.LinkScale = d.LinkScale
	}
	if c.DefaultWeight <= 0 || c.DefaultWeight > 1 {
		c.DefaultWeight = d.DefaultWeight
	}
	if c.Charge == 0 {
		c.Charge = d.Charge
	}
	if c.CollideRadius <= 0 {
		c.CollideRadius = d.CollideRadius
	}
	if c.CollideStrength <= 0 {
		c.CollideStrength = d.CollideStrength
	}
	if c.VelocityDecay <= 0 || c.VelocityDecay >= 1 {
		c.VelocityDecay = d.VelocityDecay
	}
	if c.AlphaMin <= 0 || c.AlphaMin >= 1 {
		c.AlphaMin = d.AlphaMin
	}
	return c
}

const (
	initialRadius = 10.0
	distanceMin2  = 1.0
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

type body struct {
	x, y   float64
	vx, vy float64
}

type link struct {
	source, target int
	distance       float64
	strength       float64
	bias           float64
}

// Force runs a link/charge/center/collide simulation for cfg.Steps steps
// and returns the nodes with their final positions. Input positions are
// ignored and neither slice is modified. Hidden edges and edges to unknown
// nodes exert no force.
//
// Nodes start on a phyllotaxis spiral and the only randomness is a seeded
// generator used to separate coincident nodes, so identical input gives
// identical output.
func Force(nodes []graph.Node, edges []graph.Edge, cfg ForceConfig) []graph.Node {
	cfg = cfg.withDefaults()

	out := make([]graph.Node, len(nodes))
	copy(out, nodes)
	if len(out) == 0 {
		return out
	}

	index := make(map[string]int, len(out))
	for i, n := range out {
		if _, ok := index[n.ID]; !ok {
			index[n.ID] = i
		}
	}

	bodies := make([]body, len(out))
	for i := range bodies {
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		bodies[i] = body{x: r * math.Cos(a), y: r * math.Sin(a)}
	}

	sim := &simulation{
		cfg:    cfg,
		bodies: bodies,
		links:  buildLinks(edges, index, cfg),
		rng:    newLCG(),
	}
	sim.run()

	for i := range out {
		out[i].Position = graph.Position{
			X: finite(sim.bodies[i].x),
			Y: finite(sim.bodies[i].y),
		}
	}
	return out
}

func buildLinks(edges []graph.Edge, index map[string]int, cfg ForceConfig) []link {
	links := make([]link, 0, len(edges))
	count := make(map[int]int)
	for _, e := range edges {
		if e.Hidden {
			continue
		}
		s, okS := index[e.Source]
		t, okT := index[e.Target]
		if !okS || !okT || s == t {
			continue
		}
		weight := cfg.DefaultWeight
		if e.Weight != nil && !math.IsNaN(*e.Weight) {
			weight = math.Max(0, math.Min(1, *e.Weight))
		}
		links = append(links, link{
			source:   s,
			target:   t,
			distance: cfg.LinkBase + cfg.LinkScale*(1-weight),
		})
		count[s]++
		count[t]++
	}
	for i := range links {
		cs := float64(count[links[i].source])
		ct := float64(count[links[i].target])
		links[i].strength = 1 / math.Min(cs, ct)
		links[i].bias = cs / (cs + ct)
	}
	return links
}

type simulation struct {
	cfg    ForceConfig
	bodies []body
	links  []link
	rng    *lcg
}

func (s *simulation) run() {
	alpha := 1.0
	decay := 1 - math.Pow(s.cfg.AlphaMin, 1/float64(s.cfg.Steps))
	keep := 1 - s.cfg.VelocityDecay

	for step := 0; step < s.cfg.Steps; step++ {
		alpha -= alpha * decay

		s.applyLinks(alpha)
		s.applyCharge(alpha)
		s.applyCenter()
		s.applyCollide()

		for i := range s.bodies {
			b := &s.bodies[i]
			b.vx *= keep
			b.vy *= keep
			b.x += b.vx
			b.y += b.vy
		}
	}
}

func (s *simulation) applyLinks(alpha float64) {
	for _, l := range s.links {
		src := &s.bodies[l.source]
		tgt := &s.bodies[l.target]
		x := tgt.x + tgt.vx - src.x - src.vx
		y := tgt.y + tgt.vy - src.y - src.vy
		if x == 0 {
			x = s.rng.jiggle()
		}
		if y == 0 {
			y = s.rng.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - l.distance) / d * alpha * l.strength
		x *= k
		y *= k
		tgt.vx -= x * l.bias
		tgt.vy -= y * l.bias
		src.vx += x * (1 - l.bias)
		src.vy += y * (1 - l.bias)
	}
}

// applyCharge sums pairwise repulsion exactly, without a quadtree.
func (s *simulation) applyCharge(alpha float64) {
	strength := s.cfg.Charge
	for i := range s.bodies {
		bi := &s.bodies[i]
		for j := range s.bodies {
			if i == j {
				continue
			}
			bj := &s.bodies[j]
			x := bj.x - bi.x
			y := bj.y - bi.y
			if x == 0 {
				x = s.rng.jiggle()
			}
			if y == 0 {
				y = s.rng.jiggle()
			}
			l := x*x + y*y
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			bi.vx += x * strength * alpha / l
			bi.vy += y * strength * alpha / l
		}
	}
}

func (s *simulation) applyCenter() {
	var sx, sy float64
	for _, b := range s.bodies {
		sx += b.x
		sy += b.y
	}
	n := float64(len(s.bodies))
	sx /= n
	sy /= n
	for i := range s.bodies {
		s.bodies[i].x -= sx
		s.bodies[i].y -= sy
	}
}

// applyCollide pushes apart predicted positions closer than two radii.
// All nodes share one radius, so each side takes half of the correction.
func (s *simulation) applyCollide() {
	r := 2 * s.cfg.CollideRadius
	strength := s.cfg.CollideStrength
	for i := range s.bodies {
		bi := &s.bodies[i]
		xi := bi.x + bi.vx
		yi := bi.y + bi.vy
		for j := i + 1; j < len(s.bodies); j++ {
			bj := &s.bodies[j]
			x := xi - (bj.x + bj.vx)
			y := yi - (bj.y + bj.vy)
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = s.rng.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.rng.jiggle()
				l += y * y
			}
			l = math.Sqrt(l)
			k := (r - l) / l * strength
			x *= k
			y *= k
			bi.vx += x * 0.5
			bi.vy += y * 0.5
			bj.vx -= x * 0.5
			bj.vy -= y * 0.5
		}
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// lcg is the linear congruential generator d3-force seeds its jiggle with.
type lcg struct {
	state uint32
}

func newLCG() *lcg {
	return &lcg{state: 1}
}

func (g *lcg) next() float64 {
	g.state = 1664525*g.state + 1013904223
	return float64(g.state) / 4294967296
}

func (g *lcg) jiggle() float64 {
	return (g.next() - 0.5) * 1e-6
}
