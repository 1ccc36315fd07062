package gpio

// quadTable maps (previous<<2 | current) CLK/DT states to a quarter step.
// Impossible transitions (both lines changed) count as zero.
var quadTable = [16]int{0, -1, 1, 0, 1, 0, 0, -1, -1, 0, 0, 1, 0, 1, -1, 0}

// Quadrature decodes a CLK/DT rotary encoder into detent steps and keeps a
// position clamped to [-max, max]. CLK leading DT is a positive step.
type Quadrature struct {
	state uint8
	rest  uint8
	acc   int
	pos   int
	max   int
}

// NewQuadrature starts a decoder at rest in the given line state.
func NewQuadrature(clk, dt bool, max int) *Quadrature {
	s := encode(clk, dt)
	return &Quadrature{state: s, rest: s, max: max}
}

func encode(clk, dt bool) uint8 {
	var s uint8
	if clk {
		s |= 2
	}
	if dt {
		s |= 1
	}
	return s
}

// Update feeds the current line levels. It returns the step (+1 or -1)
// and true once a full detent cycle moved the clamped position.
func (q *Quadrature) Update(clk, dt bool) (int, bool) {
	s := encode(clk, dt)
	if s == q.state {
		return 0, false
	}
	q.acc += quadTable[q.state<<2|s]
	q.state = s

	var step int
	switch {
	case q.acc >= 4:
		step = 1
	case q.acc <= -4:
		step = -1
	default:
		if s == q.rest {
			// Bounced back to the detent without completing a cycle.
			q.acc = 0
		}
		return 0, false
	}
	q.acc = 0

	next := q.clamp(q.pos + step)
	if next == q.pos {
		return 0, false
	}
	q.pos = next
	return step, true
}

// Position returns the current position.
func (q *Quadrature) Position() int { return q.pos }

// SetPosition re-seeds the position, clamped.
func (q *Quadrature) SetPosition(pos int) {
	q.pos = q.clamp(pos)
	q.acc = 0
}

func (q *Quadrature) clamp(pos int) int {
	if pos > q.max {
		return q.max
	}
	if pos < -q.max {
		return -q.max
	}
	return pos
}
