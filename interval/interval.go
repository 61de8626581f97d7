package interval

import "math"

// Interval is a closed range [Min, Max] of possible float32 values.
// An Interval is a sound over-approximation: every value a buffer can take
// over the analyzed region lies inside it, but not every value inside it
// need be reachable.
type Interval struct {
	Min, Max float32
}

// New returns the interval [min, max]. It panics if min > max, which
// indicates a broken range routine rather than a recoverable condition.
func New(min, max float32) Interval {
	if min > max {
		panic("interval: min > max")
	}
	return Interval{Min: min, Max: max}
}

// Single returns the degenerate interval [v, v].
func Single(v float32) Interval {
	return Interval{Min: v, Max: v}
}

// FromValues returns the smallest interval containing all values.
func FromValues(values ...float32) Interval {
	if len(values) == 0 {
		return Interval{}
	}
	i := Single(values[0])
	for _, v := range values[1:] {
		if v < i.Min {
			i.Min = v
		}
		if v > i.Max {
			i.Max = v
		}
	}
	return i
}

// IsSingleValue reports whether the interval contains exactly one value.
func (i Interval) IsSingleValue() bool {
	return i.Min == i.Max
}

// Contains reports whether v lies within the interval.
func (i Interval) Contains(v float32) bool {
	return v >= i.Min && v <= i.Max
}

// ContainsInterval reports whether o lies entirely within i.
func (i Interval) ContainsInterval(o Interval) bool {
	return o.Min >= i.Min && o.Max <= i.Max
}

// Union returns the smallest interval containing both i and o.
func (i Interval) Union(o Interval) Interval {
	return Interval{
		Min: min32(i.Min, o.Min),
		Max: max32(i.Max, o.Max),
	}
}

// Add returns the interval of a+b for a in i, b in o.
func (i Interval) Add(o Interval) Interval {
	return Interval{Min: i.Min + o.Min, Max: i.Max + o.Max}
}

// AddScalar returns the interval shifted by v.
func (i Interval) AddScalar(v float32) Interval {
	return Interval{Min: i.Min + v, Max: i.Max + v}
}

// Sub returns the interval of a-b for a in i, b in o.
func (i Interval) Sub(o Interval) Interval {
	return Interval{Min: i.Min - o.Max, Max: i.Max - o.Min}
}

// Neg returns the interval of -a for a in i.
func (i Interval) Neg() Interval {
	return Interval{Min: -i.Max, Max: -i.Min}
}

// Mul returns the interval of a*b for a in i, b in o.
func (i Interval) Mul(o Interval) Interval {
	a := i.Min * o.Min
	b := i.Min * o.Max
	c := i.Max * o.Min
	d := i.Max * o.Max
	return Interval{
		Min: min32(min32(a, b), min32(c, d)),
		Max: max32(max32(a, b), max32(c, d)),
	}
}

// Div returns the interval of a/b for a in i, b in o. When the divisor
// interval straddles zero the result is unbounded; soundness wins over
// tightness.
func (i Interval) Div(o Interval) Interval {
	if o.Min <= 0 && o.Max >= 0 {
		return Interval{
			Min: float32(math.Inf(-1)),
			Max: float32(math.Inf(1)),
		}
	}
	return i.Mul(Interval{Min: 1 / o.Max, Max: 1 / o.Min})
}

// Squared returns the interval of a*a for a in i.
func (i Interval) Squared() Interval {
	if i.Min <= 0 && i.Max >= 0 {
		m := max32(i.Min*i.Min, i.Max*i.Max)
		return Interval{Min: 0, Max: m}
	}
	a := i.Min * i.Min
	b := i.Max * i.Max
	return Interval{Min: min32(a, b), Max: max32(a, b)}
}

// Abs returns the interval of |a| for a in i.
func (i Interval) Abs() Interval {
	if i.Min >= 0 {
		return i
	}
	if i.Max <= 0 {
		return i.Neg()
	}
	return Interval{Min: 0, Max: max32(-i.Min, i.Max)}
}

// Sqrt returns the interval of sqrt(a) for a in i, treating negative
// inputs as zero the way the execute routines do.
func (i Interval) Sqrt() Interval {
	lo := max32(i.Min, 0)
	hi := max32(i.Max, 0)
	return Interval{
		Min: float32(math.Sqrt(float64(lo))),
		Max: float32(math.Sqrt(float64(hi))),
	}
}

// Floor returns the interval of floor(a) for a in i.
func (i Interval) Floor() Interval {
	return Interval{
		Min: float32(math.Floor(float64(i.Min))),
		Max: float32(math.Floor(float64(i.Max))),
	}
}

// MinWith returns the interval of min(a, b) for a in i, b in o.
func (i Interval) MinWith(o Interval) Interval {
	return Interval{
		Min: min32(i.Min, o.Min),
		Max: min32(i.Max, o.Max),
	}
}

// MaxWith returns the interval of max(a, b) for a in i, b in o.
func (i Interval) MaxWith(o Interval) Interval {
	return Interval{
		Min: max32(i.Min, o.Min),
		Max: max32(i.Max, o.Max),
	}
}

// Clamp returns the interval of clamp(a, lo, hi) for a in i with constant
// bounds taken from the widest values of lo and hi.
func (i Interval) Clamp(bounds Interval) Interval {
	return i.MaxWith(Single(bounds.Min)).MinWith(Single(bounds.Max))
}

// Lerp returns the interval of a+(b-a)*t for a in i, b in o, t in t.
func (i Interval) Lerp(o, t Interval) Interval {
	return i.Add(o.Sub(i).Mul(t))
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
