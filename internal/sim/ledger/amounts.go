package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Amounts is a dense per-resource quantity vector. A zero entry means the
// resource is absent, which keeps cost vectors and rate vectors in the same
// type.
type Amounts [NumResources]float64

func (a Amounts) Get(r Resource) float64 {
	if !r.Valid() {
		return 0
	}
	return a[r]
}

func (a *Amounts) Set(r Resource, v float64) {
	if r.Valid() {
		a[r] = v
	}
}

func (a Amounts) Plus(b Amounts) Amounts {
	for i := range a {
		a[i] += b[i]
	}
	return a
}

func (a Amounts) Minus(b Amounts) Amounts {
	for i := range a {
		a[i] -= b[i]
	}
	return a
}

func (a Amounts) Scale(f float64) Amounts {
	for i := range a {
		a[i] *= f
	}
	return a
}

// Mul multiplies entry-wise.
func (a Amounts) Mul(b Amounts) Amounts {
	for i := range a {
		a[i] *= b[i]
	}
	return a
}

func (a Amounts) ClampNonNegative() Amounts {
	for i, v := range a {
		if v < 0 || math.IsNaN(v) {
			a[i] = 0
		}
	}
	return a
}

// Positive keeps only the strictly positive entries.
func (a Amounts) Positive() Amounts {
	for i, v := range a {
		if !(v > 0) {
			a[i] = 0
		}
	}
	return a
}

func (a Amounts) IsZero() bool {
	for _, v := range a {
		if v != 0 {
			return false
		}
	}
	return true
}

func (a Amounts) Finite() bool {
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CanAfford reports whether every resource named by cost is covered.
// Resources absent from cost are unconstrained.
func (a Amounts) CanAfford(cost Amounts) bool {
	for i, c := range cost {
		if c > 0 && a[i] < c {
			return false
		}
	}
	return true
}

// Pay deducts cost when affordable. On failure a is returned untouched.
func (a Amounts) Pay(cost Amounts) (Amounts, bool) {
	if !a.CanAfford(cost) {
		return a, false
	}
	for i, c := range cost {
		if c > 0 {
			a[i] -= c
		}
	}
	return a, true
}

// ParseAmounts converts a keyed table into Amounts. Keys outside the closed
// resource set are returned sorted so callers can report them.
func ParseAmounts(m map[string]float64) (Amounts, []string) {
	var out Amounts
	var unknown []string
	for k, v := range m {
		r, ok := ParseResource(k)
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		out[r] = v
	}
	sort.Strings(unknown)
	return out, unknown
}

func (a Amounts) Map() map[string]float64 {
	m := make(map[string]float64)
	for i, v := range a {
		if v != 0 {
			m[resourceNames[i]] = v
		}
	}
	return m
}

// MarshalJSON writes non-zero entries in resource order.
func (a Amounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for i, v := range a {
		if v == 0 {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s: non-finite amount", resourceNames[i])
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(strconv.Quote(resourceNames[i]))
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON drops unknown keys.
func (a *Amounts) UnmarshalJSON(b []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*a, _ = ParseAmounts(m)
	return nil
}
