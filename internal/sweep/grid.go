// Package sweep runs strategy templates over parameter grids, tokens,
// timeframes and exit modes, then ranks the results.
package sweep

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"solana-signal-lab/internal/strategy"
)

// ErrEmptyGridValues is returned when a grid key has no candidate values.
var ErrEmptyGridValues = errors.New("grid parameter has no values")

// Grid maps a parameter name to its candidate values.
type Grid map[string][]float64

// Keys returns the grid keys sorted ASC.
func (g Grid) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Size returns the number of combinations.
func (g Grid) Size() int {
	n := 1
	for _, vs := range g {
		n *= len(vs)
	}
	return n
}

// Expand returns the cartesian product of the grid. Keys are ordered
// lexicographically and the last key varies fastest. An empty grid yields
// one empty combination.
func Expand(g Grid) ([]strategy.Params, error) {
	keys := g.Keys()
	for _, k := range keys {
		if len(g[k]) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyGridValues, k)
		}
	}

	out := make([]strategy.Params, 0, g.Size())
	counter := make([]int, len(keys))
	for {
		p := make(strategy.Params, len(keys))
		for i, k := range keys {
			p[k] = g[k][counter[i]]
		}
		out = append(out, p)

		// advance the odometer from the last digit
		i := len(keys) - 1
		for ; i >= 0; i-- {
			counter[i]++
			if counter[i] < len(g[keys[i]]) {
				break
			}
			counter[i] = 0
		}
		if i < 0 {
			return out, nil
		}
	}
}

// ParamString renders params as "k=v,k=v" with keys sorted ASC.
func ParamString(p strategy.Params) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(p[k], 'f', -1, 64))
	}
	return b.String()
}

// ErrInvalidParamString is returned by ParseParamString.
var ErrInvalidParamString = errors.New("invalid param string")

// ParseParamString parses the "k=v,k=v" form written by ParamString.
// Whitespace around keys and values is ignored.
func ParseParamString(s string) (strategy.Params, error) {
	p := strategy.Params{}
	if strings.TrimSpace(s) == "" {
		return p, nil
	}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidParamString, pair)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParamString, k, err)
		}
		if _, dup := p[k]; dup {
			return nil, fmt.Errorf("%w: duplicate %s", ErrInvalidParamString, k)
		}
		p[k] = f
	}
	return p, nil
}
