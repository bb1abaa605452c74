// Package template renders $name placeholders in user supplied notification
// text.
package template

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Sigil prefixes every placeholder name.
const Sigil = "$"

// Context maps placeholder names (without the sigil) to their values.
type Context map[string]any

// KeyPercentage is the placeholder holding the charge as an integer 0-100.
const KeyPercentage = "percentage"

// NewContext builds the render context for a charge fraction.
func NewContext(chargeFraction float64) Context {
	return Context{
		KeyPercentage: Percentage(chargeFraction),
	}
}

// percentageEpsilon absorbs float error, so 0.29 is 29 and not 28.
const percentageEpsilon = 1e-9

// Percentage converts a charge fraction to a whole percentage in [0, 100].
// It truncates, so a charge below a threshold never renders as the
// threshold itself.
func Percentage(chargeFraction float64) int {
	if math.IsNaN(chargeFraction) {
		return 0
	}
	p := int(math.Floor(chargeFraction*100 + percentageEpsilon))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Render replaces every "$name" in tmpl with the value of name in ctx.
// Placeholders that are not in ctx are left as-is. Substitution is a single
// pass, so values containing "$other" are not expanded again. When two names
// share a prefix the longer one wins.
func Render(tmpl string, ctx Context) string {
	if len(ctx) == 0 || !strings.Contains(tmpl, Sigil) {
		return tmpl
	}

	names := make([]string, 0, len(ctx))
	for name := range ctx {
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	// strings.Replacer tries old strings in argument order at each position.
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	oldnew := make([]string, 0, len(names)*2)
	for _, name := range names {
		oldnew = append(oldnew, Sigil+name, fmt.Sprint(ctx[name]))
	}

	return strings.NewReplacer(oldnew...).Replace(tmpl)
}
