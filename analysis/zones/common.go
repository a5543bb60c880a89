// Package zones implements parametric difference-bound matrices: symbolic
// zones of clock valuations whose bounds are linear expressions over
// parameters, together with the split-producing operations the reachability
// analysis is built from.
package zones

import (
	"errors"

	"github.com/parzone/parzone/analysis/expr"
)

var (
	errLowerCell  = errors.New("lower-bound relation in a matrix cell")
	errZeroReset  = errors.New("reset of the zero clock")
	errBadResetTo = errors.New("reset to a negative or non-finite value")
)

// plainExpr renders a bound without colorization so matrix columns align.
func plainExpr(e expr.LinExpr) string {
	return e.PlainString()
}
