// Package expr holds the symbolic arithmetic the zone engine computes
// with: linear expressions over parameters, the four comparison relations,
// and normalised parameter constraints with their conjunction sets.
package expr

import (
	"errors"

	u "github.com/parzone/parzone/utils"

	c "github.com/fatih/color"
)

var colorize = struct {
	Coeff func(...interface{}) string
	Const func(...interface{}) string
	Rel   func(...interface{}) string
}{
	Coeff: func(is ...interface{}) string {
		return u.CanColorize(c.New(c.FgHiWhite).SprintFunc())(is...)
	},
	Const: func(is ...interface{}) string {
		return u.CanColorize(c.New(c.FgHiWhite).SprintFunc())(is...)
	},
	Rel: func(is ...interface{}) string {
		return u.CanColorize(c.New(c.FgHiMagenta).SprintFunc())(is...)
	},
}

var (
	errInternal          = errors.New("internal error")
	errOpposingRelations = errors.New("conjunction of opposing relations")
	errNaNExpression     = errors.New("NaN in linear expression")
)
