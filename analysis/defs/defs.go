// Package defs declares the identities the engine ranges over: clocks and
// parameters. Both are interned values with a process-wide monotonic
// allocator and a total order on their numeric identity.
package defs

import (
	"strconv"
	"sync/atomic"

	u "github.com/parzone/parzone/utils"

	c "github.com/fatih/color"
)

var colorize = struct {
	Clock func(...interface{}) string
	Param func(...interface{}) string
}{
	Clock: func(is ...interface{}) string {
		return u.CanColorize(c.New(c.FgHiCyan).SprintFunc())(is...)
	},
	Param: func(is ...interface{}) string {
		return u.CanColorize(c.New(c.FgHiYellow).SprintFunc())(is...)
	},
}

// Clock is a real-valued variable increasing uniformly with time.
// The zero value is not a valid clock; use NewClock or ZeroClock.
type Clock struct {
	id   uint32
	name string
}

// ZeroClock is the distinguished clock x0, fixed at 0 and occupying
// index 0 of every difference-bound matrix.
var ZeroClock = Clock{0, "x0"}

// Clock ids start at 1; id 0 belongs to the zero clock.
var clockCounter uint32

// NewClock allocates a fresh clock named "x<id>".
func NewClock() Clock {
	id := atomic.AddUint32(&clockCounter, 1)
	return Clock{id, "x" + itoa(id)}
}

// NewNamedClock allocates a fresh clock with the given display name.
// The reserved name "x0" falls back to the generated one.
func NewNamedClock(name string) Clock {
	id := atomic.AddUint32(&clockCounter, 1)
	if name == "x0" || name == "" {
		name = "x" + itoa(id)
	}
	return Clock{id, name}
}

// Id returns the clock's allocation index.
func (c Clock) Id() uint32 {
	return c.id
}

// Name returns the clock's display name.
func (c Clock) Name() string {
	return c.name
}

// IsZero reports whether this is the zero clock x0.
func (c Clock) IsZero() bool {
	return c.id == 0
}

// Equal compares clocks by identity.
func (c Clock) Equal(o Clock) bool {
	return c.id == o.id
}

// Less orders clocks by allocation index.
func (c Clock) Less(o Clock) bool {
	return c.id < o.id
}

func (c Clock) Hash() uint32 {
	return u.HashCombine(0x11, c.id)
}

func (c Clock) String() string {
	return colorize.Clock(c.name)
}

// Parameter is a symbolic non-negative real whose value is unknown at
// analysis time.
type Parameter struct {
	id   uint32
	name string
}

var paramCounter uint32

// NewParameter allocates a fresh parameter named "p<id>".
func NewParameter() Parameter {
	id := atomic.AddUint32(&paramCounter, 1)
	return Parameter{id, "p" + itoa(id)}
}

// NewNamedParameter allocates a fresh parameter with the given display name.
func NewNamedParameter(name string) Parameter {
	id := atomic.AddUint32(&paramCounter, 1)
	if name == "" {
		name = "p" + itoa(id)
	}
	return Parameter{id, name}
}

func (p Parameter) Id() uint32 {
	return p.id
}

func (p Parameter) Name() string {
	return p.name
}

// Equal compares parameters by identity.
func (p Parameter) Equal(o Parameter) bool {
	return p.id == o.id
}

// Less orders parameters by allocation index.
func (p Parameter) Less(o Parameter) bool {
	return p.id < o.id
}

func (p Parameter) Hash() uint32 {
	return u.HashCombine(0x22, p.id)
}

func (p Parameter) String() string {
	return colorize.Param(p.name)
}

func itoa(n uint32) string {
	return strconv.FormatUint(uint64(n), 10)
}
