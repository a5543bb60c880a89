package utils

import "fmt"

type options struct {
	noColorize bool
	verbose    bool
}

var opts = options{}

// Opts exposes the process-wide option set.
func Opts() *options {
	return &opts
}

func (o *options) NoColorize() bool {
	return o.noColorize
}

func (o *options) SetNoColorize(b bool) {
	o.noColorize = b
}

func (o *options) Verbose() bool {
	return o.verbose
}

func (o *options) SetVerbose(b bool) {
	o.verbose = b
}

// CanColorize guards a color.SprintFunc behind the global colorization
// switch. When colorization is off the values are rendered plainly.
func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	return func(is ...interface{}) string {
		if opts.noColorize {
			str := ""
			for _, i := range is {
				switch i := i.(type) {
				case string:
					str += i
				default:
					str += fmt.Sprint(i)
				}
			}
			return str
		}
		return col(is...)
	}
}

// VerbosePrint prints only when the verbose option is set.
func VerbosePrint(format string, a ...interface{}) (n int, err error) {
	if opts.verbose {
		return fmt.Printf(format, a...)
	}
	return 0, nil
}
