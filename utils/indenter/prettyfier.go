package indenter

import (
	"fmt"
	"strings"
)

// A small helper for pretty-printing nested structures. Usage:
//
//	Indenter().Start("⟨").NestStringsSep(",", parts...).End("⟩")

type indenter struct{}

func Indenter() indenter {
	return indenter{}
}

var _buffer string
var _level = 0

func indent() string {
	return strings.Repeat("  ", _level)
}

func (indenter) Start(str string) indenter {
	_buffer = str
	return Indenter()
}

type stringableString string

func (s stringableString) String() string {
	return string(s)
}

func (i indenter) NestStrings(strs ...string) indenter {
	return i.NestStringsSep("", strs...)
}

func (i indenter) NestStringsSep(sep string, strs ...string) indenter {
	stringers := make([]fmt.Stringer, len(strs))
	for i, v := range strs {
		stringers[i] = stringableString(v)
	}
	return i.NestSep(sep, stringers...)
}

func (indenter) NestSep(sep string, strs ...fmt.Stringer) indenter {
	if len(strs) == 1 {
		_buffer += strs[0].String()
		return Indenter()
	}

	_level++
	for i, str := range strs {
		_buffer += "\n" + indent() + str.String()
		if i < len(strs)-1 {
			_buffer += sep
		}
	}
	_level--
	_buffer += "\n"
	return Indenter()
}

func (indenter) NestThunkedPresep(sep string, strs ...func() string) indenter {
	if len(strs) == 1 {
		_buffer += strs[0]()
		return Indenter()
	}

	_level++
	for i, str := range strs {
		if i != 0 {
			_buffer += "\n" + indent() + sep
		} else {
			_buffer += "  "
		}
		_buffer += str()
	}
	_level--
	_buffer += "\n"
	return Indenter()
}

func (indenter) End(str string) string {
	var res string
	if len(_buffer) > 0 && _buffer[len(_buffer)-1] == '\n' {
		res = _buffer + indent() + str
	} else {
		res = _buffer + str
	}
	_buffer = ""
	return res
}
