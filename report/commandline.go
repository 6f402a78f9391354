// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

package report

import (
	"strings"
)

// SplitCommandLine splits a command line into arguments. Double and single
// quotes group, a backslash only escapes a quote, so Windows paths survive
// unchanged. A backslash before the last quote of an open quoted run is
// literal, so "C:\dir\" closes. The executable is prepended if the first
// argument does not refer to it.
func SplitCommandLine(commandLine, executable string) []string {
	args := splitQuoted(commandLine)
	if executable == "" {
		return args
	}
	if len(args) > 0 && sameFile(args[0], executable) {
		return args
	}
	return append([]string{executable}, args...)
}

func splitQuoted(s string) []string {
	var args []string
	var current strings.Builder
	var quote rune
	inArg := false

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes) && quote != 0 && runes[i+1] == quote && !strings.ContainsRune(string(runes[i+2:]), quote):
			current.WriteRune(r)
			inArg = true
		case r == '\\' && i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\''):
			current.WriteRune(runes[i+1])
			inArg = true
			i++
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
			inArg = true
		case quote == 0 && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if inArg {
		args = append(args, current.String())
	}
	return args
}

// BaseName returns the last element of a Windows or Unix path.
func BaseName(p string) string {
	if i := strings.LastIndexAny(p, `\/`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// StripExt removes the extension of a file name.
func StripExt(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

func sameFile(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	baseA, baseB := BaseName(a), BaseName(b)
	return strings.EqualFold(baseA, baseB) || strings.EqualFold(StripExt(baseA), StripExt(baseB)) && strings.EqualFold(a, baseA)
}
