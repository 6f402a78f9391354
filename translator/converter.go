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

package translator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownConverter is returned when a translator file references a
// converter that does not exist.
var ErrUnknownConverter = errors.New("unknown converter")

// Converter re-encodes an argument value.
type Converter string

const (
	// IntToHex converts 26 to "0x1a".
	IntToHex Converter = "int_to_hex"
	// IntToStr converts 26 to "26".
	IntToStr Converter = "int_to_str"
	// StrToInt converts "26" to 26.
	StrToInt Converter = "str_to_int"
	// HexToInt converts "0x1a" or "1a" to 26.
	HexToInt Converter = "hex_to_int"
)

// ParseConverter returns the converter with the given name.
func ParseConverter(name string) (Converter, error) {
	switch c := Converter(name); c {
	case IntToHex, IntToStr, StrToInt, HexToInt:
		return c, nil
	}
	return "", errors.Wrap(ErrUnknownConverter, name)
}

// Convert applies the converter. Values that cannot be converted are
// returned unchanged.
func (c Converter) Convert(value interface{}) interface{} {
	switch c {
	case IntToHex:
		if i, ok := integer(value); ok {
			if i < 0 {
				return fmt.Sprintf("-0x%x", -i)
			}
			return fmt.Sprintf("0x%x", i)
		}
	case IntToStr:
		if i, ok := integer(value); ok {
			return strconv.FormatInt(i, 10)
		}
	case StrToInt:
		if s, ok := value.(string); ok {
			if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				return i
			}
		}
	case HexToInt:
		if s, ok := value.(string); ok {
			if i, ok := parseHex(s); ok {
				return i
			}
		}
	}
	return value
}

func parseHex(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	u, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		return -int64(u), true
	}
	return int64(u), true
}

func integer(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), true
		}
	}
	return 0, false
}
