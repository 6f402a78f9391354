// Copyright (c) 2019 Nguyễn Quốc Đính
// Copyright (c) 2019 Siemens AG
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
// Author(s): Nguyễn Quốc Đính, Jonas Plum
//
// This code was adapted from
// https://github.com/nqd/flat/blob/master/flat.go


// Package flatten turns nested call records into maps one level deep, so
// that they can be printed as flat JSON lines.
package flatten

import (
	"fmt"
	"reflect"
	"strconv"
)

// Delimiter joins the keys of nested values.
const Delimiter = "."

// Flatten returns a map one level deep regardless of how nested the original
// map was. Nil values and empty containers are dropped.
func Flatten(nested map[string]interface{}) map[string]interface{} {
	flatmap := map[string]interface{}{}
	flatten(flatmap, "", nested)
	return flatmap
}

func flatten(flatmap map[string]interface{}, prefix string, nested interface{}) {
	if nested == nil {
		return
	}

	switch value := nested.(type) {
	case map[string]interface{}:
		for k, v := range value {
			flatten(flatmap, join(prefix, k), v)
		}
		return
	case []interface{}:
		for i, v := range value {
			flatten(flatmap, join(prefix, strconv.Itoa(i)), v)
		}
		return
	}

	value := reflect.ValueOf(nested)
	switch value.Kind() {
	case reflect.Map:
		for _, k := range value.MapKeys() {
			flatten(flatmap, join(prefix, fmt.Sprint(k.Interface())), value.MapIndex(k).Interface())
		}
	case reflect.Slice, reflect.Array:
		if value.Kind() == reflect.Slice && value.Type().Elem().Kind() == reflect.Uint8 {
			flatmap[prefix] = nested
			return
		}
		for i := 0; i < value.Len(); i++ {
			flatten(flatmap, join(prefix, strconv.Itoa(i)), value.Index(i).Interface())
		}
	default:
		flatmap[prefix] = nested
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + Delimiter + key
}
