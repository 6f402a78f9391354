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

// Package translator renames and re-encodes API call arguments, so that calls
// of different sandboxes use the same argument names and value encodings.
package translator

import (
	"sort"
	"strings"

	"github.com/forensicanalysis/sandboxreport"
)

// Translator holds three tables keyed by the lower-cased API name: the
// canonical API name, argument renames and argument converters. A
// Translator must not be modified once it is in use.
type Translator struct {
	names      map[string]string
	arguments  map[string]map[string]string
	converters map[string]map[string]Converter
}

// New creates an empty Translator, which leaves every call unchanged.
func New() *Translator {
	return &Translator{
		names:      map[string]string{},
		arguments:  map[string]map[string]string{},
		converters: map[string]map[string]Converter{},
	}
}

// Empty reports whether the translator has no entries.
func (t *Translator) Empty() bool {
	return len(t.names) == 0 && len(t.arguments) == 0 && len(t.converters) == 0
}

// SetName sets the canonical name of api.
func (t *Translator) SetName(api, name string) {
	t.names[strings.ToLower(api)] = name
}

// SetArgument renames the argument from of api to to.
func (t *Translator) SetArgument(api, from, to string) {
	api = strings.ToLower(api)
	if _, ok := t.arguments[api]; !ok {
		t.arguments[api] = map[string]string{}
	}
	t.arguments[api][from] = to
}

// SetConverter converts the argument of api with c. The argument is named by
// its original, untranslated key.
func (t *Translator) SetConverter(api, argument string, c Converter) {
	api = strings.ToLower(api)
	if _, ok := t.converters[api]; !ok {
		t.converters[api] = map[string]Converter{}
	}
	t.converters[api][argument] = c
}

func (t *Translator) known(api string) bool {
	if _, ok := t.names[api]; ok {
		return true
	}
	if _, ok := t.arguments[api]; ok {
		return true
	}
	_, ok := t.converters[api]
	return ok
}

// Translate rewrites call in place and returns it. Calls of unknown APIs are
// returned unchanged.
func (t *Translator) Translate(call *sandboxreport.CallInfo) *sandboxreport.CallInfo {
	api := strings.ToLower(call.API)
	if !t.known(api) {
		return call
	}

	renames := t.arguments[api]
	converters := t.converters[api]

	if len(call.Arguments) > 0 {
		names := targets(call.Arguments, renames)
		arguments := make(map[string]interface{}, len(call.Arguments))
		for key, value := range call.Arguments {
			if c, ok := converters[key]; ok {
				value = c.Convert(value)
			}
			arguments[names[key]] = value
		}
		call.Arguments = arguments
	}

	if len(call.Flags) > 0 {
		names := targets(call.Flags, renames)
		flags := make(map[string]interface{}, len(call.Flags))
		for key, value := range call.Flags {
			flags[names[key]] = value
		}
		call.Flags = flags
	}

	if name, ok := t.names[api]; ok {
		call.API = name
	}
	return call
}

// targets maps every key of m to its new name. A key moves to its renamed
// name only while no other key holds that name, otherwise it keeps its
// original name. The result is injective.
func targets(m map[string]interface{}, renames map[string]string) map[string]string {
	keys := sortedKeys(m)
	names := make(map[string]string, len(keys))
	owners := make(map[string]string, len(keys))
	for _, key := range keys {
		names[key] = key
		owners[key] = key
	}

	for moved := true; moved; {
		moved = false
		for _, key := range keys {
			newKey, ok := renames[key]
			if !ok || names[key] == newKey {
				continue
			}
			if _, taken := owners[newKey]; taken {
				continue
			}
			delete(owners, names[key])
			owners[newKey] = key
			names[key] = newKey
			moved = true
		}
	}
	return names
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
