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

package cape

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/forensicanalysis/sandboxreport"
	"github.com/forensicanalysis/sandboxreport/report"
)

// Registry value types.
const (
	regNone = 0
	regSz   = 1
)

var registryValueAPIs = map[string]bool{ // nolint:gochecknoglobals
	"regqueryvalueexa":    true,
	"regqueryvalueexw":    true,
	"regenumvaluea":       true,
	"regenumvaluew":       true,
	"ntqueryvaluekey":     true,
	"ntenumeratevaluekey": true,
}

// fileOffsets tracks the position of file handles of one process, so that
// reads and writes can be annotated with the offset they start at. The
// status of calls is ignored.
type fileOffsets struct {
	offsets map[string]int64
}

func newFileOffsets() *fileOffsets {
	return &fileOffsets{offsets: map[string]int64{}}
}

func (f *fileOffsets) rewrite(call *sandboxreport.CallInfo) {
	switch strings.ToLower(call.API) {
	case "ntcreatefile", "ntopenfile":
		if h, ok := handle(call.Arguments, "FileHandle"); ok {
			f.offsets[h] = 0
		}
	case "ntreadfile", "ntwritefile":
		h, ok := handle(call.Arguments, "FileHandle")
		if !ok {
			return
		}
		offset, known := f.offsets[h]
		if !known {
			log.WithField("handle", h).Warnf("%s on unknown file handle", call.API)
			return
		}
		call.Arguments["Offset"] = offset
		if length, ok := argument(call.Arguments, "Length"); ok {
			if n, ok := report.AnyInt(length); ok {
				f.offsets[h] = offset + n
			}
		}
	case "ntclose":
		if h, ok := handle(call.Arguments, "Handle"); ok {
			delete(f.offsets, h)
		}
	}
}

// handle normalizes a handle value, so that 0x4 and 4 are the same handle.
func handle(arguments map[string]interface{}, name string) (string, bool) {
	value, ok := argument(arguments, name)
	if !ok {
		return "", false
	}
	if i, ok := report.AnyInt(value); ok {
		return fmt.Sprintf("0x%x", i), true
	}
	return fmt.Sprint(value), true
}

func argument(arguments map[string]interface{}, name string) (interface{}, bool) {
	if value, ok := arguments[name]; ok {
		return value, true
	}
	for key, value := range arguments {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}
	return nil, false
}

// backfillRegistryValue adds the Data and Type arguments that CAPE omits for
// registry value queries.
func backfillRegistryValue(call *sandboxreport.CallInfo) {
	if !registryValueAPIs[strings.ToLower(call.API)] {
		return
	}
	data, hasData := argument(call.Arguments, "Data")
	if !hasData {
		call.Arguments["Data"] = ""
	}
	if _, ok := argument(call.Arguments, "Type"); ok {
		return
	}
	if hasData && data != "" {
		call.Arguments["Type"] = int64(regSz)
	} else {
		call.Arguments["Type"] = int64(regNone)
	}
}
