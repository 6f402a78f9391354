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

// Package cuckoo reads Cuckoo Sandbox reports. Importing the package
// registers the "cuckoo" format.
package cuckoo

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/sandboxreport"
	"github.com/forensicanalysis/sandboxreport/report"
	"github.com/forensicanalysis/sandboxreport/stream"
)

// Tag is the format tag of Cuckoo reports.
const Tag = "cuckoo"

func init() { // nolint:gochecknoinits
	sandboxreport.Register(Variant{})
}

// Variant is the Cuckoo report format.
type Variant struct{}

// Name returns the format tag.
func (Variant) Name() string { return Tag }

// MatchReportType accepts reports with an info.platform field that do not
// carry a CAPE marker. Reports with a Cuckoo shaped process list are
// accepted with doubt.
func (Variant) MatchReportType(s *stream.Stream) sandboxreport.Match {
	doc, ok := report.Probe(s)
	if !ok {
		return sandboxreport.MatchNo
	}
	if doc.Get("info.platform").Exists() && !capeMarked(doc) {
		return sandboxreport.MatchYes
	}
	if doc.Get("behavior.processes.0.pid").Exists() {
		return sandboxreport.MatchUnsure
	}
	return sandboxreport.MatchNo
}

func capeMarked(doc gjson.Result) bool {
	return doc.Get("CAPE").Exists() || strings.Contains(strings.ToUpper(doc.Get("info.version").String()), "CAPE")
}

// New creates a parser for the report in s.
func (Variant) New(s *stream.Stream, options sandboxreport.Options) (sandboxreport.Parser, error) {
	return report.NewParser(Tag, s, options, vendor{}), nil
}
