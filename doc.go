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

// Package sandboxreport normalizes behavioral reports of malware sandboxes
// into one process execution tree, independent of the sandbox that produced
// the report.
//
// Reports
//
// A report is a JSON document describing one execution of a submitted
// sample. Different sandboxes (e.g. Cuckoo and CAPE) use different,
// partially overlapping schemas. Every supported schema is implemented by a
// Variant that registers itself on import:
//     import (
//         _ "github.com/forensicanalysis/sandboxreport/cape"
//         _ "github.com/forensicanalysis/sandboxreport/cuckoo"
//     )
//
// Usage
//
// FindParser probes a report and returns the variant that can read it:
//     s := stream.FromFs(afero.NewOsFs(), "report.json")
//     variant := sandboxreport.FindParser(s)
//     if variant == nil {
//         // unsupported format
//     }
//     parser, err := variant.New(s, sandboxreport.DefaultOptions())
//     pairs, err := parser.ProcessTree()
//
// Each ProcessInfo nests ThreadInfos which nest CallInfos. Call arguments are
// renamed and converted by the translator of the variant, loaded from
// translators/<tag>.json if present.
package sandboxreport
