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

package cuckoo

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/sandboxreport"
	"github.com/forensicanalysis/sandboxreport/report"
	"github.com/forensicanalysis/sandboxreport/translator"
)

type vendor struct{}

var _ report.Vendor = vendor{}

func (vendor) Roots(doc gjson.Result) ([]gjson.Result, error) {
	tree := doc.Get("behavior.processtree")
	if !tree.IsArray() || !doc.Get("behavior.processes").IsArray() {
		return nil, sandboxreport.ErrMissingBehavior
	}
	return tree.Array(), nil
}

func (vendor) Children(node gjson.Result) []gjson.Result {
	return node.Get("children").Array()
}

// Processes are identified by pid and first_seen, pids get reused.
func key(pid, firstSeen gjson.Result) string {
	return strconv.FormatInt(report.Int(pid), 10) + "@" + strconv.FormatFloat(firstSeen.Float(), 'f', -1, 64)
}

func (vendor) NodeKey(node gjson.Result) string {
	return key(node.Get("pid"), node.Get("first_seen"))
}

func (vendor) Records(doc gjson.Result) []gjson.Result {
	return doc.Get("behavior.processes").Array()
}

func (vendor) RecordKey(record gjson.Result) string {
	return key(record.Get("pid"), record.Get("first_seen"))
}

func (vendor) Process(_, record gjson.Result, table int, tr *translator.Translator) *sandboxreport.ProcessInfo {
	var calls []report.ThreadCall
	for i, c := range record.Get("calls").Array() {
		call := &sandboxreport.CallInfo{
			API:         c.Get("api").String(),
			Status:      c.Get("status").Bool(),
			ReturnValue: report.Int(c.Get("return_value")),
			Arguments:   report.Map(c.Get("arguments")),
			Flags:       report.Map(c.Get("flags")),
			Time:        c.Get("time").Float(),
			Location:    sandboxreport.Location{Table: table, Index: i},
		}
		calls = append(calls, report.ThreadCall{TID: int(report.Int(c.Get("tid"))), Call: tr.Translate(call)})
	}

	var imports []sandboxreport.ImportInfo
	for _, module := range record.Get("modules").Array() {
		imports = append(imports, sandboxreport.ImportInfo{
			Path: module.Get("filepath").String(),
			Size: report.Int(module.Get("size")),
		})
	}

	executable := record.Get("process_path").String()
	return sandboxreport.NewProcessInfo(
		int(report.Int(record.Get("pid"))),
		record.Get("first_seen").Float(),
		report.GroupThreads(calls),
		report.SplitCommandLine(record.Get("command_line").String(), executable),
		executable,
		imports,
	)
}

func (vendor) Network(doc gjson.Result) gjson.Result {
	return doc.Get("network")
}

func (vendor) ExecutionLog(doc gjson.Result) string {
	return report.DebugLog(doc, "debug.log")
}

func (vendor) SampleName(doc gjson.Result) string {
	return doc.Get("target.file.name").String()
}

func (vendor) Platform(doc gjson.Result) sandboxreport.Platform {
	switch strings.ToLower(doc.Get("info.platform").String()) {
	case "", "windows":
		return sandboxreport.Windows
	default:
		return sandboxreport.Unix
	}
}
