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
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/sandboxreport"
	"github.com/forensicanalysis/sandboxreport/report"
	"github.com/forensicanalysis/sandboxreport/translator"
)

// timeLayout is the timestamp format of CAPE process and call records.
const timeLayout = "2006-01-02 15:04:05,000"

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

func key(pid, parent gjson.Result) string {
	return strconv.FormatInt(report.Int(pid), 10) + ":" + strconv.FormatInt(report.Int(parent), 10)
}

func (vendor) NodeKey(node gjson.Result) string {
	return key(node.Get("pid"), node.Get("parent_id"))
}

func (vendor) Records(doc gjson.Result) []gjson.Result {
	return doc.Get("behavior.processes").Array()
}

func (vendor) RecordKey(record gjson.Result) string {
	return key(record.Get("process_id"), record.Get("parent_id"))
}

func (vendor) Process(node, record gjson.Result, table int, tr *translator.Translator) *sandboxreport.ProcessInfo {
	offsets := newFileOffsets()

	var calls []report.ThreadCall
	for i, c := range record.Get("calls").Array() {
		call := &sandboxreport.CallInfo{
			API:         c.Get("api").String(),
			Status:      c.Get("status").Bool(),
			ReturnValue: report.Int(c.Get("return")),
			Arguments:   map[string]interface{}{},
			Flags:       map[string]interface{}{},
			Time:        timestamp(c.Get("timestamp")),
			Location:    sandboxreport.Location{Table: table, Index: i},
		}
		for _, argument := range c.Get("arguments").Array() {
			name := argument.Get("name").String()
			call.Arguments[name] = report.Value(argument.Get("value"))
			if pretty := argument.Get("pretty_value"); pretty.Exists() {
				call.Flags[name] = report.Value(pretty)
			}
		}

		offsets.rewrite(call)
		backfillRegistryValue(call)

		calls = append(calls, report.ThreadCall{TID: int(report.Int(c.Get("thread_id"))), Call: tr.Translate(call)})
	}

	executable := record.Get("module_path").String()
	if executable == "" {
		executable = node.Get("module_path").String()
	}
	commandLine := record.Get("environ.CommandLine").String()
	if commandLine == "" {
		commandLine = node.Get("environ.CommandLine").String()
	}

	return sandboxreport.NewProcessInfo(
		int(report.Int(record.Get("process_id"))),
		timestamp(record.Get("first_seen")),
		report.GroupThreads(calls),
		report.SplitCommandLine(commandLine, executable),
		executable,
		nil,
	)
}

// timestamp returns seconds since the epoch. Numbers are used as they are,
// strings are read in the CAPE time format as UTC.
func timestamp(r gjson.Result) float64 {
	if r.Type != gjson.String {
		return r.Float()
	}
	t, err := time.Parse(timeLayout, r.Str)
	if err != nil {
		log.Debugf("invalid timestamp %q: %s", r.Str, err)
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
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

// Platform is Windows if the analyzer log mentions a drive path.
func (v vendor) Platform(doc gjson.Result) sandboxreport.Platform {
	if strings.Contains(strings.ToUpper(v.ExecutionLog(doc)), `C:\`) {
		return sandboxreport.Windows
	}
	return sandboxreport.Unix
}
