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
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/sandboxreport"
	"github.com/forensicanalysis/sandboxreport/stream"
	"github.com/forensicanalysis/sandboxreport/translator"
)

// testVendor reads {"tree": [{"id", "children"}], "procs": [{"id", "calls"}]}.
type testVendor struct{}

func (testVendor) Roots(doc gjson.Result) ([]gjson.Result, error) {
	if !doc.Get("tree").Exists() {
		return nil, sandboxreport.ErrMissingBehavior
	}
	return doc.Get("tree").Array(), nil
}
func (testVendor) Children(node gjson.Result) []gjson.Result { return node.Get("children").Array() }
func (testVendor) NodeKey(node gjson.Result) string          { return node.Get("id").String() }
func (testVendor) Records(doc gjson.Result) []gjson.Result   { return doc.Get("procs").Array() }
func (testVendor) RecordKey(record gjson.Result) string      { return record.Get("id").String() }
func (testVendor) Process(node, record gjson.Result, table int, tr *translator.Translator) *sandboxreport.ProcessInfo {
	var calls []ThreadCall
	for i, c := range record.Get("calls").Array() {
		call := &sandboxreport.CallInfo{
			API:       c.Get("api").String(),
			Arguments: Map(c.Get("args")),
			Time:      c.Get("time").Float(),
			Location:  sandboxreport.Location{Table: table, Index: i},
		}
		calls = append(calls, ThreadCall{TID: int(c.Get("tid").Int()), Call: tr.Translate(call)})
	}
	return sandboxreport.NewProcessInfo(int(record.Get("id").Int()), 0, GroupThreads(calls), nil, "", nil)
}
func (testVendor) Network(doc gjson.Result) gjson.Result { return doc.Get("network") }
func (testVendor) ExecutionLog(doc gjson.Result) string  { return doc.Get("log").String() }
func (testVendor) SampleName(doc gjson.Result) string    { return doc.Get("sample").String() }
func (testVendor) Platform(doc gjson.Result) sandboxreport.Platform {
	return sandboxreport.Windows
}

func newTestParser(doc string) *Parser {
	options := sandboxreport.Options{Fs: afero.NewMemMapFs()}
	return NewParser("test", stream.FromBytes("report.json", []byte(doc)), options, testVendor{})
}

func pids(pairs []sandboxreport.ProcessPair) (parents, children []int) {
	for _, pair := range pairs {
		parent := -1
		if pair.Parent != nil {
			parent = pair.Parent.PID
		}
		parents = append(parents, parent)
		children = append(children, pair.Child.PID)
	}
	return parents, children
}

func TestParser_ProcessTree(t *testing.T) {
	tests := []struct {
		name         string
		doc          string
		wantParents  []int
		wantChildren []int
		wantErr      error
	}{
		{
			"nested",
			`{"tree": [{"id": 1, "children": [{"id": 2, "children": [{"id": 4}]}, {"id": 3}]}, {"id": 5}],
			  "procs": [{"id": 1}, {"id": 2}, {"id": 3}, {"id": 4}, {"id": 5}]}`,
			[]int{-1, 1, 2, 1, -1}, []int{1, 2, 4, 3, 5}, nil,
		},
		{
			"unmatched node hides subtree",
			`{"tree": [{"id": 1, "children": [{"id": 2, "children": [{"id": 3}]}]}], "procs": [{"id": 1}, {"id": 3}]}`,
			[]int{-1}, []int{1}, nil,
		},
		{
			"cycle",
			`{"tree": [{"id": 1, "children": [{"id": 2, "children": [{"id": 1, "children": [{"id": 2}]}]}]}], "procs": [{"id": 1}, {"id": 2}]}`,
			[]int{-1, 1}, []int{1, 2}, nil,
		},
		{"missing behavior", `{"procs": []}`, nil, nil, sandboxreport.ErrMissingBehavior},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParser(tt.doc)
			pairs, err := p.ProcessTree()
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			parents, children := pids(pairs)
			assert.Equal(t, tt.wantParents, parents)
			assert.Equal(t, tt.wantChildren, children)

			again, err := p.ProcessTree()
			require.NoError(t, err)
			assert.Equal(t, pairs, again)
			if len(pairs) > 0 {
				assert.Same(t, pairs[0].Child, again[0].Child)
			}
		})
	}
}

func TestParser_ProcessTree_Replay(t *testing.T) {
	p := newTestParser(`{"tree": [{"id": 1, "children": [{"id": 2}]}], "procs": [{"id": 1}, {"id": 2}]}`)
	pairs, err := p.ProcessTree()
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	pairs[0], pairs[1] = pairs[1], sandboxreport.ProcessPair{}
	pairs = pairs[:1]

	again, err := p.ProcessTree()
	require.NoError(t, err)
	parents, children := pids(again)
	assert.Equal(t, []int{-1, 1}, parents)
	assert.Equal(t, []int{1, 2}, children)
}

func TestParser_ProcessTree_Threads(t *testing.T) {
	p := newTestParser(`{"tree": [{"id": 1}], "procs": [{"id": 1, "calls": [
		{"api": "a", "tid": 7, "time": 3},
		{"api": "b", "tid": 8, "time": 1},
		{"api": "c", "tid": 7, "time": 2}
	]}, {"id": 9}]}`)
	pairs, err := p.ProcessTree()
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	process := pairs[0].Child
	require.Len(t, process.Threads, 2)
	assert.Equal(t, 7, process.Threads[0].TID)
	assert.Equal(t, "a", process.Threads[0].Calls[0].API)
	assert.Equal(t, "c", process.Threads[0].Calls[1].API)
	assert.Equal(t, 2.0, process.Threads[0].Start)
	assert.Equal(t, 3.0, process.Threads[0].Stop)
	assert.Equal(t, 8, process.Threads[1].TID)
	assert.Equal(t, 3.0, process.Stop)
	assert.Equal(t, sandboxreport.Location{Table: 0, Index: 2}, process.Threads[0].Calls[1].Location)
}

func TestParser_Translator(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr := translator.New()
	tr.SetName("getcomputernamew", "GetComputerNameW")
	tr.SetArgument("getcomputernamew", "n", "ComputerName")
	require.NoError(t, tr.Save(fs, "translators/test.json"))

	doc := `{"tree": [{"id": 1}], "procs": [{"id": 1, "calls": [{"api": "getcomputernamew", "tid": 1, "args": {"n": "WIN-1"}}]}]}`
	p := NewParser("test", stream.FromBytes("r", []byte(doc)), sandboxreport.Options{Fs: fs, TranslatorsDir: "translators"}, testVendor{})

	pairs, err := p.ProcessTree()
	require.NoError(t, err)
	call := pairs[0].Child.Threads[0].Calls[0]
	assert.Equal(t, "GetComputerNameW", call.API)
	assert.Equal(t, "WIN-1", call.Arguments["ComputerName"])

	host, err := p.Host()
	require.NoError(t, err)
	assert.Equal(t, sandboxreport.MachineInfo{IP: "127.0.0.1", Hostname: "WIN-1", Domain: "localhost"}, host)
}

func TestParser_Network(t *testing.T) {
	doc := `{"tree": [], "procs": [], "network": {
		"dns_servers": ["10.0.0.1"],
		"udp": [{"src": "10.0.0.5", "dst": "8.8.8.8"}, {"src": "10.0.0.6", "dst": "10.0.0.1"}],
		"hosts": ["1.1.1.1", {"ip": "2.2.2.2", "hostname": "two"}, "10.0.0.6"],
		"domains": [{"ip": "2.2.2.2", "domain": "two.example"}, {"ip": "3.3.3.3", "domain": "three.example"}]
	}}`
	p := newTestParser(doc)

	machines, err := p.Machines()
	require.NoError(t, err)
	assert.Equal(t, []sandboxreport.MachineInfo{
		{IP: "1.1.1.1"},
		{IP: "2.2.2.2", Hostname: "two", Domain: "two.example"},
		{IP: "3.3.3.3", Domain: "three.example"},
	}, machines)

	host, err := p.Host()
	require.NoError(t, err)
	assert.Equal(t, sandboxreport.MachineInfo{IP: "10.0.0.6", Hostname: "host"}, host)
}

func TestParser_HostWithoutBehavior(t *testing.T) {
	host, err := newTestParser(`{}`).Host()
	require.NoError(t, err)
	assert.Equal(t, sandboxreport.MachineInfo{IP: "127.0.0.1", Hostname: "host", Domain: "localhost"}, host)
}

func TestParser_InvalidDocument(t *testing.T) {
	p := newTestParser(`{"tree": [`)
	_, err := p.ProcessTree()
	assert.Error(t, err)
	_, err = p.Platform()
	assert.Error(t, err)
}

func TestFindSamplePath(t *testing.T) {
	tests := []struct {
		name    string
		log     string
		sample  string
		want    string
		wantErr bool
	}{
		{
			"executed",
			"2020-01-01 [analyzer] INFO: Successfully executed process from path \"C:\\tmp\\sample.exe\" with arguments [] with pid 100",
			"sample.exe", `C:\tmp\sample.exe`, false,
		},
		{
			"argument",
			"INFO: Successfully executed process from path \"C:\\Windows\\System32\\rundll32.exe\" with arguments ['C:\\tmp\\lib.dll', 'Entry'] and pid 5",
			"lib.dll", `C:\tmp\lib.dll`, false,
		},
		{
			"without extension",
			"Successfully executed process from path \"/tmp/sample\" with arguments \"\" with pid 1",
			"sample", "/tmp/sample", false,
		},
		{
			"failed",
			"ERROR: Failed to execute process from path \"C:\\tmp\\x.exe\" with arguments \"\" (Error: command \"C:\\tmp\\sample.exe\" --run failed with code 5)",
			"sample.exe", `C:\tmp\sample.exe`, false,
		},
		{"no line", "INFO: Starting analyzer", "sample.exe", "", true},
		{
			"other file",
			"Successfully executed process from path \"C:\\tmp\\other.exe\" with arguments [] with pid 100",
			"sample.exe", "", true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindSamplePath(tt.log, tt.sample)
			if tt.wantErr {
				assert.True(t, errors.Is(err, sandboxreport.ErrMissingSamplePath), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		name        string
		commandLine string
		executable  string
		want        []string
	}{
		{"quoted", `"C:\Program Files\a.exe" -x "b c"`, `C:\Program Files\a.exe`, []string{`C:\Program Files\a.exe`, "-x", "b c"}},
		{"missing executable", `-x 1`, `C:\a.exe`, []string{`C:\a.exe`, "-x", "1"}},
		{"short executable", `a -x`, `C:\a.exe`, []string{"a", "-x"}},
		{"single quotes", `sh -c 'echo hi'`, "", []string{"sh", "-c", "echo hi"}},
		{"escaped quote", `a.exe "say \"hi\""`, "a.exe", []string{"a.exe", `say "hi"`}},
		{"empty", ``, `C:\a.exe`, []string{`C:\a.exe`}},
		{"empty argument", `a.exe ""`, "a.exe", []string{"a.exe", ""}},
		{"trailing backslash", `a.exe "C:\Program Files\App\" -x`, "a.exe", []string{"a.exe", `C:\Program Files\App\`, "-x"}},
		{"trailing backslash last", `a.exe /d "C:\tmp\"`, "a.exe", []string{"a.exe", "/d", `C:\tmp\`}},
		{"escaped quote before space", `a.exe "say \"hi\" now"`, "a.exe", []string{"a.exe", `say "hi" now`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitCommandLine(tt.commandLine, tt.executable))
		})
	}
}

func TestValue(t *testing.T) {
	doc := gjson.Parse(`{"i": 5, "f": 1.5, "s": "x", "b": true, "n": null, "o": {"a": 1}}`)
	assert.Equal(t, int64(5), Value(doc.Get("i")))
	assert.Equal(t, 1.5, Value(doc.Get("f")))
	assert.Equal(t, "x", Value(doc.Get("s")))
	assert.Equal(t, true, Value(doc.Get("b")))
	assert.Nil(t, Value(doc.Get("n")))
	assert.Equal(t, map[string]interface{}{"a": float64(1)}, Value(doc.Get("o")))

	i, ok := ParseInt("0xffffffff")
	assert.True(t, ok)
	assert.Equal(t, int64(4294967295), i)
	_, ok = ParseInt("nope")
	assert.False(t, ok)
}

func TestNewProcessInfo_NoThreads(t *testing.T) {
	p := sandboxreport.NewProcessInfo(1, 0, nil, nil, "", nil)
	assert.True(t, math.IsInf(p.Stop, 1))
}

func TestProbe_Encoding(t *testing.T) {
	utf16 := []byte{'{', 0, '"', 0, 'a', 0, '"', 0, ':', 0, '1', 0, '}', 0}

	_, ok := Probe(stream.FromBytes("r.json", utf16))
	assert.False(t, ok)

	doc, ok := Probe(stream.FromBytes("r.json", utf16).SetEncoding("utf-16le"))
	require.True(t, ok)
	assert.Equal(t, int64(1), doc.Get("a").Int())
}
