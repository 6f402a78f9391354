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

package sandboxreport

import (
	"math"
)

// ImportInfo is a module statically loaded by a process.
type ImportInfo struct {
	Path string
	Size int64
}

// Location references a call in the raw report: the call table of a process
// and the index of the call in that table.
type Location struct {
	Table int
	Index int
}

// CallInfo is a single monitored API call.
type CallInfo struct {
	API         string
	Status      bool
	ReturnValue int64
	Arguments   map[string]interface{}
	Flags       map[string]interface{}
	Time        float64
	Location    Location
}

// ThreadInfo groups the calls of one thread in source order.
type ThreadInfo struct {
	TID   int
	Start float64
	Stop  float64
	Calls []*CallInfo
}

// NewThreadInfo creates a ThreadInfo. Start and Stop are the minimum and
// maximum call time.
func NewThreadInfo(tid int, calls []*CallInfo) *ThreadInfo {
	t := &ThreadInfo{TID: tid, Calls: calls}
	for i, call := range calls {
		if i == 0 || call.Time < t.Start {
			t.Start = call.Time
		}
		if i == 0 || call.Time > t.Stop {
			t.Stop = call.Time
		}
	}
	return t
}

// ProcessInfo is a process observed during the analysis.
type ProcessInfo struct {
	PID        int
	Start      float64
	Stop       float64
	Threads    []*ThreadInfo
	Command    []string
	Executable string
	Imports    []ImportInfo
}

// NewProcessInfo creates a ProcessInfo. Stop is the latest thread stop or
// +Inf if the process has no threads.
func NewProcessInfo(pid int, start float64, threads []*ThreadInfo, command []string, executable string, imports []ImportInfo) *ProcessInfo {
	p := &ProcessInfo{
		PID:        pid,
		Start:      start,
		Stop:       math.Inf(1),
		Threads:    threads,
		Command:    command,
		Executable: executable,
		Imports:    imports,
	}
	for i, thread := range threads {
		if i == 0 || thread.Stop > p.Stop {
			p.Stop = thread.Stop
		}
	}
	return p
}

// Calls returns the calls of all threads.
func (p *ProcessInfo) Calls() []*CallInfo {
	var calls []*CallInfo
	for _, thread := range p.Threads {
		calls = append(calls, thread.Calls...)
	}
	return calls
}

// MachineInfo is the analysis host or a network peer.
type MachineInfo struct {
	IP       string `json:"ip"`
	Hostname string `json:"hostname,omitempty"`
	Domain   string `json:"domain,omitempty"`
}

// ProcessPair is a parent and child process. Parent is nil for root
// processes.
type ProcessPair struct {
	Parent *ProcessInfo
	Child  *ProcessInfo
}
