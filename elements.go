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
	"encoding/json"
	"math"
	"path"
	"strings"
	"time"

	"github.com/fatih/structs"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// JSONElement is a single serialized element.
type JSONElement []byte

// Process implements a STIX 2.1 Process Object. The x_ fields carry the
// analysis results that STIX has no property for.
type Process struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	PID         int           `json:"pid"`
	CreatedTime string        `json:"created_time,omitempty"`
	CommandLine string        `json:"command_line,omitempty"`
	ParentRef   string        `json:"parent_ref,omitempty"`
	XName       string        `json:"x_name,omitempty"`
	XExecutable string        `json:"x_executable,omitempty"`
	XStopTime   string        `json:"x_stop_time,omitempty"`
	XThreads    int           `json:"x_threads"`
	XCalls      int           `json:"x_calls"`
	XModules    []string      `json:"x_modules,omitempty"`
	Errors      []interface{} `json:"errors,omitempty"`
}

// NewProcess creates a new STIX 2.1 Process Object.
func NewProcess() *Process {
	return &Process{ID: "process--" + uuid.New().String(), Type: "process"}
}

// NewProcessElement creates a Process Object for an analysed process.
// parentRef is the id of the parent element or empty for root processes.
func NewProcessElement(p *ProcessInfo, parentRef string) *Process {
	element := NewProcess()
	element.PID = p.PID
	element.CreatedTime = formatTime(p.Start)
	element.CommandLine = strings.Join(p.Command, " ")
	element.ParentRef = parentRef
	element.XExecutable = p.Executable
	element.XStopTime = formatTime(p.Stop)
	element.XThreads = len(p.Threads)
	element.XCalls = len(p.Calls())
	if p.Executable != "" {
		element.XName = path.Base(strings.ReplaceAll(p.Executable, `\`, "/"))
	}
	for _, module := range p.Imports {
		element.XModules = append(element.XModules, module.Path)
	}
	return element
}

// ProcessElements converts a process tree. Elements are returned in tree
// order and reference their parent element.
func ProcessElements(tree []ProcessPair) []*Process {
	ids := map[*ProcessInfo]string{}
	elements := make([]*Process, 0, len(tree))
	for _, pair := range tree {
		element := NewProcessElement(pair.Child, "")
		if pair.Parent != nil {
			parentRef, ok := ids[pair.Parent]
			if !ok {
				element.AddError("parent process not exported")
			}
			element.ParentRef = parentRef
		}
		ids[pair.Child] = element.ID
		elements = append(elements, element)
	}
	return elements
}

// AddError adds an error string to a Process and returns this Process.
func (i *Process) AddError(err string) *Process {
	log.Warn(err)
	i.Errors = append(i.Errors, err)
	return i
}

// ToElement converts a Go struct to a JSONElement with snake case keys.
// Empty values are omitted.
func ToElement(element interface{}) (JSONElement, error) {
	m := structs.Map(element)
	m = lower(m).(map[string]interface{})
	return json.Marshal(m)
}

func formatTime(seconds float64) string {
	if seconds <= 0 || math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return ""
	}
	sec, frac := math.Modf(seconds)
	return time.Unix(int64(sec), int64(math.Round(frac*1e3))*int64(time.Millisecond)).UTC().Format("2006-01-02T15:04:05.000Z")
}
