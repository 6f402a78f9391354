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
	"github.com/forensicanalysis/sandboxreport"
)

// ThreadCall is a call attributed to a thread.
type ThreadCall struct {
	TID  int
	Call *sandboxreport.CallInfo
}

// GroupThreads groups calls by thread id. Threads are ordered by their first
// call, calls keep their order.
func GroupThreads(calls []ThreadCall) []*sandboxreport.ThreadInfo {
	var order []int
	grouped := map[int][]*sandboxreport.CallInfo{}
	for _, c := range calls {
		if _, ok := grouped[c.TID]; !ok {
			order = append(order, c.TID)
		}
		grouped[c.TID] = append(grouped[c.TID], c.Call)
	}

	threads := make([]*sandboxreport.ThreadInfo, 0, len(order))
	for _, tid := range order {
		threads = append(threads, sandboxreport.NewThreadInfo(tid, grouped[tid]))
	}
	return threads
}
