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
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/sandboxreport/stream"
)

// ErrMissingBehavior is returned if a report does not contain behavioral
// information.
var ErrMissingBehavior = errors.New("missing behavioral info")

// ErrMissingSamplePath is returned if the execution of the sample cannot be
// found in the analysis log.
var ErrMissingSamplePath = errors.New("missing sample path")

// Match is the result of a capability probe.
type Match int

const (
	// MatchNo means the variant cannot read the report.
	MatchNo Match = iota
	// MatchYes means the report carries the fingerprint of the variant.
	MatchYes
	// MatchUnsure means the report looks readable but is not fingerprinted.
	MatchUnsure
)

func (m Match) String() string {
	switch m {
	case MatchYes:
		return "yes"
	case MatchUnsure:
		return "unsure"
	default:
		return "no"
	}
}

// Platform is the operating system family of the analysis machine.
type Platform string

const (
	Windows Platform = "Windows"
	Unix    Platform = "Unix"
)

// Parser reads one report. The process tree is computed once and replayed
// on subsequent calls.
type Parser interface {
	ProcessTree() ([]ProcessPair, error)
	Machines() ([]MachineInfo, error)
	Host() (MachineInfo, error)
	SampleFilePath() (string, error)
	Platform() (Platform, error)
}

// Variant describes a report format and creates parsers for it.
type Variant interface {
	// Name returns the format tag, e.g. "cuckoo".
	Name() string
	// MatchReportType probes s. Malformed input results in MatchNo.
	MatchReportType(s *stream.Stream) Match
	New(s *stream.Stream, options Options) (Parser, error)
}

// Options configure a parser.
type Options struct {
	// Fs holds the translator files, defaults to the OS filesystem.
	Fs afero.Fs
	// TranslatorsDir is searched for <tag>.json.
	TranslatorsDir string
	// DNSServers are used in addition to the DNS servers listed in a report
	// to infer the address of the analysis host.
	DNSServers []string
	// SampleName overrides the sample file name declared in the report.
	SampleName string
	// Encoding of the report, e.g. "utf-8" or "utf-16".
	Encoding string
}

// DefaultOptions returns Options reading translators from ./translators.
func DefaultOptions() Options {
	return Options{
		Fs:             afero.NewOsFs(),
		TranslatorsDir: "translators",
		Encoding:       "utf-8",
	}
}
