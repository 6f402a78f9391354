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

// Package sandboxreport implements the sandboxreport command line tool that
// reads Cuckoo and CAPE sandbox reports.
//     detect      Print the format of a report
//     tree        Print the process tree as STIX process elements
//     calls       Print the API calls of all processes
//     network     Print the analysis host and contacted machines
//     sample      Print the sample path and platform
//     translator  Validate translator files
//     pack        Add reports to a sqlite archive
//     ls          List the reports of a sqlite archive
//     unpack      Extract reports from a sqlite archive
//
// Usage
//
// Detect and read a report
//     sandboxreport detect report.json
//     sandboxreport calls --translators translators --flat report.json > calls.jsonl
// Read a report from an archive
//     sandboxreport pack reports.sqlar cape/42/report.json
//     sandboxreport tree --validate reports.sqlar::cape/42/report.json
//
// Validate translators
//     sandboxreport translator validate translators/cape.json
package main

import (
	"fmt"
	"os"

	"github.com/forensicanalysis/sandboxreport/cmd"

	_ "github.com/forensicanalysis/sandboxreport/cape"
	_ "github.com/forensicanalysis/sandboxreport/cuckoo"
)

func main() {
	rootCmd := cmd.Root()
	rootCmd.AddCommand(
		cmd.Detect(), cmd.Tree(), cmd.Calls(), cmd.Network(), cmd.Sample(),
		cmd.Translator(), cmd.Pack(), cmd.Ls(), cmd.Unpack(),
	)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
