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
	"bufio"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/sandboxreport"
)

var (
	executedLine = regexp.MustCompile(`(?i)successfully executed process from path "?(.*?)"? with arguments (.*?) (?:with|and) pid \d+`) // nolint:gochecknoglobals
	failedLine   = regexp.MustCompile(`(?i)failed to execute process from path .*?\(error: command (.*?)(?:\)\s*$| failed| returned| exited)`)    // nolint:gochecknoglobals
)

// SampleFilePath finds the execution of the sample in the analysis log.
func (p *Parser) SampleFilePath() (string, error) {
	doc, err := p.Document()
	if err != nil {
		return "", err
	}
	name := p.options.SampleName
	if name == "" {
		name = p.vendor.SampleName(doc)
	}
	return FindSamplePath(p.vendor.ExecutionLog(doc), name)
}

// FindSamplePath returns the first executed path or argument of the log that
// refers to the file sampleName.
func FindSamplePath(executionLog, sampleName string) (string, error) {
	if sampleName == "" {
		return "", errors.Wrap(sandboxreport.ErrMissingSamplePath, "no sample name")
	}

	scanner := bufio.NewScanner(strings.NewReader(executionLog))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		for _, candidate := range candidates(scanner.Text()) {
			if isSample(candidate, sampleName) {
				return candidate, nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.Wrap(sandboxreport.ErrMissingSamplePath, sampleName)
}

func candidates(line string) []string {
	if m := executedLine.FindStringSubmatch(line); m != nil {
		return append([]string{m[1]}, splitArgumentList(m[2])...)
	}
	if m := failedLine.FindStringSubmatch(line); m != nil {
		return splitQuoted(m[1])
	}
	return nil
}

// splitArgumentList splits arguments logged as a string or a list,
// e.g. "a b" or ['a', 'b'].
func splitArgumentList(s string) []string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}
	var args []string
	for _, arg := range splitQuoted(s) {
		arg = strings.TrimSuffix(arg, ",")
		if arg != "" {
			args = append(args, arg)
		}
	}
	return args
}

func isSample(candidate, sampleName string) bool {
	base := BaseName(candidate)
	return strings.EqualFold(base, sampleName) || strings.EqualFold(StripExt(base), sampleName)
}

// DebugLog returns the analyzer log at path, stored either as one string or
// as a list of lines.
func DebugLog(doc gjson.Result, path string) string {
	log := doc.Get(path)
	if !log.IsArray() {
		return log.String()
	}
	var lines []string
	for _, line := range log.Array() {
		lines = append(lines, strings.TrimRight(line.String(), "\r\n"))
	}
	return strings.Join(lines, "\n")
}
