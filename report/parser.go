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

// Package report implements the parts of report parsing that all sandbox
// formats share. A format is described by a Vendor, Parser does the rest.
package report

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/sandboxreport"
	"github.com/forensicanalysis/sandboxreport/stream"
	"github.com/forensicanalysis/sandboxreport/translator"
)

// Vendor describes the report schema of one sandbox.
type Vendor interface {
	// Roots returns the top level nodes of the process tree. It fails with
	// sandboxreport.ErrMissingBehavior if the report has no behavior section.
	Roots(doc gjson.Result) ([]gjson.Result, error)
	Children(node gjson.Result) []gjson.Result
	// NodeKey and RecordKey correlate tree nodes with process records.
	NodeKey(node gjson.Result) string
	Records(doc gjson.Result) []gjson.Result
	RecordKey(record gjson.Result) string
	// Process converts a process record. table is the index of the record
	// in the process list.
	Process(node, record gjson.Result, table int, tr *translator.Translator) *sandboxreport.ProcessInfo
	Network(doc gjson.Result) gjson.Result
	ExecutionLog(doc gjson.Result) string
	SampleName(doc gjson.Result) string
	Platform(doc gjson.Result) sandboxreport.Platform
}

// Parser implements sandboxreport.Parser for a Vendor. It is not safe for
// concurrent use.
type Parser struct {
	tag     string
	stream  *stream.Stream
	options sandboxreport.Options
	vendor  Vendor

	doc    *gjson.Result
	docErr error

	translator *translator.Translator

	tree     []sandboxreport.ProcessPair
	building bool
}

var _ sandboxreport.Parser = (*Parser)(nil)

var errTreeBuilding = errors.New("process tree is being built")

// NewParser creates a Parser for the report in s.
func NewParser(tag string, s *stream.Stream, options sandboxreport.Options, vendor Vendor) *Parser {
	if options.Fs == nil {
		options.Fs = afero.NewOsFs()
	}
	if options.TranslatorsDir == "" {
		options.TranslatorsDir = "translators"
	}
	return &Parser{tag: tag, stream: s, options: options, vendor: vendor}
}

// Load parses the document of s in text mode. An empty encoding uses the
// encoding of s. It fails on invalid JSON.
func Load(s *stream.Stream, encoding string) (gjson.Result, error) {
	data, err := s.Bytes(stream.Text, encoding)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, errors.Errorf("%s is not valid json", s.Name())
	}
	return gjson.ParseBytes(data), nil
}

// Probe parses s in the encoding of s for a capability probe. ok is false
// for undecodable or invalid documents.
func Probe(s *stream.Stream) (doc gjson.Result, ok bool) {
	doc, err := Load(s, "")
	if err != nil {
		log.Debugf("probe %s: %s", s.Name(), err)
		return doc, false
	}
	return doc, doc.IsObject()
}

// Document returns the parsed report. The report is parsed once.
func (p *Parser) Document() (gjson.Result, error) {
	if p.doc == nil && p.docErr == nil {
		doc, err := Load(p.stream, p.options.Encoding)
		p.doc, p.docErr = &doc, err
	}
	return *p.doc, p.docErr
}

// Translator returns the translator of the format tag, loaded once from the
// translators directory.
func (p *Parser) Translator() (*translator.Translator, error) {
	if p.translator == nil {
		t, err := translator.LoadOrEmpty(p.options.Fs, translator.Path(p.options.TranslatorsDir, p.tag))
		if err != nil {
			return nil, err
		}
		p.translator = t
	}
	return p.translator, nil
}

type walkItem struct {
	parent *sandboxreport.ProcessInfo
	node   gjson.Result
}

// ProcessTree returns parent and child pairs, parents before their children.
// The first call walks the report, later calls replay the cached pairs in a
// new slice.
func (p *Parser) ProcessTree() ([]sandboxreport.ProcessPair, error) {
	if p.tree != nil {
		return append([]sandboxreport.ProcessPair{}, p.tree...), nil
	}
	if p.building {
		return nil, errTreeBuilding
	}
	p.building = true
	defer func() { p.building = false }()

	doc, err := p.Document()
	if err != nil {
		return nil, err
	}
	tr, err := p.Translator()
	if err != nil {
		return nil, err
	}
	roots, err := p.vendor.Roots(doc)
	if err != nil {
		return nil, err
	}

	records := map[string]int{}
	all := p.vendor.Records(doc)
	for i, record := range all {
		key := p.vendor.RecordKey(record)
		if _, ok := records[key]; !ok {
			records[key] = i
		}
	}

	tree := []sandboxreport.ProcessPair{}
	visited := map[string]bool{}
	stack := make([]walkItem, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, walkItem{node: roots[i]})
	}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		key := p.vendor.NodeKey(item.node)
		if visited[key] {
			log.Debugf("process %s visited twice", key)
			continue
		}
		visited[key] = true

		table, ok := records[key]
		if !ok {
			log.Debugf("process %s has no process record", key)
			continue
		}

		process := p.vendor.Process(item.node, all[table], table, tr)
		tree = append(tree, sandboxreport.ProcessPair{Parent: item.parent, Child: process})

		children := p.vendor.Children(item.node)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, walkItem{parent: process, node: children[i]})
		}
	}

	p.tree = tree
	return append([]sandboxreport.ProcessPair{}, tree...), nil
}

// Platform returns the operating system family of the analysis machine.
func (p *Parser) Platform() (sandboxreport.Platform, error) {
	doc, err := p.Document()
	if err != nil {
		return "", err
	}
	return p.vendor.Platform(doc), nil
}
