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
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/forensicanalysis/sandboxreport/stream"
)

// Registry holds report variants. Variants can be added but not removed.
type Registry struct {
	mu       sync.RWMutex
	variants []Variant
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{variants: []Variant{}}
}

var defaultRegistry = NewRegistry() // nolint:gochecknoglobals

// Register adds a variant to the default registry. It is meant to be called
// from init functions and panics if a variant with the same name exists.
func Register(variant Variant) {
	if err := defaultRegistry.Register(variant); err != nil {
		panic(err)
	}
}

// Variants returns the variants of the default registry.
func Variants() []Variant {
	return defaultRegistry.Variants()
}

// FindParser returns the variant of the default registry that can read s or
// nil if the format is unsupported or ambiguous.
func FindParser(s *stream.Stream) Variant {
	return defaultRegistry.Find(s)
}

// Register adds a variant.
func (r *Registry) Register(variant Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, known := range r.variants {
		if known.Name() == variant.Name() {
			return fmt.Errorf("variant %s already registered", variant.Name())
		}
	}
	r.variants = append(r.variants, variant)
	return nil
}

// Variants returns all registered variants in registration order.
func (r *Registry) Variants() []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	variants := make([]Variant, len(r.variants))
	copy(variants, r.variants)
	return variants
}

// Find probes s with every variant. A single definite match wins. Without a
// definite match a single unsure match is used. Anything else returns nil.
func (r *Registry) Find(s *stream.Stream) Variant {
	var definite, unsure []Variant
	for _, variant := range r.Variants() {
		switch variant.MatchReportType(s) {
		case MatchYes:
			definite = append(definite, variant)
		case MatchUnsure:
			unsure = append(unsure, variant)
		}
	}

	switch {
	case len(definite) == 1:
		return definite[0]
	case len(definite) > 1:
		log.Debugf("%s matches %d variants", s.Name(), len(definite))
		return nil
	case len(unsure) == 1:
		return unsure[0]
	}
	return nil
}
