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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/sandboxreport/stream"
)

type fakeVariant struct {
	name  string
	match Match
	calls *int
}

func (v fakeVariant) Name() string { return v.name }

func (v fakeVariant) MatchReportType(*stream.Stream) Match {
	if v.calls != nil {
		*v.calls++
	}
	return v.match
}

func (v fakeVariant) New(*stream.Stream, Options) (Parser, error) { return nil, nil }

func TestRegistry_Find(t *testing.T) {
	tests := []struct {
		name     string
		variants []Variant
		want     string
	}{
		{"single yes", []Variant{fakeVariant{"a", MatchNo, nil}, fakeVariant{"b", MatchYes, nil}}, "b"},
		{"yes beats unsure", []Variant{fakeVariant{"a", MatchUnsure, nil}, fakeVariant{"b", MatchYes, nil}}, "b"},
		{"single unsure", []Variant{fakeVariant{"a", MatchUnsure, nil}, fakeVariant{"b", MatchNo, nil}}, "a"},
		{"two unsure", []Variant{fakeVariant{"a", MatchUnsure, nil}, fakeVariant{"b", MatchUnsure, nil}}, ""},
		{"two yes", []Variant{fakeVariant{"a", MatchYes, nil}, fakeVariant{"b", MatchYes, nil}, fakeVariant{"c", MatchUnsure, nil}}, ""},
		{"none", []Variant{fakeVariant{"a", MatchNo, nil}}, ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for _, v := range tt.variants {
				require.NoError(t, r.Register(v))
			}
			got := r.Find(stream.FromBytes("report.json", []byte(`{}`)))
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name())
		})
	}
}

func TestRegistry_FindProbesAll(t *testing.T) {
	var a, b int
	r := NewRegistry()
	require.NoError(t, r.Register(fakeVariant{"a", MatchYes, &a}))
	require.NoError(t, r.Register(fakeVariant{"b", MatchNo, &b}))

	got := r.Find(stream.FromBytes("report.json", nil))
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Name())
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(fakeVariant{name: "a"}))
	assert.Error(t, r.Register(fakeVariant{name: "a"}))
	require.NoError(t, r.Register(fakeVariant{name: "b"}))

	variants := r.Variants()
	require.Len(t, variants, 2)
	assert.Equal(t, "a", variants[0].Name())
	assert.Equal(t, "b", variants[1].Name())

	variants[0] = nil
	assert.NotNil(t, r.Variants()[0])
}

func TestMatch_String(t *testing.T) {
	assert.Equal(t, "yes", MatchYes.String())
	assert.Equal(t, "unsure", MatchUnsure.String())
	assert.Equal(t, "no", MatchNo.String())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	_, isLocker := interface{}(r).(sync.Locker)
	assert.False(t, isLocker)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, r.Register(fakeVariant{name: fmt.Sprint(i), match: MatchNo}))
			r.Find(stream.FromBytes("report.json", nil))
		}(i)
	}
	wg.Wait()
	assert.Len(t, r.Variants(), 10)
}
