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

package translator

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/sandboxreport"
)

func example() *Translator {
	t := New()
	t.SetName("ntreadfile", "NtReadFile")
	t.SetArgument("ntreadfile", "file_handle", "FileHandle")
	t.SetArgument("ntreadfile", "length", "Length")
	t.SetConverter("ntreadfile", "file_handle", HexToInt)
	t.SetConverter("ntreadfile", "length", StrToInt)
	return t
}

func TestConverter_Convert(t *testing.T) {
	tests := []struct {
		name      string
		converter Converter
		value     interface{}
		want      interface{}
	}{
		{"hex to int", HexToInt, "1a", int64(26)},
		{"hex to int prefix", HexToInt, "0x1A", int64(26)},
		{"hex to int invalid", HexToInt, "zz", "zz"},
		{"hex to int number", HexToInt, 26, 26},
		{"str to int", StrToInt, "26", int64(26)},
		{"str to int invalid", StrToInt, "abc", "abc"},
		{"int to hex", IntToHex, int64(26), "0x1a"},
		{"int to hex float", IntToHex, float64(26), "0x1a"},
		{"int to hex negative", IntToHex, -26, "-0x1a"},
		{"int to hex invalid", IntToHex, "foo", "foo"},
		{"int to hex fraction", IntToHex, 1.5, 1.5},
		{"int to str", IntToStr, 26, "26"},
		{"int to str invalid", IntToStr, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.converter.Convert(tt.value))
		})
	}
}

func TestParseConverter(t *testing.T) {
	c, err := ParseConverter("hex_to_int")
	require.NoError(t, err)
	assert.Equal(t, HexToInt, c)

	_, err = ParseConverter("base64")
	assert.True(t, errors.Is(err, ErrUnknownConverter))
}

func TestTranslator_Translate(t *testing.T) {
	tests := []struct {
		name string
		call *sandboxreport.CallInfo
		want *sandboxreport.CallInfo
	}{
		{
			"translated",
			&sandboxreport.CallInfo{
				API:       "NTREADFILE",
				Arguments: map[string]interface{}{"file_handle": "0x1a", "length": "10", "buffer": "abc"},
				Flags:     map[string]interface{}{"file_handle": "HANDLE"},
			},
			&sandboxreport.CallInfo{
				API:       "NtReadFile",
				Arguments: map[string]interface{}{"FileHandle": int64(26), "Length": int64(10), "buffer": "abc"},
				Flags:     map[string]interface{}{"FileHandle": "HANDLE"},
			},
		},
		{
			"unknown api",
			&sandboxreport.CallInfo{API: "NtClose", Arguments: map[string]interface{}{"file_handle": "0x1a"}},
			&sandboxreport.CallInfo{API: "NtClose", Arguments: map[string]interface{}{"file_handle": "0x1a"}},
		},
		{
			"invalid value",
			&sandboxreport.CallInfo{API: "ntreadfile", Arguments: map[string]interface{}{"file_handle": "none"}},
			&sandboxreport.CallInfo{API: "NtReadFile", Arguments: map[string]interface{}{"FileHandle": "none"}},
		},
		{
			"no collision",
			&sandboxreport.CallInfo{API: "ntreadfile", Arguments: map[string]interface{}{"length": "1", "Length": 2}},
			&sandboxreport.CallInfo{API: "NtReadFile", Arguments: map[string]interface{}{"length": int64(1), "Length": 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := example().Translate(tt.call)
			assert.Same(t, tt.call, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslator_TranslateChains(t *testing.T) {
	tests := []struct {
		name      string
		renames   map[string]string
		arguments map[string]interface{}
		want      map[string]interface{}
	}{
		{"chain blocked", map[string]string{"a": "b", "b": "c"}, map[string]interface{}{"a": 1, "b": 2, "c": 3}, map[string]interface{}{"a": 1, "b": 2, "c": 3}},
		{"chain", map[string]string{"a": "b", "b": "c"}, map[string]interface{}{"a": 1, "b": 2}, map[string]interface{}{"b": 1, "c": 2}},
		{"identity", map[string]string{"a": "b", "b": "b"}, map[string]interface{}{"a": 1, "b": 2}, map[string]interface{}{"a": 1, "b": 2}},
		{"swap", map[string]string{"a": "b", "b": "a"}, map[string]interface{}{"a": 1, "b": 2}, map[string]interface{}{"a": 1, "b": 2}},
		{"same target", map[string]string{"a": "x", "b": "x"}, map[string]interface{}{"a": 1, "b": 2}, map[string]interface{}{"x": 1, "b": 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			for from, to := range tt.renames {
				tr.SetArgument("api", from, to)
			}
			got := tr.Translate(&sandboxreport.CallInfo{API: "api", Arguments: tt.arguments, Flags: tt.arguments})
			assert.Equal(t, tt.want, got.Arguments)
			assert.Equal(t, tt.want, got.Flags)
		})
	}
}

func TestTranslator_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	original := example()
	require.NoError(t, original.Save(fs, Path("translators", "cape")))

	loaded, err := Load(fs, "translators/cape.json")
	require.NoError(t, err)

	call := func() *sandboxreport.CallInfo {
		return &sandboxreport.CallInfo{
			API:       "NtReadFile",
			Arguments: map[string]interface{}{"file_handle": "0x20", "length": "64", "other": 1},
			Flags:     map[string]interface{}{"length": "64 bytes"},
		}
	}
	assert.Equal(t, original.Translate(call()), loaded.Translate(call()))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		errAny  bool
	}{
		{"valid", `{"names": {"a": "A"}, "arguments": {"a": {"x": "X"}}, "converters": {"a": {"x": "hex_to_int"}}}`, nil, false},
		{"unknown converter", `{"converters": {"a": {"x": "rot13"}}}`, ErrUnknownConverter, true},
		{"wrong type", `{"names": {"a": 1}}`, nil, true},
		{"additional section", `{"aliases": {}}`, nil, true},
		{"broken json", `{"names": `, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/t.json", []byte(tt.content), 0644))
			_, err := Load(fs, "/t.json")
			if (err != nil) != tt.errAny {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.errAny)
			}
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
		})
	}
}

func TestLoadOrEmpty(t *testing.T) {
	tr, err := LoadOrEmpty(afero.NewMemMapFs(), "translators/missing.json")
	require.NoError(t, err)
	assert.True(t, tr.Empty())

	call := &sandboxreport.CallInfo{API: "NtReadFile", Arguments: map[string]interface{}{"a": 1}}
	assert.Equal(t, map[string]interface{}{"a": 1}, tr.Translate(call).Arguments)
}
