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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/qri-io/jsonschema"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const fileSchema = `{
  "$schema": "https://json-schema.org/draft/2019-09/schema#",
  "type": "object",
  "properties": {
    "names": {"type": "object", "additionalProperties": {"type": "string"}},
    "arguments": {
      "type": "object",
      "additionalProperties": {"type": "object", "additionalProperties": {"type": "string"}}
    },
    "converters": {
      "type": "object",
      "additionalProperties": {"type": "object", "additionalProperties": {"type": "string"}}
    }
  },
  "additionalProperties": false
}`

type file struct {
	Names      map[string]string            `json:"names"`
	Arguments  map[string]map[string]string `json:"arguments"`
	Converters map[string]map[string]string `json:"converters"`
}

// Path returns the conventional location of the translator file of a
// format tag.
func Path(dir, tag string) string {
	return path.Join(dir, tag+".json")
}

// Validate checks a translator file against the file schema and returns the
// list of flaws.
func Validate(data []byte) (flaws []string, err error) {
	schema := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(fileSchema), schema); err != nil {
		return nil, errors.Wrap(err, "could not parse translator schema")
	}
	errs, err := schema.ValidateBytes(context.Background(), data)
	if err != nil {
		return nil, err
	}
	for _, verr := range errs {
		flaws = append(flaws, fmt.Sprintf("invalid translator: %s", verr))
	}
	return flaws, nil
}

// Parse reads a translator from its JSON representation.
func Parse(data []byte) (*Translator, error) {
	flaws, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if len(flaws) > 0 {
		return nil, fmt.Errorf("translator could not be validated [%s]", strings.Join(flaws, ","))
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal translator")
	}

	t := New()
	for api, name := range f.Names {
		t.SetName(api, name)
	}
	for api, renames := range f.Arguments {
		for from, to := range renames {
			t.SetArgument(api, from, to)
		}
	}
	for api, converters := range f.Converters {
		for argument, name := range converters {
			c, err := ParseConverter(name)
			if err != nil {
				return nil, errors.Wrapf(err, "%s.%s", api, argument)
			}
			t.SetConverter(api, argument, c)
		}
	}
	return t, nil
}

// Load reads a translator file.
func Load(fs afero.Fs, name string) (*Translator, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, err
	}
	t, err := Parse(data)
	return t, errors.Wrap(err, name)
}

// LoadOrEmpty reads a translator file. A missing file results in an empty
// translator.
func LoadOrEmpty(fs afero.Fs, name string) (*Translator, error) {
	exists, err := afero.Exists(fs, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Debugf("no translator %s", name)
		return New(), nil
	}
	return Load(fs, name)
}

// MarshalJSON returns the file representation of t.
func (t *Translator) MarshalJSON() ([]byte, error) {
	f := file{
		Names:      t.names,
		Arguments:  t.arguments,
		Converters: map[string]map[string]string{},
	}
	for api, converters := range t.converters {
		f.Converters[api] = map[string]string{}
		for argument, c := range converters {
			f.Converters[api][argument] = string(c)
		}
	}
	return json.MarshalIndent(f, "", "  ")
}

// Save writes t to a translator file.
func (t *Translator) Save(fs afero.Fs, name string) error {
	data, err := t.MarshalJSON()
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(path.Dir(name), 0750); err != nil && !os.IsExist(err) {
		return err
	}
	return afero.WriteFile(fs, name, data, 0644)
}
