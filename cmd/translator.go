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

package cmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/sandboxreport/translator"
)

// Translator is the translator subcommand.
func Translator() *cobra.Command {
	translatorCmd := &cobra.Command{
		Use:   "translator",
		Short: "Handle translator files",
	}
	translatorCmd.AddCommand(validateTranslatorCommand())
	return translatorCmd
}

func validateTranslatorCommand() *cobra.Command {
	var noFail bool
	validateCmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate translator files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invalid := 0
			for _, name := range args {
				flaws, err := validateTranslator(Fs, name)
				if err != nil {
					return err
				}
				if len(flaws) > 0 {
					invalid++
					for i, flaw := range flaws {
						flaws[i] = strings.ReplaceAll(flaw, "\"", "\\\"")
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: [\"%s\"]\n", name, strings.Join(flaws, "\", \""))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", name)
			}
			if invalid > 0 && !noFail {
				return errors.Errorf("%d invalid translator files", invalid)
			}
			return nil
		},
	}
	validateCmd.Flags().BoolVar(&noFail, "no-fail", false, "return exit code 0")
	return validateCmd
}

func validateTranslator(fs afero.Fs, name string) ([]string, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, err
	}
	flaws, err := translator.Validate(data)
	if err != nil {
		return []string{err.Error()}, nil
	}
	if len(flaws) > 0 {
		return flaws, nil
	}
	if _, err := translator.Parse(data); err != nil {
		return []string{err.Error()}, nil
	}
	return nil, nil
}
