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
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/sandboxreport/archive"
)

// Pack adds reports to an archive.
func Pack() *cobra.Command {
	return &cobra.Command{
		Use:   "pack <archive> <file>...",
		Short: "Add reports to the sqlite archive",
		Args:  cobra.MinimumNArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := archive.New(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			for _, arg := range args[1:] {
				fmt.Fprintln(cmd.OutOrStdout(), "pack", filepath.ToSlash(arg))
				if err := a.AddFile(Fs, arg); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Ls lists the reports of an archive.
func Ls() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <archive>",
		Short: "List the reports of the sqlite archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := Fs.Stat(args[0]); err != nil {
				return err
			}
			a, err := archive.New(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.Entries()
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", entry.Name, entry.Size, entry.ModTime.UTC().Format("2006-01-02T15:04:05Z"))
			}
			return nil
		},
	}
}

// Unpack extracts the reports of an archive into a directory.
func Unpack() *cobra.Command {
	var mode string
	unpackCmd := &cobra.Command{
		Use:   "unpack <archive> <directory>",
		Short: "Extract reports from the sqlite archive",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := Fs.Stat(args[0]); err != nil {
				return err
			}
			a, err := archive.New(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			names, err := a.Names()
			if err != nil {
				return err
			}
			for _, name := range names {
				dest := path.Join(filepath.ToSlash(args[1]), destinationPath(name, mode))
				fmt.Fprintf(cmd.OutOrStdout(), "unpack '%s' to '%s'\n", name, dest)

				data, err := a.ReadFile(name)
				if err != nil {
					return err
				}
				if err := Fs.MkdirAll(path.Dir(dest), 0750); err != nil {
					return err
				}
				if err := afero.WriteFile(Fs, dest, data, 0644); err != nil {
					return err
				}
			}
			return nil
		},
	}

	usage := `define the export filename and folder structure. can be one of:
folder (e.g. 'cape/2021/03/42/report.json')
compact (e.g. 'cape_2021_03_42_report.json')
basename (e.g. 'report.json')
`
	unpackCmd.Flags().StringVar(&mode, "mode", "folder", usage)
	return unpackCmd
}

func destinationPath(name string, mode string) string {
	switch mode {
	case "basename":
		return path.Base(name)
	case "compact":
		return normalizeFilePath(name)
	default:
		return name
	}
}

func first(s string, n int) string {
	if len(s) < n {
		n = len(s)
	}
	return s[:n]
}

func last(s string, n int) string {
	if len(s) < n {
		n = len(s)
	}
	return s[len(s)-n:]
}

func splitExt(filePath string) (nameOnly, ext string) {
	ext = path.Ext(filePath)
	nameOnly = strings.TrimSuffix(filePath, ext)
	return nameOnly, ext
}

// normalizeFilePath joins the path segments with underscores. Directory
// names and then the file name are shortened to keep the result short.
func normalizeFilePath(filePath string) string {
	maxLength := 64
	maxSegmentLength := 4
	filePath = strings.TrimLeft(filePath, "/")
	pathSegments := strings.Split(filePath, "/")
	normalizedFilePath := strings.Join(pathSegments, "_")

	for i := 0; i < len(pathSegments)-1 && len(normalizedFilePath) > maxLength; i++ {
		pathSegments[i] = first(pathSegments[i], maxSegmentLength)
		normalizedFilePath = strings.Join(pathSegments, "_")
	}

	if len(normalizedFilePath) > maxLength {
		nameOnly, ext := splitExt(pathSegments[len(pathSegments)-1])
		pathSegments[len(pathSegments)-1] = first(nameOnly, maxSegmentLength) + ext
		normalizedFilePath = strings.Join(pathSegments, "_")
	}

	return last(normalizedFilePath, maxLength)
}
