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

// Package cmd implements the subcommands of the sandboxreport command line
// tool.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/sandboxreport"
	"github.com/forensicanalysis/sandboxreport/archive"
	"github.com/forensicanalysis/sandboxreport/config"
	"github.com/forensicanalysis/sandboxreport/stream"
)

// ErrUnsupportedFormat is returned if no variant can read a report.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Fs is the file system reports, archives and config files are read from.
var Fs = afero.NewOsFs() // nolint:gochecknoglobals

type flags struct {
	configPath     string
	translatorsDir string
	encoding       string
	sampleName     string
	dnsServers     []string
	logLevel       string
}

var global flags // nolint:gochecknoglobals

// Root creates the sandboxreport command with its persistent flags.
func Root() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sandboxreport",
		Short:         "Normalize malware sandbox reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return c.SetupLogging()
		},
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&global.configPath, "config", "", "config file (default sandboxreport.{json,yaml})")
	pf.StringVar(&global.translatorsDir, "translators", "", "directory of translator files")
	pf.StringVar(&global.encoding, "encoding", "", "report encoding, e.g. utf-8 or utf-16")
	pf.StringVar(&global.sampleName, "sample", "", "sample file name, overrides the name in the report")
	pf.StringSliceVar(&global.dnsServers, "dns", nil, "DNS servers used to identify the analysis host")
	pf.StringVar(&global.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return rootCmd
}

// loadConfig reads the config and applies the flags that are set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	c, err := config.Load(Fs, global.configPath)
	if err != nil {
		return c, err
	}
	pf := cmd.Flags()
	if pf.Changed("translators") {
		c.TranslatorsDir = global.translatorsDir
	}
	if pf.Changed("encoding") {
		c.Encoding = global.encoding
	}
	if pf.Changed("sample") {
		c.SampleName = global.sampleName
	}
	if pf.Changed("dns") {
		c.DNSServers = global.dnsServers
	}
	if pf.Changed("log-level") {
		c.LogLevel = global.logLevel
	}
	return c, nil
}

// openReport opens a report file or an archive member given as
// <archive>::<member>. The returned function closes the archive.
func openReport(location, encoding string) (*stream.Stream, func() error, error) {
	archivePath, member, ok := archive.SplitLocation(location)
	if !ok {
		if _, err := Fs.Stat(location); err != nil {
			return nil, nil, err
		}
		return stream.FromFs(Fs, location).SetEncoding(encoding), func() error { return nil }, nil
	}

	if _, err := Fs.Stat(archivePath); err != nil {
		return nil, nil, err
	}
	a, err := archive.New(archivePath)
	if err != nil {
		return nil, nil, err
	}
	return a.Stream(member).SetEncoding(encoding), a.Close, nil
}

// parseReport opens a report and creates a parser for its format.
func parseReport(cmd *cobra.Command, location string) (sandboxreport.Parser, sandboxreport.Variant, func() error, error) {
	c, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	s, teardown, err := openReport(location, c.Encoding)
	if err != nil {
		return nil, nil, nil, err
	}

	variant := sandboxreport.FindParser(s)
	if variant == nil {
		closeReport(teardown, location)
		return nil, nil, nil, errors.Wrap(ErrUnsupportedFormat, location)
	}
	log.Debugf("%s is a %s report", location, variant.Name())

	parser, err := variant.New(s, c.Options(Fs))
	if err != nil {
		closeReport(teardown, location)
		return nil, nil, nil, err
	}
	return parser, variant, teardown, nil
}

func closeReport(teardown func() error, location string) {
	if err := teardown(); err != nil {
		log.Warnf("could not close %s: %s", location, err)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}
