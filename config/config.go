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

// Package config loads the settings of the sandboxreport tool from a config
// file and SANDBOXREPORT_ environment variables.
package config

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/forensicanalysis/sandboxreport"
)

// EnvPrefix prefixes environment variables, e.g. SANDBOXREPORT_LOGLEVEL.
const EnvPrefix = "SANDBOXREPORT"

// Config holds the settings.
type Config struct {
	TranslatorsDir string   `mapstructure:"translatorsDir"`
	DNSServers     []string `mapstructure:"dnsServers"`
	Encoding       string   `mapstructure:"encoding"`
	SampleName     string   `mapstructure:"sampleName"`
	LogLevel       string   `mapstructure:"logLevel"`
}

// Load reads the config file at path. If path is empty, sandboxreport.json
// or sandboxreport.yaml is searched in the working directory and defaults
// are used if there is none.
func Load(fs afero.Fs, path string) (Config, error) {
	v := viper.New()
	v.SetFs(fs)

	v.SetDefault("translatorsDir", "translators")
	v.SetDefault("dnsServers", []string{})
	v.SetDefault("encoding", "utf-8")
	v.SetDefault("sampleName", "")
	v.SetDefault("logLevel", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("sandboxreport")
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case errors.As(err, &notFound):
		log.Debug("no config file found, using defaults")
	case err != nil:
		return Config{}, errors.Wrap(err, "could not read config")
	default:
		log.Debugf("using config %s", v.ConfigFileUsed())
	}

	var config Config
	err = v.Unmarshal(&config)
	return config, err
}

// Options returns parser options reading translator files from fs.
func (c Config) Options(fs afero.Fs) sandboxreport.Options {
	options := sandboxreport.DefaultOptions()
	options.Fs = fs
	options.TranslatorsDir = c.TranslatorsDir
	options.DNSServers = c.DNSServers
	options.SampleName = c.SampleName
	options.Encoding = c.Encoding
	return options
}

// SetupLogging sets the level of the standard logger.
func (c Config) SetupLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	return nil
}
