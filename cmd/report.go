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

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/sandboxreport"
	"github.com/forensicanalysis/sandboxreport/flatten"
)

// Detect prints the format of a report.
func Detect() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <report>",
		Short: "Print the format of a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, variant, teardown, err := parseReport(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeReport(teardown, args[0])
			fmt.Fprintln(cmd.OutOrStdout(), variant.Name())
			return nil
		},
	}
}

// Tree prints the processes of a report as STIX process elements, parents
// before their children.
func Tree() *cobra.Command {
	var validate bool
	treeCmd := &cobra.Command{
		Use:   "tree <report>",
		Short: "Print the process tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, _, teardown, err := parseReport(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeReport(teardown, args[0])

			tree, err := parser.ProcessTree()
			if err != nil {
				return err
			}

			invalid := 0
			for _, process := range sandboxreport.ProcessElements(tree) {
				element, err := sandboxreport.ToElement(process)
				if err != nil {
					return err
				}
				if validate {
					flaws, err := sandboxreport.ValidateElement(element)
					if err != nil {
						return err
					}
					for _, flaw := range flaws {
						log.WithField("pid", process.PID).Warn(flaw)
					}
					if len(flaws) > 0 {
						invalid++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", element)
			}
			if invalid > 0 {
				return errors.Errorf("%d invalid elements", invalid)
			}
			return nil
		},
	}
	treeCmd.Flags().BoolVar(&validate, "validate", false, "validate elements against the STIX schemas")
	return treeCmd
}

// Calls prints one JSON line per API call.
func Calls() *cobra.Command {
	var flat bool
	callsCmd := &cobra.Command{
		Use:   "calls <report>",
		Short: "Print the API calls of all processes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, _, teardown, err := parseReport(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeReport(teardown, args[0])

			tree, err := parser.ProcessTree()
			if err != nil {
				return err
			}
			for _, pair := range tree {
				for _, thread := range pair.Child.Threads {
					for _, call := range thread.Calls {
						record := callRecord(pair.Child.PID, thread.TID, call)
						if flat {
							record = flatten.Flatten(record)
						}
						if err := printJSON(cmd.OutOrStdout(), record); err != nil {
							return err
						}
					}
				}
			}
			return nil
		},
	}
	callsCmd.Flags().BoolVar(&flat, "flat", false, "flatten arguments and flags into dotted keys")
	return callsCmd
}

func callRecord(pid, tid int, call *sandboxreport.CallInfo) map[string]interface{} {
	return map[string]interface{}{
		"pid":          pid,
		"tid":          tid,
		"api":          call.API,
		"status":       call.Status,
		"return_value": call.ReturnValue,
		"time":         call.Time,
		"arguments":    call.Arguments,
		"flags":        call.Flags,
		"location":     map[string]interface{}{"table": call.Location.Table, "index": call.Location.Index},
	}
}

// Network prints the analysis host and the contacted machines.
func Network() *cobra.Command {
	return &cobra.Command{
		Use:   "network <report>",
		Short: "Print the analysis host and contacted machines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, _, teardown, err := parseReport(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeReport(teardown, args[0])

			host, err := parser.Host()
			if err != nil {
				return err
			}
			machines, err := parser.Machines()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{"host": host, "machines": machines})
		},
	}
}

// Sample prints the path the sample was executed from and the platform.
func Sample() *cobra.Command {
	return &cobra.Command{
		Use:   "sample <report>",
		Short: "Print the sample path and platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, _, teardown, err := parseReport(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeReport(teardown, args[0])

			platform, err := parser.Platform()
			if err != nil {
				return err
			}
			path, err := parser.SampleFilePath()
			if errors.Is(err, sandboxreport.ErrMissingSamplePath) {
				log.Warn(err)
			} else if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{"path": path, "platform": platform})
		},
	}
}
