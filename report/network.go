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

package report

import (
	"strings"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/sandboxreport"
)

const (
	defaultHostIP     = "127.0.0.1"
	defaultHostDomain = "localhost"
	defaultHostname   = "host"
)

// computerNameArguments are the argument names, lower-cased, that hold the
// result of a GetComputerName call.
var computerNameArguments = []string{"computername", "computer_name", "lpbuffer", "buffer", "name"} // nolint:gochecknoglobals

// Machines returns the network peers. Addresses from the hosts list and the
// domains list are merged per address, the host itself is excluded.
func (p *Parser) Machines() ([]sandboxreport.MachineInfo, error) {
	doc, err := p.Document()
	if err != nil {
		return nil, err
	}
	network := p.vendor.Network(doc)
	hostIP := p.hostIP(network)

	var order []string
	machines := map[string]*sandboxreport.MachineInfo{}
	add := func(m sandboxreport.MachineInfo) {
		if m.IP == "" || m.IP == hostIP {
			return
		}
		known, ok := machines[m.IP]
		if !ok {
			machines[m.IP] = &m
			order = append(order, m.IP)
			return
		}
		if err := mergo.Merge(known, m, mergo.WithOverride); err != nil {
			log.Warnf("could not merge %s: %s", m.IP, err)
		}
	}

	for _, host := range network.Get("hosts").Array() {
		if host.Type == gjson.String {
			add(sandboxreport.MachineInfo{IP: host.Str})
			continue
		}
		add(sandboxreport.MachineInfo{IP: host.Get("ip").String(), Hostname: host.Get("hostname").String()})
	}
	for _, domain := range network.Get("domains").Array() {
		add(sandboxreport.MachineInfo{IP: domain.Get("ip").String(), Domain: domain.Get("domain").String()})
	}

	result := make([]sandboxreport.MachineInfo, 0, len(order))
	for _, ip := range order {
		result = append(result, *machines[ip])
	}
	return result, nil
}

// hostIP looks for a UDP packet sent to a DNS server. The DNS servers are
// taken from the report and the options. This is best effort, not every
// sandbox lists its DNS servers.
func (p *Parser) hostIP(network gjson.Result) string {
	servers := map[string]bool{}
	for _, server := range network.Get("dns_servers").Array() {
		servers[server.String()] = true
	}
	for _, server := range p.options.DNSServers {
		servers[server] = true
	}
	if len(servers) == 0 {
		return ""
	}
	for _, packet := range network.Get("udp").Array() {
		if servers[packet.Get("dst").String()] {
			if src := packet.Get("src").String(); src != "" {
				return src
			}
		}
	}
	return ""
}

// Host returns the analysis machine. The hostname is taken from the first
// successful GetComputerName call, which requires the process tree.
func (p *Parser) Host() (sandboxreport.MachineInfo, error) {
	doc, err := p.Document()
	if err != nil {
		return sandboxreport.MachineInfo{}, err
	}

	host := sandboxreport.MachineInfo{IP: p.hostIP(p.vendor.Network(doc)), Hostname: defaultHostname}
	if host.IP == "" {
		host.IP, host.Domain = defaultHostIP, defaultHostDomain
	}

	tree, err := p.ProcessTree()
	if errors.Is(err, sandboxreport.ErrMissingBehavior) || errors.Is(err, errTreeBuilding) {
		return host, nil
	}
	if err != nil {
		return sandboxreport.MachineInfo{}, err
	}

	if name := computerName(tree); name != "" {
		host.Hostname = name
	}
	return host, nil
}

func computerName(tree []sandboxreport.ProcessPair) string {
	for _, pair := range tree {
		for _, thread := range pair.Child.Threads {
			for _, call := range thread.Calls {
				if !strings.HasPrefix(strings.ToLower(call.API), "getcomputername") {
					continue
				}
				if name := computerNameArgument(call.Arguments); name != "" {
					return name
				}
			}
		}
	}
	return ""
}

func computerNameArgument(arguments map[string]interface{}) string {
	for _, wanted := range computerNameArguments {
		for key, value := range arguments {
			if !strings.EqualFold(key, wanted) {
				continue
			}
			if s, ok := value.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
