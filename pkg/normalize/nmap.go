package normalize

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

type nmapRun struct {
	Hosts []nmapHost `xml:"host"`
}

type nmapHost struct {
	Status    *nmapStatus    `xml:"status"`
	Addresses []nmapAddress  `xml:"address"`
	Hostnames *nmapHostnames `xml:"hostnames"`
	Ports     *nmapPorts     `xml:"ports"`
	OS        *nmapOS        `xml:"os"`
	Scripts   []nmapScript   `xml:"hostscript>script"`
}

type nmapStatus struct {
	State string `xml:"state,attr"`
}

type nmapAddress struct {
	Addr     string `xml:"addr,attr"`
	AddrType string `xml:"addrtype,attr"`
}

type nmapHostnames struct {
	Hostname []struct {
		Name string `xml:"name,attr"`
	} `xml:"hostname"`
}

type nmapPorts struct {
	Ports []nmapPort `xml:"port"`
}

type nmapPort struct {
	Protocol string       `xml:"protocol,attr"`
	PortID   int          `xml:"portid,attr"`
	State    *nmapStatus  `xml:"state"`
	Service  *nmapService `xml:"service"`
	Scripts  []nmapScript `xml:"script"`
}

type nmapService struct {
	Name    string `xml:"name,attr"`
	Product string `xml:"product,attr"`
	Version string `xml:"version,attr"`
}

type nmapOS struct {
	Matches []struct {
		Name string `xml:"name,attr"`
	} `xml:"osmatch"`
}

type nmapScript struct {
	ID     string `xml:"id,attr"`
	Output string `xml:"output,attr"`
}

var ptnCVE = regexp.MustCompile(`CVE-\d{4}-\d{4,7}`)

// Service versions with widely known remote vulnerabilities. Matches produce
// medium findings so a heavier scanner can confirm them.
var vulnerableServiceVersions = map[string][]string{
	"ssh":  {"OpenSSH 7.4", "OpenSSH 7.3"},
	"ftp":  {"vsftpd 2.3.4"},
	"http": {"Apache 2.4.49", "nginx 1.10.0"},
	"smb":  {"Samba 3.6.3", "Samba 4.5.0"},
}

func parseNmap(target string, raw []byte, now time.Time) (*Report, error) {
	report := &Report{}

	var run nmapRun
	if err := xml.Unmarshal(raw, &run); err != nil {
		return report, goerr.Wrap(types.ErrNormalization, "failed to parse nmap xml",
			goerr.V("target", target),
			goerr.V("cause", err.Error()),
		)
	}

	for i := range run.Hosts {
		parseNmapHost(report, &run.Hosts[i], target, now)
	}

	return report, nil
}

func parseNmapHost(report *Report, h *nmapHost, target string, now time.Time) {
	var ip string
	for _, addr := range h.Addresses {
		if addr.AddrType == "ipv4" || addr.AddrType == "ipv6" || addr.AddrType == "" {
			ip = addr.Addr
			break
		}
	}
	if ip == "" {
		return
	}

	host := &model.NetworkHost{
		IPAddress: ip,
		Status:    "up",
		FirstSeen: now,
		LastSeen:  now,
	}
	if h.Status != nil {
		host.Status = h.Status.State
	}
	if h.Hostnames != nil && len(h.Hostnames.Hostname) > 0 {
		host.Hostname = h.Hostnames.Hostname[0].Name
	}
	if h.OS != nil && len(h.OS.Matches) > 0 {
		host.OSType = h.OS.Matches[0].Name
	}

	if h.Ports != nil {
		for _, port := range h.Ports.Ports {
			state := "unknown"
			if port.State != nil {
				state = port.State.State
			}
			host.OpenPorts = append(host.OpenPorts, model.HostPort{
				Port:     port.PortID,
				Protocol: port.Protocol,
				State:    state,
			})

			if port.Service == nil {
				continue
			}
			version := strings.TrimSpace(port.Service.Product + " " + port.Service.Version)
			host.Services = append(host.Services, model.HostService{
				Port:    port.PortID,
				Service: port.Service.Name,
				Version: version,
			})

			if state == "open" && isVulnerableService(port.Service.Name, version) {
				report.Findings = append(report.Findings, &model.Finding{
					DedupKey:     model.NewDedupKey(types.ToolNmap, strconv.Itoa(port.PortID), ip),
					Title:        fmt.Sprintf("Potentially vulnerable service on port %d", port.PortID),
					Description:  fmt.Sprintf("Service %s %s detected on %s:%d", port.Service.Name, version, ip, port.PortID),
					Severity:     types.SeverityMedium,
					Asset:        ip,
					Port:         port.PortID,
					Service:      port.Service.Name,
					SourceTool:   types.ToolNmap,
					Status:       types.FindingStatusOpen,
					DiscoveredAt: now,
					UpdatedAt:    now,
				})
			}

			for _, script := range port.Scripts {
				appendNmapScriptFindings(report, script, target, now)
			}
		}
	}

	for _, script := range h.Scripts {
		appendNmapScriptFindings(report, script, target, now)
	}

	report.Hosts = append(report.Hosts, host)
}

func appendNmapScriptFindings(report *Report, script nmapScript, target string, now time.Time) {
	if !strings.Contains(script.ID, "vuln") && !strings.Contains(script.Output, "CVE") {
		return
	}

	description := script.Output
	if len(description) > 500 {
		description = description[:500]
	}

	for _, cve := range ptnCVE.FindAllString(script.Output, -1) {
		report.Findings = append(report.Findings, &model.Finding{
			DedupKey:     model.NewDedupKey(types.ToolNmap, cve, target),
			Title:        "Vulnerability detected: " + cve,
			Description:  description,
			Severity:     types.SeverityHigh,
			ExternalID:   cve,
			Asset:        target,
			SourceTool:   types.ToolNmap,
			Status:       types.FindingStatusOpen,
			DiscoveredAt: now,
			UpdatedAt:    now,
		})
	}
}

func isVulnerableService(service, version string) bool {
	for _, known := range vulnerableServiceVersions[strings.ToLower(service)] {
		if version != "" && strings.Contains(version, known) {
			return true
		}
	}
	return false
}
