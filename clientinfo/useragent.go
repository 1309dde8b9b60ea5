package clientinfo

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknown = "Unknown"

// Agent is the parsed form of a User-Agent header.
type Agent struct {
	Browser string
	OS      string
}

// ParseUserAgent extracts browser name with major version ("Chrome 120") and
// operating system ("Windows 10"). Unrecognized parts are "Unknown".
func ParseUserAgent(raw string) Agent {
	if strings.TrimSpace(raw) == "" {
		return Agent{Browser: unknown, OS: unknown}
	}

	ua := useragent.New(raw)
	agent := Agent{Browser: unknown, OS: unknown}

	if name, version := ua.Browser(); name != "" {
		agent.Browser = name
		if major, _, _ := strings.Cut(version, "."); major != "" {
			agent.Browser += " " + major
		}
	}
	if os := ua.OSInfo(); os.Name != "" {
		agent.OS = strings.TrimSpace(os.Name + " " + os.Version)
	}
	return agent
}

// BrowserAndOS adapts ParseUserAgent to the two-value form used by the
// session manager.
func BrowserAndOS(raw string) (string, string) {
	a := ParseUserAgent(raw)
	return a.Browser, a.OS
}
