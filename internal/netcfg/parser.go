package netcfg

import (
	"bufio"
	"regexp"
	"strings"
)

// Adapter is one section of the diagnostic output.
type Adapter struct {
	Name       string
	HasGateway bool
	HasIPv4    bool
}

// Parser turns diagnostic tool output into adapter sections. Alternate
// locales or tools plug in here without touching Select.
type Parser interface {
	Parse(output string) []Adapter
}

// labelValueLine matches "Label . . . : value" rows: a colon preceded by
// whitespace or a dot leader. IPv6 values ("fe80::1%12") never match.
var labelValueLine = regexp.MustCompile(`[\s.]:(\s|$)`)

// IpconfigParser parses Windows `ipconfig` output.
type IpconfigParser struct {
	labels Labels
}

// NewIpconfigParser builds a parser for the given label sets, or for
// DefaultLabels when none are given.
func NewIpconfigParser(sets ...Labels) *IpconfigParser {
	labels := DefaultLabels
	if len(sets) > 0 {
		labels = Merge(sets...)
	}
	return &IpconfigParser{labels: lower(labels)}
}

// Parse walks the output line by line. A header line opens a new section;
// gateway and IPv4 rows set flags on the open section only when they carry a
// value, either inline after the colon or on the next line.
func (p *IpconfigParser) Parse(output string) []Adapter {
	lines := splitLines(output)

	var adapters []Adapter
	current := -1

	for i, line := range lines {
		if name, ok := p.header(line); ok {
			adapters = append(adapters, Adapter{Name: name})
			current = len(adapters) - 1
			continue
		}
		if current < 0 {
			continue
		}

		lowered := strings.ToLower(line)
		switch {
		case containsAny(lowered, p.labels.Gateway):
			if p.hasValue(lines, i) {
				adapters[current].HasGateway = true
			}
		case containsAny(lowered, p.labels.IPv4):
			if p.hasValue(lines, i) {
				adapters[current].HasIPv4 = true
			}
		}
	}

	return adapters
}

// header reports whether line opens an adapter section and extracts its name.
// Section headers start at column 0 and end with a colon.
func (p *IpconfigParser) header(line string) (string, bool) {
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return "", false
	}
	trimmed := strings.TrimSpace(line)
	if !strings.HasSuffix(trimmed, ":") || labelValueLine.MatchString(trimmed) {
		return "", false
	}
	body := strings.TrimSpace(strings.TrimSuffix(trimmed, ":"))
	lowered := strings.ToLower(body)

	for _, kw := range p.labels.AdapterKeywords {
		idx := strings.Index(lowered, kw)
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(body[idx+len(kw):])
		if idx == 0 {
			// keyword-first locales put the adapter type before the name
			name = p.stripTypePrefix(name)
		}
		if name == "" {
			return "", false
		}
		return name, true
	}
	return "", false
}

func (p *IpconfigParser) stripTypePrefix(name string) string {
	lowered := strings.ToLower(name)
	for _, prefix := range p.labels.TypePrefixes {
		if strings.HasPrefix(lowered, prefix+" ") {
			return strings.TrimSpace(name[len(prefix)+1:])
		}
	}
	return name
}

// hasValue checks the label row at i for an inline value and, failing that,
// the next row for a continuation value that is not another label row.
func (p *IpconfigParser) hasValue(lines []string, i int) bool {
	if idx := strings.Index(lines[i], ":"); idx >= 0 {
		if strings.TrimSpace(lines[i][idx+1:]) != "" {
			return true
		}
	}
	if i+1 >= len(lines) {
		return false
	}
	next := strings.TrimSpace(lines[i+1])
	if next == "" {
		return false
	}
	if labelValueLine.MatchString(next) || strings.HasSuffix(next, ":") {
		return false
	}
	return true
}

// Select applies the selection policy: the first adapter with a gateway
// wins; otherwise the first adapter with an IPv4 address; otherwise none.
func Select(adapters []Adapter) (string, bool) {
	for _, a := range adapters {
		if a.HasGateway {
			return a.Name, true
		}
	}
	for _, a := range adapters {
		if a.HasIPv4 {
			return a.Name, true
		}
	}
	return "", false
}

func splitLines(s string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(s))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lower(l Labels) Labels {
	lowerAll := func(in []string) []string {
		out := make([]string, len(in))
		for i, v := range in {
			out[i] = strings.ToLower(v)
		}
		return out
	}
	return Labels{
		AdapterKeywords: lowerAll(l.AdapterKeywords),
		TypePrefixes:    lowerAll(l.TypePrefixes),
		Gateway:         lowerAll(l.Gateway),
		IPv4:            lowerAll(l.IPv4),
	}
}
