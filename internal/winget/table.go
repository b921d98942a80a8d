package winget

import (
	"strings"
)

// InstalledPackage is one row of `winget list`.
type InstalledPackage struct {
	Name      string
	ID        string
	Version   string
	Available string
	Source    string
}

// Upgrade is one row of `winget upgrade`.
type Upgrade struct {
	Name      string
	ID        string
	Version   string
	Available string
	Source    string
}

// Localized header words for the optional trailing columns.
var (
	availableHeaders = []string{"available", "доступно", "verfügbar"}
	sourceHeaders    = []string{"source", "источник", "quelle"}
)

// table holds the rune offsets of the columns of one winget table.
// Name, Id and Version are always the first three columns; Available and
// Source are recognized by header text since either may be absent.
type table struct {
	starts    []int
	available int // -1 if not present
	source    int // -1 if not present
}

type row struct {
	name, id, version, available, source string
}

// parseTable parses winget table output. The header is the line right
// before a dashed separator; each separator starts a new table, which
// covers the second "require explicit targeting" table `winget upgrade`
// sometimes prints.
func parseTable(output string) []row {
	lines := cleanLines(output)

	var rows []row
	var current *table

	for i, line := range lines {
		if isSeparatorLine(line) {
			current = nil
			if i > 0 {
				current = headerColumns(lines[i-1])
			}
			continue
		}
		if current == nil || strings.TrimSpace(line) == "" {
			continue
		}
		if i+1 < len(lines) && isSeparatorLine(lines[i+1]) {
			continue // header of the next table
		}
		r, ok := current.extract(line)
		if !ok {
			continue
		}
		rows = append(rows, r)
	}
	return rows
}

// headerColumns finds column starts from the header line. Header words are
// single tokens, so every token start is a column start.
func headerColumns(header string) *table {
	runes := []rune(header)
	t := &table{available: -1, source: -1}
	var words []string

	for i := 0; i < len(runes); i++ {
		if runes[i] == ' ' {
			continue
		}
		start := i
		for i < len(runes) && runes[i] != ' ' {
			i++
		}
		t.starts = append(t.starts, start)
		words = append(words, strings.ToLower(string(runes[start:i])))
	}
	if len(t.starts) < 3 {
		return nil
	}
	for idx, w := range words[3:] {
		switch {
		case contains(availableHeaders, w):
			t.available = idx + 3
		case contains(sourceHeaders, w):
			t.source = idx + 3
		}
	}
	return t
}

func (t *table) extract(line string) (row, bool) {
	runes := []rune(line)
	if len(runes) <= t.starts[1] {
		return row{}, false
	}
	// aligned rows have a blank before every column; prose lines do not
	for _, start := range t.starts[1:] {
		if start < len(runes) && runes[start-1] != ' ' {
			return row{}, false
		}
	}
	r := row{
		name:    t.cell(runes, 0),
		id:      t.cell(runes, 1),
		version: t.cell(runes, 2),
	}
	if t.available >= 0 {
		r.available = t.cell(runes, t.available)
	}
	if t.source >= 0 {
		r.source = t.cell(runes, t.source)
	}
	if !validPackageID.MatchString(r.id) {
		return row{}, false
	}
	return r, true
}

// cell extracts column i with bounds checking and trims whitespace.
func (t *table) cell(runes []rune, i int) string {
	start := t.starts[i]
	end := len(runes)
	if i+1 < len(t.starts) {
		end = t.starts[i+1]
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return strings.TrimSpace(string(runes[start:end]))
}

// isSeparatorLine checks if a line is a winget table separator (all dashes/spaces).
func isSeparatorLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 10 {
		return false
	}
	for _, ch := range trimmed {
		if ch != '-' && ch != ' ' {
			return false
		}
	}
	return true
}

// cleanLines splits output into lines and drops the progress spinner frames
// winget writes with carriage returns ahead of the real text.
func cleanLines(output string) []string {
	raw := strings.Split(output, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if idx := strings.LastIndex(line, "\r"); idx >= 0 {
			line = line[idx+1:]
		}
		lines = append(lines, line)
	}
	return lines
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func parseListOutput(output string) []InstalledPackage {
	rows := parseTable(output)
	pkgs := make([]InstalledPackage, 0, len(rows))
	for _, r := range rows {
		pkgs = append(pkgs, InstalledPackage{
			Name:      r.name,
			ID:        r.id,
			Version:   r.version,
			Available: r.available,
			Source:    r.source,
		})
	}
	return pkgs
}

func parseUpgradeOutput(output string) []Upgrade {
	rows := parseTable(output)
	ups := make([]Upgrade, 0, len(rows))
	for _, r := range rows {
		if r.available == "" {
			continue
		}
		ups = append(ups, Upgrade{
			Name:      r.name,
			ID:        r.id,
			Version:   r.version,
			Available: r.available,
			Source:    r.source,
		})
	}
	return ups
}
