package executor

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Windows console tools write in the OEM code page, which is cp866 on
// Russian installs and cp437 on US ones.
var codePages = map[string]encoding.Encoding{
	"cp866":        charmap.CodePage866,
	"ibm866":       charmap.CodePage866,
	"cp437":        charmap.CodePage437,
	"cp850":        charmap.CodePage850,
	"cp1251":       charmap.Windows1251,
	"windows-1251": charmap.Windows1251,
	"cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
}

// SupportedEncoding reports whether name is a known code page (or utf-8).
func SupportedEncoding(name string) bool {
	n := normalizeEncoding(name)
	if n == "" || n == "utf-8" || n == "utf8" {
		return true
	}
	_, ok := codePages[n]
	return ok
}

func decode(b []byte, name string) string {
	enc, ok := codePages[normalizeEncoding(name)]
	if !ok {
		return string(b)
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

func normalizeEncoding(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
