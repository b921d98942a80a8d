package netcfg

// Labels is the set of localized strings the ipconfig parser matches.
// Matching is case-insensitive substring matching.
type Labels struct {
	// AdapterKeywords mark a section header and precede the adapter name
	// ("Ethernet adapter Ethernet 2:", "Адаптер Ethernet Ethernet:").
	AdapterKeywords []string
	// TypePrefixes are stripped from the text after a header-leading
	// keyword, where the locale puts the adapter type before the name.
	TypePrefixes []string
	Gateway      []string
	IPv4         []string
}

// English matches ipconfig on en-US Windows.
var English = Labels{
	AdapterKeywords: []string{"adapter"},
	Gateway:         []string{"default gateway"},
	IPv4:            []string{"ipv4 address", "ip address"},
}

// Russian matches ipconfig on ru-RU Windows.
var Russian = Labels{
	AdapterKeywords: []string{"адаптер"},
	TypePrefixes: []string{
		"беспроводной локальной сети",
		"ethernet",
		"ppp",
		"туннельный",
	},
	Gateway: []string{"основной шлюз", "шлюз"},
	IPv4:    []string{"ipv4-адрес", "ip-адрес"},
}

// German matches ipconfig on de-DE Windows ("Ethernet-Adapter Ethernet:").
var German = Labels{
	AdapterKeywords: []string{"adapter"},
	Gateway:         []string{"standardgateway"},
	IPv4:            []string{"ipv4-adresse", "ip-adresse"},
}

// DefaultLabels merges every built-in locale.
var DefaultLabels = Merge(English, Russian, German)

// Merge concatenates label sets, dropping duplicates.
func Merge(sets ...Labels) Labels {
	var out Labels
	for _, s := range sets {
		out.AdapterKeywords = appendUnique(out.AdapterKeywords, s.AdapterKeywords...)
		out.TypePrefixes = appendUnique(out.TypePrefixes, s.TypePrefixes...)
		out.Gateway = appendUnique(out.Gateway, s.Gateway...)
		out.IPv4 = appendUnique(out.IPv4, s.IPv4...)
	}
	return out
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range dst {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
