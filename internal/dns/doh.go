package dns

// DoHState reports whether DNS-over-HTTPS templates are registered.
type DoHState int

const (
	DoHUnknown DoHState = iota
	DoHEnabled
	DoHDisabled
)

func (s DoHState) String() string {
	switch s {
	case DoHEnabled:
		return "enabled"
	case DoHDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// DoHRegistrar registers DNS-over-HTTPS templates for server addresses.
type DoHRegistrar interface {
	Register(servers []string, template string) error
	Unregister(servers []string) error
	State(servers []string) (DoHState, error)
}
