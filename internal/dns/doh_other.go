//go:build !windows

package dns

type noopRegistrar struct{}

// NewRegistrar returns a registrar that does nothing outside Windows.
func NewRegistrar() DoHRegistrar { return noopRegistrar{} }

func (noopRegistrar) Register([]string, string) error { return nil }
func (noopRegistrar) Unregister([]string) error       { return nil }
func (noopRegistrar) State([]string) (DoHState, error) {
	return DoHUnknown, nil
}
