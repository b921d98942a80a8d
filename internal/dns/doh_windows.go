//go:build windows

package dns

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const dohServersKey = `SYSTEM\CurrentControlSet\Services\Dnscache\Parameters\DohWellKnownServers`

// autoUpgrade=2 lets the resolver upgrade to DoH and fall back to plain DNS.
const autoUpgrade = 2

// RegistryDoH stores templates under the Dnscache DohWellKnownServers key.
type RegistryDoH struct{}

// NewRegistrar returns the registry-backed registrar.
func NewRegistrar() DoHRegistrar { return RegistryDoH{} }

func (RegistryDoH) Register(servers []string, template string) error {
	var errs []error
	for _, ip := range servers {
		if err := registerServer(ip, template); err != nil {
			errs = append(errs, fmt.Errorf("register DoH template for %s: %w", ip, err))
		}
	}
	return errors.Join(errs...)
}

func registerServer(ip, template string) error {
	k, _, err := registry.CreateKey(registry.LOCAL_MACHINE, dohServersKey+`\`+ip, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()

	if err := k.SetStringValue("Template", template); err != nil {
		return err
	}
	return k.SetDWordValue("AutoUpgrade", autoUpgrade)
}

func (RegistryDoH) Unregister(servers []string) error {
	var errs []error
	for _, ip := range servers {
		err := registry.DeleteKey(registry.LOCAL_MACHINE, dohServersKey+`\`+ip)
		if err != nil && !errors.Is(err, registry.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove DoH template for %s: %w", ip, err))
		}
	}
	return errors.Join(errs...)
}

func (RegistryDoH) State(servers []string) (DoHState, error) {
	if len(servers) == 0 {
		return DoHUnknown, nil
	}
	for _, ip := range servers {
		k, err := registry.OpenKey(registry.LOCAL_MACHINE, dohServersKey+`\`+ip, registry.QUERY_VALUE)
		if errors.Is(err, registry.ErrNotExist) {
			return DoHDisabled, nil
		}
		if err != nil {
			return DoHUnknown, err
		}
		tmpl, _, err := k.GetStringValue("Template")
		k.Close()
		if errors.Is(err, registry.ErrNotExist) || tmpl == "" {
			return DoHDisabled, nil
		}
		if err != nil {
			return DoHUnknown, err
		}
	}
	return DoHEnabled, nil
}
