package netcfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const englishTwoAdapters = `
Windows IP Configuration


Ethernet adapter Ethernet:

   Connection-specific DNS Suffix  . : lan
   Link-local IPv6 Address . . . . . : fe80::1c2d:3e4f:5a6b:7c8d%12
   IPv4 Address. . . . . . . . . . . : 192.168.1.20
   Subnet Mask . . . . . . . . . . . : 255.255.255.0
   Default Gateway . . . . . . . . . : 192.168.1.1

Wireless LAN adapter Wi-Fi:

   Media State . . . . . . . . . . . : Media disconnected
   Connection-specific DNS Suffix  . :
`

func TestParseEnglish(t *testing.T) {
	adapters := NewIpconfigParser().Parse(englishTwoAdapters)
	require.Len(t, adapters, 2)

	assert.Equal(t, Adapter{Name: "Ethernet", HasGateway: true, HasIPv4: true}, adapters[0])
	assert.Equal(t, Adapter{Name: "Wi-Fi"}, adapters[1])
}

func TestParseGatewayOnContinuationLine(t *testing.T) {
	out := "Ethernet adapter Ethernet 2:\r\n\r\n" +
		"   IPv4 Address. . . . . . . . . . . : 10.0.0.5\r\n" +
		"   Default Gateway . . . . . . . . . :\r\n" +
		"                                       10.0.0.1\r\n"

	adapters := NewIpconfigParser().Parse(out)
	require.Len(t, adapters, 1)
	assert.Equal(t, "Ethernet 2", adapters[0].Name)
	assert.True(t, adapters[0].HasGateway)
}

func TestParseBlankGatewayNotMarked(t *testing.T) {
	out := `Ethernet adapter Ethernet:

   IPv4 Address. . . . . . . . . . . : 10.0.0.5
   Default Gateway . . . . . . . . . :

Ethernet adapter VirtualBox Host-Only Network:

   IPv4 Address. . . . . . . . . . . : 192.168.56.1
`
	adapters := NewIpconfigParser().Parse(out)
	require.Len(t, adapters, 2)
	assert.False(t, adapters[0].HasGateway)
	assert.True(t, adapters[0].HasIPv4)
}

func TestParseGatewayFollowedByLabelNotMarked(t *testing.T) {
	out := `Ethernet adapter Ethernet:

   Default Gateway . . . . . . . . . :
   DHCP Server . . . . . . . . . . . : 192.168.1.1
`
	adapters := NewIpconfigParser().Parse(out)
	require.Len(t, adapters, 1)
	assert.False(t, adapters[0].HasGateway)
}

func TestParseRussian(t *testing.T) {
	out := `
Настройка протокола IP для Windows


Адаптер Ethernet Ethernet:

   DNS-суффикс подключения . . . . . :
   IPv4-адрес. . . . . . . . . . . . : 192.168.0.101
   Маска подсети . . . . . . . . . . : 255.255.255.0
   Основной шлюз. . . . . . . . . : 192.168.0.1

Адаптер беспроводной локальной сети Беспроводная сеть:

   Состояние среды. . . . . . . . : Среда передачи недоступна.
`
	adapters := NewIpconfigParser().Parse(out)
	require.Len(t, adapters, 2)
	assert.Equal(t, Adapter{Name: "Ethernet", HasGateway: true, HasIPv4: true}, adapters[0])
	assert.Equal(t, "Беспроводная сеть", adapters[1].Name)
	assert.False(t, adapters[1].HasGateway)
}

func TestParseGerman(t *testing.T) {
	out := `Ethernet-Adapter Ethernet:

   IPv4-Adresse  . . . . . . . . . . : 192.168.178.20
   Standardgateway . . . . . . . . . : 192.168.178.1
`
	adapters := NewIpconfigParser(German).Parse(out)
	require.Len(t, adapters, 1)
	assert.Equal(t, Adapter{Name: "Ethernet", HasGateway: true, HasIPv4: true}, adapters[0])
}

func TestParseIgnoresRowsBeforeFirstHeader(t *testing.T) {
	out := `   Default Gateway . . . . . . . . . : 10.0.0.1
Ethernet adapter LAN:
`
	adapters := NewIpconfigParser().Parse(out)
	require.Len(t, adapters, 1)
	assert.False(t, adapters[0].HasGateway)
}

func TestParseEmpty(t *testing.T) {
	assert.Empty(t, NewIpconfigParser().Parse(""))
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		adapters []Adapter
		want     string
		wantOK   bool
	}{
		{
			name:     "first gateway wins",
			adapters: []Adapter{{Name: "A", HasGateway: true}, {Name: "B", HasGateway: true}},
			want:     "A",
			wantOK:   true,
		},
		{
			name:     "gateway beats earlier ipv4",
			adapters: []Adapter{{Name: "Ethernet", HasIPv4: true}, {Name: "Wi-Fi", HasGateway: true, HasIPv4: true}},
			want:     "Wi-Fi",
			wantOK:   true,
		},
		{
			name:     "ipv4 fallback",
			adapters: []Adapter{{Name: "A"}, {Name: "B", HasIPv4: true}, {Name: "C", HasIPv4: true}},
			want:     "B",
			wantOK:   true,
		},
		{
			name:     "none",
			adapters: []Adapter{{Name: "A"}},
		},
		{
			name: "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Select(tt.adapters)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeepsNumberedEnglishName(t *testing.T) {
	adapters := NewIpconfigParser().Parse("Ethernet adapter Ethernet 2:\n")
	require.Len(t, adapters, 1)
	assert.Equal(t, "Ethernet 2", adapters[0].Name)
}
