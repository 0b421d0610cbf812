package ipv4

import (
	"encoding/binary"
	"media-net/network/ip"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Addr is an IPv4 address in network byte order.
type Addr [4]byte

var (
	Any       = Addr{0, 0, 0, 0}
	LocalHost = Addr{127, 0, 0, 1}
	Broadcast = Addr{255, 255, 255, 255}
)

var _ ip.Addr = Addr{}

func New(a, b, c, d byte) Addr { return Addr{a, b, c, d} }

// AddrFromUint32 builds an address from its integer form, 0x7F000001 being 127.0.0.1.
func AddrFromUint32(u32 uint32) Addr {
	var addr Addr
	binary.BigEndian.PutUint32(addr[:], u32)
	return addr
}

// AddrFromIP converts ip to Addr. ok is false when ip is not an IPv4 address.
func AddrFromIP(ip net.IP) (addr Addr, ok bool) {
	v4 := ip.To4()
	if v4 == nil {
		return Addr{}, false
	}
	copy(addr[:], v4)
	return addr, true
}

func ParseAddr(s string) (Addr, error) {
	digits := strings.Split(s, ".")
	if len(digits) != 4 {
		return Addr{}, errors.New("digits are not properly seperated")
	}

	var addr Addr
	for idx, digit := range digits {
		n, err := strconv.ParseUint(digit, 10, 8)
		if err != nil {
			return Addr{}, errors.Wrap(err, "failed to parse a part into digit")
		}

		if digit[0] == '0' && !(n == 0 && len(digit) == 1) {
			// '00', '01'
			return Addr{}, errors.New("leading zero is not allowed in digit")
		}
		addr[idx] = byte(n)
	}

	return addr, nil
}

func (a Addr) ToUint32() uint32 { return binary.BigEndian.Uint32(a[:]) }
func (a Addr) Version() uint    { return 4 }
func (a Addr) Raw() []byte      { return a[:] }
func (a Addr) IsAny() bool      { return a == Any }

// NetIP returns a copy of the address usable with package net.
func (a Addr) NetIP() net.IP { return net.IPv4(a[0], a[1], a[2], a[3]) }

func (a Addr) String() string {
	var b strings.Builder
	for idx, digit := range a {
		if idx > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(digit), 10))
	}
	return b.String()
}
