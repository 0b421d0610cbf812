package socket

import (
	"log/slog"
	"media-net/network"
	ipv4 "media-net/network/ip/v4"
	"media-net/transport"
	"net"
	"strconv"
)

// Endpoint is an IPv4 address and a port.
type Endpoint struct {
	IP   ipv4.Addr
	Port uint16
}

var _ transport.Addr = Endpoint{}

func NewEndpoint(ip ipv4.Addr, port uint16) Endpoint { return Endpoint{IP: ip, Port: port} }

func (e Endpoint) NetworkAddr() network.Addr { return e.IP }
func (e Endpoint) Identifier() any           { return e.Port }

func (e Endpoint) String() string {
	return e.IP.String() + ":" + strconv.FormatUint(uint64(e.Port), 10)
}

// addrAttr logs a as its network address and identifier.
func addrAttr(key string, a transport.Addr) slog.Attr {
	return slog.Group(key, "ip", a.NetworkAddr().String(), "port", a.Identifier())
}

func (e Endpoint) tcpAddr() *net.TCPAddr { return &net.TCPAddr{IP: e.IP.NetIP(), Port: int(e.Port)} }
func (e Endpoint) udpAddr() *net.UDPAddr { return &net.UDPAddr{IP: e.IP.NetIP(), Port: int(e.Port)} }

func endpointOf(addr net.Addr) Endpoint {
	var (
		ip   net.IP
		port int
	)
	switch addr := addr.(type) {
	case *net.TCPAddr:
		ip, port = addr.IP, addr.Port
	case *net.UDPAddr:
		ip, port = addr.IP, addr.Port
	default:
		return Endpoint{}
	}

	v4, _ := ipv4.AddrFromIP(ip)
	return Endpoint{IP: v4, Port: uint16(port)}
}
