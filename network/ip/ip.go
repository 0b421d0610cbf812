package ip

import "media-net/network"

type Addr interface {
	network.Addr

	Version() uint
}
