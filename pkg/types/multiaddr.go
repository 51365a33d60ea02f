package types

import (
	"fmt"
	"net"
	"strconv"

	ma "github.com/multiformats/go-multiaddr"
)

// ParseMultiaddr 解析 multiaddr 字符串
func ParseMultiaddr(s string) (ma.Multiaddr, error) {
	addr, err := ma.NewMultiaddr(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidMultiaddr, s, err)
	}
	return addr, nil
}

// SplitPeerID 将地址拆分为传输地址与 /p2p/ 节点 ID
//
//	/ip4/1.2.3.4/udp/4001/quic-v1/p2p/Qm... -> (/ip4/1.2.3.4/udp/4001/quic-v1, Qm...)
func SplitPeerID(addr ma.Multiaddr) (ma.Multiaddr, PeerID, error) {
	value, err := addr.ValueForProtocol(ma.P_P2P)
	if err != nil {
		return nil, EmptyPeerID, fmt.Errorf("%w: %s", ErrMissingPeerID, addr)
	}

	id, err := ParsePeerID(value)
	if err != nil {
		return nil, EmptyPeerID, err
	}

	p2p, err := ma.NewMultiaddr("/p2p/" + value)
	if err != nil {
		return nil, EmptyPeerID, fmt.Errorf("%w: %v", ErrInvalidMultiaddr, err)
	}
	return addr.Decapsulate(p2p), id, nil
}

// WithPeerID 在传输地址后追加 /p2p/<id>
func WithPeerID(addr ma.Multiaddr, id PeerID) (ma.Multiaddr, error) {
	p2p, err := ma.NewMultiaddr("/p2p/" + id.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMultiaddr, err)
	}
	return addr.Encapsulate(p2p), nil
}

// ToUDPAddr 将 /ip4|ip6/<ip>/udp/<port>/quic-v1 转换为 UDP 地址
//
// 不做域名解析，dns 类地址返回 ErrUnsupportedAddress。
func ToUDPAddr(addr ma.Multiaddr) (*net.UDPAddr, error) {
	protos := addr.Protocols()
	if len(protos) != 3 ||
		(protos[0].Code != ma.P_IP4 && protos[0].Code != ma.P_IP6) ||
		protos[1].Code != ma.P_UDP ||
		protos[2].Code != ma.P_QUIC_V1 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAddress, addr)
	}

	ipStr, err := addr.ValueForProtocol(protos[0].Code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMultiaddr, err)
	}
	portStr, err := addr.ValueForProtocol(ma.P_UDP)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMultiaddr, err)
	}

	ip := net.ParseIP(ipStr)
	port, err := strconv.Atoi(portStr)
	if ip == nil || err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMultiaddr, addr)
	}
	return &net.UDPAddr{IP: ip, Port: port}, nil
}

// FromUDPAddr 将 UDP 地址转换为 QUIC multiaddr
func FromUDPAddr(a *net.UDPAddr) (ma.Multiaddr, error) {
	if a == nil {
		return nil, ErrInvalidMultiaddr
	}
	if ip4 := a.IP.To4(); ip4 != nil {
		return ma.NewMultiaddr(fmt.Sprintf("/ip4/%s/udp/%d/quic-v1", ip4, a.Port))
	}
	if a.IP.To16() != nil {
		return ma.NewMultiaddr(fmt.Sprintf("/ip6/%s/udp/%d/quic-v1", a.IP, a.Port))
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidMultiaddr, a)
}

// IsUnspecified 检查地址是否为 0.0.0.0 或 ::
func IsUnspecified(addr ma.Multiaddr) bool {
	udp, err := ToUDPAddr(addr)
	return err == nil && udp.IP.IsUnspecified()
}
