package host

import (
	"net"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-p2pping/pkg/types"
)

// ShareableAddrs 返回可分享给对端的完整地址（带 /p2p/ 后缀）
//
// 监听在 0.0.0.0 或 :: 上的地址会被展开为本机各网卡地址。
func (h *Host) ShareableAddrs() []ma.Multiaddr {
	return shareableAddrs(h.Addrs(), h.ID(), interfaceIPs)
}

func shareableAddrs(listen []ma.Multiaddr, id types.PeerID, ips func() []net.IP) []ma.Multiaddr {
	var out []ma.Multiaddr
	for _, addr := range listen {
		for _, expanded := range expandUnspecified(addr, ips) {
			full, err := types.WithPeerID(expanded, id)
			if err != nil {
				continue
			}
			out = append(out, full)
		}
	}
	return out
}

// expandUnspecified 将未指定地址展开为同族的具体地址
func expandUnspecified(addr ma.Multiaddr, ips func() []net.IP) []ma.Multiaddr {
	udp, err := types.ToUDPAddr(addr)
	if err != nil || !udp.IP.IsUnspecified() {
		return []ma.Multiaddr{addr}
	}

	wantV4 := udp.IP.To4() != nil
	var out []ma.Multiaddr
	for _, ip := range ips() {
		if (ip.To4() != nil) != wantV4 {
			continue
		}
		expanded, err := types.FromUDPAddr(&net.UDPAddr{IP: ip, Port: udp.Port})
		if err == nil {
			out = append(out, expanded)
		}
	}
	if len(out) == 0 {
		return []ma.Multiaddr{addr}
	}
	return out
}

// interfaceIPs 返回本机网卡地址（跳过链路本地地址）
func interfaceIPs() []net.IP {
	ifaddrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}

	var ips []net.IP
	for _, a := range ifaddrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLinkLocalUnicast() {
			continue
		}
		ips = append(ips, ipnet.IP)
	}
	return ips
}
