package quic

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	"github.com/dep2p/go-p2pping/internal/core/identity"
	"github.com/dep2p/go-p2pping/pkg/types"
)

// alpn QUIC 握手使用的应用层协议标识
const alpn = "p2pping"

// certValidity 自签名证书有效期
const certValidity = 180 * 24 * time.Hour

// newTLSConfigs 从身份生成服务端与客户端 TLS 配置
//
// 证书直接由身份私钥签名，节点 ID 可从证书公钥派生，无法伪造。
// 标准 CA 校验被关闭，身份校验由 verifyPeerCertificate 完成。
func newTLSConfigs(id *identity.Identity) (server, client *tls.Config, err error) {
	if id == nil {
		return nil, nil, identity.ErrNilIdentity
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: big.NewInt(now.UnixNano()),
		Subject: pkix.Name{
			Organization: []string{"p2pping"},
			CommonName:   id.ID().String(),
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, id.PublicKey(), id.PrivateKey())
	if err != nil {
		return nil, nil, fmt.Errorf("创建证书失败: %w", err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  id.PrivateKey(),
	}

	server = &tls.Config{
		Certificates:          []tls.Certificate{cert},
		NextProtos:            []string{alpn},
		InsecureSkipVerify:    true,
		ClientAuth:            tls.RequireAnyClientCert,
		VerifyPeerCertificate: verifyPeerCertificate,
		MinVersion:            tls.VersionTLS13,
	}

	client = server.Clone()
	client.ClientAuth = tls.NoClientCert

	return server, client, nil
}

// verifyPeerCertificate 验证对端证书
//
// 证书必须可解析、在有效期内，且公钥为 Ed25519。
func verifyPeerCertificate(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return ErrNoCertificate
	}

	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("解析证书失败: %w", err)
	}

	if _, err := peerIDFromCert(cert); err != nil {
		return err
	}

	now := time.Now()
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("证书尚未生效: NotBefore=%v", cert.NotBefore)
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("证书已过期: NotAfter=%v", cert.NotAfter)
	}
	return nil
}

// peerIDFromCert 从证书公钥派生节点 ID
func peerIDFromCert(cert *x509.Certificate) (types.PeerID, error) {
	pub, ok := cert.PublicKey.(ed25519.PublicKey)
	if !ok {
		return types.EmptyPeerID, fmt.Errorf("不支持的公钥类型: %T", cert.PublicKey)
	}
	return types.PeerIDFromPublicKey(pub), nil
}

// ExtractPeerID 从 TLS 连接状态中提取对端节点 ID
func ExtractPeerID(state tls.ConnectionState) (types.PeerID, error) {
	if len(state.PeerCertificates) == 0 {
		return types.EmptyPeerID, ErrNoCertificate
	}
	return peerIDFromCert(state.PeerCertificates[0])
}
