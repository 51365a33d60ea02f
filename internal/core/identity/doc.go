// Package identity 实现 p2pping 的节点身份
//
// 每个节点持有一对 Ed25519 密钥，节点 ID 由公钥派生：
//
//	PeerID = base58(multihash(sha2-256, 公钥))
//
// 密钥来源：
//   - 随机生成（默认）
//   - 由 64 位种子经 HKDF-SHA256 确定性派生，相同种子得到相同节点 ID，
//     便于在测试和演示中固定监听方的连接串
//
// 身份仅驻留内存，不做持久化。
//
// # Fx 模块
//
//	app := fx.New(
//	    fx.Supply(cfg),
//	    identity.Module(),
//	    fx.Invoke(func(id *identity.Identity) {
//	        fmt.Println(id.ID())
//	    }),
//	)
package identity
