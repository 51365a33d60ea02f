package identity

import "errors"

var (
	// ErrInvalidKeySize 无效的密钥大小
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrNilIdentity 身份为空
	ErrNilIdentity = errors.New("identity is nil")
)
