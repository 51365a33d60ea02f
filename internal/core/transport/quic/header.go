package quic

import (
	"fmt"
	"io"

	"github.com/multiformats/go-varint"

	"github.com/dep2p/go-p2pping/pkg/types"
)

// maxProtocolIDLen 协议 ID 最大长度
const maxProtocolIDLen = 1024

// writeHeader 写入流协议头: uvarint(len) || protocolID
func writeHeader(w io.Writer, protocolID types.ProtocolID) error {
	if protocolID.IsEmpty() {
		return types.ErrEmptyProtocolID
	}
	if len(protocolID) > maxProtocolIDLen {
		return fmt.Errorf("%w: protocol ID too long (%d)", ErrInvalidHeader, len(protocolID))
	}

	buf := varint.ToUvarint(uint64(len(protocolID)))
	buf = append(buf, protocolID...)
	_, err := w.Write(buf)
	return err
}

// readHeader 读取流协议头
//
// 逐字节读取长度前缀，不会越过协议头读到上层数据。
func readHeader(r io.Reader) (types.ProtocolID, error) {
	n, err := varint.ReadUvarint(&byteReader{r: r})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if n == 0 || n > maxProtocolIDLen {
		return "", fmt.Errorf("%w: bad length %d", ErrInvalidHeader, n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	return types.ProtocolID(buf), nil
}

// byteReader 将 io.Reader 适配为 io.ByteReader
type byteReader struct {
	r   io.Reader
	buf [1]byte
}

func (b *byteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(b.r, b.buf[:]); err != nil {
		return 0, err
	}
	return b.buf[0], nil
}
