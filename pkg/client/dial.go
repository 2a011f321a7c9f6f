package client

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/pzhenzhou/respkit/pkg/common"
)

// Dial establishes the transport for one connection: a TCP socket, wrapped
// in TLS when configured, handshaken before any protocol bytes are sent.
// Reconnection is not attempted here; callers that want retry layer it on
// top (see cmd/respkit-cli).
func Dial(cfg *common.ClientConfig, opts *Options) (*Conn, error) {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.Dial("tcp", cfg.Addr)
	if err != nil {
		logger.Error(err, "Failed to dial server", "Addr", cfg.Addr)
		return nil, err
	}
	if tlsCfg := cfg.TLSConfig(); tlsCfg != nil {
		tlsConn := tls.Client(conn, tlsCfg)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
		defer cancel()
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			logger.Error(err, "TLS handshake failed", "Addr", cfg.Addr)
			return nil, err
		}
		conn = tlsConn
	}
	if opts == nil {
		opts = &Options{ReadBufSize: cfg.ReadBufSize}
	}
	return NewConn(conn, opts), nil
}
