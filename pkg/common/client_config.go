package common

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

type TLSOptions struct {
	Enable     bool   `help:"Enable TLS for the connection" name:"enable" default:"false"`
	ServerName string `help:"Server name used for certificate verification. Defaults to the dial host." name:"server-name"`
	Insecure   bool   `help:"Skip certificate verification. Testing only." name:"insecure" default:"false"`
}

type ClientConfig struct {
	Addr           string        `help:"Address of the RESP server (host:port)" name:"addr" default:"127.0.0.1:6379"`
	DialTimeout    time.Duration `help:"Timeout for establishing the connection" name:"dial-timeout" default:"5s"`
	MaxDialElapsed time.Duration `help:"Give up dialing after this much total retry time" name:"max-dial-elapsed" default:"30s"`
	ReadBufSize    int           `help:"Size of the transport read buffer in bytes" name:"read-buf" default:"8192"`
	EnableMetrics  bool          `help:"Enable in-memory metrics collection" name:"metrics" default:"false"`
	TLS            TLSOptions    `embed:"" prefix:"tls."`
}

func (c *ClientConfig) Endpoint() (string, int, error) {
	parts := strings.Split(c.Addr, ":")
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("invalid server address: %s", c.Addr)
	}
	host := parts[0]
	port, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, fmt.Errorf("invalid server port: %s", parts[1])
	}
	return host, port, nil
}

func (c *ClientConfig) Validate() error {
	if _, _, err := c.Endpoint(); err != nil {
		return err
	}
	if c.ReadBufSize <= 0 {
		return fmt.Errorf("invalid read buffer size: %d", c.ReadBufSize)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("invalid dial timeout: %s", c.DialTimeout)
	}
	return nil
}

func (c *ClientConfig) TLSConfig() *tls.Config {
	if !c.TLS.Enable {
		return nil
	}
	serverName := c.TLS.ServerName
	if serverName == "" {
		host, _, err := net.SplitHostPort(c.Addr)
		if err == nil {
			serverName = host
		}
	}
	return &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: c.TLS.Insecure,
	}
}
