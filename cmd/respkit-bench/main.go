package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/cenkalti/backoff/v5"

	"github.com/pzhenzhou/respkit/pkg/client"
	"github.com/pzhenzhou/respkit/pkg/common"
	"github.com/pzhenzhou/respkit/pkg/respwire"
)

var logger = common.InitLogger().WithName("bench")

type benchConfig struct {
	Client    common.ClientConfig `embed:""`
	Requests  int                 `help:"Total number of commands to send" default:"100000"`
	Pipeline  int                 `help:"Commands kept in flight before draining" default:"128"`
	ValueSize int                 `help:"Size of the SET payload in bytes" default:"64"`
}

func main() {
	var cfg benchConfig
	ctx := kong.Parse(&cfg)
	if err := cfg.Client.Validate(); err != nil {
		ctx.FatalIfErrorf(err)
	}
	if cfg.Pipeline <= 0 || cfg.Requests <= 0 || cfg.ValueSize <= 0 {
		ctx.FatalIfErrorf(fmt.Errorf("requests, pipeline and value-size must be positive"))
	}

	conn, err := backoff.Retry(context.Background(), func() (*client.Conn, error) {
		return client.Dial(&cfg.Client, nil)
	}, backoff.WithMaxElapsedTime(cfg.Client.MaxDialElapsed))
	if err != nil {
		logger.Error(err, "Failed to connect", "Addr", cfg.Client.Addr)
		os.Exit(-1)
	}
	defer conn.Close()

	payload := make([]byte, cfg.ValueSize)
	for i := range payload {
		payload[i] = 'x'
	}

	logger.Info("Starting benchmark",
		"Addr", cfg.Client.Addr, "Requests", cfg.Requests,
		"Pipeline", cfg.Pipeline, "ValueSize", cfg.ValueSize)

	start := time.Now()
	serverErrors, err := run(conn, cfg, payload)
	if err != nil {
		logger.Error(err, "Benchmark aborted", "Cause", conn.Err())
		os.Exit(-1)
	}
	elapsed := time.Since(start)

	stats := conn.Stats()
	logger.Info("Benchmark complete",
		"Elapsed", elapsed,
		"OpsPerSec", fmt.Sprintf("%.0f", float64(cfg.Requests)/elapsed.Seconds()),
		"Submitted", stats.Submitted,
		"Resolved", stats.Resolved,
		"ServerErrors", serverErrors)
}

// run drives Requests SET commands through the connection, keeping at most
// Pipeline of them in flight. Replies are drained window by window so the
// benchmark measures pipelined throughput, not round trips.
func run(conn *client.Conn, cfg benchConfig, payload []byte) (int, error) {
	waitCtx := context.Background()
	serverErrors := 0
	window := make([]*client.Pending, 0, cfg.Pipeline)

	drain := func() error {
		for _, p := range window {
			v, err := p.Wait(waitCtx)
			if err != nil {
				return err
			}
			if v.Type == respwire.RespError {
				serverErrors++
			}
		}
		window = window[:0]
		return nil
	}

	for i := 0; i < cfg.Requests; i++ {
		key := fmt.Sprintf("bench_%d_%d", time.Now().UnixMilli(), i)
		window = append(window, conn.Submit("SET", []byte(key), payload))
		if len(window) == cfg.Pipeline {
			if err := drain(); err != nil {
				return serverErrors, err
			}
		}
	}
	return serverErrors, drain()
}
