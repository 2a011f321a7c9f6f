package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/cenkalti/backoff/v5"
	"github.com/samber/lo"

	"github.com/pzhenzhou/respkit/pkg/client"
	"github.com/pzhenzhou/respkit/pkg/common"
)

var (
	logger    = common.InitLogger().WithName("main")
	clientCfg common.ClientConfig
)

func main() {
	ctx := kong.Parse(&clientCfg)
	if err := clientCfg.Validate(); err != nil {
		ctx.FatalIfErrorf(err)
	}

	conn, err := dialWithRetry()
	if err != nil {
		logger.Error(err, "Failed to connect", "Addr", clientCfg.Addr)
		os.Exit(-1)
	}
	logger.Info("Connected", "Addr", clientCfg.Addr, "ConnId", conn.Id)

	signChan := make(chan os.Signal, 1)
	signal.Notify(signChan, os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
	go func() {
		sig := <-signChan
		logger.Info("Received signal, shutting down...", "Sigs", sig)
		conn.Close()
	}()

	repl(conn)

	conn.Close()
	<-conn.Done()
	stats := conn.Stats()
	logger.Info("Connection closed",
		"Submitted", stats.Submitted, "Resolved", stats.Resolved, "Cause", conn.Err())
}

func dialWithRetry() (*client.Conn, error) {
	var opts *client.Options
	if clientCfg.EnableMetrics {
		collector, err := client.NewInmemCollector(client.DefaultMetricsConfig("respkit-cli"))
		if err != nil {
			return nil, err
		}
		opts = &client.Options{ReadBufSize: clientCfg.ReadBufSize, Metrics: collector}
	}
	return backoff.Retry(context.Background(), func() (*client.Conn, error) {
		return client.Dial(&clientCfg, opts)
	}, backoff.WithMaxElapsedTime(clientCfg.MaxDialElapsed))
}

func repl(conn *client.Conn) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Printf("%s> ", clientCfg.Addr)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			fmt.Printf("%s> ", clientCfg.Addr)
			continue
		}
		name := strings.ToUpper(fields[0])
		if name == "QUIT" || name == "EXIT" {
			return
		}
		args := lo.Map(fields[1:], func(arg string, _ int) []byte {
			return []byte(arg)
		})

		waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		value, err := conn.Do(waitCtx, name, args...)
		cancel()
		if err != nil {
			logger.Error(err, "Command failed", "Command", name)
			if conn.Err() != nil {
				return
			}
			fmt.Printf("%s> ", clientCfg.Addr)
			continue
		}
		fmt.Println(value.String())
		fmt.Printf("%s> ", clientCfg.Addr)
	}
}
