package common

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// Memory-related constants
	_  = iota
	KB = 1 << (10 * iota)
	MB
	GB
)

const (
	ClientRuntime = "RESPKIT_RUNTIME"
)

func RawZapLogger() *zap.Logger {
	logConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(zap.DebugLevel),
		Development:       true,
		DisableCaller:     false,
		DisableStacktrace: false,
		Encoding:          "console",
		OutputPaths: []string{
			"stderr",
		},
		ErrorOutputPaths: []string{
			"stderr",
		},
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	if IsProdRuntime() {
		logConfig.Development = false
		logConfig.Encoding = "json"
		logConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		encoderCfg = zap.NewProductionEncoderConfig()
	}
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	logConfig.EncoderConfig = encoderCfg
	zapLogger, initLogErr := logConfig.Build()
	if initLogErr != nil {
		panic(fmt.Sprintf("Failed to initialize zap logger %v", initLogErr))
	}
	return zapLogger
}

func InitLogger() logr.Logger {
	zapLogger := RawZapLogger()
	return zapr.NewLogger(zapLogger)
}

func IsProdRuntime() bool {
	runEvnVal, hasEnv := os.LookupEnv(ClientRuntime)
	if hasEnv {
		return strings.Compare(strings.ToLower(runEvnVal), "prod") == 0
	} else {
		return false
	}
}

func IsConnUnavailable(err error) bool {
	if err == nil {
		return false
	}
	// Check for common connection closed errors
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		// Check for specific network errors
		if netErr.Err != nil {
			errMsg := netErr.Err.Error()
			return strings.Contains(errMsg, "use of closed network connection") ||
				strings.Contains(errMsg, "connection reset by peer") ||
				strings.Contains(errMsg, "broken pipe") ||
				strings.Contains(errMsg, "connection refused")
		}
		return netErr.Op == "read" || netErr.Op == "write" || netErr.Op == "dial"
	}
	var syscallErr *os.SyscallError
	if errors.As(err, &syscallErr) {
		return errors.Is(syscallErr.Err, syscall.ECONNREFUSED) ||
			errors.Is(syscallErr.Err, syscall.ECONNRESET) ||
			errors.Is(syscallErr.Err, syscall.EPIPE)
	}
	return false
}
