package main

import (
	"os"

	"github.com/3Eeeecho/go-datahub/cmd/datahub/cmd"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// CLI 只在终端输出警告以上的日志
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	if l, err := cfg.Build(); err == nil {
		logger.SetLogger(l)
	}
	err := cmd.NewRootCmd().Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
