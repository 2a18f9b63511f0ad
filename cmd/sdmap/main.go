package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/sdmap/internal/cli"
	"github.com/temirov/sdmap/internal/utils"
)

// main is the entry point for the sdmap command.
func main() {
	logLevel := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(logLevel)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	applicationExecutionError := cli.Execute(ctx, cli.Dependencies{Logger: loggerInstance, LogLevel: &logLevel})
	if applicationExecutionError != nil {
		stop()
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
