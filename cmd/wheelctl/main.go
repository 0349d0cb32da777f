package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/config"
	"github.com/spf13/afero"
)

func main() {
	// operator output goes to stdout; only warnings and errors are logged
	appLogger, err := logger.NewZapLogger(logger.Options{Format: "console", Level: "warn"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = appLogger.Flush() }()

	root := newRootCmd(&cli{
		fs:         afero.NewOsFs(),
		loadConfig: config.LoadConfig,
		logger:     appLogger,
	})
	if err := root.Execute(); err != nil {
		_ = appLogger.Flush()
		os.Exit(1)
	}
}
