// Command tallyd runs the feature service daemon in the foreground. Most
// users manage it through `tally start` and `tally stop`; this binary suits
// service managers that want a direct child process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tally/internal/config"
	"tally/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override configured log level (debug, info, warn, error)")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tallyd: %v\n", err)
		os.Exit(1)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "tallyd: %v\n", err)
		os.Exit(1)
	}
}
