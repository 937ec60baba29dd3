// Command gopherd serves a local directory as a Gopher protocol (RFC
// 1436) hierarchy: gopherd [-config path] <docroot>.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sandwichfarm/gopherd/internal/config"
	"github.com/sandwichfarm/gopherd/internal/gopher"
	"github.com/sandwichfarm/gopherd/internal/ops"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		handleInit()
		return
	}

	configPath := flag.String("config", "", "Path to a YAML configuration file")
	flag.Parse()

	prog := filepath.Base(os.Args[0])
	args := flag.Args()
	if len(args) < 1 {
		fmt.Printf("usage: %s docroot\n", prog)
		os.Exit(1)
	}
	docroot := args[0]

	info, err := os.Stat(docroot)
	if err != nil || !info.IsDir() {
		fmt.Printf("ERROR: Document root path '%s' doesn't exist.\n", docroot)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
	}

	absDocroot, err := filepath.Abs(docroot)
	if err != nil {
		absDocroot = docroot
	}

	logger := ops.NewLogger(&cfg.Logging)

	srv := gopher.New(cfg, absDocroot, logger)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGHUP)

	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			sys, conn := srv.Diagnostics()
			logger.LogDiagnostics(sys, conn)
			continue
		}
		break
	}

	srv.Stop()
	os.Exit(0)
}

func handleInit() {
	data, err := config.GetExampleConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading example config: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(string(data))
}
