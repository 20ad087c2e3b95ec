package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wirekit/wirectl/internal/config"
	"github.com/wirekit/wirectl/internal/daemon"
	"github.com/wirekit/wirectl/internal/logging"
)

func main() {
	configPath := flag.String("config", "wirectl.toml", "path to the daemon config")
	initConfig := flag.Bool("init-config", false, "write a starter config and exit")
	overwrite := flag.Bool("overwrite", false, "allow -init-config to replace an existing file")
	flag.Parse()

	logging.ConfigureRuntime()

	if *initConfig {
		if err := config.WriteTemplate(*configPath, *overwrite); err != nil {
			fmt.Fprintf(os.Stderr, "wirectl: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *configPath)
		return
	}

	cfg, err := config.LoadDaemonConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wirectl: %v\n", err)
		os.Exit(1)
	}

	if err := daemon.NewService(cfg).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "wirectl: %v\n", err)
		os.Exit(1)
	}
}
