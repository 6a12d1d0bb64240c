package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/KAIMAN-iOS/KStorage/internal/config"
	"github.com/KAIMAN-iOS/KStorage/pkg/cache"
	"github.com/KAIMAN-iOS/KStorage/pkg/lifecycle"
	"github.com/KAIMAN-iOS/KStorage/pkg/logging"
)

func main() {
	var (
		configPath = flag.String("config", config.DefaultConfigFile, "path to config file")
		root       = flag.String("root", "", "storage root directory (overrides config)")
		exportName = flag.String("export", "", "export name for blob-put and temp")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *root != "" {
		cfg.Cache.Storage.BasePath = *root
	}
	if err := cfg.Finalize(); err != nil {
		log.Fatalf("config finalize failed: %v", err)
	}

	logger := logging.New(&cfg.Logging)

	c, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		log.Fatalf("cache init failed: %v", err)
	}

	lc := lifecycle.New()
	if err := c.Start(lc); err != nil {
		log.Fatalf("cache start failed: %v", err)
	}
	lc.WaitForStartup()

	cmdErr := run(context.Background(), c, flag.Arg(0), flag.Args()[1:], *exportName)

	if err := lc.Shutdown(5 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}

	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: kstorage [flags] <command> [args]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  save <key> <json>       store a value through the configured codec")
	fmt.Fprintln(os.Stderr, "  load <key>              read a value and print it as JSON")
	fmt.Fprintln(os.Stderr, "  put <key> <text>        store raw text, bypassing the codec")
	fmt.Fprintln(os.Stderr, "  get <key>               print raw stored bytes")
	fmt.Fprintln(os.Stderr, "  blob-put <key> <file>   store a file's bytes as a blob")
	fmt.Fprintln(os.Stderr, "  blob-get <key> [file]   write a blob to file, or stdout")
	fmt.Fprintln(os.Stderr, "  temp <file>             store a file under a fresh temporary key")
	fmt.Fprintln(os.Stderr, "  delete <key>            remove a stored entry")
	fmt.Fprintln(os.Stderr, "  keys                    list stored keys")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "flags:")
	flag.PrintDefaults()
}
