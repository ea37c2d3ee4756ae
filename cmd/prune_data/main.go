package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/aviary/config"
	"github.com/example/aviary/internal/influx"
)

// Prunes old cage dump files from the data directory, and optionally the
// mirrored InfluxDB points. The daemon re-creates a file every few minutes,
// so without this the SD card on the cage's Pi eventually fills up.
func main() {
	configPath := flag.String("config", "", "Path to the YAML config file (optional, env vars override)")
	olderThan := flag.Duration("older_than", 30*24*time.Hour, "Delete dump files older than this")
	pruneInflux := flag.Bool("influx", false, "Also prune the InfluxDB mirror")
	dryRun := flag.Bool("dry_run", false, "List what would be deleted without deleting")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed loading configuration: %v", err)
	}

	cutoff := time.Now().Add(-*olderThan)
	fmt.Printf("Pruning cage dumps in %s older than %s\n", cfg.DataOutputBasePath, cutoff.Format(time.RFC3339))

	entries, err := os.ReadDir(cfg.DataOutputBasePath)
	if err != nil {
		log.Fatalf("Failed reading the data directory: %v", err)
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "cage_") || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Printf("Skipping %s: %v", entry.Name(), err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(cfg.DataOutputBasePath, entry.Name())
		if *dryRun {
			fmt.Printf("Would delete %s (from %s)\n", path, info.ModTime().Format(time.RFC3339))
			deleted++
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Printf("Failed deleting %s: %v", path, err)
			continue
		}
		fmt.Printf("Deleted %s\n", path)
		deleted++
	}
	fmt.Printf("Done, %d dump files pruned\n", deleted)

	if !*pruneInflux {
		return
	}
	if *dryRun {
		fmt.Println("Dry run, skipping the InfluxDB mirror")
		return
	}

	writer := influx.NewAggregateWriter(cfg.InfluxDBURL, cfg.InfluxDBToken, cfg.InfluxDBOrg, cfg.InfluxDBBucket, string(cfg.CageID), cfg.BirdName)
	defer writer.Close()

	fmt.Printf("Pruning InfluxDB mirror at %s before %s\n", cfg.InfluxDBURL, cutoff.Format(time.RFC3339))
	if err := writer.DeleteBefore(cutoff); err != nil {
		log.Fatalf("Failed pruning the InfluxDB mirror: %v", err)
	}
	fmt.Println("Successfully pruned the InfluxDB mirror")
}
