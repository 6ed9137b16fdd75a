package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ubinix-warun/suibase/pkg/api"
	"github.com/ubinix-warun/suibase/pkg/config"
	"github.com/ubinix-warun/suibase/pkg/dbworker"
	"github.com/ubinix-warun/suibase/pkg/events"
	"github.com/ubinix-warun/suibase/pkg/eventswriter"
	"github.com/ubinix-warun/suibase/pkg/log"
	"github.com/ubinix-warun/suibase/pkg/metrics"
	"github.com/ubinix-warun/suibase/pkg/supervisor"
	"github.com/ubinix-warun/suibase/pkg/types"
	"github.com/ubinix-warun/suibase/pkg/wsworker"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "suibased",
	Short: "suibased subscribes to Sui chain events and forwards deduplicated notifications",
	Long: `suibased runs one subscription/dedup pipeline per configured workdir:
a WebSocketWorker dials the workdir's fullnode, an EventsWriterWorker fans
out control messages and deduplicates events, and a DBWorker persists the
survivors.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"suibased version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(workdirsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the suibased version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("suibased version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
		return nil
	},
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the subscription/dedup pipeline and the admin HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		addr, _ := cmd.Flags().GetString("addr")

		catalog, err := loadCatalog(configPath)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}

		store, err := dbworker.OpenStore(dataDir)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		desired := config.NewStore(catalog)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pipelines := make(map[types.WorkdirIdx]*pipeline, len(catalog.Workdirs))

		var wg sync.WaitGroup
		for _, wc := range catalog.Workdirs {
			p := newPipeline(wc, desired.DesiredSet(wc.Idx), store)
			pipelines[wc.Idx] = p
			p.start(ctx, &wg)
		}

		statsOf := func(workdirName string) (wsworker.Stats, bool) {
			idx, err := types.ParseWorkdirIdx(workdirName)
			if err != nil {
				return wsworker.Stats{}, false
			}
			p, ok := pipelines[idx]
			if !ok {
				return wsworker.Stats{}, false
			}
			return p.stats()
		}

		server := api.NewServer(catalog, desired, statsOf)

		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("API server error: %w", err)
			}
		}()

		log.Logger.Info().Str("addr", addr).Int("workdirs", len(catalog.Workdirs)).Msg("suibased running")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Logger.Info().Msg("shutting down")
		case err := <-errCh:
			log.Logger.Error().Err(err).Msg("shutting down after server error")
		}

		cancel()
		wg.Wait()
		return nil
	},
}

func init() {
	runCmd.Flags().String("config", "", "Path to catalog YAML (defaults to localnet only)")
	runCmd.Flags().String("data-dir", "./suibase-data", "Directory for the persisted event store")
	runCmd.Flags().String("addr", "127.0.0.1:9184", "Admin HTTP API listen address")
}

func loadCatalog(path string) (*config.Catalog, error) {
	if path == "" {
		return config.DefaultCatalog(), nil
	}
	return config.LoadCatalog(path)
}

// pipeline wires one workdir's EventsWriterWorker -> WebSocketWorker ->
// DBWorker tree, independent of every other workdir's pipeline. Only the
// WebSocketWorker runs under pkg/supervisor; EventsWriterWorker and
// DBWorker run in plain goroutines and are not restarted.
type pipeline struct {
	workdir    config.WorkdirConfig
	desiredSet *config.PackagesConfig
	store      *dbworker.Store

	depthBroker    *events.DepthBroker
	depthCollector *metrics.DepthCollector

	mu        sync.RWMutex
	wsCurrent *wsworker.Worker
}

func newPipeline(wc config.WorkdirConfig, desiredSet *config.PackagesConfig, store *dbworker.Store) *pipeline {
	broker := events.NewDepthBroker()
	return &pipeline{
		workdir:        wc,
		desiredSet:     desiredSet,
		store:          store,
		depthBroker:    broker,
		depthCollector: metrics.NewDepthCollector(broker),
	}
}

func (p *pipeline) stats() (wsworker.Stats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.wsCurrent == nil {
		return wsworker.Stats{}, false
	}
	return p.wsCurrent.Stats(), true
}

func (p *pipeline) start(ctx context.Context, wg *sync.WaitGroup) {
	p.depthBroker.Start()
	p.depthCollector.Start()

	dbWorker := dbworker.NewWorker(p.workdir.Idx, p.workdir.Name, p.store)
	eventsWriter := eventswriter.NewWorker(p.workdir.Idx, p.workdir.Name, nil, dbWorker.Inbox())

	wsFactory := func() supervisor.Runnable {
		return wsworker.NewWorker(p.workdir.Idx, p.workdir.Name, p.workdir.Endpoint, p.desiredSet, eventsWriter.Inbox(), p.depthBroker)
	}

	rewireChildren := func(r supervisor.Runnable) {
		w := r.(*wsworker.Worker)
		p.mu.Lock()
		p.wsCurrent = w
		p.mu.Unlock()
		eventsWriter.ReplaceChildren([]chan<- events.Message{w.Inbox()})
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		dbWorker.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		eventsWriter.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		supervisor.Supervise(ctx, log.WithComponent("wsworker"), p.workdir.Name, wsFactory, rewireChildren)
	}()

	go func() {
		<-ctx.Done()
		p.depthCollector.Stop()
		p.depthBroker.Stop()
	}()
}

var workdirsCmd = &cobra.Command{
	Use:   "workdirs",
	Short: "List the configured workdirs",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		catalog, err := loadCatalog(configPath)
		if err != nil {
			return err
		}

		fmt.Printf("%-10s %s\n", "NAME", "ENDPOINT")
		for _, wc := range catalog.Workdirs {
			fmt.Printf("%-10s %s\n", wc.Name, wc.Endpoint)
		}
		return nil
	},
}

func init() {
	workdirsCmd.Flags().String("config", "", "Path to catalog YAML (defaults to localnet only)")
}
