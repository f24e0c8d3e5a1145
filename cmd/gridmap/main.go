package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"gridmap/internal/api"
	"gridmap/internal/config"
	"gridmap/internal/dataset"
	"gridmap/internal/logging"
	"gridmap/internal/powermap"
	"gridmap/internal/server"
	"gridmap/internal/tui"
)

const version = "0.1.0"

var configFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gridmap",
		Short:        "Interactive terminal map of the Overland Park power grid",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			return runMap(cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")
	pf.String("data", "", "GeoJSON dataset for offline mode and the fixture server (default: embedded sample)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	bind("data.file", pf.Lookup("data"))
	bind("log.level", pf.Lookup("log-level"))

	f := root.Flags()
	f.String("token", "", "Map access token (pk.*)")
	f.String("api", "", "Backend API base URL")
	f.Bool("offline", false, "Read data from the local dataset instead of the API")
	f.String("log-file", "", "Log file (default gridmap.log)")
	bind("map.token", f.Lookup("token"))
	bind("api.url", f.Lookup("api"))
	bind("data.offline", f.Lookup("offline"))
	bind("log.file", f.Lookup("log-file"))

	root.AddCommand(newServeCmd(), newSpecCmd(), newHealthCmd())
	return root
}

func bind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func runMap(cfg config.Config) error {
	log, closer, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closer.Close()

	src, err := newSource(cfg, log)
	if err != nil {
		return err
	}
	sess := powermap.NewSession(cfg, src, log)
	defer sess.Close()

	p := tea.NewProgram(tui.New(sess, log), tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("program exited")
		return err
	}
	return nil
}

// newSource picks the backend API or, offline, the local dataset.
func newSource(cfg config.Config, log zerolog.Logger) (powermap.Source, error) {
	if cfg.Offline {
		ds, err := loadDataset(cfg.DataFile, log)
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", cfg.DataFile).Msg("offline mode")
		return ds, nil
	}
	log.Info().Str("api", cfg.APIBaseURL).Msg("using backend API")
	return api.NewClient(cfg.APIBaseURL,
		api.WithLogger(log),
		api.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
	), nil
}

func loadDataset(path string, log zerolog.Logger) (*dataset.Dataset, error) {
	if path == "" {
		return dataset.Sample(log)
	}
	return dataset.Load(path, log)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the fixture backend API on a local dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			log := logging.New(os.Stderr, cfg.LogLevel)
			ds, err := loadDataset(cfg.DataFile, log)
			if err != nil {
				return err
			}
			addr, _ := cmd.Flags().GetString("addr")
			srv := server.New(server.Config{Addr: addr, Version: version}, ds, log)

			fmt.Println()
			fmt.Printf("gridmap fixture API starting...\n")
			fmt.Printf("  Server:  http://%s\n", displayAddr(addr))
			fmt.Printf("  Docs:    http://%s/docs\n", displayAddr(addr))
			fmt.Printf("  OpenAPI: http://%s/openapi.json\n", displayAddr(addr))
			fmt.Println()
			return srv.ListenAndServe()
		},
	}
	cmd.Flags().String("addr", "localhost:8000", "Address to listen on")
	return cmd
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func newSpecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Export the fixture API OpenAPI spec (JSON by default, --yaml for YAML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := server.New(server.Config{Version: version}, nil, zerolog.Nop())
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")
			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				return fmt.Errorf("error marshaling spec: %w", err)
			}
			fmt.Println(string(output))
			return nil
		},
	}
	cmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	return cmd
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend API is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.FetchTimeout)
			defer cancel()
			status, err := api.NewClient(cfg.APIBaseURL).Health(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", cfg.APIBaseURL, err)
			}
			fmt.Printf("%s: %s\n", cfg.APIBaseURL, status)
			return nil
		},
	}
}
