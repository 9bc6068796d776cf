package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/briefops/briefer/config"
	srv "github.com/briefops/briefer/internal/server"
	"github.com/briefops/briefer/internal/store"
)

var version = "dev"

func main() {
	root := &cobra.Command{Use: "briefer", Short: "Research brief generator"}

	var serveAddr, serveConfig string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(serveConfig)
			if err != nil {
				return err
			}
			if serveAddr == "" {
				serveAddr = cfg.Server.Address
			}
			return srv.Run(serveAddr, cfg)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to server.address)")
	serve.Flags().StringVar(&serveConfig, "config", "", "config file path")

	var topic, userID, output, apiURL string
	var depth int
	var followUp bool
	briefCmd := &cobra.Command{
		Use:   "brief",
		Short: "Generate a research brief via the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if topic == "" || userID == "" {
				return fmt.Errorf("--topic and --user-id are required")
			}
			return generateBrief(cmd, apiURL, topic, depth, followUp, userID, output)
		},
	}
	briefCmd.Flags().StringVar(&topic, "topic", "", "research topic")
	briefCmd.Flags().IntVar(&depth, "depth", 3, "research depth (1-5)")
	briefCmd.Flags().BoolVar(&followUp, "follow-up", false, "is this a follow-up query?")
	briefCmd.Flags().StringVar(&userID, "user-id", "", "user ID for context tracking")
	briefCmd.Flags().StringVar(&output, "output", "", "output file path")
	briefCmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "briefer API base URL")

	var migDir, migDSN, direction string
	var steps int
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations (postgres backend)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := migDSN
			if dsn == "" {
				cfg, err := config.Load("")
				if err != nil {
					return err
				}
				dsn, err = cfg.Storage.Postgres.DSN()
				if err != nil {
					return err
				}
			}
			return store.Migrate(migDir, dsn, direction, steps)
		},
	}
	migrateCmd.Flags().StringVar(&migDir, "dir", "file://migrations", "migrations source")
	migrateCmd.Flags().StringVar(&migDSN, "dsn", "", "postgres DSN (defaults to storage.postgres config)")
	migrateCmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrateCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("briefer", version)
		},
	}

	root.AddCommand(serve, briefCmd, migrateCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// generateBrief posts a request to the running API and prints a short
// summary or writes the full JSON document.
func generateBrief(cmd *cobra.Command, apiURL, topic string, depth int, followUp bool, userID, output string) error {
	payload, err := json.Marshal(map[string]any{
		"topic":     topic,
		"depth":     depth,
		"follow_up": followUp,
		"user_id":   userID,
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(strings.TrimRight(apiURL, "/")+"/api/briefs", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("calling API: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		detail := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			detail = errResp.Error
		}
		if strings.Contains(detail, "api key not configured") {
			return fmt.Errorf("the server has no LLM credential; set BRIEFER_LLM_API_KEY in its environment and restart")
		}
		return fmt.Errorf("server error: %s", detail)
	}

	if output != "" {
		if err := os.WriteFile(output, body, 0o644); err != nil {
			return err
		}
		cmd.Printf("Brief saved to %s\n", output)
		return nil
	}

	var b struct {
		Topic      string `json:"topic"`
		Summary    string `json:"summary"`
		Sections   []any  `json:"sections"`
		References []any  `json:"references"`
	}
	if err := json.Unmarshal(body, &b); err != nil {
		return fmt.Errorf("decoding brief: %w", err)
	}
	cmd.Printf("Research Brief: %s\n", b.Topic)
	cmd.Printf("Summary: %s\n", b.Summary)
	cmd.Printf("Sections: %d\n", len(b.Sections))
	cmd.Printf("References: %d\n", len(b.References))
	return nil
}
