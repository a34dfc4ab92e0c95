package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "venuerank",
		Short: "Score and rank venues into curated discovery lists",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(refreshCmd())
	root.AddCommand(rankingsCmd())
	root.AddCommand(hottestCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func refreshCmd() *cobra.Command {
	var venueID string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Recompute cached category scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(venueID)
		},
	}

	cmd.Flags().StringVar(&venueID, "venue", "", "refresh a single venue (default: all stale)")
	return cmd
}

func rankingsCmd() *cobra.Command {
	var (
		category   string
		page       int
		pageSize   int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Show the ranked venue list for a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRankings(category, page, pageSize, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&category, "category", "trending", "discovery list category")
	cmd.Flags().IntVar(&page, "page", 1, "page number (1-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "venues per page")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func hottestCmd() *cobra.Command {
	var (
		lat         float64
		lon         float64
		limit       int
		maxDistance float64
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "hottest",
		Short: "Rank the hottest venues near a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHottest(lat, lon, limit, maxDistance, jsonOutput)
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "user latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "user longitude")
	cmd.Flags().IntVar(&limit, "limit", 0, "max venues to return (default: from config)")
	cmd.Flags().Float64Var(&maxDistance, "max-distance", 0, "max distance in km (default: from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Import venue event calendars from configured feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest()
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
