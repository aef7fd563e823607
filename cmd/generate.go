package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tidbyt.dev/transit/generator"
)

var generateCmd = &cobra.Command{
	Use:   "generate <rows> <cols>",
	Short: "Generates a random grid network",
	Args:  cobra.ExactArgs(2),
	RunE:  generate,
}

var (
	seed    int64
	outPath string
)

func init() {
	generateCmd.Flags().Int64VarP(&seed, "seed", "", 0, "Random seed (default: current time)")
	generateCmd.Flags().StringVarP(&outPath, "out", "o", "transport_data.json", "Output file")
	rootCmd.AddCommand(generateCmd)
}

func generate(cmd *cobra.Command, args []string) error {
	rows, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid rows: %w", err)
	}
	cols, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid cols: %w", err)
	}

	if !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}

	g, err := generator.New(rows, cols, seed)
	if err != nil {
		return err
	}

	doc := g.Generate()
	err = generator.Save(doc, outPath)
	if err != nil {
		return err
	}

	logger.Info(
		"network generated",
		"path", outPath,
		"seed", seed,
		"stations", len(doc.Stations)*2,
		"departures", len(doc.Departures),
	)

	return nil
}
