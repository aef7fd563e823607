package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarizes tickets sold and networks loaded",
	Args:  cobra.NoArgs,
	RunE:  stats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func stats(cmd *cobra.Command, args []string) error {
	manager, err := buildManager()
	if err != nil {
		return err
	}

	s, err := manager.Statistics()
	if err != nil {
		return err
	}

	fmt.Printf("Tickets sold: %d\n", s.Tickets)
	fmt.Printf("Total revenue: %d\n", s.Revenue)
	if s.Skipped > 0 {
		fmt.Printf("Unreadable receipts: %d\n", s.Skipped)
	}

	sources, err := manager.Sources("")
	if err != nil {
		return err
	}

	for _, src := range sources {
		fmt.Printf(
			"%s %s %.12s: %d cities, %d departures\n",
			src.RetrievedAt.Format("2006-01-02 15:04"),
			src.URL,
			src.SHA256,
			src.Cities,
			src.Departures,
		)
	}

	return nil
}
