package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tidbyt.dev/transit/clock"
	"tidbyt.dev/transit/model"
)

var routesCmd = &cobra.Command{
	Use:   "routes <from> <to>",
	Short: "Finds the best routes between two cities",
	Args:  cobra.ExactArgs(2),
	RunE:  routes,
}

var (
	criterion string
	startTime string
	buy       int
)

func init() {
	routesCmd.Flags().StringVarP(&criterion, "criterion", "C", "", "Optimize for time, price or transfers")
	routesCmd.Flags().StringVarP(&startTime, "start", "s", "", "Earliest departure, HH:mm")
	routesCmd.Flags().IntVarP(&buy, "buy", "b", 0, "Buy a ticket for the n:th route listed")
	rootCmd.AddCommand(routesCmd)
}

func routes(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("criterion") {
		cfg.Search.Criterion = criterion
	}
	if cmd.Flags().Changed("start") {
		cfg.Search.Start = startTime
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	start, err := cfg.StartMinutes()
	if err != nil {
		return err
	}

	manager, err := buildManager()
	if err != nil {
		return err
	}

	network, err := loadNetwork(manager)
	if err != nil {
		return err
	}

	from, found := network.City(args[0])
	if !found {
		return fmt.Errorf("unknown city '%s'", args[0])
	}
	to, found := network.City(args[1])
	if !found {
		return fmt.Errorf("unknown city '%s'", args[1])
	}

	results, err := network.FindRoutes(from, to, model.Criterion(cfg.Search.Criterion), start)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Printf("No route from %s to %s leaving after %s\n", from.Name, to.Name, clock.Format(start))
		return nil
	}

	for i, route := range results {
		fmt.Printf("%d. %s\n", i+1, route)
		for _, line := range strings.Split(route.Description(to), "\n") {
			fmt.Printf("     %s\n", line)
		}
	}

	if buy == 0 {
		return nil
	}
	if buy < 0 || buy > len(results) {
		return fmt.Errorf("--buy must be between 1 and %d", len(results))
	}

	name, ticket, err := manager.IssueTicket(results[buy-1], from, to)
	if err != nil {
		return err
	}

	fmt.Printf("Bought ticket %s -> %s for %d, receipt %s\n", from.Name, to.Name, ticket.Price, name)

	return nil
}
