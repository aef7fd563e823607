package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "Lists the cities of a network and their stations",
	Args:  cobra.NoArgs,
	RunE:  cities,
}

func init() {
	rootCmd.AddCommand(citiesCmd)
}

func cities(cmd *cobra.Command, args []string) error {
	manager, err := buildManager()
	if err != nil {
		return err
	}

	network, err := loadNetwork(manager)
	if err != nil {
		return err
	}

	fmt.Printf("%dx%d grid\n", network.Rows(), network.Cols())
	for _, city := range network.Cities() {
		bus := network.Station(city.Bus)
		train := network.Station(city.Train)
		fmt.Printf(
			"%s: %s (%d departures), %s (%d departures)\n",
			city.Name,
			bus.Name,
			len(bus.Departures),
			train.Name,
			len(train.Departures),
		)
	}

	return nil
}
