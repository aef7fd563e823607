package parse

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"tidbyt.dev/transit/model"
)

type StationCSV struct {
	City         string `csv:"city"`
	BusStation   string `csv:"bus_station"`
	TrainStation string `csv:"train_station"`
}

type DepartureCSV struct {
	Type            string `csv:"type"`
	From            string `csv:"from"`
	To              string `csv:"to"`
	DepartureTime   string `csv:"departure_time"`
	Duration        int    `csv:"duration"`
	Price           int    `csv:"price"`
	MinTransferTime int    `csv:"min_transfer_time"`
}

func ParseStations(data io.Reader) ([]model.StationRecord, error) {
	stationCsv := []*StationCSV{}
	if err := gocsv.Unmarshal(data, &stationCsv); err != nil {
		return nil, errors.Wrap(err, "unmarshaling stations csv")
	}

	stations := make([]model.StationRecord, 0, len(stationCsv))
	for i, st := range stationCsv {
		if st.City == "" {
			return nil, errors.Errorf("empty city (row %d)", i+1)
		}
		stations = append(stations, model.StationRecord{
			City:         st.City,
			BusStation:   st.BusStation,
			TrainStation: st.TrainStation,
		})
	}

	return stations, nil
}

func ParseDepartures(data io.Reader) ([]model.DepartureRecord, error) {
	departures := []model.DepartureRecord{}

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(d *DepartureCSV) error {
		i += 1
		if d.From == "" || d.To == "" {
			return errors.Errorf("missing from or to (row %d)", i+1)
		}

		departures = append(departures, model.DepartureRecord{
			Type:            d.Type,
			From:            d.From,
			To:              d.To,
			DepartureTime:   d.DepartureTime,
			Duration:        d.Duration,
			Price:           d.Price,
			MinTransferTime: d.MinTransferTime,
		})

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unmarshaling departures csv")
	}

	return departures, nil
}
