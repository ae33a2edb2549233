package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"retreatcore/pkg/domain"
)

// seedFile mirrors the YAML event configuration: the title, the admin list,
// and the night/house structure. Attendee data is never seeded from file.
type seedFile struct {
	Title  string      `yaml:"title"`
	Admins []string    `yaml:"admins"`
	Nights []seedNight `yaml:"nights"`
	Houses []seedHouse `yaml:"houses"`
}

type seedNight struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Date   string  `yaml:"date"`
	Common float64 `yaml:"common"`
	Meals  float64 `yaml:"meals"`
}

type seedHouse struct {
	ID    string     `yaml:"id"`
	Name  string     `yaml:"name"`
	Rooms []seedRoom `yaml:"rooms"`
}

type seedRoom struct {
	ID   string    `yaml:"id"`
	Name string    `yaml:"name"`
	Beds []seedBed `yaml:"beds"`
}

type seedBed struct {
	ID       string             `yaml:"id"`
	Name     *string            `yaml:"name"`
	Capacity int                `yaml:"capacity"`
	Costs    map[string]float64 `yaml:"costs"`
}

// loadSeed parses the YAML seed file into a document carrying only the event
// configuration. Validation happens in the service when the seed is applied.
func loadSeed(path string) (*domain.Document, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	doc := domain.NewDocument()
	doc.Title = file.Title
	doc.Admins = append(doc.Admins, file.Admins...)
	for _, night := range file.Nights {
		doc.Nights = append(doc.Nights, domain.Night{
			ID:     night.ID,
			Name:   night.Name,
			Date:   night.Date,
			Common: night.Common,
			Meals:  night.Meals,
		})
	}
	for _, house := range file.Houses {
		h := domain.House{ID: house.ID, Name: house.Name, Rooms: []domain.Room{}}
		for _, room := range house.Rooms {
			r := domain.Room{ID: room.ID, Name: room.Name, Beds: []domain.Bed{}}
			for _, bed := range room.Beds {
				costs := make(map[string]float64, len(bed.Costs))
				for night, cost := range bed.Costs {
					costs[night] = cost
				}
				r.Beds = append(r.Beds, domain.Bed{
					ID:       bed.ID,
					Name:     bed.Name,
					Capacity: bed.Capacity,
					Costs:    costs,
				})
			}
			h.Rooms = append(h.Rooms, r)
		}
		doc.Houses = append(doc.Houses, h)
	}
	return doc, nil
}
