package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSeedExample(t *testing.T) {
	doc, err := loadSeed("seed.example.yaml")
	if err != nil {
		t.Fatalf("loadSeed: %v", err)
	}
	if doc.Title != "Spring Retreat 2026" {
		t.Fatalf("title %q", doc.Title)
	}
	if len(doc.Admins) != 1 || len(doc.Nights) != 2 || len(doc.Houses) != 1 {
		t.Fatalf("structure %+v", doc)
	}
	beds := doc.Houses[0].Rooms[0].Beds
	if len(beds) != 2 {
		t.Fatalf("beds %+v", beds)
	}
	if beds[0].Name == nil || *beds[0].Name != "Double bed" {
		t.Fatalf("bed name %v", beds[0].Name)
	}
	if beds[1].Name != nil {
		t.Fatalf("unnamed bed got name %v", *beds[1].Name)
	}
	if beds[0].Capacity != 2 || beds[0].Costs["fri"] != 15 {
		t.Fatalf("bed %+v", beds[0])
	}
	if doc.Registrations == nil || len(doc.Registrations) != 0 {
		t.Fatalf("registrations %v", doc.Registrations)
	}
}

func TestLoadSeedMissingFile(t *testing.T) {
	if _, err := loadSeed(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadSeedMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("title: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadSeed(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestReservationGateParsing(t *testing.T) {
	cfg := Config{}
	gate, err := cfg.reservationGate()
	if err != nil || !gate.IsZero() {
		t.Fatalf("empty gate: %v %v", gate, err)
	}
	cfg.ReservationsAfter = "2026-05-01T12:00:00Z"
	gate, err = cfg.reservationGate()
	if err != nil || gate.IsZero() {
		t.Fatalf("gate: %v %v", gate, err)
	}
	cfg.ReservationsAfter = "next tuesday"
	if _, err := cfg.reservationGate(); err == nil {
		t.Fatal("expected parse error")
	}
}
