// Package domain defines the event document aggregate, its value types, and
// the rule evaluation primitives used by retreatcore.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EntityKind identifies the keyed entity tables stored in the document.
type EntityKind string

// Supported entity kind identifiers used in mutation requests and audit records.
const (
	// KindRegistrations identifies the registrations table.
	KindRegistrations EntityKind = "registrations"
	// KindPayments identifies the payments table.
	KindPayments EntityKind = "payments"
	// KindExpenses identifies the expenses table.
	KindExpenses EntityKind = "expenses"
)

// SlotDelimiter separates the components of a derived reservation slot id.
// Static ids (nights, houses, rooms, beds) must never contain it.
const SlotDelimiter = "|"

// SlotID composes the deterministic reservation slot id for one bookable
// (bed, occupancy index, night) combination.
func SlotID(houseID, roomID, bedID string, slot int, nightID string) string {
	return fmt.Sprintf("%s|%s|%s|%d|%s", houseID, roomID, bedID, slot, nightID)
}

// Night is one bookable night of the event with its shared cost components.
type Night struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Date   string  `json:"date"`
	Common float64 `json:"common"`
	Meals  float64 `json:"meals"`
}

// Bed is a bookable sleeping place with per-night costs. Each occupancy index
// up to the capacity is a distinct bookable slot.
type Bed struct {
	ID       string             `json:"id"`
	Name     *string            `json:"name"`
	Capacity int                `json:"capacity"`
	Costs    map[string]float64 `json:"costs"`
}

// Room groups beds within a house.
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Beds []Bed  `json:"beds"`
}

// House is the top level of the lodging hierarchy.
type House struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Rooms []Room `json:"rooms"`
}

// Adjustment is an admin-entered charge correction on a registration.
type Adjustment struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// Registration is one attendee record. Group determines non-admin visibility
// and edit scope; Email, when non-empty, binds a caller identity to the group.
type Registration struct {
	Group         string       `json:"group"`
	FullName      string       `json:"fullName"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	Emergency     string       `json:"emergency"`
	MealOptOut    bool         `json:"mealOptOut"`
	Dietary       string       `json:"dietary"`
	Medical       string       `json:"medical"`
	Children      string       `json:"children"`
	Host          string       `json:"host"`
	Reservations  []string     `json:"reservations"`
	Contributions float64      `json:"contributions"`
	Assistance    float64      `json:"assistance"`
	Confirmed     bool         `json:"confirmed"`
	Adjustments   []Adjustment `json:"adjustments"`
}

// Payment records money received and its allocation across registrations.
// Dates are epoch seconds to match the wire format used by clients.
type Payment struct {
	Date       float64            `json:"date"`
	Amount     float64            `json:"amount"`
	Payer      string             `json:"payer"`
	Method     string             `json:"method"`
	Allocation map[string]float64 `json:"allocation"`
}

// Expense records money spent, optionally attributed to one registration.
type Expense struct {
	Date        float64 `json:"date"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	RegID       *string `json:"regId"`
}

// Charge is a derived, never persisted line item attached to registrations in
// responses: the negated share of a payment allocation or an expense.
type Charge struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Date     float64 `json:"date"`
}

// Document is the single aggregate holding all event state. It is only ever
// mutated through the engine; stores hand out deep copies.
type Document struct {
	Title         string                  `json:"title"`
	Admins        []string                `json:"admins"`
	Nights        []Night                 `json:"nights"`
	Houses        []House                 `json:"houses"`
	Registrations map[string]Registration `json:"registrations"`
	Payments      map[string]Payment      `json:"payments"`
	Expenses      map[string]Expense      `json:"expenses"`
}

// NewDocument returns the empty skeleton with all containers materialized.
func NewDocument() *Document {
	return &Document{
		Admins:        []string{},
		Nights:        []Night{},
		Houses:        []House{},
		Registrations: map[string]Registration{},
		Payments:      map[string]Payment{},
		Expenses:      map[string]Expense{},
	}
}

// Clone returns a deep copy. All containers in the copy are non-nil so that
// serialization of equal documents is byte-identical regardless of history.
func (d *Document) Clone() *Document {
	if d == nil {
		return NewDocument()
	}
	out := &Document{
		Title:         d.Title,
		Admins:        append([]string{}, d.Admins...),
		Nights:        append([]Night{}, d.Nights...),
		Houses:        make([]House, 0, len(d.Houses)),
		Registrations: make(map[string]Registration, len(d.Registrations)),
		Payments:      make(map[string]Payment, len(d.Payments)),
		Expenses:      make(map[string]Expense, len(d.Expenses)),
	}
	for _, house := range d.Houses {
		h := house
		h.Rooms = make([]Room, 0, len(house.Rooms))
		for _, room := range house.Rooms {
			r := room
			r.Beds = make([]Bed, 0, len(room.Beds))
			for _, bed := range room.Beds {
				b := bed
				if bed.Name != nil {
					name := *bed.Name
					b.Name = &name
				}
				b.Costs = make(map[string]float64, len(bed.Costs))
				for night, cost := range bed.Costs {
					b.Costs[night] = cost
				}
				r.Beds = append(r.Beds, b)
			}
			h.Rooms = append(h.Rooms, r)
		}
		out.Houses = append(out.Houses, h)
	}
	for id, reg := range d.Registrations {
		out.Registrations[id] = reg.clone()
	}
	for id, payment := range d.Payments {
		p := payment
		p.Allocation = make(map[string]float64, len(payment.Allocation))
		for regID, amount := range payment.Allocation {
			p.Allocation[regID] = amount
		}
		out.Payments[id] = p
	}
	for id, expense := range d.Expenses {
		e := expense
		if expense.RegID != nil {
			regID := *expense.RegID
			e.RegID = &regID
		}
		out.Expenses[id] = e
	}
	return out
}

func (r Registration) clone() Registration {
	out := r
	out.Reservations = append([]string{}, r.Reservations...)
	out.Adjustments = append([]Adjustment{}, r.Adjustments...)
	return out
}

// Equal reports deep equality of two documents. Both sides are cloned first so
// the comparison is insensitive to nil-versus-empty container differences.
func (d *Document) Equal(other *Document) bool {
	a, err := json.Marshal(d.Clone())
	if err != nil {
		return false
	}
	b, err := json.Marshal(other.Clone())
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// SlotUniverse derives the full set of bookable reservation slot ids:
// house|room|bed|slotIndex|night for every occupancy index of every bed and
// every night in its cost map. Nights not declared in the nights list are
// skipped; detecting them is the cost rule's job.
func (d *Document) SlotUniverse() map[string]struct{} {
	nights := make(map[string]struct{}, len(d.Nights))
	for _, night := range d.Nights {
		nights[night.ID] = struct{}{}
	}
	universe := make(map[string]struct{})
	for _, house := range d.Houses {
		for _, room := range house.Rooms {
			for _, bed := range room.Beds {
				for slot := 0; slot < bed.Capacity; slot++ {
					for nightID := range bed.Costs {
						if _, ok := nights[nightID]; !ok {
							continue
						}
						universe[SlotID(house.ID, room.ID, bed.ID, slot, nightID)] = struct{}{}
					}
				}
			}
		}
	}
	return universe
}
