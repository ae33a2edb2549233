package core

import (
	"bytes"
	"encoding/json"

	"retreatcore/pkg/domain"
)

// Operation identifies one mutation engine entry point.
type Operation string

// Supported operations. An empty operation is a read-only fetch.
const (
	OpCreate  Operation = "create"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
	OpReplace Operation = "replace"
)

// Request is one client-supplied mutation (or fetch) against the document.
type Request struct {
	Op       Operation         `json:"op,omitempty"`
	Kind     domain.EntityKind `json:"kind,omitempty"`
	ID       string            `json:"id,omitempty"`
	Fields   json.RawMessage   `json:"fields,omitempty"`
	Expected *domain.Document  `json:"expected,omitempty"`
	Document *domain.Document  `json:"document,omitempty"`
}

// NullableString distinguishes an absent JSON key from an explicit null from
// a string value. Used for the expense registration reference.
type NullableString struct {
	Set   bool
	Valid bool
	Value string
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Valid = false
		n.Value = ""
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Pointer returns the *string the wire value denotes. Only meaningful when Set.
func (n NullableString) Pointer() *string {
	if !n.Valid {
		return nil
	}
	value := n.Value
	return &value
}

// NullableAdjustments distinguishes an absent adjustments key from an
// explicit null from a list value.
type NullableAdjustments struct {
	Set   bool
	Valid bool
	Value []domain.Adjustment
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableAdjustments) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Valid = false
		n.Value = nil
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// registrationPatch carries the caller-settable registration fields. Pointer
// fields distinguish "absent" from "set to the zero value". The protected
// fields (group, adjustments, email) use nullable wrappers so the protections
// trigger on key presence alone; an explicit null still rejects the operation.
type registrationPatch struct {
	Group         NullableString      `json:"group"`
	FullName      *string             `json:"fullName"`
	Name          *string             `json:"name"`
	Email         NullableString      `json:"email"`
	Phone         *string             `json:"phone"`
	Emergency     *string             `json:"emergency"`
	MealOptOut    *bool               `json:"mealOptOut"`
	Dietary       *string             `json:"dietary"`
	Medical       *string             `json:"medical"`
	Children      *string             `json:"children"`
	Host          *string             `json:"host"`
	Reservations  *[]string           `json:"reservations"`
	Contributions *float64            `json:"contributions"`
	Assistance    *float64            `json:"assistance"`
	Confirmed     *bool               `json:"confirmed"`
	Adjustments   NullableAdjustments `json:"adjustments"`
}

func (p registrationPatch) apply(reg *domain.Registration) {
	if p.Group.Valid {
		reg.Group = p.Group.Value
	}
	if p.FullName != nil {
		reg.FullName = *p.FullName
	}
	if p.Name != nil {
		reg.Name = *p.Name
	}
	if p.Email.Valid {
		reg.Email = p.Email.Value
	}
	if p.Phone != nil {
		reg.Phone = *p.Phone
	}
	if p.Emergency != nil {
		reg.Emergency = *p.Emergency
	}
	if p.MealOptOut != nil {
		reg.MealOptOut = *p.MealOptOut
	}
	if p.Dietary != nil {
		reg.Dietary = *p.Dietary
	}
	if p.Medical != nil {
		reg.Medical = *p.Medical
	}
	if p.Children != nil {
		reg.Children = *p.Children
	}
	if p.Host != nil {
		reg.Host = *p.Host
	}
	if p.Reservations != nil {
		reg.Reservations = append([]string{}, (*p.Reservations)...)
	}
	if p.Contributions != nil {
		reg.Contributions = *p.Contributions
	}
	if p.Assistance != nil {
		reg.Assistance = *p.Assistance
	}
	if p.Confirmed != nil {
		reg.Confirmed = *p.Confirmed
	}
	if p.Adjustments.Valid {
		reg.Adjustments = append([]domain.Adjustment{}, p.Adjustments.Value...)
	}
}

// touchesReservations reports whether the patch sets the confirmed flag or
// assigns a non-empty reservation list. Used by the reservation gate.
func (p registrationPatch) touchesReservations() bool {
	if p.Confirmed != nil && *p.Confirmed {
		return true
	}
	return p.Reservations != nil && len(*p.Reservations) > 0
}

type paymentPatch struct {
	Date       *float64            `json:"date"`
	Amount     *float64            `json:"amount"`
	Payer      *string             `json:"payer"`
	Method     *string             `json:"method"`
	Allocation *map[string]float64 `json:"allocation"`
}

func (p paymentPatch) apply(payment *domain.Payment) {
	if p.Date != nil {
		payment.Date = *p.Date
	}
	if p.Amount != nil {
		payment.Amount = *p.Amount
	}
	if p.Payer != nil {
		payment.Payer = *p.Payer
	}
	if p.Method != nil {
		payment.Method = *p.Method
	}
	if p.Allocation != nil {
		allocation := make(map[string]float64, len(*p.Allocation))
		for regID, amount := range *p.Allocation {
			allocation[regID] = amount
		}
		payment.Allocation = allocation
	}
}

type expensePatch struct {
	Date        *float64       `json:"date"`
	Amount      *float64       `json:"amount"`
	Category    *string        `json:"category"`
	Description *string        `json:"description"`
	RegID       NullableString `json:"regId"`
}

func (p expensePatch) apply(expense *domain.Expense) {
	if p.Date != nil {
		expense.Date = *p.Date
	}
	if p.Amount != nil {
		expense.Amount = *p.Amount
	}
	if p.Category != nil {
		expense.Category = *p.Category
	}
	if p.Description != nil {
		expense.Description = *p.Description
	}
	if p.RegID.Set {
		expense.RegID = p.RegID.Pointer()
	}
}

// decodeStrict unmarshals raw into v rejecting unknown keys. Any decode
// failure is a user error: malformed or stale clients must fail loudly.
func decodeStrict(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ErrInvalidField
	}
	return nil
}
