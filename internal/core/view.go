package core

import (
	"encoding/json"
	"sort"

	"retreatcore/pkg/domain"
)

// RegistrationView is one registration as seen by the caller: the stored
// record plus its derived charge lines, or a redacted stub when the
// registration belongs to a foreign group and the caller is not an admin.
type RegistrationView struct {
	domain.Registration
	Charges []domain.Charge
	Stub    bool
}

// MarshalJSON emits either the full record with charges or the
// {name, reservations} stub.
func (v RegistrationView) MarshalJSON() ([]byte, error) {
	if v.Stub {
		return json.Marshal(struct {
			Name         string   `json:"name"`
			Reservations []string `json:"reservations"`
		}{Name: v.Name, Reservations: v.Reservations})
	}
	type registration domain.Registration
	return json.Marshal(struct {
		registration
		Charges []domain.Charge `json:"charges"`
	}{registration: registration(v.Registration), Charges: v.Charges})
}

// StateView is the caller-visible slice of the document. Admins get the whole
// document; non-admins get the global structural data only; anonymous callers
// get the title.
type StateView struct {
	Title         string                         `json:"title"`
	Admins        []string                       `json:"admins,omitempty"`
	Nights        []domain.Night                 `json:"nights,omitempty"`
	Houses        []domain.House                 `json:"houses,omitempty"`
	Registrations map[string]domain.Registration `json:"registrations,omitempty"`
	Payments      map[string]domain.Payment      `json:"payments,omitempty"`
	Expenses      map[string]domain.Expense      `json:"expenses,omitempty"`
}

// Response is the engine's output contract. Registrations and their charges
// travel separately from the state to simplify hiding private data.
type Response struct {
	Error         string                      `json:"error"`
	Group         string                      `json:"group"`
	RawGroup      string                      `json:"rawGroup"`
	Username      string                      `json:"username"`
	Timestamp     float64                     `json:"timestamp"`
	Registrations map[string]RegistrationView `json:"registrations,omitempty"`
	State         *StateView                  `json:"state,omitempty"`
}

// MarshalJSON emits the error key on every response: null when the request
// succeeded, the message string when it was rejected.
func (r Response) MarshalJSON() ([]byte, error) {
	type response Response
	wire := struct {
		response
		Error *string `json:"error"`
	}{response: response(r)}
	if r.Error != "" {
		wire.Error = &r.Error
	}
	return json.Marshal(wire)
}

// project builds the caller-visible view of the session document. Charges are
// attached to every registration first; stubbing foreign-group registrations
// afterwards drops their charges along with everything else private.
func project(sess *session) (map[string]RegistrationView, *StateView) {
	doc := sess.doc
	views := make(map[string]RegistrationView, len(doc.Registrations))
	for id, reg := range doc.Registrations {
		views[id] = RegistrationView{Registration: reg, Charges: []domain.Charge{}}
	}
	for _, paymentID := range sortedPaymentIDs(doc) {
		payment := doc.Payments[paymentID]
		for _, regID := range sortedAllocationKeys(payment.Allocation) {
			view, ok := views[regID]
			if !ok {
				continue
			}
			view.Charges = append(view.Charges, domain.Charge{
				Category: "Payment or refund",
				Amount:   -payment.Allocation[regID],
				Date:     payment.Date,
			})
			views[regID] = view
		}
	}
	for _, expenseID := range sortedExpenseIDs(doc) {
		expense := doc.Expenses[expenseID]
		if expense.RegID == nil {
			continue
		}
		view, ok := views[*expense.RegID]
		if !ok {
			continue
		}
		view.Charges = append(view.Charges, domain.Charge{
			Category: "Expense: " + expense.Category,
			Amount:   -expense.Amount,
			Date:     expense.Date,
		})
		views[*expense.RegID] = view
	}

	if sess.isAdmin {
		full := doc.Clone()
		return views, &StateView{
			Title:         full.Title,
			Admins:        full.Admins,
			Nights:        full.Nights,
			Houses:        full.Houses,
			Registrations: full.Registrations,
			Payments:      full.Payments,
			Expenses:      full.Expenses,
		}
	}

	for id, reg := range doc.Registrations {
		if reg.Group != sess.group {
			views[id] = RegistrationView{
				Registration: domain.Registration{
					Name:         reg.Name,
					Reservations: append([]string{}, reg.Reservations...),
				},
				Stub: true,
			}
		}
	}
	partial := doc.Clone()
	return views, &StateView{
		Title:  partial.Title,
		Admins: partial.Admins,
		Nights: partial.Nights,
		Houses: partial.Houses,
	}
}

func sortedAllocationKeys(allocation map[string]float64) []string {
	keys := make([]string, 0, len(allocation))
	for key := range allocation {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
