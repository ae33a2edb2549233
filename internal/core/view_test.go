package core

import (
	"encoding/json"
	"testing"

	"retreatcore/pkg/domain"
)

func TestProjectAttachesNegatedCharges(t *testing.T) {
	doc := eventFixture()
	regID := "reg-a"
	doc.Payments["pay-1"] = domain.Payment{Date: 100, Amount: 50, Allocation: map[string]float64{"reg-a": 50}}
	doc.Expenses["exp-1"] = domain.Expense{Date: 200, Amount: 20, Category: "Food", RegID: &regID}

	views, _ := project(newSession(doc, adminCaller))
	charges := views["reg-a"].Charges
	if len(charges) != 2 {
		t.Fatalf("charges %v", charges)
	}
	if charges[0].Category != "Payment or refund" || charges[0].Amount != -50 || charges[0].Date != 100 {
		t.Fatalf("payment charge %+v", charges[0])
	}
	if charges[1].Category != "Expense: Food" || charges[1].Amount != -20 || charges[1].Date != 200 {
		t.Fatalf("expense charge %+v", charges[1])
	}
	if len(views["reg-b"].Charges) != 0 {
		t.Fatalf("unallocated registration got charges: %v", views["reg-b"].Charges)
	}
}

func TestProjectUnattributedExpenseHasNoCharge(t *testing.T) {
	doc := eventFixture()
	doc.Expenses["exp-1"] = domain.Expense{Date: 1, Amount: 99, Category: "Supplies"}
	views, _ := project(newSession(doc, adminCaller))
	for id, view := range views {
		if len(view.Charges) != 0 {
			t.Fatalf("registration %s got charges %v", id, view.Charges)
		}
	}
}

func TestStubsDropChargesWithEverythingElse(t *testing.T) {
	doc := eventFixture()
	doc.Payments["pay-1"] = domain.Payment{Date: 100, Amount: 10, Allocation: map[string]float64{"reg-b": 10}}
	views, _ := project(newSession(doc, aliceCaller))
	foreign := views["reg-b"]
	if !foreign.Stub {
		t.Fatal("expected stub")
	}
	if len(foreign.Charges) != 0 {
		t.Fatalf("stub kept charges %v", foreign.Charges)
	}
}

func TestStubMarshalsToNameAndReservationsOnly(t *testing.T) {
	view := RegistrationView{
		Registration: domain.Registration{Name: "Bob", Reservations: []string{"H1|R1|B1|0|N1"}},
		Stub:         true,
	}
	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("stub keys %v", decoded)
	}
	if _, ok := decoded["name"]; !ok {
		t.Fatal("stub missing name")
	}
	if _, ok := decoded["reservations"]; !ok {
		t.Fatal("stub missing reservations")
	}
}

func TestFullViewMarshalsChargesAlongsideFields(t *testing.T) {
	view := RegistrationView{
		Registration: domain.Registration{Name: "Alice", Email: aliceCaller, Reservations: []string{}, Adjustments: []domain.Adjustment{}},
		Charges:      []domain.Charge{{Category: "Payment or refund", Amount: -10, Date: 1}},
	}
	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"email", "charges", "group", "confirmed"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("full view missing %q: %v", key, decoded)
		}
	}
}

func TestResponseEmitsErrorKeyAsNullOnSuccess(t *testing.T) {
	raw, err := json.Marshal(Response{Group: "g", Username: "u"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(decoded["error"]) != "null" {
		t.Fatalf("error key %s", decoded["error"])
	}
	for _, key := range []string{"group", "rawGroup", "username", "timestamp"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("response missing %q: %v", key, decoded)
		}
	}
}

func TestResponseEmitsErrorMessageOnRejection(t *testing.T) {
	raw, err := json.Marshal(Response{Error: string(domain.ErrAccessDenied)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Error == nil || *decoded.Error != string(domain.ErrAccessDenied) {
		t.Fatalf("error %v", decoded.Error)
	}
}

func TestAdminStateSharesNothingWithSessionDocument(t *testing.T) {
	doc := eventFixture()
	sess := newSession(doc, adminCaller)
	_, state := project(sess)
	reg := state.Registrations["reg-a"]
	reg.Phone = "tampered"
	state.Registrations["reg-a"] = reg
	if sess.doc.Registrations["reg-a"].Phone == "tampered" {
		t.Fatal("state view aliases the session document")
	}
}
