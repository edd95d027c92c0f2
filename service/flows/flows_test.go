package flows

import (
	"context"
	"strings"
	"testing"

	"support-agent/dataset"
	"support-agent/model"
)

type fakeLookup struct {
	orders map[int]model.OrderRecord
}

func (f *fakeLookup) LookupOrder(ctx context.Context, orderID int) (*model.OrderRecord, error) {
	if rec, ok := f.orders[orderID]; ok {
		r := rec
		return &r, nil
	}
	return nil, dataset.ErrNotFound
}

func (f *fakeLookup) LookupFAQ(ctx context.Context, question string) (string, error) {
	return "", dataset.ErrNotFound
}

func (f *fakeLookup) LookupCustomer(ctx context.Context, customerID string) (*model.CustomerSummary, error) {
	return nil, dataset.ErrNotFound
}

func (f *fakeLookup) CreateTicket(ctx context.Context, t *model.Ticket) error {
	return nil
}

func setup(t *testing.T, intent model.Intent, orderID int) (*Flows, *model.Session) {
	t.Helper()
	fl := New(&fakeLookup{orders: map[int]model.OrderRecord{
		1234: {OrderID: 1234, Product: "Bluetooth Headphones", Status: model.OrderStatusProcessing, Amount: 1999},
		45:   {OrderID: 45, Product: "Coffee Maker", Status: model.OrderStatusDelivered, Amount: 3200},
		777:  {OrderID: 777, Product: "Yoga Mat", Status: model.OrderStatusRefunded, Amount: 599},
	}})

	session := model.NewSession("s1")
	session.State.ActiveIntent = intent
	session.State.Context = model.NewFlowContext(intent)
	if orderID != 0 {
		session.State.SetOrderID(orderID)
	}
	return fl, session
}

func TestBillingAsksForOrderNumber(t *testing.T) {
	fl, session := setup(t, model.IntentBillingIssue, 0)

	reply, done, slot, err := fl.HandleBilling(context.Background(), session, &Turn{Message: "I have a billing issue"})
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("asking for a slot must not finish the workflow")
	}
	if slot != model.SlotOrderID {
		t.Errorf("slot = %q, want order_id", slot)
	}
	if !strings.Contains(strings.ToLower(reply), "order number") {
		t.Errorf("reply = %q, want ask for order number", reply)
	}
}

func TestBillingDoubleChargeStaysOpen(t *testing.T) {
	fl, session := setup(t, model.IntentBillingIssue, 1234)

	reply, done, _, err := fl.HandleBilling(context.Background(), session, &Turn{Message: "I was charged twice for this"})
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("double charge explanation should stay in the workflow")
	}
	if !strings.Contains(reply, "#1234") || !strings.Contains(reply, "authorization holds") {
		t.Errorf("reply = %q", reply)
	}
	// 澄清往来期间意图和上下文不得被动
	if session.State.ActiveIntent != model.IntentBillingIssue {
		t.Error("clarification must not reset the intent")
	}
}

func TestBillingRefundedOrderAsksAboutBank(t *testing.T) {
	fl, session := setup(t, model.IntentBillingIssue, 777)

	reply, done, _, err := fl.HandleBilling(context.Background(), session, &Turn{Message: "where is my refund"})
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("refund follow-up question should stay open")
	}
	if !strings.Contains(reply, "refunded") || !strings.Contains(reply, "bank account") {
		t.Errorf("reply = %q", reply)
	}
}

func TestBillingEscalationIsTerminal(t *testing.T) {
	fl, session := setup(t, model.IntentBillingIssue, 777)

	reply, done, _, err := fl.HandleBilling(context.Background(), session, &Turn{Message: "no, haven't received it yet"})
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("escalation must finish the workflow")
	}
	if !strings.Contains(reply, "escalated") {
		t.Errorf("reply = %q, want escalation", reply)
	}
}

func TestReturnEligibilityByStatus(t *testing.T) {
	tests := []struct {
		name     string
		orderID  int
		wantPart string
	}{
		{name: "delivered gives instructions", orderID: 45, wantPart: "schedule a pickup"},
		{name: "processing not eligible yet", orderID: 1234, wantPart: "may not be eligible"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fl, session := setup(t, model.IntentReturnOrder, tt.orderID)
			reply, done, _, err := fl.HandleReturn(context.Background(), session, &Turn{Message: "I want to return this"})
			if err != nil {
				t.Fatal(err)
			}
			if !done {
				t.Error("return answer should finish the workflow")
			}
			if !strings.Contains(reply, tt.wantPart) {
				t.Errorf("reply = %q, want %q", reply, tt.wantPart)
			}
		})
	}
}

func TestDetailAnswersAskedField(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantPart string
	}{
		{name: "price", message: "what is the price", wantPart: "₹1999"},
		{name: "product", message: "what product did I get", wantPart: "Bluetooth Headphones"},
		{name: "full details", message: "give me the details", wantPart: "Status: processing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fl, session := setup(t, model.IntentOrderDetail, 1234)
			reply, done, _, err := fl.HandleDetail(context.Background(), session, &Turn{Message: tt.message})
			if err != nil {
				t.Fatal(err)
			}
			if !done {
				t.Error("detail answer should finish the workflow")
			}
			if !strings.Contains(reply, tt.wantPart) {
				t.Errorf("reply = %q, want %q", reply, tt.wantPart)
			}
		})
	}
}

func TestInvalidOrderClearsOnlyTheNumber(t *testing.T) {
	fl, session := setup(t, model.IntentOrderStatus, 99999)
	session.PersistentEntities["order_number"] = "99999"

	reply, done, slot, err := fl.HandleStatus(context.Background(), session, &Turn{Message: "99999"})
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("bad order number must not finish the workflow")
	}
	if slot != model.SlotOrderID {
		t.Errorf("slot = %q, want order_id", slot)
	}
	if !strings.Contains(reply, "recheck") {
		t.Errorf("reply = %q, want recheck prompt", reply)
	}
	if _, ok := session.PersistentEntities["order_number"]; ok {
		t.Error("invalid order number must be forgotten")
	}
	if session.State.ActiveIntent != model.IntentOrderStatus {
		t.Error("intent must survive a bad order number")
	}
}
