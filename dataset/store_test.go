package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"support-agent/model"
)

const testSeed = `{
  "customers": [
    {
      "customer_id": "CUST0001",
      "name": "Aarav Sharma",
      "orders": [
        {"order_id": "ORD54582", "product": "Groceries", "status": "In Transit", "amount": 1240, "platform": "BigBasket"},
        {"order_id": "ORD1234", "product": "Bluetooth Headphones", "status": "Processing", "amount": 1999}
      ]
    },
    {
      "customer_id": "CUST0002",
      "name": "Meera Iyer",
      "orders": [
        {"order_id": "ORD00045", "product": "Coffee Maker", "status": "Delivered", "amount": 3200}
      ]
    }
  ],
  "faqs": [
    {"category": "general queries", "question": "How do I contact support?", "answer": "You can reach us at support@example.com or call 1800-000-000."},
    {"category": "delivery", "question": "When will my order arrive?", "answer": "Standard delivery takes 3-5 business days."},
    {"category": "returns & refunds", "question": "How do I return an item?", "answer": "Go to My Orders, select the item, and schedule a pickup."}
  ]
}`

func openSeeded(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()

	seedPath := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(seedPath, []byte(testSeed), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := Open(filepath.Join(dir, "support.db"), 3*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.SeedFromFile(context.Background(), seedPath); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestLookupOrderNormalizesOnIngest(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	// "ORD54582" 入库后按纯数字主键可查，状态已归一
	rec, err := store.LookupOrder(ctx, 54582)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Product != "Groceries" {
		t.Errorf("Product = %q, want Groceries", rec.Product)
	}
	if rec.Status != model.OrderStatusInTransit {
		t.Errorf("Status = %q, want in_transit", rec.Status)
	}
	if rec.OrderRef != "ORD54582" {
		t.Errorf("OrderRef = %q, want ORD54582", rec.OrderRef)
	}

	// "ORD00045" 的前导零同样归一成 45
	rec, err = store.LookupOrder(ctx, 45)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Product != "Coffee Maker" {
		t.Errorf("Product = %q, want Coffee Maker", rec.Product)
	}

	if _, err := store.LookupOrder(ctx, 99999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing order err = %v, want ErrNotFound", err)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	// 订单表非空时再次导入是空操作
	if err := store.SeedFromFile(ctx, "does-not-exist.json"); err != nil {
		t.Fatalf("re-seed should skip without touching the file, got %v", err)
	}
}

func TestLookupFAQSelectsByCategory(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	answer, err := store.LookupFAQ(ctx, "how do I contact support")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer, "support@example.com") {
		t.Errorf("answer = %q, want the contact answer", answer)
	}

	answer, err = store.LookupFAQ(ctx, "when will my delivery arrive")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer, "3-5 business days") {
		t.Errorf("answer = %q, want the delivery answer", answer)
	}

	if _, err := store.LookupFAQ(ctx, "zzz qqq"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unmatched question err = %v, want ErrNotFound", err)
	}
}

func TestLookupCustomerAggregates(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	summary, err := store.LookupCustomer(ctx, "CUST0001")
	if err != nil {
		t.Fatal(err)
	}
	if summary.Name != "Aarav Sharma" {
		t.Errorf("Name = %q, want Aarav Sharma", summary.Name)
	}
	if summary.TotalOrders != 2 {
		t.Errorf("TotalOrders = %d, want 2", summary.TotalOrders)
	}
	if summary.TotalAmount != 3239 {
		t.Errorf("TotalAmount = %v, want 3239", summary.TotalAmount)
	}
	if summary.StatusCounts[model.OrderStatusInTransit] != 1 {
		t.Errorf("StatusCounts = %v, want one in_transit", summary.StatusCounts)
	}

	if _, err := store.LookupCustomer(ctx, "CUST9999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing customer err = %v, want ErrNotFound", err)
	}
}

func TestCreateTicket(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	ticket := &model.Ticket{
		ID:          "t-1",
		SessionID:   "s-1",
		Intent:      model.IntentBillingIssue,
		Subject:     "refund not received",
		Description: "refund for order 1234 has not arrived",
		Status:      model.TicketOpen,
		CreatedAt:   time.Now().Format(time.RFC3339),
		UpdatedAt:   time.Now().Format(time.RFC3339),
	}
	if err := store.CreateTicket(ctx, ticket); err != nil {
		t.Fatal(err)
	}

	// 主键冲突必须报错而不是静默覆盖
	if err := store.CreateTicket(ctx, ticket); err == nil {
		t.Error("duplicate ticket id should fail")
	}
}
