package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"support-agent/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound 查无记录。调用方据此区分"没查到"和"查询本身失败"
var ErrNotFound = errors.New("dataset: not found")

// Lookup 数据集协作方的窄接口，对话核心只依赖这四个操作
type Lookup interface {
	LookupOrder(ctx context.Context, orderID int) (*model.OrderRecord, error)
	LookupFAQ(ctx context.Context, question string) (string, error)
	LookupCustomer(ctx context.Context, customerID string) (*model.CustomerSummary, error)
	CreateTicket(ctx context.Context, t *model.Ticket) error
}

// Store SQLite 实现。订单号在入库时就归一成纯数字主键，
// "ORD00045" / "#45" 之类的前缀匹配全部收敛在这一层，核心不做字符串匹配。
type Store struct {
	db      *sql.DB
	faqs    []model.FAQ
	timeout time.Duration
}

func Open(path string, timeout time.Duration) (*Store, error) {
	dsn := path + "?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping dataset: %w", err)
	}

	s := &Store{db: db, timeout: timeout}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init dataset schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id    INTEGER PRIMARY KEY,
		order_ref   TEXT,
		customer_id TEXT NOT NULL,
		product     TEXT NOT NULL,
		status      TEXT NOT NULL,
		amount      REAL NOT NULL,
		platform    TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);

	CREATE TABLE IF NOT EXISTS customers (
		customer_id TEXT PRIMARY KEY,
		name        TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS faqs (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		question TEXT NOT NULL,
		answer   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tickets (
		id          TEXT PRIMARY KEY,
		session_id  TEXT,
		user_id     TEXT,
		intent      TEXT,
		subject     TEXT,
		description TEXT,
		status      TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) LookupOrder(ctx context.Context, orderID int) (*model.OrderRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT order_id, order_ref, customer_id, product, status, amount, COALESCE(platform, '')
		 FROM orders WHERE order_id = ?`, orderID)

	var rec model.OrderRecord
	err := row.Scan(&rec.OrderID, &rec.OrderRef, &rec.CustomerID, &rec.Product, &rec.Status, &rec.Amount, &rec.Platform)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// faqCategoryKeywords FAQ 分类关键词表，先选分类再在分类内按词重叠度排序
var faqCategoryKeywords = map[string][]string{
	"orders":             {"order", "track", "tracking", "purchase", "buy", "bought", "placed"},
	"returns & refunds":  {"return", "refund", "exchange", "money back", "cancel"},
	"billing":            {"bill", "payment", "charge", "invoice", "cost", "price", "money", "charged"},
	"delivery":           {"delivery", "shipping", "deliver", "ship", "arrive", "when will"},
	"account & login":    {"account", "login", "password", "sign in", "register"},
	"technical issues":   {"error", "bug", "not working", "broken", "issue", "problem"},
	"general queries":    {"help", "support", "question", "how to", "what is", "contact"},
	"offers & discounts": {"coupon", "discount", "offer", "promo", "code"},
	"payments":           {"payment", "pay", "failed", "deducted"},
}

func (s *Store) LookupFAQ(ctx context.Context, question string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.loadFAQs(ctx); err != nil {
		return "", err
	}

	questionLower := strings.ToLower(strings.TrimSpace(question))

	bestCategory := ""
	maxMatches := 0
	for category, keywords := range faqCategoryKeywords {
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(questionLower, kw) {
				matches++
			}
		}
		if matches > maxMatches {
			maxMatches = matches
			bestCategory = category
		}
	}
	if bestCategory == "" {
		return "", ErrNotFound
	}

	// 分类内按问句词重叠度选最优，全无重叠时退回分类首条
	userWords := wordSet(questionLower)
	var fallback, best string
	bestScore := 0
	for _, faq := range s.faqs {
		if !strings.EqualFold(faq.Category, bestCategory) {
			continue
		}
		if fallback == "" {
			fallback = faq.Answer
		}
		score := 0
		for w := range wordSet(strings.ToLower(faq.Question)) {
			if _, ok := userWords[w]; ok {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = faq.Answer
		}
	}

	if best != "" {
		return best, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrNotFound
}

func (s *Store) loadFAQs(ctx context.Context) error {
	if s.faqs != nil {
		return nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT category, question, answer FROM faqs`)
	if err != nil {
		return err
	}
	defer rows.Close()

	faqs := make([]model.FAQ, 0)
	for rows.Next() {
		var f model.FAQ
		if err := rows.Scan(&f.Category, &f.Question, &f.Answer); err != nil {
			return err
		}
		faqs = append(faqs, f)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.faqs = faqs
	return nil
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[strings.Trim(w, ".,?!")] = struct{}{}
	}
	return set
}

func (s *Store) LookupCustomer(ctx context.Context, customerID string) (*model.CustomerSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM customers WHERE customer_id = ?`, customerID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT order_id, order_ref, customer_id, product, status, amount, COALESCE(platform, '')
		 FROM orders WHERE customer_id = ? ORDER BY order_id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &model.CustomerSummary{
		CustomerID:   customerID,
		Name:         name,
		StatusCounts: make(map[string]int),
	}
	for rows.Next() {
		var rec model.OrderRecord
		if err := rows.Scan(&rec.OrderID, &rec.OrderRef, &rec.CustomerID, &rec.Product, &rec.Status, &rec.Amount, &rec.Platform); err != nil {
			return nil, err
		}
		summary.Orders = append(summary.Orders, rec)
		summary.StatusCounts[rec.Status]++
		summary.TotalAmount += rec.Amount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summary.TotalOrders = len(summary.Orders)
	return summary, nil
}

func (s *Store) CreateTicket(ctx context.Context, t *model.Ticket) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (id, session_id, user_id, intent, subject, description, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SessionID, t.UserID, string(t.Intent), t.Subject, t.Description, string(t.Status), t.CreatedAt, t.UpdatedAt)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
