package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"support-agent/model"
)

type seedFile struct {
	Customers []seedCustomer `json:"customers"`
	FAQs      []model.FAQ    `json:"faqs"`
}

type seedCustomer struct {
	CustomerID string      `json:"customer_id"`
	Name       string      `json:"name"`
	Orders     []seedOrder `json:"orders"`
}

type seedOrder struct {
	OrderID  string  `json:"order_id"` // 原始引用，允许 ORD/# 等前缀
	Product  string  `json:"product"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Platform string  `json:"platform"`
}

var digitRun = regexp.MustCompile(`\d+`)

// numericOrderID 从带前缀的订单引用里取出数字主键，如 "ORD00045" -> 45
func numericOrderID(ref string) (int, bool) {
	m := digitRun.FindString(ref)
	if m == "" {
		return 0, false
	}
	id, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return id, true
}

// normalizeStatus 把数据集里的状态写法归一到固定词表
func normalizeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "_")
	switch s {
	case model.OrderStatusProcessing, model.OrderStatusShipped, model.OrderStatusInTransit,
		model.OrderStatusDelivered, model.OrderStatusReturned, model.OrderStatusRefunded,
		model.OrderStatusCancelled:
		return s
	case "pending":
		return model.OrderStatusProcessing
	case "out_for_delivery":
		return model.OrderStatusInTransit
	default:
		return model.OrderStatusUnknown
	}
}

// SeedFromFile 首次启动时灌入数据，订单表非空则跳过
func (s *Store) SeedFromFile(ctx context.Context, path string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range seed.Customers {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO customers (customer_id, name) VALUES (?, ?)`,
			c.CustomerID, c.Name); err != nil {
			return err
		}
		for _, o := range c.Orders {
			id, ok := numericOrderID(o.OrderID)
			if !ok {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO orders (order_id, order_ref, customer_id, product, status, amount, platform)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				id, o.OrderID, c.CustomerID, o.Product, normalizeStatus(o.Status), o.Amount, o.Platform); err != nil {
				return err
			}
		}
	}

	for _, f := range seed.FAQs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO faqs (category, question, answer) VALUES (?, ?, ?)`,
			f.Category, f.Question, f.Answer); err != nil {
			return err
		}
	}

	return tx.Commit()
}
