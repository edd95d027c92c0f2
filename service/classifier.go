package service

import (
	"strings"

	"support-agent/model"
)

// Classifier 按固定优先级表做关键词分类，首个命中即胜出
//
// 优先级是正确性约束：同时命中两个意图的消息永远归给排前面的那个，
// 不打分、不计数、不在运行期重排。
type Classifier struct {
	defs []model.IntentDefinition
}

func NewClassifier(defs []model.IntentDefinition) *Classifier {
	enabled := make([]model.IntentDefinition, 0, len(defs))
	for _, d := range defs {
		if d.Enabled {
			enabled = append(enabled, d)
		}
	}
	return &Classifier{defs: enabled}
}

// DefaultIntentRules 内置意图表，config/intents.yaml 缺失时的兜底，
// 顺序即优先级。order_status 的关键词刻意不含裸词 "delivery"，
// 避免与 "food delivery subscription" 这类 FAQ 表述撞车。
func DefaultIntentRules() []model.IntentDefinition {
	return []model.IntentDefinition{
		{
			ID:      model.IntentCustomerLookup,
			Enabled: true,
			Slots:   []string{model.SlotCustomerID},
			Keywords: []string{
				"customer", "customer id", "customer details", "customer information",
				"details regarding customer", "customer profile",
			},
		},
		{
			ID:      model.IntentOrderDetail,
			Enabled: true,
			Slots:   []string{model.SlotOrderID},
			Keywords: []string{
				"price", "cost", "amount", "details", "detail", "product", "item", "ordered",
			},
		},
		{
			ID:      model.IntentReturnOrder,
			Enabled: true,
			Slots:   []string{model.SlotOrderID},
			Keywords: []string{
				"return", "exchange", "send back", "wrong item", "defective", "damaged",
				"not what i ordered", "incorrect", "faulty",
				"cancel", "cancellation",
			},
		},
		{
			ID:      model.IntentOrderStatus,
			Enabled: true,
			Slots:   []string{model.SlotOrderID},
			Keywords: []string{
				"track", "status", "where is", "when will", "shipped", "arrive",
				"eta", "tracking", "delivered",
			},
		},
		{
			ID:      model.IntentBillingIssue,
			Enabled: true,
			Slots:   []string{model.SlotOrderID},
			Keywords: []string{
				"charged", "double", "refund", "payment", "billing", "debited", "money deducted",
			},
		},
		{
			ID:      model.IntentFAQ,
			Enabled: true,
			Keywords: []string{
				"subscription", "food delivery", "internet", "connection", "issue",
				"problem", "help", "support", "question", "how to", "what is",
				"contact", "hours", "business", "app", "crashing", "technical",
				"coupon", "discount", "offer", "promo", "food", "restaurant",
			},
		},
	}
}

// Match 返回首个命中的意图；无命中时 matched 为 false
func (c *Classifier) Match(message string) (model.Intent, bool) {
	lower := strings.ToLower(message)
	for _, d := range c.defs {
		if containsAny(lower, d.Keywords) {
			return d.ID, true
		}
	}
	return model.IntentNone, false
}

// Classify 对外永远给出一个意图：无命中按 FAQ 处理
func (c *Classifier) Classify(message string) model.Intent {
	if intent, ok := c.Match(message); ok {
		return intent
	}
	return model.IntentFAQ
}

// SlotsFor 返回意图所需的槽位，FAQ 不需要任何槽位
func (c *Classifier) SlotsFor(intent model.Intent) []string {
	for _, d := range c.defs {
		if d.ID == intent {
			return d.Slots
		}
	}
	return nil
}
