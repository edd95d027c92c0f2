package flows

import (
	"context"
	"fmt"
	"strings"

	"support-agent/model"
)

// HandleDetail 订单详情查询（只读），按用户问的字段给干净的事实性回答
func (f *Flows) HandleDetail(ctx context.Context, session *model.Session, turn *Turn) (string, bool, string, error) {
	orderID, ok := session.State.OrderID()
	if !ok {
		return "Please provide your order number so I can get the details for you.", false, model.SlotOrderID, nil
	}

	rec, found := f.lookupOrder(ctx, orderID)
	if !found {
		return orderNotFound(session, orderID)
	}

	lower := strings.ToLower(turn.Message)

	var reply string
	switch {
	case hasAny(lower, []string{"price", "cost", "amount"}):
		reply = fmt.Sprintf("The price for order #%d is ₹%.0f.", orderID, rec.Amount)
	case hasAny(lower, []string{"product", "item", "ordered"}):
		reply = fmt.Sprintf("Order #%d is for %s.", orderID, rec.Product)
	case hasAny(lower, []string{"details", "detail"}):
		reply = fmt.Sprintf("Order #%d details:\n- Product: %s\n- Amount: ₹%.0f\n- Platform: %s\n- Status: %s",
			orderID, rec.Product, rec.Amount, rec.Platform, effectiveStatus(session, rec))
	default:
		reply = fmt.Sprintf("Order #%d is for %s with amount ₹%.0f.", orderID, rec.Product, rec.Amount)
	}

	return reply, true, "", nil
}
