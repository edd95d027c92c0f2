package flows

import (
	"context"
	"fmt"

	"support-agent/model"
)

// HandleStatus 订单跟踪工作流：回复必须带订单号和商品名，不得反问
func (f *Flows) HandleStatus(ctx context.Context, session *model.Session, turn *Turn) (string, bool, string, error) {
	orderID, ok := session.State.OrderID()
	if !ok {
		return "I can help you track your order. Please provide your order number to check the current status.", false, model.SlotOrderID, nil
	}

	rec, found := f.lookupOrder(ctx, orderID)
	if !found {
		return orderNotFound(session, orderID)
	}

	var reply string
	switch effectiveStatus(session, rec) {
	case model.OrderStatusDelivered:
		reply = fmt.Sprintf("Great news! Your order #%d for %s has been delivered.", orderID, rec.Product)
	case model.OrderStatusInTransit:
		reply = fmt.Sprintf("Your order #%d for %s is currently in transit and on its way to you. You should receive it within 1-2 business days.", orderID, rec.Product)
	case model.OrderStatusShipped:
		reply = fmt.Sprintf("Your order #%d for %s has shipped and is on its way to you.", orderID, rec.Product)
	case model.OrderStatusProcessing:
		reply = fmt.Sprintf("Your order #%d for %s is being processed and will ship soon. You'll receive tracking information once it ships.", orderID, rec.Product)
	case model.OrderStatusCancelled:
		reply = fmt.Sprintf("Your order #%d for %s has been cancelled.", orderID, rec.Product)
	case model.OrderStatusRefunded:
		reply = fmt.Sprintf("Your order #%d for %s has been refunded.", orderID, rec.Product)
	case model.OrderStatusReturned:
		reply = fmt.Sprintf("Your order #%d for %s has been returned.", orderID, rec.Product)
	case model.OrderStatusReplacementSent:
		reply = fmt.Sprintf("A replacement for your order #%d (%s) is on its way to you.", orderID, rec.Product)
	default:
		reply = fmt.Sprintf("Your order #%d for %s has status: %s.", orderID, rec.Product, effectiveStatus(session, rec))
	}

	if rec.Platform != "" {
		reply += fmt.Sprintf(" (Ordered from %s)", rec.Platform)
	}

	return reply, true, "", nil
}
