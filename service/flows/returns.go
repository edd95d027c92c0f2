package flows

import (
	"context"
	"fmt"

	"support-agent/model"
)

// HandleReturn 退换货工作流（含取消——带明确诉求的取消走快速通道，不进这里）
func (f *Flows) HandleReturn(ctx context.Context, session *model.Session, turn *Turn) (string, bool, string, error) {
	orderID, ok := session.State.OrderID()
	if !ok {
		return "I can help you return your order. Please provide your order number so I can check the return eligibility.", false, model.SlotOrderID, nil
	}

	rec, found := f.lookupOrder(ctx, orderID)
	if !found {
		return orderNotFound(session, orderID)
	}

	var reply string
	switch effectiveStatus(session, rec) {
	case model.OrderStatusDelivered:
		reply = fmt.Sprintf("I can help you return order #%d (%s). To return this item, go to 'My Orders', select the item, choose a return reason, and schedule a pickup. Refunds are processed within 5-7 business days after we receive the item.", orderID, rec.Product)
	case model.OrderStatusShipped, model.OrderStatusInTransit:
		reply = fmt.Sprintf("Order #%d is currently on its way. You can return it once it's delivered. You'll have 7 days from delivery to initiate a return.", orderID)
	case model.OrderStatusReturned:
		reply = fmt.Sprintf("Order #%d has already been returned. Your refund will be processed within 5-7 business days after we receive the item.", orderID)
	default:
		reply = fmt.Sprintf("Order #%d has status '%s' and may not be eligible for return. Please contact customer support for assistance with this order.", orderID, effectiveStatus(session, rec))
	}

	return reply, true, "", nil
}
