package flows

import (
	"context"
	"fmt"
	"strings"

	"support-agent/model"
)

// HandleBilling 账单问题工作流
//
// 关键约束：澄清往来期间绝不重置意图和上下文；
// 只有升级分支是终结性的，其余分支都停留在工作流内等待下一条消息。
func (f *Flows) HandleBilling(ctx context.Context, session *model.Session, turn *Turn) (string, bool, string, error) {
	orderID, ok := session.State.OrderID()
	if !ok {
		return "I can help you with billing issues. Please provide your order number so I can look into this for you.", false, model.SlotOrderID, nil
	}

	rec, found := f.lookupOrder(ctx, orderID)
	if !found {
		return orderNotFound(session, orderID)
	}

	lower := strings.ToLower(turn.Message)
	status := effectiveStatus(session, rec)

	// 退款未到账的追问：升级并终结
	if hasAny(lower, []string{"not yet", "haven't received", "still waiting", "has not arrived"}) || strings.TrimSpace(lower) == "no" {
		reply := fmt.Sprintf("Refunds can take 3-5 business days to appear in your account. Since it has been longer for order #%d, I've escalated this to our billing team for immediate review.", orderID)
		return reply, true, "", nil
	}

	// 重复扣款
	if hasAny(lower, []string{"charged twice", "double charge", "charged multiple", "double"}) {
		reply := fmt.Sprintf("I found your order #%d for %s (₹%.0f). Double charges usually occur as temporary authorization holds that get released automatically within 3-5 business days. If you see multiple permanent charges, let me know and I can escalate this immediately.", orderID, rec.Product, rec.Amount)
		return reply, false, "", nil
	}

	// 退款相关的首次询问
	if hasAny(lower, []string{"refund", "refunded", "money back", "didn't get"}) {
		if status == model.OrderStatusRefunded {
			return fmt.Sprintf("I see order #%d shows as refunded. Has the amount reached your bank account yet?", orderID), false, "", nil
		}
		reply := fmt.Sprintf("I found your order #%d for %s (₹%.0f). Let me help you with the refund process. What specific issue are you experiencing?", orderID, rec.Product, rec.Amount)
		return reply, false, "", nil
	}

	// 泛账单问题：给出可办事项，等用户挑一个
	reply := fmt.Sprintf("I found your order #%d for %s (₹%.0f). I can help you with billing issues such as refund requests, double charges, payment method problems, or billing disputes. What specific billing issue are you experiencing with this order?", orderID, rec.Product, rec.Amount)
	return reply, false, "", nil
}
