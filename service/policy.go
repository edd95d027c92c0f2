package service

import (
	"fmt"
	"strings"

	"support-agent/model"
)

// 事务性回复全部出自这张固定模板表，绝不动用自由文本生成。
// 同一 (诉求, 订单状态) 组合永远给出逐字相同的措辞，只替换订单号。

type templateKey struct {
	resolution model.ResolutionKind
	status     string
}

var responseTemplates = map[templateKey]string{
	// 退款
	{model.ResolutionRefund, model.OrderStatusProcessing}: "I'm sorry for the inconvenience. I've successfully initiated a refund for order #%d. The amount will be credited within 3-5 business days.",
	{model.ResolutionRefund, model.OrderStatusUnknown}:    "I'm sorry for the inconvenience. I've successfully initiated a refund for order #%d. The amount will be credited within 3-5 business days.",
	{model.ResolutionRefund, model.OrderStatusShipped}:    "I'm sorry for the inconvenience. Order #%d has already been shipped, so a refund isn't possible right now. I can help with a replacement or a return after delivery.",
	{model.ResolutionRefund, model.OrderStatusInTransit}:  "I'm sorry for the inconvenience. Order #%d is already on its way, so a refund isn't possible right now. I can help with a replacement or a return after delivery.",
	{model.ResolutionRefund, model.OrderStatusDelivered}:  "I'm sorry for the inconvenience. Order #%d has already been delivered, so a refund isn't possible right now. I can help with the return process instead.",
	{model.ResolutionRefund, model.OrderStatusCancelled}:  "Order #%d has already been cancelled and a refund is being processed. You'll receive the credit within 3-5 business days.",
	{model.ResolutionRefund, model.OrderStatusRefunded}:   "Order #%d has already been refunded. The credit should appear in your account within 3-5 business days.",
	{model.ResolutionRefund, model.OrderStatusReturned}:   "Order #%d has been returned and your refund is on its way. The credit should appear in your account within 3-5 business days.",

	// 换货
	{model.ResolutionReplacement, model.OrderStatusProcessing}: "Sorry about the mix-up. I've initiated a replacement for order #%d. The correct item will be delivered within 2-3 business days.",
	{model.ResolutionReplacement, model.OrderStatusUnknown}:    "Sorry about the mix-up. I've initiated a replacement for order #%d. The correct item will be delivered within 2-3 business days.",
	{model.ResolutionReplacement, model.OrderStatusShipped}:    "Sorry about the mix-up. Since order #%d has already shipped, I've arranged for a replacement to be sent. You'll receive the correct item within 2-3 business days.",
	{model.ResolutionReplacement, model.OrderStatusInTransit}:  "Sorry about the mix-up. Since order #%d is already on its way, I've arranged for a replacement to be sent. You'll receive the correct item within 2-3 business days.",
	{model.ResolutionReplacement, model.OrderStatusDelivered}:  "Sorry about the mix-up. I've initiated a replacement for order #%d. The correct item will be delivered within 2-3 business days.",
	{model.ResolutionReplacement, model.OrderStatusCancelled}:  "I apologize for the inconvenience. Order #%d has been cancelled, so I can't arrange a replacement. I can help you place a new order instead.",
	{model.ResolutionReplacement, model.OrderStatusRefunded}:   "I apologize for the inconvenience. Order #%d has been refunded, so I can't arrange a replacement. I can help you place a new order instead.",
	{model.ResolutionReplacement, model.OrderStatusReturned}:   "Sorry about the mix-up. Order #%d has been returned, so I've initiated a replacement. The correct item will be delivered within 2-3 business days.",

	// 取消
	{model.ResolutionCancel, model.OrderStatusProcessing}: "Your order #%d has been successfully cancelled. A full refund will be processed within 3-5 business days.",
	{model.ResolutionCancel, model.OrderStatusUnknown}:    "Your order #%d has been successfully cancelled. A full refund will be processed within 3-5 business days.",
	{model.ResolutionCancel, model.OrderStatusShipped}:    "I'm sorry, but order #%d has already been shipped and cannot be cancelled. I can help arrange a return after delivery.",
	{model.ResolutionCancel, model.OrderStatusInTransit}:  "I'm sorry, but order #%d is already on its way and cannot be cancelled. I can help arrange a return after delivery.",
	{model.ResolutionCancel, model.OrderStatusDelivered}:  "I'm sorry, but order #%d has already been delivered and cannot be cancelled. I can help with the return process instead.",
	{model.ResolutionCancel, model.OrderStatusCancelled}:  "Order #%d has already been cancelled. A full refund will be processed within 3-5 business days.",
	{model.ResolutionCancel, model.OrderStatusRefunded}:   "Order #%d has already been cancelled and refunded. The credit should appear in your account within 3-5 business days.",
	{model.ResolutionCancel, model.OrderStatusReturned}:   "Order #%d has already been returned, so there is nothing left to cancel. Your refund is being processed.",
}

// 无明确问题类别时的兜底模板
var generalTemplates = map[string]string{
	model.OrderStatusProcessing: "I've successfully processed your request for order #%d. You'll receive confirmation and updates shortly.",
	model.OrderStatusUnknown:    "I've successfully processed your request for order #%d. You'll receive confirmation and updates shortly.",
	model.OrderStatusShipped:    "I understand your concern about order #%d. Since it has already shipped, I've noted your request and our team will follow up with you shortly.",
	model.OrderStatusInTransit:  "I understand your concern about order #%d. Since it is already on its way, I've noted your request and our team will follow up with you shortly.",
	model.OrderStatusDelivered:  "I understand your concern about order #%d. Since it has been delivered, I've noted your request and our team will follow up with you shortly.",
	model.OrderStatusCancelled:  "Order #%d has already been cancelled. If you need further assistance, please let me know.",
	model.OrderStatusRefunded:   "Order #%d has already been refunded. The credit should appear in your account within 3-5 business days.",
	model.OrderStatusReturned:   "Order #%d has already been returned. If you need further assistance, please let me know.",
}

const (
	postResolutionReply = "Is there anything else I can help you with?"
	conversationClosed  = "You're welcome! Feel free to reach out if you need any more help."
	restateReply        = "I'm sorry, something went wrong on my end. Could you restate your request?"
)

// PolicyResponse 按 (诉求, 订单状态) 选定最终回复；
// 组合缺失时逐级回退，最后落到人工协助的统一模板，绝不沉默。
func PolicyResponse(resolution model.ResolutionKind, status string, orderID int) string {
	status = strings.ToLower(status)

	if tpl, ok := responseTemplates[templateKey{resolution, status}]; ok {
		return fmt.Sprintf(tpl, orderID)
	}
	if tpl, ok := generalTemplates[status]; ok {
		return fmt.Sprintf(tpl, orderID)
	}
	return PolicyFallback(orderID)
}

// PolicyFallback 无法匹配任何模板时的唯一出口
func PolicyFallback(orderID int) string {
	if orderID != 0 {
		return fmt.Sprintf("Let me connect you with the right help for order #%d. Our support team will follow up shortly.", orderID)
	}
	return "Let me connect you with the right help. Our support team will follow up shortly."
}

// ValidatePolicyResponse 校验最终回复：必须提到订单号，且不得反问
//
// 校验失败说明模板表被改坏了，调用方退回统一兜底模板。
func ValidatePolicyResponse(response string, orderID int) bool {
	if response == "" {
		return false
	}
	if orderID != 0 && !strings.Contains(response, fmt.Sprintf("#%d", orderID)) {
		return false
	}
	return !strings.Contains(response, "?")
}
