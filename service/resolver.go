package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"support-agent/dataset"
	"support-agent/model"
)

// 快速通道：实体已齐备的事务请求直接办结，一个回合内完成
// 查库、状态流转、模板选择，不经过意图分类和槽位填充。

// applyTransition 按诉求推演订单的新状态；不可流转时返回 false
func applyTransition(resolution model.ResolutionKind, status string) (string, bool) {
	switch resolution {
	case model.ResolutionRefund:
		if status == model.OrderStatusProcessing || status == model.OrderStatusUnknown {
			return model.OrderStatusRefunded, true
		}
	case model.ResolutionReplacement:
		switch status {
		case model.OrderStatusProcessing, model.OrderStatusUnknown,
			model.OrderStatusShipped, model.OrderStatusInTransit, model.OrderStatusDelivered:
			return model.OrderStatusReplacementSent, true
		}
	case model.ResolutionCancel:
		if status == model.OrderStatusProcessing || status == model.OrderStatusUnknown {
			return model.OrderStatusCancelled, true
		}
	}
	return status, false
}

// intentForResolution 快速通道查无订单时锁定的后续工作流
func intentForResolution(resolution model.ResolutionKind) model.Intent {
	if resolution == model.ResolutionRefund {
		return model.IntentBillingIssue
	}
	return model.IntentReturnOrder
}

// resolveComplete 办结一个完整请求
//
// 返回 done=false 表示订单号无效：会话已锁进对应工作流重新收号，
// 回复是重报订单号的提示。done=true 表示事务已终结。
func (s *ChatService) resolveComplete(ctx context.Context, session *model.Session, merged model.ExtractedRequest) (string, bool) {
	rec, err := s.ds.LookupOrder(ctx, merged.OrderID)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			log.Printf("[ChatService] 快速通道订单 %d 不存在", merged.OrderID)
		} else {
			log.Printf("[ChatService] 快速通道订单查询不可用（按未找到处理）: %v", err)
		}
		// 无效订单号：进入对应工作流收号，其余记忆保留
		delete(session.PersistentEntities, "order_number")
		session.State.ActiveIntent = intentForResolution(merged.Resolution)
		session.State.Context = model.NewFlowContext(session.State.ActiveIntent)
		session.State.PendingSlot = model.SlotOrderID
		return "I couldn't find that order. Please recheck the order number.", false
	}

	status := rec.Status
	if v, ok := session.OrderStates[strconv.Itoa(rec.OrderID)]; ok && v != "" {
		status = v
	}

	reply := PolicyResponse(merged.Resolution, status, merged.OrderID)
	if !ValidatePolicyResponse(reply, merged.OrderID) {
		log.Printf("[ChatService] 模板校验失败（resolution=%s status=%s），转人工兜底", merged.Resolution, status)
		reply = PolicyFallback(merged.OrderID)
	}
	// 兜底即升级：自动建工单，失败只记日志不拦对话
	if reply == PolicyFallback(merged.OrderID) {
		subject := fmt.Sprintf("escalation for order %d", merged.OrderID)
		desc := fmt.Sprintf("resolution=%s status=%s", merged.Resolution, status)
		if _, err := s.CreateTicket(ctx, session.ID, "", subject, desc, intentForResolution(merged.Resolution)); err != nil {
			log.Printf("[ChatService] 自动建工单失败: %v", err)
		}
	}

	if next, changed := applyTransition(merged.Resolution, status); changed {
		session.OrderStates[strconv.Itoa(rec.OrderID)] = next
	}

	return reply, true
}
