package service

import (
	"strconv"

	"support-agent/model"
)

// DetectCompleteRequest 判断本回合是否构成完整的事务请求
//
// 完整 = 本条消息自身齐备，或会话里已记住的实体 + 本回合补上的缺口。
// 命中后调用方直接走快速通道，跳过意图分类和槽位填充，
// 一句话说全的请求（"refund order 1234, wrong item"）绝不拆成多轮。
func DetectCompleteRequest(req model.ExtractedRequest, session *model.Session) (model.ExtractedRequest, bool) {
	merged := req

	if !merged.HasOrderID {
		if v, ok := session.PersistentEntities["order_number"]; ok {
			if id, err := strconv.Atoi(v); err == nil {
				merged.OrderID = id
				merged.HasOrderID = true
			}
		}
	}
	if merged.Resolution == model.ResolutionNone {
		if v, ok := session.PersistentEntities["resolution"]; ok {
			merged.Resolution = model.ResolutionKind(v)
		}
	}
	if merged.Issue == model.IssueNone {
		if v, ok := session.PersistentEntities["issue"]; ok {
			merged.Issue = model.IssueKind(v)
		}
	}

	if merged.HasOrderID && merged.Resolution != model.ResolutionNone {
		if merged.Issue == model.IssueNone {
			merged.Issue = model.IssueGeneral
		}
		merged.IsComplete = true
	}

	return merged, merged.IsComplete
}
