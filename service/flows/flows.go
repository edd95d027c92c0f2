package flows

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"support-agent/dataset"
	"support-agent/model"
)

// Turn 一个回合的输入：原始消息和本回合的抽取结果
type Turn struct {
	Message string
	Req     model.ExtractedRequest
}

// Handler 工作流处理器
// 返回值说明：
//   - reply: 回复给用户的文本
//   - done: 工作流是否已终结（终结后由引擎复位对话状态）
//   - pendingSlot: 仍缺的槽位名（done 为 false 且还差一个值时设置）
//   - err: 处理过程中的错误
type Handler func(ctx context.Context, session *model.Session, turn *Turn) (reply string, done bool, pendingSlot string, err error)

// Flows 各意图工作流的集合，每个服务实例持有自己的数据集协作方
type Flows struct {
	ds dataset.Lookup
}

func New(ds dataset.Lookup) *Flows {
	return &Flows{ds: ds}
}

const orderNotFoundReply = "I couldn't find that order. Please recheck the order number."

// lookupOrder 查订单。超时/不可用与查无记录对用户等价，但日志分开记
func (f *Flows) lookupOrder(ctx context.Context, orderID int) (*model.OrderRecord, bool) {
	rec, err := f.ds.LookupOrder(ctx, orderID)
	if err == nil {
		return rec, true
	}
	if errors.Is(err, dataset.ErrNotFound) {
		log.Printf("[flows] 订单 %d 不存在", orderID)
	} else {
		log.Printf("[flows] 订单查询不可用（按未找到处理）: %v", err)
	}
	return nil, false
}

// orderNotFound 查无订单的统一重试路径：只清无效订单号，意图保持不动
func orderNotFound(session *model.Session, orderID int) (string, bool, string, error) {
	session.State.ClearOrderID()
	if session.PersistentEntities["order_number"] == strconv.Itoa(orderID) {
		delete(session.PersistentEntities, "order_number")
	}
	return orderNotFoundReply, false, model.SlotOrderID, nil
}

// effectiveStatus 会话内已发生过的状态变更优先于数据集里的快照
func effectiveStatus(session *model.Session, rec *model.OrderRecord) string {
	if s, ok := session.OrderStates[strconv.Itoa(rec.OrderID)]; ok && s != "" {
		return s
	}
	return rec.Status
}

func hasAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
