package flows

import (
	"context"
	"errors"
	"log"

	"support-agent/dataset"
	"support-agent/model"
)

const capabilityMenu = "I can help you with orders, returns, billing issues, and general questions. What would you like assistance with?"

// HandleFAQ 常见问题兜底工作流：命中知识库就答，否则报能力清单
func (f *Flows) HandleFAQ(ctx context.Context, session *model.Session, turn *Turn) (string, bool, string, error) {
	answer, err := f.ds.LookupFAQ(ctx, turn.Message)
	if err != nil {
		if !errors.Is(err, dataset.ErrNotFound) {
			log.Printf("[flows] FAQ 查询不可用（按未命中处理）: %v", err)
		}
		return capabilityMenu, true, "", nil
	}
	return answer, true, "", nil
}
