package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"support-agent/dao"
	"support-agent/dataset"
	"support-agent/model"
	"support-agent/service/flows"
)

// ChatService 对话引擎：一条消息进来，一条确定性的回复出去。
// 同一会话内的回合串行处理，不同会话互不阻塞。
type ChatService struct {
	store      dao.SessionStore
	ds         dataset.Lookup
	classifier *Classifier
	locks      sessionLocks
	idleTTL    time.Duration
	workflows  map[model.Intent]flows.Handler
}

func NewChatService(store dao.SessionStore, ds dataset.Lookup, classifier *Classifier, idleTTL time.Duration) *ChatService {
	fl := flows.New(ds)
	return &ChatService{
		store:      store,
		ds:         ds,
		classifier: classifier,
		idleTTL:    idleTTL,
		workflows: map[model.Intent]flows.Handler{
			model.IntentCustomerLookup: fl.HandleCustomerLookup,
			model.IntentOrderDetail:    fl.HandleDetail,
			model.IntentReturnOrder:    fl.HandleReturn,
			model.IntentOrderStatus:    fl.HandleStatus,
			model.IntentBillingIssue:   fl.HandleBilling,
			model.IntentFAQ:            fl.HandleFAQ,
		},
	}
}

// 结束语识别：单词类短语必须按词边界匹配，避免 "greatest" 这类误伤。
// 疑问句不算告别（"great, what are your business hours?" 是提问不是道别）。
var (
	completionRe    = regexp.MustCompile(`(?i)\b(thanks|thank you|that helps|that's all|thats all|no more questions|perfect|great|solved|resolved|done|bye|goodbye)\b`)
	interrogativeRe = regexp.MustCompile(`(?i)[?]|\b(how|what|when|where|why|who|which)\b`)
)

// sessionLocks 按会话号派发互斥锁，保证同会话回合串行
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *sessionLocks) get(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	if _, ok := l.m[sessionID]; !ok {
		l.m[sessionID] = &sync.Mutex{}
	}
	return l.m[sessionID]
}

// evict 会话销毁后回收对应的锁，防止锁表随会话数单调增长
func (l *sessionLocks) evict(sessionID string) {
	l.mu.Lock()
	delete(l.m, sessionID)
	l.mu.Unlock()
}

// HandleTurn 处理一个对话回合
//
// 回合内的判定顺序是固定的，顺序本身就是语义：
//  1. 结束语 -> 关闭会话
//  2. 已办结会话的后续消息 -> 追问或重新开工
//  3. 实体齐备的完整请求 -> 快速通道一步办结
//  4. 槽位填充 / 换话题
//  5. 意图锁定与工作流派发
func (s *ChatService) HandleTurn(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	mu := s.locks.get(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	session.AddMessage(model.RoleUser, req.Message)
	session.Touch()
	ExtractProfileHints(req.Message, &session.Profile)

	reply := s.processTurn(ctx, session, req.Message)

	session.AddMessage(model.RoleAssistant, reply)
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session %s: %w", sessionID, err)
	}

	phase := session.State.Phase()
	if session.Resolved {
		phase = model.PhaseResolved
	}
	return &model.ChatResponse{
		Reply:       reply,
		SessionID:   sessionID,
		Intent:      session.State.ActiveIntent,
		Phase:       phase,
		PendingSlot: session.State.PendingSlot,
		Resolved:    session.Resolved,
	}, nil
}

func (s *ChatService) processTurn(ctx context.Context, session *model.Session, message string) string {
	extracted := ExtractRequest(message)
	s.rememberEntities(session, extracted)

	matchedIntent, matched := s.classifier.Match(message)
	merged, complete := DetectCompleteRequest(extracted, session)

	// 结束语：带订单号、疑问语气或新诉求意图的消息不算告别
	// （"thanks for your help" 会撞上 FAQ 关键词，FAQ 不拦告别）
	if completionRe.MatchString(message) && !interrogativeRe.MatchString(message) &&
		!extracted.HasOrderID && (!matched || matchedIntent == model.IntentFAQ) {
		s.finishWorkflow(session)
		return conversationClosed
	}

	// 已办结会话：中性消息只追问一句，带新诉求的消息重新开工
	if session.Resolved {
		if !matched && !complete {
			return postResolutionReply
		}
		session.Resolved = false
	}

	// 快速通道：订单号 + 诉求齐备，跳过分类和槽位填充
	if complete {
		reply, done := s.resolveComplete(ctx, session, merged)
		if done {
			s.finishWorkflow(session)
		}
		return reply
	}

	state := &session.State

	// 槽位未闭合但意图丢失，状态已不可信，复位重来
	if state.PendingSlot != "" && state.ActiveIntent == model.IntentNone {
		log.Printf("[ChatService] 会话 %s 状态异常（pending_slot=%s 无活动意图），复位", session.ID, state.PendingSlot)
		state.Reset()
		return restateReply
	}

	// 槽位填充
	if state.PendingSlot != "" {
		if s.fillSlot(state, extracted) {
			state.PendingSlot = ""
			return s.dispatch(ctx, session, message, extracted)
		}
		// 槽位没补上，但用户明确换了话题
		if matched && matchedIntent != state.ActiveIntent {
			s.switchTopic(session, matchedIntent, extracted)
			return s.dispatch(ctx, session, message, extracted)
		}
		// 继续向当前工作流要槽位
		return s.dispatch(ctx, session, message, extracted)
	}

	// 意图已锁定且无待收槽位（澄清往来中），换话题同样放行
	if state.ActiveIntent != model.IntentNone {
		if matched && matchedIntent != state.ActiveIntent {
			s.switchTopic(session, matchedIntent, extracted)
		}
		return s.dispatch(ctx, session, message, extracted)
	}

	// 锁定新意图
	s.lockIntent(session, s.classifier.Classify(message), extracted)
	return s.dispatch(ctx, session, message, extracted)
}

// rememberEntities 把本回合抽到的实体追加进会话记忆（覆盖写，不删除）
func (s *ChatService) rememberEntities(session *model.Session, req model.ExtractedRequest) {
	if req.HasOrderID {
		session.PersistentEntities["order_number"] = strconv.Itoa(req.OrderID)
	}
	if req.CustomerID != "" {
		session.PersistentEntities["customer_id"] = req.CustomerID
	}
	if req.Issue != model.IssueNone {
		session.PersistentEntities["issue"] = string(req.Issue)
	}
	if req.Resolution != model.ResolutionNone {
		session.PersistentEntities["resolution"] = string(req.Resolution)
	}
}

// lockIntent 锁定意图并建上下文，意图定义声明的槽位能从本回合或会话记忆里预填的直接预填
func (s *ChatService) lockIntent(session *model.Session, intent model.Intent, req model.ExtractedRequest) {
	state := &session.State
	state.ActiveIntent = intent
	state.PendingSlot = ""
	state.Context = model.NewFlowContext(intent)

	for _, slot := range s.classifier.SlotsFor(intent) {
		switch slot {
		case model.SlotOrderID:
			s.prefillOrderID(session, req)
		case model.SlotCustomerID:
			if c, ok := state.Context.(*model.CustomerContext); ok {
				if req.CustomerID != "" {
					c.CustomerID = req.CustomerID
				} else if v, ok := session.PersistentEntities["customer_id"]; ok {
					c.CustomerID = v
				}
			}
		}
	}

	if c, ok := state.Context.(*model.ReturnContext); ok {
		c.Resolution = req.Resolution
	}
}

func (s *ChatService) prefillOrderID(session *model.Session, req model.ExtractedRequest) {
	if req.HasOrderID {
		session.State.SetOrderID(req.OrderID)
		return
	}
	if v, ok := session.PersistentEntities["order_number"]; ok {
		if id, err := strconv.Atoi(v); err == nil {
			session.State.SetOrderID(id)
		}
	}
}

// fillSlot 用本回合的抽取结果补当前待收槽位
func (s *ChatService) fillSlot(state *model.DialogueState, req model.ExtractedRequest) bool {
	switch state.PendingSlot {
	case model.SlotOrderID:
		if req.HasOrderID {
			state.SetOrderID(req.OrderID)
			return true
		}
	case model.SlotCustomerID:
		if req.CustomerID != "" {
			if c, ok := state.Context.(*model.CustomerContext); ok {
				c.CustomerID = req.CustomerID
				return true
			}
		}
	}
	return false
}

// switchTopic 换话题：丢弃旧意图的状态，订单号等记忆保留，问题类别和诉求作废
func (s *ChatService) switchTopic(session *model.Session, intent model.Intent, req model.ExtractedRequest) {
	log.Printf("[ChatService] 会话 %s 换话题 %s -> %s", session.ID, session.State.ActiveIntent, intent)
	session.State.Reset()
	delete(session.PersistentEntities, "issue")
	delete(session.PersistentEntities, "resolution")
	s.lockIntent(session, intent, req)
}

// dispatch 派发到当前意图的工作流处理器
func (s *ChatService) dispatch(ctx context.Context, session *model.Session, message string, req model.ExtractedRequest) string {
	handler, ok := s.workflows[session.State.ActiveIntent]
	if !ok {
		handler = s.workflows[model.IntentFAQ]
	}

	turn := &flows.Turn{Message: message, Req: req}
	reply, done, pendingSlot, err := handler(ctx, session, turn)
	if err != nil {
		log.Printf("[ChatService] 会话 %s 工作流 %s 执行失败: %v", session.ID, session.State.ActiveIntent, err)
		session.State.Reset()
		return restateReply
	}

	if done {
		s.finishWorkflow(session)
	} else {
		session.State.PendingSlot = pendingSlot
	}
	return reply
}

// finishWorkflow 工作流终结：标记已办结并复位状态，问题类别和诉求的记忆作废
func (s *ChatService) finishWorkflow(session *model.Session) {
	session.Resolved = true
	session.State.Reset()
	delete(session.PersistentEntities, "issue")
	delete(session.PersistentEntities, "resolution")
}

// ClearSession 整体清除一条会话，可重复调用
func (s *ChatService) ClearSession(ctx context.Context, sessionID string) error {
	mu := s.locks.get(sessionID)
	mu.Lock()
	defer mu.Unlock()
	if err := s.store.Destroy(ctx, sessionID); err != nil {
		return err
	}
	s.locks.evict(sessionID)
	return nil
}

// SessionInfo 透出会话当前内部状态的调试视图
func (s *ChatService) SessionInfo(ctx context.Context, sessionID string) (*model.SessionInfo, error) {
	mu := s.locks.get(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	phase := session.State.Phase()
	if session.Resolved {
		phase = model.PhaseResolved
	}
	return &model.SessionInfo{
		SessionID:          session.ID,
		Phase:              phase,
		ActiveIntent:       session.State.ActiveIntent,
		PendingSlot:        session.State.PendingSlot,
		PersistentEntities: session.PersistentEntities,
		Resolved:           session.Resolved,
		HistoryLen:         len(session.History),
		CreatedAt:          session.CreatedAt,
		LastActiveAt:       session.LastActiveAt,
	}, nil
}

// CreateTicket 人工工单，快速通道兜底失败或用户主动升级时使用
func (s *ChatService) CreateTicket(ctx context.Context, sessionID, userID, subject, description string, intent model.Intent) (*model.Ticket, error) {
	now := time.Now().Format(time.RFC3339)
	t := &model.Ticket{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		UserID:      userID,
		Intent:      intent,
		Subject:     strings.TrimSpace(subject),
		Description: strings.TrimSpace(description),
		Status:      model.TicketOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.ds.CreateTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	return t, nil
}

// SweepIdle 清扫闲置超时的会话，和正常回合抢同一把会话锁
func (s *ChatService) SweepIdle(ctx context.Context) {
	cutoff := time.Now().Add(-s.idleTTL)
	ids, err := s.store.IdleSince(ctx, cutoff)
	if err != nil {
		log.Printf("[ChatService] 闲置会话扫描失败: %v", err)
		return
	}
	for _, id := range ids {
		mu := s.locks.get(id)
		mu.Lock()
		if err := s.store.Destroy(ctx, id); err != nil {
			log.Printf("[ChatService] 清除闲置会话 %s 失败: %v", id, err)
		} else {
			s.locks.evict(id)
		}
		mu.Unlock()
	}
	if len(ids) > 0 {
		log.Printf("[ChatService] 已清除 %d 条闲置会话", len(ids))
	}
}
