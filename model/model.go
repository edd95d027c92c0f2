package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type Intent string

const (
	IntentCustomerLookup Intent = "customer_lookup"
	IntentOrderDetail    Intent = "order_detail_query"
	IntentReturnOrder    Intent = "return_order"
	IntentOrderStatus    Intent = "order_status"
	IntentBillingIssue   Intent = "billing_issue"
	IntentFAQ            Intent = "faq"
	IntentNone           Intent = ""
)

type IssueKind string

const (
	IssueWrongItem IssueKind = "wrong_item"
	IssueDelay     IssueKind = "delay"
	IssueDamaged   IssueKind = "damaged"
	IssueGeneral   IssueKind = "general"
	IssueNone      IssueKind = ""
)

type ResolutionKind string

const (
	ResolutionRefund      ResolutionKind = "refund"
	ResolutionReplacement ResolutionKind = "replacement"
	ResolutionCancel      ResolutionKind = "cancel"
	ResolutionNone        ResolutionKind = ""
)

const (
	SlotOrderID    = "order_id"
	SlotCustomerID = "customer_id"
)

const (
	OrderStatusProcessing      = "processing"
	OrderStatusShipped         = "shipped"
	OrderStatusInTransit       = "in_transit"
	OrderStatusDelivered       = "delivered"
	OrderStatusReturned        = "returned"
	OrderStatusRefunded        = "refunded"
	OrderStatusCancelled       = "cancelled"
	OrderStatusReplacementSent = "replacement_sent"
	OrderStatusUnknown         = "unknown"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// 会话所处阶段，由 DialogueState 推导，不单独存储
const (
	PhaseIdle         = "idle"
	PhaseIntentLocked = "intent_locked"
	PhaseResolved     = "resolved"
)

// IntentDefinition 意图定义：关键词表按固定优先级排列，首个命中即胜出
type IntentDefinition struct {
	ID       Intent   `yaml:"id" json:"id"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Slots    []string `yaml:"slots" json:"slots"`
	Enabled  bool     `yaml:"enabled" json:"enabled"`
}

type IntentConfig struct {
	Intents []IntentDefinition `yaml:"intents"`
}

// ExtractedRequest 单条消息的抽取结果，每回合重新计算，用完即弃
type ExtractedRequest struct {
	OrderID    int
	HasOrderID bool
	CustomerID string
	Issue      IssueKind
	Resolution ResolutionKind
	IsComplete bool
}

// FlowContext 按意图区分的工作流上下文，只携带该工作流需要的字段
type FlowContext interface {
	Kind() Intent
}

type BillingContext struct {
	OrderID int `json:"order_id,omitempty"`
}

func (BillingContext) Kind() Intent { return IntentBillingIssue }

type ReturnContext struct {
	OrderID    int            `json:"order_id,omitempty"`
	Resolution ResolutionKind `json:"resolution,omitempty"`
}

func (ReturnContext) Kind() Intent { return IntentReturnOrder }

type StatusContext struct {
	OrderID int `json:"order_id,omitempty"`
}

func (StatusContext) Kind() Intent { return IntentOrderStatus }

type DetailContext struct {
	OrderID int `json:"order_id,omitempty"`
}

func (DetailContext) Kind() Intent { return IntentOrderDetail }

type CustomerContext struct {
	CustomerID string `json:"customer_id,omitempty"`
}

func (CustomerContext) Kind() Intent { return IntentCustomerLookup }

// NewFlowContext 根据意图创建对应的空上下文，FAQ 无需上下文
func NewFlowContext(intent Intent) FlowContext {
	switch intent {
	case IntentBillingIssue:
		return &BillingContext{}
	case IntentReturnOrder:
		return &ReturnContext{}
	case IntentOrderStatus:
		return &StatusContext{}
	case IntentOrderDetail:
		return &DetailContext{}
	case IntentCustomerLookup:
		return &CustomerContext{}
	default:
		return nil
	}
}

// DialogueState 对话状态，每个会话恰好持有一份
type DialogueState struct {
	ActiveIntent      Intent
	PendingSlot       string
	Context           FlowContext
	WorkflowCompleted bool
}

// Phase 推导当前阶段：idle -> intent_locked -> resolved
func (s *DialogueState) Phase() string {
	switch {
	case s.WorkflowCompleted:
		return PhaseResolved
	case s.ActiveIntent != IntentNone:
		return PhaseIntentLocked
	default:
		return PhaseIdle
	}
}

// Reset 清空对话状态，仅在工作流终结或明确换话题时调用
func (s *DialogueState) Reset() {
	s.ActiveIntent = IntentNone
	s.PendingSlot = ""
	s.Context = nil
	s.WorkflowCompleted = false
}

// OrderID 从当前上下文读取订单号
func (s *DialogueState) OrderID() (int, bool) {
	switch c := s.Context.(type) {
	case *BillingContext:
		return c.OrderID, c.OrderID != 0
	case *ReturnContext:
		return c.OrderID, c.OrderID != 0
	case *StatusContext:
		return c.OrderID, c.OrderID != 0
	case *DetailContext:
		return c.OrderID, c.OrderID != 0
	}
	return 0, false
}

// SetOrderID 将订单号写入当前上下文，上下文缺失时按活动意图补建
func (s *DialogueState) SetOrderID(id int) {
	if s.Context == nil {
		s.Context = NewFlowContext(s.ActiveIntent)
	}
	switch c := s.Context.(type) {
	case *BillingContext:
		c.OrderID = id
	case *ReturnContext:
		c.OrderID = id
	case *StatusContext:
		c.OrderID = id
	case *DetailContext:
		c.OrderID = id
	}
}

// ClearOrderID 仅清除无效订单号，上下文其余字段保留
func (s *DialogueState) ClearOrderID() {
	switch c := s.Context.(type) {
	case *BillingContext:
		c.OrderID = 0
	case *ReturnContext:
		c.OrderID = 0
	case *StatusContext:
		c.OrderID = 0
	case *DetailContext:
		c.OrderID = 0
	}
}

// contextEnvelope 上下文落库时的带标签信封，kind 决定反序列化目标类型
type contextEnvelope struct {
	Kind Intent          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type dialogueStateJSON struct {
	ActiveIntent      Intent           `json:"active_intent,omitempty"`
	PendingSlot       string           `json:"pending_slot,omitempty"`
	Context           *contextEnvelope `json:"context,omitempty"`
	WorkflowCompleted bool             `json:"workflow_completed,omitempty"`
}

func (s DialogueState) MarshalJSON() ([]byte, error) {
	out := dialogueStateJSON{
		ActiveIntent:      s.ActiveIntent,
		PendingSlot:       s.PendingSlot,
		WorkflowCompleted: s.WorkflowCompleted,
	}
	if s.Context != nil {
		data, err := json.Marshal(s.Context)
		if err != nil {
			return nil, err
		}
		out.Context = &contextEnvelope{Kind: s.Context.Kind(), Data: data}
	}
	return json.Marshal(out)
}

func (s *DialogueState) UnmarshalJSON(b []byte) error {
	var in dialogueStateJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	s.ActiveIntent = in.ActiveIntent
	s.PendingSlot = in.PendingSlot
	s.WorkflowCompleted = in.WorkflowCompleted
	s.Context = nil
	if in.Context == nil {
		return nil
	}
	ctx := NewFlowContext(in.Context.Kind)
	if ctx == nil {
		return fmt.Errorf("unknown flow context kind: %s", in.Context.Kind)
	}
	if err := json.Unmarshal(in.Context.Data, ctx); err != nil {
		return err
	}
	s.Context = ctx
	return nil
}

// UserProfile 用户画像，仅供措辞参考，绝不阻塞工作流
type UserProfile struct {
	Name string `json:"name,omitempty"`
	Tone string `json:"tone,omitempty"`
}

type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Session 一条会话通道对应一个 Session
type Session struct {
	ID                 string            `json:"id"`
	State              DialogueState     `json:"dialogue_state"`
	PersistentEntities map[string]string `json:"persistent_entities"`
	History            []Message         `json:"history"`
	Profile            UserProfile       `json:"profile"`
	Resolved           bool              `json:"resolved"`
	OrderStates        map[string]string `json:"order_states,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	LastActiveAt       time.Time         `json:"last_active_at"`
}

const maxHistory = 20

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:                 id,
		PersistentEntities: make(map[string]string),
		OrderStates:        make(map[string]string),
		CreatedAt:          now,
		LastActiveAt:       now,
	}
}

// AddMessage 追加一条历史，超出上限时丢弃最旧的
func (s *Session) AddMessage(role, content string) {
	s.History = append(s.History, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	})
	if len(s.History) > maxHistory {
		s.History = s.History[len(s.History)-maxHistory:]
	}
}

func (s *Session) Touch() {
	s.LastActiveAt = time.Now()
}

// OrderRecord 订单查询协作方返回的记录，OrderID 为纯数字主键
type OrderRecord struct {
	OrderID    int     `json:"order_id"`
	OrderRef   string  `json:"order_ref,omitempty"`
	CustomerID string  `json:"customer_id"`
	Product    string  `json:"product"`
	Status     string  `json:"status"`
	Amount     float64 `json:"amount"`
	Platform   string  `json:"platform,omitempty"`
}

type FAQ struct {
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CustomerSummary 客户维度的聚合视图
type CustomerSummary struct {
	CustomerID   string         `json:"customer_id"`
	Name         string         `json:"name"`
	TotalOrders  int            `json:"total_orders"`
	TotalAmount  float64        `json:"total_amount"`
	StatusCounts map[string]int `json:"status_counts"`
	Orders       []OrderRecord  `json:"orders"`
}

type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketPending  TicketStatus = "pending"
	TicketResolved TicketStatus = "resolved"
	TicketClosed   TicketStatus = "closed"
)

type Ticket struct {
	ID          string       `json:"id"`
	SessionID   string       `json:"session_id"`
	UserID      string       `json:"user_id"`
	Intent      Intent       `json:"intent"`
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Status      TicketStatus `json:"status"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
	UserID    string `json:"user_id"`
}

type ChatResponse struct {
	Reply       string `json:"reply"`
	SessionID   string `json:"session_id"`
	Intent      Intent `json:"intent,omitempty"`
	Phase       string `json:"phase"`
	PendingSlot string `json:"pending_slot,omitempty"`
	Resolved    bool   `json:"resolved"`
}

type ClearSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// SessionInfo 调试视图，透出会话当前的内部状态
type SessionInfo struct {
	SessionID          string            `json:"session_id"`
	Phase              string            `json:"phase"`
	ActiveIntent       Intent            `json:"active_intent,omitempty"`
	PendingSlot        string            `json:"pending_slot,omitempty"`
	PersistentEntities map[string]string `json:"persistent_entities"`
	Resolved           bool              `json:"resolved"`
	HistoryLen         int               `json:"history_len"`
	CreatedAt          time.Time         `json:"created_at"`
	LastActiveAt       time.Time         `json:"last_active_at"`
}
