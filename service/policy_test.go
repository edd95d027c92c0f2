package service

import (
	"strings"
	"testing"

	"support-agent/model"
)

func TestPolicyResponseDeterministic(t *testing.T) {
	a := PolicyResponse(model.ResolutionRefund, model.OrderStatusProcessing, 1234)
	b := PolicyResponse(model.ResolutionRefund, model.OrderStatusProcessing, 1234)
	if a != b {
		t.Fatalf("same key produced different responses:\n%q\n%q", a, b)
	}
	if !strings.Contains(a, "#1234") {
		t.Errorf("response missing order number: %q", a)
	}
	if !strings.Contains(a, "refund") {
		t.Errorf("refund template should mention refund: %q", a)
	}
}

func TestPolicyResponseStatusBranches(t *testing.T) {
	tests := []struct {
		name       string
		resolution model.ResolutionKind
		status     string
		wantPart   string
	}{
		{name: "refund on shipped is declined", resolution: model.ResolutionRefund, status: model.OrderStatusShipped, wantPart: "isn't possible"},
		{name: "refund on delivered offers return", resolution: model.ResolutionRefund, status: model.OrderStatusDelivered, wantPart: "return"},
		{name: "cancel on processing succeeds", resolution: model.ResolutionCancel, status: model.OrderStatusProcessing, wantPart: "successfully cancelled"},
		{name: "cancel on shipped is declined", resolution: model.ResolutionCancel, status: model.OrderStatusShipped, wantPart: "cannot be cancelled"},
		{name: "replacement on delivered succeeds", resolution: model.ResolutionReplacement, status: model.OrderStatusDelivered, wantPart: "replacement"},
		{name: "replacement on refunded is declined", resolution: model.ResolutionReplacement, status: model.OrderStatusRefunded, wantPart: "can't arrange a replacement"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PolicyResponse(tt.resolution, tt.status, 99)
			if !strings.Contains(got, "#99") {
				t.Errorf("response missing order number: %q", got)
			}
			if !strings.Contains(got, tt.wantPart) {
				t.Errorf("response %q missing %q", got, tt.wantPart)
			}
		})
	}
}

func TestPolicyResponseFallsBackOnUnknownCombination(t *testing.T) {
	// 状态表里不存在的组合先落到通用模板
	got := PolicyResponse(model.ResolutionNone, model.OrderStatusProcessing, 7)
	if !strings.Contains(got, "#7") {
		t.Errorf("general template missing order number: %q", got)
	}

	// 连通用模板都没有的状态落到人工协助
	got = PolicyResponse(model.ResolutionNone, "nonsense_status", 7)
	if got != PolicyFallback(7) {
		t.Errorf("unknown status should hit the fallback, got %q", got)
	}
}

func TestValidatePolicyResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		orderID  int
		want     bool
	}{
		{name: "valid", response: "Refund initiated for order #42.", orderID: 42, want: true},
		{name: "missing order number", response: "Refund initiated.", orderID: 42, want: false},
		{name: "contains question", response: "Refund for order #42. Anything else?", orderID: 42, want: false},
		{name: "empty", response: "", orderID: 42, want: false},
		{name: "no order context", response: "Our support team will follow up shortly.", orderID: 0, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePolicyResponse(tt.response, tt.orderID); got != tt.want {
				t.Errorf("ValidatePolicyResponse(%q, %d) = %v, want %v", tt.response, tt.orderID, got, tt.want)
			}
		})
	}
}

func TestEveryTemplateSurvivesValidation(t *testing.T) {
	for key := range responseTemplates {
		got := PolicyResponse(key.resolution, key.status, 1234)
		if !ValidatePolicyResponse(got, 1234) {
			t.Errorf("template (%s, %s) fails validation: %q", key.resolution, key.status, got)
		}
	}
	for status := range generalTemplates {
		got := PolicyResponse(model.ResolutionNone, status, 1234)
		if !ValidatePolicyResponse(got, 1234) {
			t.Errorf("general template (%s) fails validation: %q", status, got)
		}
	}
}
