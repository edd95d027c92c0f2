package service

import (
	"regexp"
	"strconv"
	"strings"

	"support-agent/model"
)

// 实体抽取全部基于固定规则，不引入任何 ML
//
// 订单号规则刻意宽松：取第一段连续数字，存在性交给数据集校验。
var (
	digitRunRe   = regexp.MustCompile(`\d+`)
	customerIDRe = regexp.MustCompile(`(?i)\bCUST\d+\b`)
	nameRe       = regexp.MustCompile(`(?i)\bmy name is ([A-Za-z]+)`)
)

// 问题类别关键词组，首个命中的组胜出
var issueGroups = []struct {
	kind     model.IssueKind
	keywords []string
}{
	{model.IssueWrongItem, []string{"got wrong", "received wrong", "wrong item", "instead of", "but got", "sent wrong", "incorrect item"}},
	{model.IssueDelay, []string{"delayed", "late", "not arrived", "hasn't arrived", "still waiting"}},
	{model.IssueDamaged, []string{"broken", "damaged", "defective", "not working"}},
}

// 诉求关键词组，同样首个命中胜出
var resolutionGroups = []struct {
	kind     model.ResolutionKind
	keywords []string
}{
	{model.ResolutionRefund, []string{"refund", "money back"}},
	{model.ResolutionReplacement, []string{"replacement", "replace", "new one", "send another"}},
	{model.ResolutionCancel, []string{"cancel", "cancellation"}},
}

var frustratedKeywords = []string{"angry", "frustrated", "annoyed", "ridiculous", "terrible", "worst"}

// ExtractRequest 对单条消息做纯函数抽取，无副作用
func ExtractRequest(message string) model.ExtractedRequest {
	var req model.ExtractedRequest
	lower := strings.ToLower(message)

	if m := customerIDRe.FindString(message); m != "" {
		req.CustomerID = strings.ToUpper(m)
	}

	// 客户编号里的数字不算订单号，先剔除再找数字段
	cleaned := customerIDRe.ReplaceAllString(message, "")
	if m := digitRunRe.FindString(cleaned); m != "" {
		if id, err := strconv.Atoi(m); err == nil {
			req.OrderID = id
			req.HasOrderID = true
		}
	}

	for _, g := range issueGroups {
		if containsAny(lower, g.keywords) {
			req.Issue = g.kind
			break
		}
	}

	for _, g := range resolutionGroups {
		if containsAny(lower, g.keywords) {
			req.Resolution = g.kind
			break
		}
	}

	// 诉求明确时问题类别可缺省为 general
	if req.HasOrderID && req.Resolution != model.ResolutionNone {
		if req.Issue == model.IssueNone {
			req.Issue = model.IssueGeneral
		}
		req.IsComplete = true
	}

	return req
}

// ExtractProfileHints 从消息里捞用户画像线索，仅供措辞参考
func ExtractProfileHints(message string, profile *model.UserProfile) {
	if m := nameRe.FindStringSubmatch(message); len(m) > 1 {
		profile.Name = m[1]
	}
	if containsAny(strings.ToLower(message), frustratedKeywords) {
		profile.Tone = "frustrated"
	}
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
