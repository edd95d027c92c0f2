package flows

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"support-agent/dataset"
	"support-agent/model"
)

// HandleCustomerLookup 客户信息查询工作流，槽位是 CUST 前缀的客户编号
func (f *Flows) HandleCustomerLookup(ctx context.Context, session *model.Session, turn *Turn) (string, bool, string, error) {
	cc, _ := session.State.Context.(*model.CustomerContext)
	if cc == nil || cc.CustomerID == "" {
		return "Please provide the customer ID you want to look up (e.g., CUST0001, CUST000714).", false, model.SlotCustomerID, nil
	}

	summary, err := f.ds.LookupCustomer(ctx, cc.CustomerID)
	if err != nil {
		if !errors.Is(err, dataset.ErrNotFound) {
			log.Printf("[flows] 客户查询不可用（按未找到处理）: %v", err)
		}
		// 查无客户：清掉无效编号，意图保持，等用户重报
		reply := fmt.Sprintf("I couldn't find customer %s in our records. Please check the customer ID and try again.", cc.CustomerID)
		cc.CustomerID = ""
		delete(session.PersistentEntities, "customer_id")
		return reply, false, model.SlotCustomerID, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Customer details for %s:\n", summary.CustomerID)
	fmt.Fprintf(&b, "- Name: %s\n", summary.Name)
	fmt.Fprintf(&b, "- Total orders: %d\n", summary.TotalOrders)
	fmt.Fprintf(&b, "- Total amount: ₹%.0f\n", summary.TotalAmount)

	if len(summary.StatusCounts) > 0 {
		statuses := make([]string, 0, len(summary.StatusCounts))
		for s := range summary.StatusCounts {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		b.WriteString("Order status summary:\n")
		for _, s := range statuses {
			fmt.Fprintf(&b, "- %s: %d\n", s, summary.StatusCounts[s])
		}
	}

	if len(summary.Orders) > 0 {
		b.WriteString("Recent orders:\n")
		for i, o := range summary.Orders {
			if i == 3 {
				fmt.Fprintf(&b, "... and %d more orders\n", len(summary.Orders)-3)
				break
			}
			fmt.Fprintf(&b, "%d. Order #%d: %s - ₹%.0f (%s)\n", i+1, o.OrderID, o.Product, o.Amount, o.Status)
		}
	}

	return strings.TrimRight(b.String(), "\n"), true, "", nil
}
