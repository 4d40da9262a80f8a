// Package match implements the three-way reconciliation between a purchase
// order, its goods receipts, and a supplier invoice. A mismatch is an
// expected business outcome carried as a value, never an error: it blocks
// payment but does not abort the transaction that computed it.
package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oumarfall/procureflow/internal/domain/entity"
)

// AmountTolerance is the maximum accepted TTC difference between order and
// invoice before an amount discrepancy is recorded
var AmountTolerance = decimal.NewFromFloat(0.01)

// Result is the reconciler's verdict. OK is true iff no discrepancy was
// recorded; the report concatenates all discrepancies for display.
type Result struct {
	OK            bool
	Discrepancies []string
}

// Report returns the human-readable discrepancy report
func (r Result) Report() string {
	return strings.Join(r.Discrepancies, "; ")
}

// Reconcile recomputes the three-way match from current data. It is pure and
// idempotent: re-running on unchanged inputs yields an identical verdict.
func Reconcile(order *entity.PurchaseOrder, receipts []*entity.GoodsReceipt, invoice *entity.SupplierInvoice) Result {
	if order == nil || invoice.OrderID == nil {
		return Result{OK: false, Discrepancies: []string{"no order associated"}}
	}
	if len(receipts) == 0 {
		return Result{OK: false, Discrepancies: []string{"no receipt recorded"}}
	}

	var discrepancies []string

	if invoice.TotalTTC.Sub(order.TotalTTC).Abs().GreaterThan(AmountTolerance) {
		discrepancies = append(discrepancies,
			fmt.Sprintf("amount discrepancy: order=%s invoice=%s", order.TotalTTC, invoice.TotalTTC))
	}

	// Conforming quantities received per article, summed across all receipts
	// of the order. Only over-invoicing is a fault; invoicing less than
	// received is allowed.
	received := make(map[string]decimal.Decimal)
	for _, receipt := range receipts {
		for _, line := range receipt.Lines {
			received[line.ArticleCode] = received[line.ArticleCode].Add(line.ConformingQty)
		}
	}

	for _, line := range invoicedPerArticle(invoice) {
		got := received[line.article]
		if line.qty.GreaterThan(got) {
			discrepancies = append(discrepancies,
				fmt.Sprintf("article %s: invoiced=%s > received=%s", line.article, line.qty, got))
		}
	}

	return Result{OK: len(discrepancies) == 0, Discrepancies: discrepancies}
}

type articleQty struct {
	article string
	qty     decimal.Decimal
}

// invoicedPerArticle aggregates invoice lines by article in a stable order
// so repeated runs produce an identical report
func invoicedPerArticle(invoice *entity.SupplierInvoice) []articleQty {
	totals := make(map[string]decimal.Decimal)
	for _, line := range invoice.Lines {
		totals[line.ArticleCode] = totals[line.ArticleCode].Add(line.Quantity)
	}

	articles := make([]string, 0, len(totals))
	for article := range totals {
		articles = append(articles, article)
	}
	sort.Strings(articles)

	out := make([]articleQty, 0, len(articles))
	for _, article := range articles {
		out = append(out, articleQty{article: article, qty: totals[article]})
	}
	return out
}
