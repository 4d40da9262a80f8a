package service

import (
	"context"
	"fmt"
	"time"

	"github.com/oumarfall/procureflow/internal/application/port"
	"github.com/oumarfall/procureflow/internal/domain/entity"
)

// NumberFormat describes how one document family is numbered. Daily formats
// produce {PREFIX}-{YYYYMMDD}-{SEQ}; plain formats produce {PREFIX}{SEQ}.
type NumberFormat struct {
	Prefix string
	Daily  bool
	Width  int
}

// DefaultNumberFormats returns the standard prefixes per document type
func DefaultNumberFormats() map[entity.DocType]NumberFormat {
	return map[entity.DocType]NumberFormat{
		entity.DocTypePurchaseRequest: {Prefix: "DA", Daily: true, Width: 4},
		entity.DocTypeProforma:        {Prefix: "PF", Daily: false, Width: 6},
		entity.DocTypePurchaseOrder:   {Prefix: "BC", Daily: true, Width: 4},
		entity.DocTypeGoodsReceipt:    {Prefix: "BR", Daily: true, Width: 4},
		entity.DocTypeSupplierInvoice: {Prefix: "FA", Daily: true, Width: 4},
		entity.DocTypePayment:         {Prefix: "PAY", Daily: false, Width: 6},
	}
}

// Numbering generates unique, ordered, human-readable document numbers.
// The underlying sequence is a single atomic increment inside the caller's
// transaction, so numbers stay unique under concurrent creation and are
// never reused after cancellation.
type Numbering struct {
	sequences port.SequenceRepository
	formats   map[entity.DocType]NumberFormat
	now       func() time.Time
}

// NewNumbering creates a numbering service; a nil formats map selects the defaults
func NewNumbering(sequences port.SequenceRepository, formats map[entity.DocType]NumberFormat) *Numbering {
	if formats == nil {
		formats = DefaultNumberFormats()
	}
	return &Numbering{
		sequences: sequences,
		formats:   formats,
		now:       time.Now,
	}
}

// Next returns the next number for the document type
func (n *Numbering) Next(ctx context.Context, docType entity.DocType) (string, error) {
	format, ok := n.formats[docType]
	if !ok {
		return "", fmt.Errorf("no number format configured for document type %s", docType)
	}

	period := ""
	if format.Daily {
		period = n.now().UTC().Format("20060102")
	}

	seq, err := n.sequences.Next(ctx, docType, period)
	if err != nil {
		return "", fmt.Errorf("next sequence for %s: %w", docType, err)
	}

	if format.Daily {
		return fmt.Sprintf("%s-%s-%0*d", format.Prefix, period, format.Width, seq), nil
	}
	return fmt.Sprintf("%s%0*d", format.Prefix, format.Width, seq), nil
}
