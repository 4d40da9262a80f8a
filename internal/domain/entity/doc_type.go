package entity

// DocType identifies a document family for numbering and audit purposes
type DocType string

const (
	DocTypePurchaseRequest DocType = "PURCHASE_REQUEST"
	DocTypeProforma        DocType = "PROFORMA"
	DocTypePurchaseOrder   DocType = "PURCHASE_ORDER"
	DocTypeGoodsReceipt    DocType = "GOODS_RECEIPT"
	DocTypeSupplierInvoice DocType = "SUPPLIER_INVOICE"
	DocTypePayment         DocType = "PAYMENT"
)

// String returns the string representation of the document type
func (d DocType) String() string {
	return string(d)
}
