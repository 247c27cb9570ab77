package domain

import (
	"time"
)

// OrderHeader represents one processed order document. OrderID is the
// business key extracted from the document (or synthesized when missing)
// and is the foreign-key target for detail rows.
type OrderHeader struct {
	OrderID      string    `db:"order_id" json:"order_id"`
	OrderDate    string    `db:"order_date" json:"order_date"`
	Subtotal     int64     `db:"subtotal" json:"subtotal"`
	ShippingFee  int64     `db:"shipping_fee" json:"shipping_fee"`
	TotalAmount  int64     `db:"total_amount" json:"total_amount"`
	Category     Category  `db:"category" json:"category"`
	DocumentName string    `db:"document_name" json:"document_name"`
	DocumentURI  string    `db:"document_uri" json:"document_uri"`
	Content      string    `db:"content" json:"content"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// OrderDetail represents one line item belonging to an order header.
// ItemID is unique within its order, not globally.
type OrderDetail struct {
	OrderHeaderID string    `db:"order_header_id" json:"order_header_id"`
	ItemID        string    `db:"item_id" json:"item_id"`
	ProductName   string    `db:"product_name" json:"product_name"`
	UnitPrice     int64     `db:"unit_price" json:"unit_price"`
	Quantity      int64     `db:"quantity" json:"quantity"`
	Subtotal      int64     `db:"subtotal" json:"subtotal"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Order bundles a header with its detail rows for API responses.
type Order struct {
	OrderHeader
	Details []OrderDetail `json:"order_details"`
}

// ExtractedHeader is the header portion of a repaired extraction result.
// Amounts are whole currency units (the documents carry no subunits).
type ExtractedHeader struct {
	OrderID     string   `json:"orderId"`
	OrderDate   string   `json:"orderDate"`
	Subtotal    int64    `json:"subtotal"`
	ShippingFee int64    `json:"shippingFee"`
	TotalAmount int64    `json:"totalAmount"`
	Category    Category `json:"category"`
}

// ExtractedItem is one line item of a repaired extraction result.
type ExtractedItem struct {
	ItemID      string `json:"itemId"`
	ProductName string `json:"productName"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int64  `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

// OrderExtraction is the fully-typed, defaulted result of repairing a
// model response. Repair never produces a partially-filled value; every
// field either comes from the response or from its documented default.
type OrderExtraction struct {
	Header  ExtractedHeader `json:"orderHeader"`
	Details []ExtractedItem `json:"orderDetails"`
	// RawText is the model output the extraction was repaired from. It is
	// serialized with the extraction into the header content snapshot.
	RawText string `json:"rawText"`
	// Sentinel is true when the response could not be parsed at all and
	// the extraction is a synthesized error record.
	Sentinel bool `json:"-"`
}

// CategoryStat is one row of the per-category order aggregation.
type CategoryStat struct {
	Category    Category `db:"category" json:"category"`
	OrderCount  int64    `db:"order_count" json:"order_count"`
	TotalAmount int64    `db:"total_amount" json:"total_amount"`
}
