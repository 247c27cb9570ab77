package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"oshikake/internal/config"
	"oshikake/internal/domain"
)

const (
	unknownProduct  = "unknown product"
	unreadableItem  = "could not be read"
	orderDateLayout = "2006-01-02"
)

// Repairer turns raw model output into a fully-typed OrderExtraction.
// Repair never fails: partially-typed responses are coerced field by field
// with documented defaults, and unparseable responses degrade to a sentinel
// error record so the failure stays visible downstream.
type Repairer struct {
	policy config.CategoryPolicy
	now    func() time.Time
}

// NewRepairer creates a Repairer with the given category policy.
func NewRepairer(policy config.CategoryPolicy) *Repairer {
	return &Repairer{policy: policy, now: time.Now}
}

// NewRepairerWithClock creates a Repairer with a fixed clock (for testing).
func NewRepairerWithClock(policy config.CategoryPolicy, now func() time.Time) *Repairer {
	return &Repairer{policy: policy, now: now}
}

// Repair parses rawText into an OrderExtraction. Every field of the result
// is present and correctly typed regardless of what the model returned.
func (r *Repairer) Repair(rawText string) *domain.OrderExtraction {
	text := StripFences(rawText)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return r.sentinel(rawText)
	}

	header := asMap(obj["orderHeader"])

	orderID := stringOr(header, "orderId", "")
	if orderID == "" {
		orderID = "ORDER_" + r.token()
	}

	orderDate := stringOr(header, "orderDate", "")
	if _, err := time.Parse(orderDateLayout, orderDate); err != nil {
		orderDate = r.now().UTC().Format(orderDateLayout)
	}

	ext := &domain.OrderExtraction{
		Header: domain.ExtractedHeader{
			OrderID:     orderID,
			OrderDate:   orderDate,
			Subtotal:    amountOr(header, "subtotal", 0),
			ShippingFee: amountOr(header, "shippingFee", 0),
			TotalAmount: amountOr(header, "totalAmount", 0),
			Category:    r.category(header, orderID),
		},
		RawText: rawText,
	}

	items, _ := obj["orderDetails"].([]interface{})
	for i, raw := range items {
		item := asMap(raw)
		itemID := stringOr(item, "itemId", "")
		if itemID == "" {
			itemID = fmt.Sprintf("ITEM_%03d", i+1)
		}
		ext.Details = append(ext.Details, domain.ExtractedItem{
			ItemID:      itemID,
			ProductName: stringOr(item, "productName", unknownProduct),
			UnitPrice:   amountOr(item, "unitPrice", 0),
			Quantity:    amountOr(item, "quantity", 1),
			Subtotal:    amountOr(item, "subtotal", 0),
		})
	}

	return ext
}

// category applies the configured policy. The model is instructed to infer
// the category from the order-ID prefix, but its value is only trusted
// under the trust-model policy and only when it names a known category.
func (r *Repairer) category(header map[string]interface{}, orderID string) domain.Category {
	if r.policy == config.CategoryTrustModel {
		c := domain.Category(strings.ToLower(stringOr(header, "category", "")))
		if domain.ValidCategories[c] {
			return c
		}
	}
	return domain.CategoryForOrderID(orderID)
}

// sentinel builds the well-formed error record substituted for output that
// could not be parsed at all.
func (r *Repairer) sentinel(rawText string) *domain.OrderExtraction {
	now := r.now().UTC()
	return &domain.OrderExtraction{
		Header: domain.ExtractedHeader{
			OrderID:   "ERROR_" + r.token(),
			OrderDate: now.Format(orderDateLayout),
			Category:  domain.CategoryError,
		},
		Details: []domain.ExtractedItem{
			{ItemID: "ITEM_001", ProductName: unreadableItem, Quantity: 1},
		},
		RawText:  rawText,
		Sentinel: true,
	}
}

func (r *Repairer) token() string {
	return r.now().UTC().Format("20060102150405")
}

// StripFences returns the content of the first triple-backtick block in s,
// tolerating an optional "json" language tag. Text without fences is
// returned trimmed and unchanged.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "```")
	if start == -1 {
		return s
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || strings.EqualFold(tag, "json") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func stringOr(m map[string]interface{}, key, def string) string {
	v, ok := m[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// amountOr coerces a field to a non-negative whole amount. JSON numbers
// and numeric strings are both accepted; anything else yields the default.
func amountOr(m map[string]interface{}, key string, def int64) int64 {
	v, ok := m[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return clampAmount(n, def)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return def
		}
		return clampAmount(f, def)
	default:
		return def
	}
}

func clampAmount(f float64, def int64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return def
	}
	return int64(math.Round(f))
}
