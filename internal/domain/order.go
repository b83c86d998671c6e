package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// GuestCustomer is shown when an upstream order has no customer name
const GuestCustomer = "Guest"

// UpstreamID is a platform-native order identifier, numeric or string.
// Numeric 1 and string "1" are distinct values.
type UpstreamID struct {
	num     uint64
	str     string
	numeric bool
}

// NumericID wraps a numeric upstream identifier
func NumericID(n uint64) UpstreamID {
	return UpstreamID{num: n, numeric: true}
}

// StringID wraps a string upstream identifier
func StringID(s string) UpstreamID {
	return UpstreamID{str: s}
}

// IsNumeric reports whether the identifier was numeric upstream
func (id UpstreamID) IsNumeric() bool {
	return id.numeric
}

// IsZero reports whether the identifier is unset
func (id UpstreamID) IsZero() bool {
	return id == UpstreamID{}
}

func (id UpstreamID) String() string {
	if id.numeric {
		return strconv.FormatUint(id.num, 10)
	}
	return id.str
}

// MarshalJSON writes numbers as JSON numbers and strings as JSON strings
func (id UpstreamID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(strconv.FormatUint(id.num, 10)), nil
	}
	return json.Marshal(id.str)
}

// UnmarshalJSON accepts a JSON number or string
func (id *UpstreamID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("order id is missing")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid order id: %w", err)
		}
		*id = StringID(s)
		return nil
	}
	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid order id %s: %w", data, err)
	}
	*id = NumericID(n)
	return nil
}

// OrderKey identifies an order across syncs
type OrderKey struct {
	StoreID    string
	UpstreamID UpstreamID
}

// Order is the canonical platform-agnostic order
type Order struct {
	ID          UpstreamID `json:"id"`
	OrderNumber string     `json:"orderNumber"`
	Platform    Platform   `json:"platform"`
	StoreID     string     `json:"storeId"`
	Customer    string     `json:"customer"`
	Total       string     `json:"total"`
	Status      string     `json:"status"`
	CreatedAt   string     `json:"createdAt"`
	Store       string     `json:"store"`
}

// Key returns the deduplication identity of the order
func (o Order) Key() OrderKey {
	return OrderKey{StoreID: o.StoreID, UpstreamID: o.ID}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// CreatedTime parses CreatedAt. Timestamps without an offset are read in loc.
func (o Order) CreatedTime(loc *time.Location) (time.Time, bool) {
	return ParseTimestamp(o.CreatedAt, loc)
}

// ParseTimestamp parses an upstream ISO 8601 timestamp
func ParseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SyncResult is the outcome of one store sync
type SyncResult struct {
	StoreID     string    `json:"storeId"`
	StoreName   string    `json:"storeName"`
	TotalOrders int       `json:"totalOrders"`
	Orders      []Order   `json:"orders"`
	SyncedAt    time.Time `json:"syncedAt"`
}

// SyncEvent is published after every sync attempt
type SyncEvent struct {
	OwnerID     string           `json:"ownerId"`
	StoreID     string           `json:"storeId"`
	StoreName   string           `json:"storeName"`
	Platform    Platform         `json:"platform"`
	Status      ConnectionStatus `json:"status"`
	TotalOrders int              `json:"totalOrders"`
	Error       string           `json:"error,omitempty"`
	OccurredAt  time.Time        `json:"occurredAt"`
}

// ProbeResult classifies a store's connection health
type ProbeResult struct {
	Status ConnectionStatus `json:"status"`
	Reason string           `json:"connectionError,omitempty"`
	Err    error            `json:"-"`
}

// Connected reports whether the probe succeeded
func (r ProbeResult) Connected() bool {
	return r.Status == StatusConnected
}
