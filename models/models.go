package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User represents an authenticated app user. Email doubles as the
// reservation requester identity for logged-in sessions.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,unique,notnull"`
	Email        string    `bun:"email,notnull"`
	DisplayName  string    `bun:"display_name,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	DefaultSite  string    `bun:"default_site"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Session is used by middleware and auth handlers.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID                string         `bun:"id,pk"`
	UserID            int64          `bun:"user_id,notnull"`
	User              User           `bun:"rel:belongs-to,join:user_id=id"`
	UserRoles         []string       `bun:"-"`
	ScreenPermissions map[string]int `bun:"-"`
	ActiveSite        *string        `bun:"active_site"`
	ExpiresAt         time.Time      `bun:"expires_at,notnull"`
	CreatedAt         time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time      `bun:"updated_at,notnull,default:current_timestamp"`
}

// Expired returns true when the session expiry time has passed.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// SerialReservation is a short-lived soft lock on one serial-tracked unit,
// keyed (item_number, serial_number). A row whose ExpiresAt is in the past
// is logically free regardless of owner. This is ephemeral lock state, not
// a ledger; rows are deleted on release and swept opportunistically.
type SerialReservation struct {
	bun.BaseModel `bun:"table:serial_reservations,alias:sr"`

	ItemNumber   string    `bun:"item_number,pk"`
	SerialNumber string    `bun:"serial_number,pk"`
	ReservedBy   string    `bun:"reserved_by,notnull"`
	UserName     string    `bun:"user_name"`
	ExpiresAt    time.Time `bun:"expires_at,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ExpiredAt reports whether the reservation had lapsed as of now.
func (r SerialReservation) ExpiredAt(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// SfOrder is a Salesforce order snapshot row imported from the external
// sync pipeline, cross-referenced against GP sales documents by order number.
type SfOrder struct {
	bun.BaseModel `bun:"table:sf_orders,alias:sf"`

	ID            int64     `bun:"id,pk,autoincrement"`
	SfOrderID     string    `bun:"sf_order_id,unique,notnull"`
	OrderNumber   string    `bun:"order_number,notnull"`
	GPSopNumber   string    `bun:"gp_sop_number"`
	AccountName   string    `bun:"account_name"`
	Status        string    `bun:"status,notnull"`
	OwnerName     string    `bun:"owner_name"`
	TotalAmount   string    `bun:"total_amount"`
	SfLastUpdated time.Time `bun:"sf_last_updated"`
	ImportedAt    time.Time `bun:"imported_at,notnull,default:current_timestamp"`
}

// AuditLog captures immutable change history for key operations.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Actor      string    `bun:"actor,notnull"`
	Action     string    `bun:"action,notnull"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   string    `bun:"entity_id,notnull"`
	BeforeJSON string    `bun:"before_json"`
	AfterJSON  string    `bun:"after_json"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// UserSetting stores per-user dashboard preferences.
type UserSetting struct {
	bun.BaseModel `bun:"table:user_settings,alias:us"`

	UserID      int64     `bun:"user_id,pk"`
	DefaultSite string    `bun:"default_site"`
	RowsPerPage int64     `bun:"rows_per_page,notnull,default:25"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
