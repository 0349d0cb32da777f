package persistence

import "time"

// Snapshot is the portable form of the whole store. Its JSON encoding is the file store's document
// layout, so an export from any store can be dropped in place of a file store document.
type Snapshot struct {
	Users   map[string]SnapshotUser `json:"users"`
	Codes   []SnapshotCode          `json:"codes"`
	Spins   uint64                  `json:"spins"`
	History []SnapshotSpin          `json:"history,omitempty"`
}

// SnapshotUser is one entry of the users mapping
type SnapshotUser struct {
	Saldo     int64      `json:"saldo"`
	SpinCount uint64     `json:"spinCount,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// SnapshotCode is one entry of the codes list
type SnapshotCode struct {
	Code      string     `json:"code"`
	Amount    int64      `json:"amount"`
	Used      bool       `json:"used"`
	UsedBy    string     `json:"usedBy,omitempty"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// SnapshotSpin is one entry of the spin history
type SnapshotSpin struct {
	ID        uint64    `json:"id"`
	User      string    `json:"user"`
	Prize     string    `json:"prize"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSnapshot returns an empty snapshot with non-nil collections
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Users: map[string]SnapshotUser{},
		Codes: []SnapshotCode{},
	}
}
