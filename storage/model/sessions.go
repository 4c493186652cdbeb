package model

// SessionRecord is a server-side session persisted in the database. Data is
// the encoded session payload as produced by the session middleware.
type SessionRecord struct {
	ID   string `gorm:"primaryKey;size:191"`
	Data []byte
	// ExpiresAt is a unix timestamp; 0 means no expiry
	ExpiresAt int64 `gorm:"index"`
}
