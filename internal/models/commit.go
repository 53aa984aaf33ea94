package models

import "time"

// Screenshot describes the proof-of-payment image attached to a commit.
// The payload itself lives in the blob store under Ref.
type Screenshot struct {
	Ref         string `json:"-" gorm:"type:varchar(512)"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType" gorm:"type:varchar(100)"`
	Size        int64  `json:"size"`
}

// Commit is a booking claim linking a user, a listing and its renter.
type Commit struct {
	ID             string     `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string     `json:"userId" gorm:"index;type:varchar(36)"`
	HomeID         string     `json:"homeId" gorm:"index;type:varchar(36)"`
	RenterID       string     `json:"renterId" gorm:"type:varchar(36)"`
	Screenshot     Screenshot `json:"screenshot" gorm:"embedded;embeddedPrefix:screenshot_"`
	IdempotencyKey *string    `json:"-" gorm:"uniqueIndex;type:varchar(128)"`
	CreatedAt      time.Time  `json:"createdAt"`
}
