package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Pincode is a postal code. Older clients send it as a JSON number, so both
// forms are accepted; it is always stored and compared as a string.
type Pincode string

// UnmarshalJSON accepts a quoted string or a bare number.
func (p *Pincode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Pincode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("pincode must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*p = Pincode(strconv.FormatInt(i, 10))
		return nil
	}
	// 411001.0 and 4.11001e5 are the same pincode as 411001
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		*p = Pincode(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*p = Pincode(n.String())
	return nil
}

func (p Pincode) String() string { return string(p) }

// HomeImage is an image embedded in a listing as base64 text.
type HomeImage struct {
	ID          uint   `json:"-" gorm:"primaryKey"`
	HomeID      string `json:"-" gorm:"index;type:varchar(36)"`
	Position    int    `json:"-"`
	Base64      string `json:"base64" gorm:"type:text" validate:"required,base64"`
	ContentType string `json:"contentType" gorm:"type:varchar(100)" validate:"required,startswith=image/"`
}

// Renter is the party that has claimed a listing.
type Renter struct {
	ID        string `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	HomeID    string `json:"-" gorm:"uniqueIndex;type:varchar(36)"`
	Firstname string `json:"firstname" validate:"required,max=100"`
	Lastname  string `json:"lastname" validate:"omitempty,max=100"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Mobile    string `json:"mobile,omitempty" validate:"omitempty,max=20"`
}

// Home is a rental listing. A nil Renter means the listing is available.
type Home struct {
	ID        string      `json:"_id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Title     string      `json:"title" validate:"required,min=3,max=200"`
	Street    string      `json:"street" validate:"required,max=200"`
	Town      string      `json:"town" gorm:"index" validate:"required,max=100"`
	State     string      `json:"state" gorm:"index" validate:"required,max=100"`
	Pincode   Pincode     `json:"pincode" gorm:"type:varchar(20)" validate:"required,max=20"`
	RentPrice float64     `json:"rentprice" validate:"gte=0"`
	PlusCode  string      `json:"pluscode" validate:"omitempty,max=100"`
	Images    []HomeImage `json:"images" gorm:"foreignKey:HomeID" validate:"dive"`
	Renter    *Renter     `json:"renter" gorm:"foreignKey:HomeID" validate:"omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Claimed reports whether a renter is assigned to the listing.
func (h *Home) Claimed() bool {
	return h.Renter != nil
}
