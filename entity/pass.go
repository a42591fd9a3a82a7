// Package entity defines domain types shared across the application.
package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"entrypass/lib/clock"
)

// Pass is one issued entry ticket.
// CheckedInAt is set exactly when Status is StatusRegistered.
type Pass struct {
	Id              int64      `json:"id" bson:"id"`
	Name            string     `json:"name" bson:"name"`
	Surname         string     `json:"surname" bson:"surname"`
	NationalId      string     `json:"nationalId" bson:"national_id"`
	Status          Status     `json:"status" bson:"status"`
	CreatedAt       time.Time  `json:"createdAt" bson:"created_at"`
	CheckedInAt     *time.Time `json:"checkedInAt" bson:"checked_in_at"`
	OwnerId         *int64     `json:"-" bson:"owner_id"`
	RecordCreatedAt time.Time  `json:"recordCreatedAt" bson:"record_created_at"`
	RecordUpdatedAt time.Time  `json:"recordUpdatedAt" bson:"record_updated_at"`
}

type passJSON struct {
	Id              int64   `json:"id"`
	Name            string  `json:"name"`
	Surname         string  `json:"surname"`
	NationalId      string  `json:"nationalId"`
	Status          Status  `json:"status"`
	CreatedAt       string  `json:"createdAt"`
	CheckedInAt     *string `json:"checkedInAt"`
	RecordCreatedAt string  `json:"recordCreatedAt"`
	RecordUpdatedAt string  `json:"recordUpdatedAt"`
}

func (p Pass) MarshalJSON() ([]byte, error) {
	return json.Marshal(passJSON{
		Id:              p.Id,
		Name:            p.Name,
		Surname:         p.Surname,
		NationalId:      p.NationalId,
		Status:          p.Status,
		CreatedAt:       clock.Format(p.CreatedAt),
		CheckedInAt:     clock.FormatPtr(p.CheckedInAt),
		RecordCreatedAt: clock.Format(p.RecordCreatedAt),
		RecordUpdatedAt: clock.Format(p.RecordUpdatedAt),
	})
}

func (p *Pass) IsRegistered() bool {
	return p.Status == StatusRegistered
}

// Code is the text encoded into the pass QR image: "<id>-<nationalId>".
func (p *Pass) Code() string {
	return fmt.Sprintf("%d-%s", p.Id, p.NationalId)
}

// ParseCode extracts the pass id from scanned QR text. Only the leading integer
// matters; anything after the first '-' is informational.
func ParseCode(code string) (int64, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(code), "-")
	id, err := strconv.ParseInt(head, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid pass code %q", code)
	}
	return id, nil
}

// PassCode is the response body for a pass code lookup.
type PassCode struct {
	Id   int64  `json:"id"`
	Code string `json:"code"`
}
