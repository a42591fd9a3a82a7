package entity

import (
	"fmt"
	"net/http"
	"strings"

	"entrypass/lib/validate"
)

type IssueRequest struct {
	Name       string `json:"name" validate:"required"`
	Surname    string `json:"surname" validate:"required"`
	NationalId string `json:"nationalId" validate:"required"`
	ActorId    *int64 `json:"actorId,omitempty" validate:"omitempty,gt=0"`
}

func (i *IssueRequest) Bind(_ *http.Request) error {
	i.Normalize()
	return validate.Struct(i)
}

func (i *IssueRequest) Normalize() {
	i.Name = strings.TrimSpace(i.Name)
	i.Surname = strings.TrimSpace(i.Surname)
	i.NationalId = strings.TrimSpace(i.NationalId)
}

type StatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=pending registered"`
}

func (s *StatusRequest) Bind(_ *http.Request) error {
	return validate.Struct(s)
}

// ScanRequest carries either the pass id directly or the raw scanned code.
type ScanRequest struct {
	EntryId int64  `json:"entryId" validate:"omitempty,gt=0"`
	Code    string `json:"code,omitempty"`
}

func (s *ScanRequest) Bind(_ *http.Request) error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	if s.EntryId != 0 {
		return nil
	}
	if s.Code == "" {
		return fmt.Errorf("entryId required")
	}
	id, err := ParseCode(s.Code)
	if err != nil {
		return err
	}
	s.EntryId = id
	return nil
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (l *LoginRequest) Bind(_ *http.Request) error {
	l.Username = strings.TrimSpace(l.Username)
	return validate.Struct(l)
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (r *RefreshRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}
