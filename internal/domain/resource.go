package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ResourceStatus string

const (
	ResourceStatusActive      ResourceStatus = "active"
	ResourceStatusInactive    ResourceStatus = "inactive"
	ResourceStatusMaintenance ResourceStatus = "maintenance"
)

func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceStatusActive, ResourceStatusInactive, ResourceStatusMaintenance:
		return true
	}
	return false
}

type PriorityTier string

const (
	PriorityHigh   PriorityTier = "high"
	PriorityNormal PriorityTier = "normal"
	PriorityLow    PriorityTier = "low"
)

func ParsePriorityTier(s string) (PriorityTier, error) {
	t := PriorityTier(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return t, nil
	}
	return "", NewValidationError("priority_tier", fmt.Sprintf("unknown tier %q", s))
}

const priorityAccessAll = "all"

// PriorityAccess is a resource's admission rule: either every tier, or an explicit set.
// The zero value admits every tier.
type PriorityAccess struct {
	tiers []PriorityTier
}

func PriorityAccessAll() PriorityAccess { return PriorityAccess{} }

func PriorityAccessFor(tiers ...PriorityTier) PriorityAccess {
	return PriorityAccess{tiers: tiers}
}

// ParsePriorityAccess reads the stored form: "all" or a comma separated tier list such as "high,normal".
func ParsePriorityAccess(s string) (PriorityAccess, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, priorityAccessAll) {
		return PriorityAccessAll(), nil
	}
	var tiers []PriorityTier
	seen := make(map[PriorityTier]bool)
	for _, part := range strings.Split(s, ",") {
		t, err := ParsePriorityTier(part)
		if err != nil {
			return PriorityAccess{}, NewValidationError("priority_access", err.Error())
		}
		if !seen[t] {
			seen[t] = true
			tiers = append(tiers, t)
		}
	}
	return PriorityAccess{tiers: tiers}, nil
}

func (p PriorityAccess) IsAll() bool { return len(p.tiers) == 0 }

func (p PriorityAccess) Tiers() []PriorityTier {
	return append([]PriorityTier(nil), p.tiers...)
}

func (p PriorityAccess) Admits(tier PriorityTier) bool {
	if p.IsAll() {
		return true
	}
	for _, t := range p.tiers {
		if t == tier {
			return true
		}
	}
	return false
}

func (p PriorityAccess) String() string {
	if p.IsAll() {
		return priorityAccessAll
	}
	parts := make([]string, len(p.tiers))
	for i, t := range p.tiers {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func (p PriorityAccess) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *PriorityAccess) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return NewValidationError("priority_access", "expected a string")
	}
	parsed, err := ParsePriorityAccess(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p *PriorityAccess) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
	default:
		return fmt.Errorf("cannot scan %T into PriorityAccess", src)
	}
	parsed, err := ParsePriorityAccess(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p PriorityAccess) Value() (driver.Value, error) {
	return p.String(), nil
}

type Resource struct {
	ID              int32           `json:"id"`
	Name            string          `json:"name"`
	Location        string          `json:"location"`
	CapacityPerHour int32           `json:"capacity_per_hour"`
	OpenTime        TimeOfDay       `json:"open_time"`
	CloseTime       TimeOfDay       `json:"close_time"`
	Status          ResourceStatus  `json:"status"`
	PricePer100     decimal.Decimal `json:"price_per_100"`
	PriorityAccess  PriorityAccess  `json:"priority_access"`
	CreatedOn       time.Time       `json:"created_on"`
	UpdatedOn       time.Time       `json:"updated_on"`
}

func (r *Resource) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if r.CapacityPerHour <= 0 {
		return NewValidationError("capacity_per_hour", "must be positive")
	}
	if r.CloseTime <= r.OpenTime {
		return NewValidationError("operating_window", "close time must be after open time")
	}
	if r.PricePer100.IsNegative() {
		return NewValidationError("price_per_100", "must not be negative")
	}
	if r.Status == "" {
		r.Status = ResourceStatusActive
	}
	if !r.Status.Valid() {
		return NewValidationError("status", fmt.Sprintf("unknown status %q", r.Status))
	}
	return nil
}
