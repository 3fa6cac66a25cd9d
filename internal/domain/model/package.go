package model

import (
	"time"

	"investment-platform/internal/domain"

	"github.com/google/uuid"
)

type PackageStatus string

const (
	PackageStatusActive   PackageStatus = "active"
	PackageStatusInactive PackageStatus = "inactive"
)

// Package is an investment product. ROIPercent is the total return over the
// full duration, so the daily payout is Price * ROIPercent / 100 / DurationDays.
type Package struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Price        float64       `json:"price"`
	DurationDays int           `json:"duration_days"`
	ROIPercent   float64       `json:"roi_percent"`
	Status       PackageStatus `json:"status"`
	Subscribers  int           `json:"subscribers"`
	TotalRevenue float64       `json:"total_revenue"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func NewPackage(id, name string, price float64, durationDays int, roiPercent float64) (*Package, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" || price <= 0 || durationDays <= 0 || roiPercent <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Package{
		ID:           id,
		Name:         name,
		Price:        price,
		DurationDays: durationDays,
		ROIPercent:   roiPercent,
		Status:       PackageStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (p *Package) IsActive() bool { return p.Status == PackageStatusActive }

func (p *Package) DailyIncome() float64 {
	return p.Price * p.ROIPercent / 100 / float64(p.DurationDays)
}
