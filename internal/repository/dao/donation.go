package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Donation struct {
	ID          uint   `gorm:"primaryKey"`
	DonorName   string `gorm:"not null"`
	AmountCents int64  `gorm:"not null"`
	Note        string
	CreatedAt   time.Time
}

type DonationDAO struct {
	db *gorm.DB
}

func NewDonationDAO(db *gorm.DB) *DonationDAO {
	return &DonationDAO{
		db: db,
	}
}

func (d *DonationDAO) Insert(ctx context.Context, donation Donation) (Donation, error) {
	result := d.db.WithContext(ctx).Create(&donation)
	if result.Error != nil {
		return Donation{}, result.Error
	}

	return donation, nil
}

func (d *DonationDAO) FindAll(ctx context.Context) ([]Donation, error) {
	var donations []Donation

	result := d.db.WithContext(ctx).Order("created_at DESC").Find(&donations)
	if result.Error != nil {
		return nil, result.Error
	}

	return donations, nil
}
