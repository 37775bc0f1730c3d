package models

import "time"

type Subscription struct {
	ID        int64  `gorm:"primaryKey"`
	URL       string `gorm:"column:url;size:500;not null"`
	EventType string `gorm:"size:50;not null;index"`
	Enabled   bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Subscription) TableName() string {
	return "webhook_subscriptions"
}
