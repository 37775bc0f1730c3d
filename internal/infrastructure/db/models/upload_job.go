package models

import "time"

type UploadJob struct {
	ID              string  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	TaskRef         string  `gorm:"type:uuid;not null;uniqueIndex"`
	Filename        string  `gorm:"type:text;not null"`
	SourcePath      string  `gorm:"type:text;not null"`
	TotalRows       int64   `gorm:"not null;default:0"`
	ProcessedRows   int64   `gorm:"not null;default:0"`
	Status          string  `gorm:"type:text;not null"`
	CancelRequested bool    `gorm:"not null;default:false"`
	ErrorMessage    *string `gorm:"type:text"`
	StartedAt       *time.Time
	FinishedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (UploadJob) TableName() string {
	return "upload_jobs"
}
