package types

import "time"

type Paper struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FacultyID     *int64    `gorm:"index;column:faculty_id" json:"faculty_id"`
	Title         string    `gorm:"size:1000;not null;column:title" json:"title"`
	Abstract      string    `gorm:"type:text;column:abstract" json:"abstract"`
	Year          *int      `gorm:"column:year" json:"year"`
	Venue         string    `gorm:"size:500;column:venue" json:"venue"`
	CitationCount *int      `gorm:"column:citation_count" json:"citation_count"`
	Embedding     Vector    `gorm:"column:embedding" json:"-"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Paper) TableName() string {
	return "paper"
}
