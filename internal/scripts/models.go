package scripts

import "time"

type Script struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID  uint64    `gorm:"column:author_id;index;not null" json:"author"`
	Name      string    `gorm:"type:varchar(50);not null" json:"name"`
	Code      string    `gorm:"type:text;not null" json:"code"`
	Language  string    `gorm:"type:varchar(30);not null;default:python" json:"language"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Script) TableName() string { return "scripts" }

// Summary is the list view of a script; it omits code and language.
type Summary struct {
	ID        uint64    `json:"id"`
	Author    uint64    `json:"author"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Script) Summary() Summary {
	return Summary{ID: s.ID, Author: s.AuthorID, Name: s.Name, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
}
