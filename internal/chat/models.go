package chat

import "time"

const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Message is one append-only turn of a tutoring conversation about a script.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"not null;index:idx_chat_msg_user_created,priority:1" json:"-"`
	ScriptID  uint64    `gorm:"not null;index" json:"script_id"`
	Role      string    `gorm:"type:varchar(10);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_chat_msg_user_created,priority:2" json:"timestamp"`
}

func (Message) TableName() string { return "chat_messages" }

// Skill is a user's latest proficiency estimate for one language.
type Skill struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uniq_skill_user_name,priority:1" json:"-"`
	Name      string    `gorm:"type:varchar(50);not null;uniqueIndex:uniq_skill_user_name,priority:2" json:"name"`
	Level     int       `gorm:"not null;default:0" json:"level"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Skill) TableName() string { return "skills" }
