package model

import "time"

// Message types. The type is caller-supplied and never validated
// against the actual content.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeFile  = "file"
	TypeVideo = "video"
)

type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Type       string    `gorm:"size:20;index" json:"type"`
	Content    string    `gorm:"type:text" json:"content"`
	Filename   *string   `gorm:"size:255" json:"filename"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	AccessCode string    `gorm:"size:64;index" json:"access_code"`
	CreatorIP  string    `gorm:"size:45;index" json:"creator_ip"`
}

func (Message) TableName() string {
	return "messages"
}

// HasBlob reports whether the message references a stored file.
func (m *Message) HasBlob() bool {
	switch m.Type {
	case TypeImage, TypeFile, TypeVideo:
		return m.Content != ""
	}
	return false
}
