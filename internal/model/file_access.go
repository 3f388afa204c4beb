package model

// FileAccess is the authorization index for stored files. A file on disk
// is reachable through the API only while a row with the matching
// (filename, access_code) pair exists; the filesystem path alone is never
// treated as a capability.
type FileAccess struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Filename   string `gorm:"size:255;index" json:"filename"`
	AccessCode string `gorm:"size:64;index" json:"access_code"`
}

func (FileAccess) TableName() string {
	return "file_access"
}
