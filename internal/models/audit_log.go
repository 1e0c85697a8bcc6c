package models

// AuditLog records ledger mutations made through the API.
type AuditLog struct {
	Base
	DeviceID     string `gorm:"type:varchar(128);not null;index" json:"deviceId"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resourceType"`
	ResourceID   string `gorm:"type:varchar(128)" json:"resourceId"`
	IPAddress    string `json:"ipAddress"`
	Changes      string `json:"changes,omitempty"`
}
