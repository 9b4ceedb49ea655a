package models

import "gorm.io/gorm"

// User is the authenticated identity joined onto players. Registration and
// token issuance live in the accounts service; this server only reads users
// referenced by a verified JWT subject.
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null" json:"username"`
}
