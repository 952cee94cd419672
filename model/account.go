package model

type Account struct {
	DTO
	Username string `gorm:"uniqueIndex;size:64" json:"username"`
	Password string `json:"-"`
	Role     string `gorm:"size:20" json:"role"`
	Active   bool   `gorm:"default:true" json:"active"`
}
