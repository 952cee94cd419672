package model

type Product struct {
	DTO
	Name        string  `gorm:"size:120" json:"name"`
	Slug        string  `gorm:"uniqueIndex;size:140" json:"slug"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageUrl    string  `json:"imageUrl,omitempty"`
	Active      bool    `gorm:"default:true" json:"active"`
}
