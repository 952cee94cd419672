package database

import (
	"log"

	"shop_backend/constants"
	"shop_backend/model"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func SeedData(db *gorm.DB) {
	bytes, err := bcrypt.GenerateFromPassword([]byte("changeme123"), 10)
	hashPassword := string(bytes)
	if err != nil {
		log.Println("failed to hash seed password:", err)
		return
	}

	accounts := []model.Account{
		{Username: "admin", Password: hashPassword, Active: true, Role: constants.ROLE_ADMIN},
		{Username: "ops", Password: hashPassword, Active: true, Role: constants.ROLE_OPS},
	}

	for _, account := range accounts {
		if err := db.Where(model.Account{Username: account.Username}).FirstOrCreate(&account).Error; err != nil {
			log.Println("failed to seed account:", account.Username, "error:", err)
		}
	}

	products := []model.Product{
		{Name: "Widget", Description: "The classic widget", Price: 9.99},
		{Name: "Widget Pro", Description: "Widget with the pro finish", Price: 24.99},
		{Name: "Gadget", Description: "Entry level gadget", Price: 14.50},
		{Name: "Gadget XL", Description: "Twice the gadget", Price: 27.00},
		{Name: "Gizmo", Description: "Limited run gizmo", Price: 49.00},
	}

	for _, product := range products {
		product.Slug = slug.Make(product.Name)
		if err := db.Where(model.Product{Slug: product.Slug}).FirstOrCreate(&product).Error; err != nil {
			log.Println("failed to seed product:", product.Name, "error:", err)
		}
	}
}
