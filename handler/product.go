package handler

import (
	"errors"

	"shop_backend/constants"
	"shop_backend/database"
	"shop_backend/helper"
	"shop_backend/model"
	"shop_backend/utils"
	"shop_backend/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

func GetProducts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", constants.DEFAULT_PAGE_SIZE)
	page := c.QueryInt("page", 1)

	var products []model.Product
	query := database.DB.Where("active = ?", true).Order("name asc")
	query = utils.ApplyPagination(query, &limit, &page)
	if err := query.Find(&products).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "could not load products", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, products)
}

func GetProductBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var product model.Product
	if err := database.DB.Where("slug = ? AND active = ?", slug, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "product not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "could not load product", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, product)
}

func CreateProduct(c *fiber.Ctx) error {
	claim, ok := helper.GetInfoAccountFromToken(c)
	if !ok || claim.Role != constants.ROLE_ADMIN {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "admin only", nil)
	}

	input, ok := c.Locals("productInput").(validate.CreateProductInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "missing product input", nil)
	}

	var product model.Product
	copier.Copy(&product, &input)
	product.Active = true
	product.Slug = helper.GenerateUniqueProductSlug(database.DB, input.Name)

	if err := database.DB.Create(&product).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "could not create product", err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, product)
}
