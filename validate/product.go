package validate

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type CreateProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	ImageUrl    string  `json:"imageUrl"`
}

func CreateProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input CreateProductInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   fmt.Sprintf("could not parse request: %s", err.Error()),
			})
		}

		if err := validate.Struct(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		c.Locals("productInput", input)
		return c.Next()
	}
}
