package controller

import (
	"github.com/gofiber/fiber/v2"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/utils/jwt"
)

type ClientInput struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	WhatsAppNumber string `json:"whats_app_number"`
	Document       string `json:"document"`
	Notes          string `json:"notes"`
}

func ListMyClients(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var clients []model.Client
	if err := database.DB.Where("user_id = ?", claims.UserID).Order("name").Find(&clients).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch clients",
		})
	}

	return c.JSON(clients)
}

func CreateClient(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(ClientInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Client name is required",
		})
	}

	client := model.Client{
		UserID:         claims.UserID,
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		WhatsAppNumber: input.WhatsAppNumber,
		Document:       input.Document,
		Notes:          input.Notes,
	}

	if err := database.DB.Create(&client).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create client",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(client)
}

func UpdateClient(c *fiber.Ctx) error {
	input := new(ClientInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var client model.Client
	if err := database.DB.First(&client, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Client not found",
		})
	}

	client.Name = input.Name
	client.Email = input.Email
	client.Phone = input.Phone
	client.WhatsAppNumber = input.WhatsAppNumber
	client.Document = input.Document
	client.Notes = input.Notes

	if err := database.DB.Save(&client).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update client",
		})
	}

	return c.JSON(client)
}

func DeleteClient(c *fiber.Ctx) error {
	var client model.Client
	if err := database.DB.First(&client, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Client not found",
		})
	}

	if err := database.DB.Delete(&client).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete client",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Client deleted successfully",
	})
}
