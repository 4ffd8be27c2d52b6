package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/billing"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/utils/jwt"
)

type ResellerAccountInput struct {
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=6"`
	CompanyName   string  `json:"company_name" validate:"required"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method"`
}

func ListMySubAccounts(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var accounts []model.User
	if err := database.DB.Where("reseller_id = ?", claims.UserID).Find(&accounts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch sub-accounts",
		})
	}

	profiles := make([]map[string]interface{}, 0, len(accounts))
	for i := range accounts {
		profile := accounts[i].GetPublicProfile()
		profile["reseller_price"] = accounts[i].ResellerPrice
		profile["reseller_expires_at"] = accounts[i].ResellerExpiresAt
		profiles = append(profiles, profile)
	}

	return c.JSON(profiles)
}

// CreateSubAccount provisions a resold account and emits its first renewal
// charge. The account stays inactive until that charge is paid.
func CreateSubAccount(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(ResellerAccountInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if input.Email == "" || input.Password == "" || input.CompanyName == "" || input.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email, password, company name and a positive price are required",
		})
	}

	method := input.PaymentMethod
	if method == "" {
		method = model.PaymentMethodPix
	}
	if !model.ValidPaymentMethod(method) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payment method",
		})
	}

	var existing model.User
	if err := database.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email already exists",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not hash password",
		})
	}

	resellerID := claims.UserID
	account := model.User{
		Email:         input.Email,
		Password:      string(hashedPassword),
		Username:      slug.Make(input.CompanyName),
		CompanyName:   input.CompanyName,
		Status:        model.UserStatusInactive,
		ResellerID:    &resellerID,
		ResellerPrice: billing.Round2(input.Price),
	}

	var charge model.Charge
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}

		charge = model.Charge{
			UserID:                  claims.UserID,
			ResellerChargeAccountID: &account.ID,
			Amount:                  account.ResellerPrice,
			DueDate:                 billing.DateOnly(time.Now()),
			PaymentMethod:           method,
			Status:                  model.ChargeStatusPending,
			Description:             "Reseller account activation",
			ExternalReference:       uuid.NewString(),
		}
		return tx.Create(&charge).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create sub-account",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"account": account.GetPublicProfile(),
		"charge":  charge,
	})
}

func ListRenewals(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var logs []model.ResellerRenewalLog
	err := database.DB.
		Joins("JOIN users ON users.id = reseller_renewal_logs.account_id").
		Where("users.reseller_id = ?", claims.UserID).
		Order("reseller_renewal_logs.id DESC").
		Find(&logs).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch renewal history",
		})
	}

	return c.JSON(logs)
}
