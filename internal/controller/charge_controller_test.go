package controller

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/utils/jwt"
)

func newChargeApp(t *testing.T, userID uint) *fiber.App {
	t.Helper()
	InitChargeController(testConfig(), noopNotifier{})

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", &jwt.Claims{UserID: userID})
		return c.Next()
	})
	app.Patch("/charges/:id/status", UpdateChargeStatus)
	app.Patch("/charges/:id/mark-paid", MarkChargePaid)
	app.Post("/payments/manual", RecordManualPayment)
	return app
}

func patchJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// createUnsettledPaidCharge mimics a crash between the paid flip and the
// settlement fan-out: status is paid but no Payment row exists.
func createUnsettledPaidCharge(t *testing.T, db *gorm.DB, userID uint, clientID *uint) *model.Charge {
	t.Helper()
	now := time.Now()
	charge := &model.Charge{
		UserID:            userID,
		ClientID:          clientID,
		Amount:            100.00,
		DueDate:           now,
		PaymentMethod:     model.PaymentMethodPix,
		Status:            model.ChargeStatusPaid,
		PaidAt:            &now,
		ExternalReference: "ext-ref-unsettled",
	}
	require.NoError(t, db.Create(charge).Error)
	return charge
}

func TestMarkChargePaidRetrySettlesUnsettledPaidCharge(t *testing.T) {
	db := setupTestDB(t)

	user := model.User{Email: "t@example.com", Password: "x", Username: "tenant", CompanyName: "Tenant", Status: model.UserStatusActive}
	require.NoError(t, db.Create(&user).Error)
	client := model.Client{UserID: user.ID, Name: "Client", Email: "c@example.com"}
	require.NoError(t, db.Create(&client).Error)
	charge := createUnsettledPaidCharge(t, db, user.ID, &client.ID)

	app := newChargeApp(t, user.ID)
	resp := patchJSON(t, app, http.MethodPatch, "/charges/"+itoa(charge.ID)+"/mark-paid", `{}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payments int64
	require.NoError(t, db.Model(&model.Payment{}).Where("charge_id = ?", charge.ID).Count(&payments).Error)
	assert.EqualValues(t, 1, payments)

	// A second retry changes nothing.
	resp = patchJSON(t, app, http.MethodPatch, "/charges/"+itoa(charge.ID)+"/mark-paid", `{}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, db.Model(&model.Payment{}).Where("charge_id = ?", charge.ID).Count(&payments).Error)
	assert.EqualValues(t, 1, payments)
}

func TestUpdateChargeStatusPaidToPaidRetriesSettlement(t *testing.T) {
	db := setupTestDB(t)

	user := model.User{Email: "t@example.com", Password: "x", Username: "tenant", CompanyName: "Tenant", Status: model.UserStatusActive}
	require.NoError(t, db.Create(&user).Error)
	client := model.Client{UserID: user.ID, Name: "Client", Email: "c@example.com"}
	require.NoError(t, db.Create(&client).Error)
	charge := createUnsettledPaidCharge(t, db, user.ID, &client.ID)

	app := newChargeApp(t, user.ID)
	resp := patchJSON(t, app, http.MethodPatch, "/charges/"+itoa(charge.ID)+"/status", `{"status":"paid"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payments int64
	require.NoError(t, db.Model(&model.Payment{}).Where("charge_id = ?", charge.ID).Count(&payments).Error)
	assert.EqualValues(t, 1, payments)
}

func TestRecordManualPaymentRetrySettlesUnsettledPaidCharge(t *testing.T) {
	db := setupTestDB(t)

	user := model.User{Email: "t@example.com", Password: "x", Username: "tenant", CompanyName: "Tenant", Status: model.UserStatusActive}
	require.NoError(t, db.Create(&user).Error)
	client := model.Client{UserID: user.ID, Name: "Client", Email: "c@example.com"}
	require.NoError(t, db.Create(&client).Error)
	charge := createUnsettledPaidCharge(t, db, user.ID, &client.ID)

	app := newChargeApp(t, user.ID)
	resp := patchJSON(t, app, http.MethodPost, "/payments/manual", `{"charge_id":`+itoa(charge.ID)+`}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payment model.Payment
	require.NoError(t, db.Where("charge_id = ?", charge.ID).First(&payment).Error)
	assert.Equal(t, 100.00, payment.Amount)
	assert.Equal(t, 2.00, payment.Fee)
	assert.Equal(t, 98.00, payment.NetAmount)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
