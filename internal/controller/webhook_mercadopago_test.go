package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/internal/service"
	"gestorapp_backend/pkg/config"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/mercadopago"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{},
		&model.Plan{},
		&model.Client{},
		&model.Subscription{},
		&model.Charge{},
		&model.Payment{},
		&model.PlatformInvoice{},
		&model.ResellerRenewalLog{},
		&model.GatewayCredential{},
		&model.GatewayLog{},
	)
	require.NoError(t, err)

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Billing: config.BillingConfig{
			FeeRatePix:          0.02,
			FeeRateBoleto:       0.02,
			FeeRateCreditCard:   0.02,
			FeeRateDefault:      0.02,
			ResellerRenewalDays: 30,
		},
	}
}

// fakeMercadoPago serves a fixed payment object, gated on the access token the
// owning tenant holds.
func fakeMercadoPago(t *testing.T, token string, payment mercadopago.Payment) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"invalid credentials"}`)
			return
		}
		if !strings.HasPrefix(r.URL.Path, fmt.Sprintf("/v1/payments/%d", payment.ID)) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"not found"}`)
			return
		}
		json.NewEncoder(w).Encode(payment)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newMercadoPagoApp(t *testing.T, baseURL string) *fiber.App {
	t.Helper()
	InitMercadoPagoWebhookController(testConfig(), noopNotifier{}, mercadopago.NewClientWithBaseURL(baseURL))
	app := fiber.New()
	app.Post("/webhooks/mercadopago", HandleMercadoPagoWebhook)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestMercadoPagoWebhookTopicName(t *testing.T) {
	tests := []struct {
		name string
		hook mercadoPagoWebhook
		want string
	}{
		{"type field", mercadoPagoWebhook{Type: "payment"}, "payment"},
		{"topic field", mercadoPagoWebhook{Topic: "merchant_order"}, "merchant_order"},
		{"action prefix", mercadoPagoWebhook{Action: "payment.updated"}, "payment"},
		{"bare action", mercadoPagoWebhook{Action: "payment"}, "payment"},
		{"type wins over topic", mercadoPagoWebhook{Type: "payment", Topic: "merchant_order"}, "payment"},
		{"empty", mercadoPagoWebhook{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hook.topicName())
		})
	}
}

func TestMercadoPagoWebhookResourceID(t *testing.T) {
	fromJSON := func(body string) mercadoPagoWebhook {
		var hook mercadoPagoWebhook
		require.NoError(t, json.Unmarshal([]byte(body), &hook))
		return hook
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"data id string", `{"data":{"id":"12345"}}`, "12345"},
		{"data id number", `{"data":{"id":67890}}`, "67890"},
		{"resource url", `{"resource":"https://api.mercadopago.com/v1/payments/555"}`, "555"},
		{"resource url trailing slash", `{"resource":"https://api.mercadopago.com/v1/payments/555/"}`, "555"},
		{"nothing", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := fromJSON(tt.body)
			assert.Equal(t, tt.want, hook.resourceID())
		})
	}
}

func TestMercadoPagoWebhookIgnoresNonPaymentTopics(t *testing.T) {
	setupTestDB(t)
	app := newMercadoPagoApp(t, "http://127.0.0.1:0")

	resp := postWebhook(t, app, `{"topic":"merchant_order","resource":"https://api.example.com/orders/1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMercadoPagoWebhookRejectsMalformedPayload(t *testing.T) {
	setupTestDB(t)
	app := newMercadoPagoApp(t, "http://127.0.0.1:0")

	resp := postWebhook(t, app, `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postWebhook(t, app, `{"type":"payment"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMercadoPagoWebhookApprovedPaymentSettlesCharge(t *testing.T) {
	db := setupTestDB(t)

	user := model.User{Email: "t@example.com", Password: "x", Username: "tenant", CompanyName: "Tenant", Status: model.UserStatusActive}
	require.NoError(t, db.Create(&user).Error)
	client := model.Client{UserID: user.ID, Name: "Client", Email: "c@example.com"}
	require.NoError(t, db.Create(&client).Error)
	charge := model.Charge{
		UserID:            user.ID,
		ClientID:          &client.ID,
		Amount:            100.00,
		DueDate:           time.Now(),
		PaymentMethod:     model.PaymentMethodPix,
		Status:            model.ChargeStatusPending,
		ExternalReference: "ext-ref-1",
	}
	require.NoError(t, db.Create(&charge).Error)
	require.NoError(t, db.Create(&model.GatewayCredential{
		UserID:      user.ID,
		Gateway:     model.GatewayMercadoPago,
		AccessToken: "token-1",
	}).Error)

	srv := fakeMercadoPago(t, "token-1", mercadopago.Payment{
		ID:                99001,
		Status:            mercadopago.StatusApproved,
		ExternalReference: "ext-ref-1",
		TransactionAmount: 100.00,
		PaymentMethodID:   "pix",
	})
	app := newMercadoPagoApp(t, srv.URL)

	resp := postWebhook(t, app, `{"type":"payment","data":{"id":"99001"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated model.Charge
	require.NoError(t, db.First(&updated, charge.ID).Error)
	assert.Equal(t, model.ChargeStatusPaid, updated.Status)
	assert.Equal(t, "99001", updated.GatewayPaymentID)
	require.NotNil(t, updated.PaidAt)

	var payment model.Payment
	require.NoError(t, db.Where("charge_id = ?", charge.ID).First(&payment).Error)
	assert.Equal(t, 2.00, payment.Fee)
	assert.Equal(t, 98.00, payment.NetAmount)

	var logRow model.GatewayLog
	require.NoError(t, db.Where("external_id = ?", "99001").First(&logRow).Error)
	assert.Equal(t, model.GatewayLogProcessed, logRow.Status)
}

func TestMercadoPagoWebhookDuplicateDeliveryIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	user := model.User{Email: "t@example.com", Password: "x", Username: "tenant", CompanyName: "Tenant", Status: model.UserStatusActive}
	require.NoError(t, db.Create(&user).Error)
	client := model.Client{UserID: user.ID, Name: "Client", Email: "c@example.com"}
	require.NoError(t, db.Create(&client).Error)
	charge := model.Charge{
		UserID:            user.ID,
		ClientID:          &client.ID,
		Amount:            100.00,
		DueDate:           time.Now(),
		PaymentMethod:     model.PaymentMethodPix,
		Status:            model.ChargeStatusPending,
		ExternalReference: "ext-ref-dup",
	}
	require.NoError(t, db.Create(&charge).Error)
	require.NoError(t, db.Create(&model.GatewayCredential{
		UserID:      user.ID,
		Gateway:     model.GatewayMercadoPago,
		AccessToken: "token-1",
	}).Error)

	srv := fakeMercadoPago(t, "token-1", mercadopago.Payment{
		ID:                99002,
		Status:            mercadopago.StatusApproved,
		ExternalReference: "ext-ref-dup",
		TransactionAmount: 100.00,
	})
	app := newMercadoPagoApp(t, srv.URL)

	body := `{"type":"payment","data":{"id":"99002"}}`
	for i := 0; i < 3; i++ {
		resp := postWebhook(t, app, body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	var payments int64
	require.NoError(t, db.Model(&model.Payment{}).Where("charge_id = ?", charge.ID).Count(&payments).Error)
	assert.EqualValues(t, 1, payments)

	var updated model.Charge
	require.NoError(t, db.First(&updated, charge.ID).Error)
	assert.Equal(t, model.ChargeStatusPaid, updated.Status)
}

func TestMercadoPagoWebhookRetrySettlesPaidChargeWithoutPayment(t *testing.T) {
	db := setupTestDB(t)

	// A charge can be left paid with no Payment row when the process dies
	// between the status flip and settlement. The provider retry must finish
	// the job instead of only stamping the gateway id.
	user := model.User{Email: "t@example.com", Password: "x", Username: "tenant", CompanyName: "Tenant", Status: model.UserStatusActive}
	require.NoError(t, db.Create(&user).Error)
	client := model.Client{UserID: user.ID, Name: "Client", Email: "c@example.com"}
	require.NoError(t, db.Create(&client).Error)
	now := time.Now()
	charge := model.Charge{
		UserID:            user.ID,
		ClientID:          &client.ID,
		Amount:            100.00,
		DueDate:           now,
		PaymentMethod:     model.PaymentMethodPix,
		Status:            model.ChargeStatusPaid,
		PaidAt:            &now,
		ExternalReference: "ext-ref-stuck",
		GatewayPaymentID:  "99006",
	}
	require.NoError(t, db.Create(&charge).Error)
	require.NoError(t, db.Create(&model.GatewayCredential{
		UserID:      user.ID,
		Gateway:     model.GatewayMercadoPago,
		AccessToken: "token-1",
	}).Error)

	srv := fakeMercadoPago(t, "token-1", mercadopago.Payment{
		ID:                99006,
		Status:            mercadopago.StatusApproved,
		ExternalReference: "ext-ref-stuck",
		TransactionAmount: 100.00,
	})
	app := newMercadoPagoApp(t, srv.URL)

	resp := postWebhook(t, app, `{"type":"payment","data":{"id":"99006"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payments int64
	require.NoError(t, db.Model(&model.Payment{}).Where("charge_id = ?", charge.ID).Count(&payments).Error)
	assert.EqualValues(t, 1, payments)
}

func TestMercadoPagoWebhookRefundCancelsCharge(t *testing.T) {
	db := setupTestDB(t)

	user := model.User{Email: "t@example.com", Password: "x", Username: "tenant", CompanyName: "Tenant", Status: model.UserStatusActive}
	require.NoError(t, db.Create(&user).Error)
	charge := model.Charge{
		UserID:            user.ID,
		Amount:            80.00,
		DueDate:           time.Now(),
		PaymentMethod:     model.PaymentMethodPix,
		Status:            model.ChargeStatusPaid,
		ExternalReference: "ext-ref-refund",
	}
	require.NoError(t, db.Create(&charge).Error)
	require.NoError(t, db.Create(&model.GatewayCredential{
		UserID:      user.ID,
		Gateway:     model.GatewayMercadoPago,
		AccessToken: "token-1",
	}).Error)

	srv := fakeMercadoPago(t, "token-1", mercadopago.Payment{
		ID:                99003,
		Status:            mercadopago.StatusRefunded,
		ExternalReference: "ext-ref-refund",
	})
	app := newMercadoPagoApp(t, srv.URL)

	resp := postWebhook(t, app, `{"action":"payment.updated","data":{"id":"99003"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated model.Charge
	require.NoError(t, db.First(&updated, charge.ID).Error)
	assert.Equal(t, model.ChargeStatusCancelled, updated.Status)
	require.NotNil(t, updated.CancelledAt)
}

func TestMercadoPagoWebhookUnresolvedPaymentReturns200(t *testing.T) {
	db := setupTestDB(t)

	// A credential exists but the fake API rejects its token, so the payment
	// never resolves to a charge.
	user := model.User{Email: "t@example.com", Password: "x", Username: "tenant", CompanyName: "Tenant", Status: model.UserStatusActive}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&model.GatewayCredential{
		UserID:      user.ID,
		Gateway:     model.GatewayMercadoPago,
		AccessToken: "wrong-token",
	}).Error)

	srv := fakeMercadoPago(t, "token-1", mercadopago.Payment{ID: 99004, Status: mercadopago.StatusApproved})
	app := newMercadoPagoApp(t, srv.URL)

	resp := postWebhook(t, app, `{"type":"payment","data":{"id":"99004"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var logRow model.GatewayLog
	require.NoError(t, db.Where("external_id = ?", "99004").First(&logRow).Error)
	assert.Equal(t, model.GatewayLogUnresolved, logRow.Status)
}

func TestMercadoPagoWebhookPendingStatusStampsOnly(t *testing.T) {
	db := setupTestDB(t)

	user := model.User{Email: "t@example.com", Password: "x", Username: "tenant", CompanyName: "Tenant", Status: model.UserStatusActive}
	require.NoError(t, db.Create(&user).Error)
	charge := model.Charge{
		UserID:            user.ID,
		Amount:            60.00,
		DueDate:           time.Now(),
		PaymentMethod:     model.PaymentMethodBoleto,
		Status:            model.ChargeStatusPending,
		ExternalReference: "ext-ref-pending",
	}
	require.NoError(t, db.Create(&charge).Error)
	require.NoError(t, db.Create(&model.GatewayCredential{
		UserID:      user.ID,
		Gateway:     model.GatewayMercadoPago,
		AccessToken: "token-1",
	}).Error)

	srv := fakeMercadoPago(t, "token-1", mercadopago.Payment{
		ID:                99005,
		Status:            mercadopago.StatusPending,
		ExternalReference: "ext-ref-pending",
	})
	app := newMercadoPagoApp(t, srv.URL)

	resp := postWebhook(t, app, `{"type":"payment","data":{"id":"99005"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated model.Charge
	require.NoError(t, db.First(&updated, charge.ID).Error)
	assert.Equal(t, model.ChargeStatusPending, updated.Status)
	assert.Equal(t, "99005", updated.GatewayPaymentID)

	var payments int64
	require.NoError(t, db.Model(&model.Payment{}).Count(&payments).Error)
	assert.EqualValues(t, 0, payments)
}

var _ service.Notifier = (*noopNotifier)(nil)

type noopNotifier struct{}

func (noopNotifier) ChargeCreated(*model.Client, *model.Charge, string) error { return nil }
func (noopNotifier) PaymentConfirmed(*model.Client, *model.Charge, *model.Payment, *time.Time) error {
	return nil
}
func (noopNotifier) ResellerRenewed(*model.User, int, time.Time) error { return nil }
