package mercadopago

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/123456", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{
			"id": 123456,
			"status": "approved",
			"status_detail": "accredited",
			"external_reference": "charge-abc",
			"transaction_amount": 150.75,
			"payment_method_id": "pix",
			"payment_type_id": "bank_transfer"
		}`)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	payment, err := client.GetPayment("test-token", "123456")
	require.NoError(t, err)

	assert.EqualValues(t, 123456, payment.ID)
	assert.Equal(t, StatusApproved, payment.Status)
	assert.Equal(t, "charge-abc", payment.ExternalReference)
	assert.Equal(t, 150.75, payment.TransactionAmount)
	assert.Equal(t, "pix", payment.PaymentMethodID)
}

func TestGetPaymentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Payment not found","status":404}`)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	payment, err := client.GetPayment("test-token", "999")
	require.Error(t, err)
	assert.Nil(t, payment)
	assert.Contains(t, err.Error(), "404")
}

func TestGetPaymentUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"invalid access token"}`)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	_, err := client.GetPayment("bad-token", "123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestGetPaymentMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{not json`)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	_, err := client.GetPayment("test-token", "123")
	require.Error(t, err)
}
