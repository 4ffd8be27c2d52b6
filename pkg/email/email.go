package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"
)

type EmailService struct {
	apiKey    string
	from      string
	client    *http.Client
	templates *template.Template
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

// Template data structures
type WelcomeEmailData struct {
	CompanyName string
}

type ChargeCreatedData struct {
	ClientName    string
	CompanyName   string
	Amount        float64
	DueDate       time.Time
	PaymentMethod string
}

type PaymentConfirmationData struct {
	ClientName      string
	Amount          float64
	PaymentMethod   string
	PaidAt          time.Time
	NextBillingDate *time.Time
}

type ResellerRenewalData struct {
	CompanyName string
	Days        int
	ExpiresAt   time.Time
}

type ResellerExpiryWarningData struct {
	CompanyName string
	DaysLeft    int
	ExpiryDate  time.Time
}

type PlatformInvoiceData struct {
	CompanyName string
	PlanName    string
	EventType   string
	Amount      float64
	Currency    string
}

type PlatformPaymentFailedData struct {
	CompanyName string
}

type PlatformCancellationData struct {
	CompanyName string
	EndsAt      *time.Time
}

func NewEmailService(apiKey, from string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %v", err)
	}

	return &EmailService{
		apiKey:    apiKey,
		from:      from,
		client:    &http.Client{Timeout: 10 * time.Second},
		templates: templates,
	}, nil
}

func (s *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	if to == "" {
		return fmt.Errorf("recipient address is empty")
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %v", err)
	}

	emailData := EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    body.String(),
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("error marshaling email data: %v", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("resend API error: %s", string(respBody))
	}

	log.Printf("Email sent to %s: %s", to, subject)
	return nil
}

func (s *EmailService) SendWelcomeEmail(to, companyName string) error {
	return s.sendTemplateEmail(to, "Welcome to GestorApp! 🎉", "welcome.html", WelcomeEmailData{
		CompanyName: companyName,
	})
}

func (s *EmailService) SendChargeCreatedEmail(to, clientName, companyName string, amount float64, dueDate time.Time, method string) error {
	return s.sendTemplateEmail(to, "You have a new charge 📄", "charge_created.html", ChargeCreatedData{
		ClientName:    clientName,
		CompanyName:   companyName,
		Amount:        amount,
		DueDate:       dueDate,
		PaymentMethod: method,
	})
}

func (s *EmailService) SendPaymentConfirmationEmail(to, clientName string, amount float64, method string, nextBillingDate *time.Time) error {
	return s.sendTemplateEmail(to, "Payment received ✅", "payment_confirmation.html", PaymentConfirmationData{
		ClientName:      clientName,
		Amount:          amount,
		PaymentMethod:   method,
		PaidAt:          time.Now(),
		NextBillingDate: nextBillingDate,
	})
}

func (s *EmailService) SendResellerRenewalEmail(to, companyName string, days int, expiresAt time.Time) error {
	return s.sendTemplateEmail(to, "Your account has been renewed 🔄", "reseller_renewal.html", ResellerRenewalData{
		CompanyName: companyName,
		Days:        days,
		ExpiresAt:   expiresAt,
	})
}

func (s *EmailService) SendResellerExpiryWarning(to, companyName string, expiresAt time.Time, daysLeft int) error {
	return s.sendTemplateEmail(to, fmt.Sprintf("Your account expires in %d days ⚠️", daysLeft), "reseller_expiry_warning.html", ResellerExpiryWarningData{
		CompanyName: companyName,
		DaysLeft:    daysLeft,
		ExpiryDate:  expiresAt,
	})
}

func (s *EmailService) SendPlatformInvoiceEmail(to, companyName, planName, eventType string, amount float64, currency string) error {
	return s.sendTemplateEmail(to, "Your GestorApp subscription payment", "platform_invoice.html", PlatformInvoiceData{
		CompanyName: companyName,
		PlanName:    planName,
		EventType:   eventType,
		Amount:      amount,
		Currency:    currency,
	})
}

func (s *EmailService) SendPlatformPaymentFailedEmail(to, companyName string) error {
	return s.sendTemplateEmail(to, "Payment failed for your GestorApp subscription ⚠️", "platform_payment_failed.html", PlatformPaymentFailedData{
		CompanyName: companyName,
	})
}

func (s *EmailService) SendPlatformCancellationEmail(to, companyName string, endsAt *time.Time) error {
	return s.sendTemplateEmail(to, "Your GestorApp subscription was cancelled", "platform_cancellation.html", PlatformCancellationData{
		CompanyName: companyName,
		EndsAt:      endsAt,
	})
}
