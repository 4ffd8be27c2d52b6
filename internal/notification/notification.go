// Package notification fans billing events out to email and WhatsApp. All
// sends are best effort; errors bubble up only so callers can log them.
package notification

import (
	"fmt"
	"log"
	"time"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/email"
	"gestorapp_backend/pkg/whatsapp"
)

type Service struct {
	email    *email.EmailService
	whatsapp *whatsapp.Client
}

func New(emailService *email.EmailService, whatsappClient *whatsapp.Client) *Service {
	return &Service{
		email:    emailService,
		whatsapp: whatsappClient,
	}
}

func (s *Service) ChargeCreated(client *model.Client, charge *model.Charge, companyName string) error {
	if s == nil || client == nil {
		return nil
	}

	var firstErr error
	if s.email != nil && client.Email != "" {
		if err := s.email.SendChargeCreatedEmail(client.Email, client.Name, companyName, charge.Amount, charge.DueDate, charge.PaymentMethod); err != nil {
			firstErr = err
		}
	}

	if s.whatsapp.Enabled() && client.WhatsAppNumber != "" {
		if err := s.whatsapp.SendChargeCreated(client.WhatsAppNumber, client.Name, charge.Amount, charge.DueDate); err != nil {
			log.Printf("WhatsApp charge notification failed for client %d: %v", client.ID, err)
		}
	}

	return firstErr
}

func (s *Service) PaymentConfirmed(client *model.Client, charge *model.Charge, payment *model.Payment, nextBillingDate *time.Time) error {
	if s == nil || client == nil {
		return nil
	}

	var firstErr error
	if s.email != nil && client.Email != "" {
		if err := s.email.SendPaymentConfirmationEmail(client.Email, client.Name, payment.Amount, payment.PaymentMethod, nextBillingDate); err != nil {
			firstErr = err
		}
	}

	if s.whatsapp.Enabled() && client.WhatsAppNumber != "" {
		if err := s.whatsapp.SendPaymentConfirmation(client.WhatsAppNumber, client.Name, payment.Amount); err != nil {
			log.Printf("WhatsApp payment notification failed for client %d: %v", client.ID, err)
		}
	}

	return firstErr
}

func (s *Service) ResellerRenewed(account *model.User, days int, expiresAt time.Time) error {
	if s == nil || account == nil {
		return nil
	}

	if s.email == nil || account.Email == "" {
		return fmt.Errorf("no email destination for account %d", account.ID)
	}
	return s.email.SendResellerRenewalEmail(account.Email, account.CompanyName, days, expiresAt)
}
