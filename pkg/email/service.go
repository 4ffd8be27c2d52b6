package email

import "log"

var GlobalEmailService *EmailService

func InitEmailService(apiKey, from string) error {
	service, err := NewEmailService(apiKey, from)
	if err != nil {
		return err
	}

	GlobalEmailService = service
	log.Println("Email service initialized")
	return nil
}
