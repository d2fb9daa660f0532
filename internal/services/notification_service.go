// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/veritrace/veritrace-backend/internal/config"
	"github.com/veritrace/veritrace-backend/internal/models"
)

// NotificationService writes AdminNotification rows and sends emails.
// All Notify* methods are fire-and-forget: callers run them in a goroutine and
// a failure is logged, never propagated to the triggering request.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// Registration notifications

func (s *NotificationService) NotifyManufacturerRegistered(user *models.User, manufacturer *models.Manufacturer) {
	s.createNotification(&models.AdminNotification{
		Type:                "manufacturer_registration",
		Title:               "New Manufacturer Registration",
		Message:             fmt.Sprintf("Manufacturer '%s' (registration %s) is awaiting approval", manufacturer.CompanyName, manufacturer.RegistrationNumber),
		Priority:            "high",
		RelatedResourceType: "manufacturer",
		RelatedResourceID:   &manufacturer.ID,
	})

	data := map[string]interface{}{
		"CompanyName":  manufacturer.CompanyName,
		"PlatformName": "VeriTrace",
	}
	s.sendTemplatedEmail(user.Email, "Welcome to VeriTrace", "manufacturer_welcome", data)
}

func (s *NotificationService) NotifyManufacturerReviewed(manufacturer *models.Manufacturer, approved bool) {
	outcome := "approved"
	if !approved {
		outcome = "rejected"
	}

	data := map[string]interface{}{
		"CompanyName":  manufacturer.CompanyName,
		"Outcome":      outcome,
		"DashboardURL": fmt.Sprintf("%s/dashboard", s.config.Frontend.BaseURL),
	}
	subject := fmt.Sprintf("Manufacturer Application %s - %s", outcome, manufacturer.CompanyName)
	s.sendTemplatedEmail(manufacturer.User.Email, subject, "manufacturer_reviewed", data)
}

// Product notifications

func (s *NotificationService) NotifyProductSubmitted(product *models.Product, manufacturer *models.Manufacturer) {
	s.createNotification(&models.AdminNotification{
		Type:                "product_submission",
		Title:               "New Product Pending Review",
		Message:             fmt.Sprintf("Manufacturer '%s' submitted product '%s' (%s) for review", manufacturer.CompanyName, product.Name, product.Code),
		Priority:            "medium",
		RelatedResourceType: "product",
		RelatedResourceID:   &product.ID,
	})
}

func (s *NotificationService) NotifyProductReviewed(product *models.Product) {
	data := map[string]interface{}{
		"CompanyName": product.Manufacturer.CompanyName,
		"ProductName": product.Name,
		"Outcome":     string(product.ApprovalStatus),
		"Notes":       product.ReviewNotes,
		"ProductURL":  fmt.Sprintf("%s/products/%s", s.config.Frontend.BaseURL, product.ID),
	}
	subject := fmt.Sprintf("Product Review - %s", product.Name)
	s.sendTemplatedEmail(product.Manufacturer.ContactEmail, subject, "product_reviewed", data)
}

// Batch notifications

func (s *NotificationService) NotifyBatchSubmitted(batch *models.ProductBatch, product *models.Product, manufacturer *models.Manufacturer) {
	s.createNotification(&models.AdminNotification{
		Type:                "batch_submission",
		Title:               "New Batch Pending Review",
		Message:             fmt.Sprintf("Manufacturer '%s' registered batch %s of product '%s'", manufacturer.CompanyName, batch.BatchNumber, product.Name),
		Priority:            "medium",
		RelatedResourceType: "batch",
		RelatedResourceID:   &batch.ID,
	})
}

func (s *NotificationService) NotifyBatchReviewed(batch *models.ProductBatch) {
	data := map[string]interface{}{
		"CompanyName": batch.Product.Manufacturer.CompanyName,
		"ProductName": batch.Product.Name,
		"BatchNumber": batch.BatchNumber,
		"Outcome":     string(batch.Status),
		"Notes":       batch.ReviewNotes,
	}
	subject := fmt.Sprintf("Batch Review - %s / %s", batch.Product.Name, batch.BatchNumber)
	s.sendTemplatedEmail(batch.Product.Manufacturer.ContactEmail, subject, "batch_reviewed", data)
}

// Helper methods

func (s *NotificationService) createNotification(notification *models.AdminNotification) {
	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithField("type", notification.Type).Error("Failed to create admin notification")
	}
}

func (s *NotificationService) sendTemplatedEmail(to, subject, templateType string, data map[string]interface{}) {
	if to == "" {
		return
	}

	tmpl := s.getEmailTemplate(templateType)
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).WithField("template", templateType).Error("Failed to render email template")
		return
	}

	if err := s.sendEmail(to, subject, body); err != nil {
		logrus.WithError(err).WithField("to", to).Error("Failed to send email")
	}
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email delivery skipped (SMTP not configured)")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"manufacturer_welcome": {
			Subject: "Welcome to VeriTrace",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Welcome {{.CompanyName}}!</h2>
	<p>Thank you for registering with {{.PlatformName}}. Your manufacturer profile is under review; you will be notified once it has been approved.</p>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
		},
		"manufacturer_reviewed": {
			Subject: "Manufacturer Application Reviewed",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Application {{.Outcome}}</h2>
	<p>Hello {{.CompanyName}},</p>
	<p>Your manufacturer application has been {{.Outcome}}.</p>
	<a href="{{.DashboardURL}}">Open Dashboard</a>
	<p>Best regards,<br>VeriTrace Team</p>
</body>
</html>`,
		},
		"product_reviewed": {
			Subject: "Product Reviewed",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Product {{.Outcome}}</h2>
	<p>Hello {{.CompanyName}},</p>
	<p>Your product "{{.ProductName}}" has been {{.Outcome}}.</p>
	{{if .Notes}}<p>Reviewer notes: {{.Notes}}</p>{{end}}
	<a href="{{.ProductURL}}">View Product</a>
	<p>Best regards,<br>VeriTrace Team</p>
</body>
</html>`,
		},
		"batch_reviewed": {
			Subject: "Batch Reviewed",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Batch {{.Outcome}}</h2>
	<p>Hello {{.CompanyName}},</p>
	<p>Batch {{.BatchNumber}} of "{{.ProductName}}" has been {{.Outcome}}.</p>
	{{if .Notes}}<p>Reviewer notes: {{.Notes}}</p>{{end}}
	<p>Best regards,<br>VeriTrace Team</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
