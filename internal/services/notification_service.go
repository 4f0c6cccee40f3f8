// internal/services/notification_service.go
package services

import (
	"bytes"
	"errors"
	"fmt"
	"net/smtp"
	"text/template"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/config"
	"github.com/grocerly/grocerly-backend/internal/models"
)

// NotificationService sends transactional emails. Sends are best-effort:
// a failed email never fails the order workflow that triggered it.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

func (s *NotificationService) SendOrderConfirmation(userID, orderID uuid.UUID) {
	user, order, err := s.loadUserAndOrder(userID, orderID)
	if err != nil {
		logrus.WithError(err).Error("Failed to load order confirmation data")
		return
	}

	body, err := s.renderTemplate(orderConfirmationTemplate, map[string]interface{}{
		"Username":   user.Username,
		"OrderID":    order.ID.String(),
		"FinalTotal": order.FinalTotal.StringFixed(2),
		"ItemCount":  len(order.Items),
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to render order confirmation email")
		return
	}

	subject := fmt.Sprintf("Order %s confirmed", shortID(order.ID))
	if err := s.sendEmail(user.Email, subject, body); err != nil {
		logrus.WithError(err).WithField("order_id", orderID).
			Error("Failed to send order confirmation email")
	}
}

func (s *NotificationService) SendOrderStatusUpdate(userID, orderID uuid.UUID, newStatus models.OrderStatus) {
	user, order, err := s.loadUserAndOrder(userID, orderID)
	if err != nil {
		logrus.WithError(err).Error("Failed to load order status update data")
		return
	}

	body, err := s.renderTemplate(orderStatusTemplate, map[string]interface{}{
		"Username": user.Username,
		"OrderID":  order.ID.String(),
		"Status":   string(newStatus),
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to render order status email")
		return
	}

	subject := fmt.Sprintf("Order %s is now %s", shortID(order.ID), newStatus)
	if err := s.sendEmail(user.Email, subject, body); err != nil {
		logrus.WithError(err).WithField("order_id", orderID).
			Error("Failed to send order status email")
	}
}

func (s *NotificationService) loadUserAndOrder(userID, orderID uuid.UUID) (*models.User, *models.Order, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, nil, fmt.Errorf("user lookup failed: %w", err)
	}

	var order models.Order
	if err := s.db.Preload("Items").First(&order, orderID).Error; err != nil {
		return nil, nil, fmt.Errorf("order lookup failed: %w", err)
	}

	return &user, &order, nil
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPUsername == "" {
		// Local development: no SMTP configured.
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email send skipped")
		return nil
	}

	if to == "" {
		return errors.New("recipient address is empty")
	}

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)
	addr := s.config.Email.SMTPHost + ":" + s.config.Email.SMTPPort

	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	return buf.String(), nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

const orderConfirmationTemplate = `Hi {{.Username}},

Thanks for your order!

Order: {{.OrderID}}
Items: {{.ItemCount}}
Total: {{.FinalTotal}}

We'll let you know when it ships.
`

const orderStatusTemplate = `Hi {{.Username}},

Your order {{.OrderID}} is now {{.Status}}.
`
