package utils

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"gopkg.in/gomail.v2"

	"github.com/HSouheill/barrim_network/repositories"
	"github.com/HSouheill/barrim_network/websocket"
)

// MailSettings configures outgoing email.
type MailSettings struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// AdminEmail receives operational emails such as batch summaries.
	AdminEmail string
}

type notificationText struct {
	title string
	body  string
}

// notificationTexts maps notification codes to what members see.
var notificationTexts = map[string]notificationText{
	"network_member_joined": {"New referral", "A new member joined your network"},
	"commission_released":   {"Commission received", "A commission was credited to your wallet"},
	"commission_on_hold":    {"Commission on hold", "A commission is on hold until your rank covers its level"},
	"bonus_paid":            {"Bonus received", "Your monthly bonus was credited to your wallet"},
}

// NotificationDispatcher delivers engine notifications over websocket and
// FCM and sends operational emails. Every delivery runs in its own goroutine;
// failures are logged and never reach the caller.
type NotificationDispatcher struct {
	accounts repositories.AccountRepository
	hub      *websocket.Hub
	firebase *firebase.App
	mail     MailSettings
	wg       sync.WaitGroup
}

// NewNotificationDispatcher creates a dispatcher. hub and app may be nil to
// disable that channel.
func NewNotificationDispatcher(accounts repositories.AccountRepository, hub *websocket.Hub, app *firebase.App, mail MailSettings) *NotificationDispatcher {
	return &NotificationDispatcher{accounts: accounts, hub: hub, firebase: app, mail: mail}
}

// Notify sends code to each account.
func (d *NotificationDispatcher) Notify(accountIDs []string, code string, payload map[string]interface{}) {
	text, ok := notificationTexts[code]
	if !ok {
		text = notificationText{title: "Network update", body: code}
	}
	for _, id := range accountIDs {
		d.wg.Add(1)
		go func(id string) {
			defer d.wg.Done()
			d.deliver(id, code, text, payload)
		}(id)
	}
}

// QueueEmail emails the administrator.
func (d *NotificationDispatcher) QueueEmail(emailType string, payload map[string]interface{}) {
	if d.mail.Host == "" || d.mail.AdminEmail == "" {
		log.Printf("Email %s not sent: SMTP is not configured", emailType)
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.sendEmail(d.mail.AdminEmail, emailSubject(emailType), formatPayload(payload)); err != nil {
			log.Printf("Failed to send %s email: %v", emailType, err)
		}
	}()
}

// Wait blocks until queued deliveries finish. Used on shutdown.
func (d *NotificationDispatcher) Wait() {
	d.wg.Wait()
}

func (d *NotificationDispatcher) deliver(accountID, code string, text notificationText, payload map[string]interface{}) {
	if d.hub != nil && d.hub.Connected(accountID) {
		err := d.hub.SendToUser(accountID, websocket.Notification{
			Type:    code,
			Message: text.body,
			Data:    payload,
		})
		if err != nil {
			log.Printf("Error sending websocket notification to %s: %v", accountID, err)
		}
	}

	if d.firebase == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.sendFCM(ctx, accountID, code, text, payload); err != nil {
		log.Printf("Error sending FCM notification to %s: %v", accountID, err)
	}
}

// sendFCM sends a Firebase Cloud Messaging notification to the account's device
func (d *NotificationDispatcher) sendFCM(ctx context.Context, accountID, code string, text notificationText, payload map[string]interface{}) error {
	account, err := d.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to find account: %w", err)
	}
	if account.FCMToken == "" {
		return nil
	}

	client, err := d.firebase.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	data := map[string]string{
		"type":      code,
		"accountId": accountID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	for key, value := range payload {
		data[key] = fmt.Sprint(value)
	}

	response, err := client.Send(ctx, &messaging.Message{
		Token: account.FCMToken,
		Notification: &messaging.Notification{
			Title: text.title,
			Body:  text.body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "barrim_fcm_channel",
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}

	log.Printf("FCM notification sent successfully to %s: %s", accountID, response)
	return nil
}

func (d *NotificationDispatcher) sendEmail(to, subject, body string) error {
	from := d.mail.From
	if from == "" {
		from = d.mail.User
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	dialer := gomail.NewDialer(d.mail.Host, d.mail.Port, d.mail.User, d.mail.Password)
	return dialer.DialAndSend(m)
}

func emailSubject(emailType string) string {
	switch emailType {
	case "bonus_run_summary":
		return "Network bonus distribution finished"
	case "job_dead_lettered":
		return "Network job needs manual review"
	default:
		return "Network engine: " + emailType
	}
}

// formatPayload renders payload as sorted "key: value" lines.
func formatPayload(payload map[string]interface{}) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, payload[k])
	}
	return b.String()
}
