// Package notify delivers security alerts over email and chat webhooks.
// All senders are optional; an unconfigured Notifier is a no-op.
package notify

import "log"

type Notifier struct {
	Email      *EmailSender
	Webhook    *WebhookSender
	AdminEmail string
}

// LockoutAlert fans out to every configured channel. Delivery failures
// are logged and swallowed; alerts never block or fail a login request.
func (n *Notifier) LockoutAlert(username string, attempts int, ip string) {
	if n == nil {
		return
	}
	if n.Webhook != nil {
		if err := n.Webhook.SendLockoutAlert(username, attempts, ip); err != nil {
			log.Printf("lockout webhook failed: %v", err)
		}
	}
	if n.Email != nil {
		if err := n.Email.SendLockoutAlert(n.AdminEmail, username, attempts, ip); err != nil {
			log.Printf("lockout email failed: %v", err)
		}
	}
}

func (n *Notifier) UnlockNotice(username, admin string) {
	if n == nil || n.Webhook == nil {
		return
	}
	if err := n.Webhook.SendUnlockNotice(username, admin); err != nil {
		log.Printf("unlock webhook failed: %v", err)
	}
}

// Credentials mails a generated password to a new user. Unlike alerts
// this reports failure, so the caller can surface it to the admin.
func (n *Notifier) Credentials(to, username, password string) error {
	if n == nil || n.Email == nil || to == "" {
		return nil
	}
	return n.Email.SendCredentials(to, username, password)
}
