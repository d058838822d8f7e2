// Package email provides a provider-agnostic interface for sending
// transactional emails with built-in support for Postmark.
//
// The package is built around the EmailSender interface, allowing
// different providers to be swapped without changing application code:
//   - NewPostmarkClient for production delivery with tracking
//   - NewDevSender for local development (saves emails to disk)
//
// All implementations validate parameters before sending and share the
// same sentinel errors.
//
// Basic usage:
//
//	cfg := email.Config{
//	    PostmarkServerToken:  "server-token",
//	    PostmarkAccountToken: "account-token",
//	    SenderEmail:          "noreply@streamvault.io",
//	    SupportEmail:         "support@streamvault.io",
//	}
//
//	sender, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//	    return err
//	}
//
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "Your subscription is active",
//	    BodyHTML: body,
//	    Tag:      "subscription-activated",
//	})
package email
