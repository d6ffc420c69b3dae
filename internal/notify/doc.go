// Package notify delivers batch reports by email.
//
// A Message carries the subject and both report bodies. The Mailer sends
// it over SMTP with STARTTLS as a multipart/alternative email (plain text
// first, HTML second). Delivery failures are returned to the caller, which
// logs them; they never change the outcome of a run.
package notify
