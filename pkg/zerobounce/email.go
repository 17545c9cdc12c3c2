package zerobounce

import (
	"strings"
	"time"
)

// Validation statuses.
const (
	StatusValid     = "valid"
	StatusInvalid   = "invalid"
	StatusCatchAll  = "catch-all"
	StatusSpamtrap  = "spamtrap"
	StatusAbuse     = "abuse"
	StatusDoNotMail = "do_not_mail"
	StatusUnknown   = "unknown"
)

// Validation sub-statuses.
const (
	SubStatusAliasAddress             = "alias_address"
	SubStatusAntispamSystem           = "antispam_system"
	SubStatusDisposable               = "disposable"
	SubStatusDoesNotAcceptMail        = "does_not_accept_mail"
	SubStatusExceptionOccurred        = "exception_occurred"
	SubStatusFailedSMTPConnection     = "failed_smtp_connection"
	SubStatusFailedSyntaxCheck        = "failed_syntax_check"
	SubStatusForcibleDisconnect       = "forcible_disconnect"
	SubStatusGlobalSuppression        = "global_suppression"
	SubStatusGreylisted               = "greylisted"
	SubStatusLeadingPeriodRemoved     = "leading_period_removed"
	SubStatusMailboxNotFound          = "mailbox_not_found"
	SubStatusMailboxQuotaExceeded     = "mailbox_quota_exceeded"
	SubStatusMailServerDidNotRespond  = "mail_server_did_not_respond"
	SubStatusMailServerTemporaryError = "mail_server_temporary_error"
	SubStatusNoDNSEntries             = "no_dns_entries"
	SubStatusPossibleTypo             = "possible_typo"
	SubStatusPossibleTrap             = "possible_trap"
	SubStatusRoleBased                = "role_based"
	SubStatusRoleBasedCatchAll        = "role_based_catch_all"
	SubStatusTimeoutExceeded          = "timeout_exceeded"
	SubStatusToxic                    = "toxic"
	SubStatusUnroutableIPAddress      = "unroutable_ip_address"
)

// Email is the validation result for one address.
type Email struct {
	Address       string `json:"address"`
	Status        string `json:"status"`
	SubStatus     string `json:"sub_status"`
	FreeEmail     bool   `json:"free_email"`
	DidYouMean    string `json:"did_you_mean,omitempty"`
	Account       string `json:"account"`
	Domain        string `json:"domain"`
	DomainAgeDays int    `json:"domain_age_days"`
	SMTPProvider  string `json:"smtp_provider,omitempty"`
	MXRecord      string `json:"mx_record,omitempty"`
	MXFound       bool   `json:"mx_found"`
	FirstName     string `json:"firstname,omitempty"`
	LastName      string `json:"lastname,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Country       string `json:"country,omitempty"`
	Region        string `json:"region,omitempty"`
	City          string `json:"city,omitempty"`
	ZipCode       string `json:"zipcode,omitempty"`
	ProcessedAt   string `json:"processed_at"`
}

type emailPayload struct {
	Address       FlexString `json:"address"`
	Status        FlexString `json:"status"`
	SubStatus     FlexString `json:"sub_status"`
	FreeEmail     FlexBool   `json:"free_email"`
	DidYouMean    FlexString `json:"did_you_mean"`
	Account       FlexString `json:"account"`
	Domain        FlexString `json:"domain"`
	DomainAgeDays FlexInt    `json:"domain_age_days"`
	SMTPProvider  FlexString `json:"smtp_provider"`
	MXRecord      FlexString `json:"mx_record"`
	MXFound       FlexBool   `json:"mx_found"`
	FirstName     FlexString `json:"firstname"`
	LastName      FlexString `json:"lastname"`
	Gender        FlexString `json:"gender"`
	Country       FlexString `json:"country"`
	Region        FlexString `json:"region"`
	City          FlexString `json:"city"`
	ZipCode       FlexString `json:"zipcode"`
	ProcessedAt   FlexString `json:"processed_at"`
}

func (p emailPayload) toEmail() *Email {
	return &Email{
		Address:       string(p.Address),
		Status:        string(p.Status),
		SubStatus:     string(p.SubStatus),
		FreeEmail:     bool(p.FreeEmail),
		DidYouMean:    string(p.DidYouMean),
		Account:       string(p.Account),
		Domain:        string(p.Domain),
		DomainAgeDays: int(p.DomainAgeDays),
		SMTPProvider:  string(p.SMTPProvider),
		MXRecord:      string(p.MXRecord),
		MXFound:       bool(p.MXFound),
		FirstName:     string(p.FirstName),
		LastName:      string(p.LastName),
		Gender:        string(p.Gender),
		Country:       string(p.Country),
		Region:        string(p.Region),
		City:          string(p.City),
		ZipCode:       string(p.ZipCode),
		ProcessedAt:   string(p.ProcessedAt),
	}
}

func (e *Email) IsFree() bool      { return e.FreeEmail }
func (e *Email) IsValid() bool     { return e.Status == StatusValid }
func (e *Email) IsInvalid() bool   { return e.Status == StatusInvalid }
func (e *Email) IsCatchAll() bool  { return e.Status == StatusCatchAll }
func (e *Email) IsSpamtrap() bool  { return e.Status == StatusSpamtrap }
func (e *Email) IsAbuse() bool     { return e.Status == StatusAbuse }
func (e *Email) IsDoNotMail() bool { return e.Status == StatusDoNotMail }
func (e *Email) IsUnknown() bool   { return e.Status == StatusUnknown }

// IsSafe reports whether the address is safe to send to.
func (e *Email) IsSafe() bool { return e.IsValid() }

func (e *Email) IsNotFound() bool     { return e.SubStatus == SubStatusMailboxNotFound }
func (e *Email) IsNoDNSEntries() bool { return e.SubStatus == SubStatusNoDNSEntries }
func (e *Email) IsPossibleTypo() bool { return e.SubStatus == SubStatusPossibleTypo }
func (e *Email) IsDisposable() bool   { return e.SubStatus == SubStatusDisposable }
func (e *Email) IsToxic() bool        { return e.SubStatus == SubStatusToxic }

// HasAnyIPInfo reports whether any geolocation field was filled from the signup IP.
func (e *Email) HasAnyIPInfo() bool {
	return e.Country != "" || e.City != "" || e.Region != "" || e.ZipCode != ""
}

var processedAtLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// ProcessedTime parses ProcessedAt (UTC). The zero time is returned when it cannot be parsed.
func (e *Email) ProcessedTime() time.Time {
	raw := strings.TrimSpace(e.ProcessedAt)
	for _, layout := range processedAtLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

// StatusDescription explains the validation status, or returns "" for unknown values.
func (e *Email) StatusDescription() string {
	return StatusDescriptions[e.Status]
}

// SubStatusDescription explains the sub-status, or returns "" for unknown values.
func (e *Email) SubStatusDescription() string {
	return SubStatusDescriptions[e.SubStatus]
}

// StatusDescriptions maps each status to its documented meaning.
var StatusDescriptions = map[string]string{
	StatusValid:     "Emails determined to be valid and safe to send to, with a bounce rate under 2%. Bounces can still happen when your sending IP is blacklisted, when the mailbox only accepts known contacts, or when the domain throttles hourly volume; check the SMTP bounce codes.",
	StatusInvalid:   "Emails determined to be invalid. Remove them from your mailing list.",
	StatusCatchAll:  "Emails that cannot be validated without sending a real message, because the mail server accepts everything. Segment them into a catch-all group; some will bounce.",
	StatusSpamtrap:  "Emails believed to be spam traps. Do not send to them.",
	StatusAbuse:     "Emails of people known to click abuse links (complainers). Sending to them is not recommended.",
	StatusDoNotMail: "Valid addresses of companies, role accounts or people you should usually avoid mailing. Sub-categories: disposable, toxic, role_based, role_based_catch_all, global_suppression and possible_trap.",
	StatusUnknown:   "Emails that could not be validated, typically because the mail server was down or an anti-spam system blocked the check. Most unknowns turn out to be invalid; resubmit them for re-validation. Unknown results are not charged.",
}

// SubStatusDescriptions maps each sub-status to its documented meaning.
var SubStatusDescriptions = map[string]string{
	SubStatusAliasAddress:             "A forwarder or alias rather than a real inbox. It is valid and can be sent to.",
	SubStatusAntispamSystem:           "An anti-spam system prevented validation.",
	SubStatusDoesNotAcceptMail:        "The domain only sends mail and does not accept it.",
	SubStatusExceptionOccurred:        "Validation raised an exception.",
	SubStatusFailedSMTPConnection:     "The mail server refused an SMTP connection. These usually end up invalid.",
	SubStatusFailedSyntaxCheck:        "The address fails RFC syntax rules.",
	SubStatusForcibleDisconnect:       "The mail server disconnects immediately on connect. These usually end up invalid.",
	SubStatusGlobalSuppression:        "Found on popular global suppression lists: known complainers, purchased addresses, non-sending domains and litigators.",
	SubStatusGreylisted:               "Temporarily unable to validate. Resubmitting often succeeds.",
	SubStatusLeadingPeriodRemoved:     "A leading period was removed from a valid gmail.com address for compatibility.",
	SubStatusMailServerDidNotRespond:  "The mail server does not respond to mail commands. These usually end up invalid.",
	SubStatusMailServerTemporaryError: "The mail server returned a temporary error. These usually end up invalid.",
	SubStatusMailboxQuotaExceeded:     "The mailbox exceeded its quota and rejects mail. Marked invalid.",
	SubStatusMailboxNotFound:          "Valid syntax, but the mailbox does not exist. Marked invalid.",
	SubStatusNoDNSEntries:             "Valid syntax, but the domain has missing or incomplete DNS records. Marked invalid.",
	SubStatusPossibleTrap:             "Contains keywords that correlate with spam traps, such as spam@ or @spamtrap.com.",
	SubStatusPossibleTypo:             "A common misspelling of a popular domain. Marked invalid.",
	SubStatusRoleBased:                "Belongs to a position or group, like sales@ or info@. Strongly correlated with spam reports.",
	SubStatusRoleBasedCatchAll:        "Role-based and on a catch-all domain.",
	SubStatusTimeoutExceeded:          "The mail server responds extremely slowly. These usually end up invalid.",
	SubStatusUnroutableIPAddress:      "The domain points to an unroutable IP address. Marked invalid.",
	SubStatusDisposable:               "A temporary address created to sign up without a real address. Do not mail it.",
	SubStatusToxic:                    "Known abuse, spam or bot-created address. Do not mail it.",
}
