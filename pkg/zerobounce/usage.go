package zerobounce

import (
	"context"
	"net/http"
	"time"

	"github.com/zerobounce/zerobounce-cli/internal/cli"
)

// Usage holds API usage counters for a date range.
type Usage struct {
	Total                             int    `json:"total"`
	StatusValid                       int    `json:"status_valid"`
	StatusInvalid                     int    `json:"status_invalid"`
	StatusCatchAll                    int    `json:"status_catch_all"`
	StatusDoNotMail                   int    `json:"status_do_not_mail"`
	StatusSpamtrap                    int    `json:"status_spamtrap"`
	StatusUnknown                     int    `json:"status_unknown"`
	SubStatusToxic                    int    `json:"sub_status_toxic"`
	SubStatusDisposable               int    `json:"sub_status_disposable"`
	SubStatusRoleBased                int    `json:"sub_status_role_based"`
	SubStatusPossibleTrap             int    `json:"sub_status_possible_trap"`
	SubStatusGlobalSuppression        int    `json:"sub_status_global_suppression"`
	SubStatusTimeoutExceeded          int    `json:"sub_status_timeout_exceeded"`
	SubStatusMailServerTemporaryError int    `json:"sub_status_mail_server_temporary_error"`
	SubStatusMailServerDidNotRespond  int    `json:"sub_status_mail_server_did_not_respond"`
	SubStatusGreylisted               int    `json:"sub_status_greylisted"`
	SubStatusAntispamSystem           int    `json:"sub_status_antispam_system"`
	SubStatusDoesNotAcceptMail        int    `json:"sub_status_does_not_accept_mail"`
	SubStatusExceptionOccurred        int    `json:"sub_status_exception_occurred"`
	SubStatusFailedSyntaxCheck        int    `json:"sub_status_failed_syntax_check"`
	SubStatusMailboxNotFound          int    `json:"sub_status_mailbox_not_found"`
	SubStatusUnroutableIPAddress      int    `json:"sub_status_unroutable_ip_address"`
	SubStatusPossibleTypo             int    `json:"sub_status_possible_typo"`
	SubStatusNoDNSEntries             int    `json:"sub_status_no_dns_entries"`
	SubStatusRoleBasedCatchAll        int    `json:"sub_status_role_based_catch_all"`
	SubStatusMailboxQuotaExceeded     int    `json:"sub_status_mailbox_quota_exceeded"`
	SubStatusForcibleDisconnect       int    `json:"sub_status_forcible_disconnect"`
	SubStatusFailedSMTPConnection     int    `json:"sub_status_failed_smtp_connection"`
	StartDate                         string `json:"start_date"`
	EndDate                           string `json:"end_date"`
}

type usagePayload struct {
	Total                             FlexInt    `json:"total"`
	StatusValid                       FlexInt    `json:"status_valid"`
	StatusInvalid                     FlexInt    `json:"status_invalid"`
	StatusCatchAll                    FlexInt    `json:"status_catch_all"`
	StatusDoNotMail                   FlexInt    `json:"status_do_not_mail"`
	StatusSpamtrap                    FlexInt    `json:"status_spamtrap"`
	StatusUnknown                     FlexInt    `json:"status_unknown"`
	SubStatusToxic                    FlexInt    `json:"sub_status_toxic"`
	SubStatusDisposable               FlexInt    `json:"sub_status_disposable"`
	SubStatusRoleBased                FlexInt    `json:"sub_status_role_based"`
	SubStatusPossibleTrap             FlexInt    `json:"sub_status_possible_trap"`
	SubStatusGlobalSuppression        FlexInt    `json:"sub_status_global_suppression"`
	SubStatusTimeoutExceeded          FlexInt    `json:"sub_status_timeout_exceeded"`
	SubStatusMailServerTemporaryError FlexInt    `json:"sub_status_mail_server_temporary_error"`
	SubStatusMailServerDidNotRespond  FlexInt    `json:"sub_status_mail_server_did_not_respond"`
	SubStatusGreylisted               FlexInt    `json:"sub_status_greylisted"`
	SubStatusAntispamSystem           FlexInt    `json:"sub_status_antispam_system"`
	SubStatusDoesNotAcceptMail        FlexInt    `json:"sub_status_does_not_accept_mail"`
	SubStatusExceptionOccurred        FlexInt    `json:"sub_status_exception_occurred"`
	SubStatusFailedSyntaxCheck        FlexInt    `json:"sub_status_failed_syntax_check"`
	SubStatusMailboxNotFound          FlexInt    `json:"sub_status_mailbox_not_found"`
	SubStatusUnroutableIPAddress      FlexInt    `json:"sub_status_unroutable_ip_address"`
	SubStatusPossibleTypo             FlexInt    `json:"sub_status_possible_typo"`
	SubStatusNoDNSEntries             FlexInt    `json:"sub_status_no_dns_entries"`
	SubStatusRoleBasedCatchAll        FlexInt    `json:"sub_status_role_based_catch_all"`
	SubStatusMailboxQuotaExceeded     FlexInt    `json:"sub_status_mailbox_quota_exceeded"`
	SubStatusForcibleDisconnect       FlexInt    `json:"sub_status_forcible_disconnect"`
	SubStatusFailedSMTPConnection     FlexInt    `json:"sub_status_failed_smtp_connection"`
	StartDate                         FlexString `json:"start_date"`
	EndDate                           FlexString `json:"end_date"`
}

func (p usagePayload) toUsage() *Usage {
	return &Usage{
		Total:                             int(p.Total),
		StatusValid:                       int(p.StatusValid),
		StatusInvalid:                     int(p.StatusInvalid),
		StatusCatchAll:                    int(p.StatusCatchAll),
		StatusDoNotMail:                   int(p.StatusDoNotMail),
		StatusSpamtrap:                    int(p.StatusSpamtrap),
		StatusUnknown:                     int(p.StatusUnknown),
		SubStatusToxic:                    int(p.SubStatusToxic),
		SubStatusDisposable:               int(p.SubStatusDisposable),
		SubStatusRoleBased:                int(p.SubStatusRoleBased),
		SubStatusPossibleTrap:             int(p.SubStatusPossibleTrap),
		SubStatusGlobalSuppression:        int(p.SubStatusGlobalSuppression),
		SubStatusTimeoutExceeded:          int(p.SubStatusTimeoutExceeded),
		SubStatusMailServerTemporaryError: int(p.SubStatusMailServerTemporaryError),
		SubStatusMailServerDidNotRespond:  int(p.SubStatusMailServerDidNotRespond),
		SubStatusGreylisted:               int(p.SubStatusGreylisted),
		SubStatusAntispamSystem:           int(p.SubStatusAntispamSystem),
		SubStatusDoesNotAcceptMail:        int(p.SubStatusDoesNotAcceptMail),
		SubStatusExceptionOccurred:        int(p.SubStatusExceptionOccurred),
		SubStatusFailedSyntaxCheck:        int(p.SubStatusFailedSyntaxCheck),
		SubStatusMailboxNotFound:          int(p.SubStatusMailboxNotFound),
		SubStatusUnroutableIPAddress:      int(p.SubStatusUnroutableIPAddress),
		SubStatusPossibleTypo:             int(p.SubStatusPossibleTypo),
		SubStatusNoDNSEntries:             int(p.SubStatusNoDNSEntries),
		SubStatusRoleBasedCatchAll:        int(p.SubStatusRoleBasedCatchAll),
		SubStatusMailboxQuotaExceeded:     int(p.SubStatusMailboxQuotaExceeded),
		SubStatusForcibleDisconnect:       int(p.SubStatusForcibleDisconnect),
		SubStatusFailedSMTPConnection:     int(p.SubStatusFailedSMTPConnection),
		StartDate:                         string(p.StartDate),
		EndDate:                           string(p.EndDate),
	}
}

// GetUsage returns usage counters between two dates. Dates may be any
// expression understood by cli.ParseDate ("2019-01-01", "now", "30d ago", ...)
// and are sent as YYYY-MM-DD. An empty end defaults to "now".
func (c *Client) GetUsage(ctx context.Context, start, end string) (*Usage, error) {
	if end == "" {
		end = "now"
	}
	now := c.now()
	startDate, err := cli.ParseDate(start, now)
	if err != nil {
		return nil, &ParameterError{Field: "start_date", Reason: "period not specified", Err: err}
	}
	endDate, err := cli.ParseDate(end, now)
	if err != nil {
		return nil, &ParameterError{Field: "end_date", Reason: "period not specified", Err: err}
	}

	params := usageParams(formatDate(startDate), formatDate(endDate))
	if err := params.RequireFields("start_date", "end_date"); err != nil {
		return nil, err
	}

	resp, err := c.call(ctx, http.MethodGet, c.apiBaseURL(), "getapiusage", params, "")
	if err != nil {
		return nil, err
	}

	var payload usagePayload
	if !resp.Decode(&payload) {
		return nil, protocolError("getapiusage", resp, "unexpected API usage response")
	}
	if obj, ok := resp.PayloadObject(); ok {
		if msg, ok := obj["error"].(string); ok && msg != "" {
			return nil, protocolError("getapiusage", resp, msg)
		}
	}
	return payload.toUsage(), nil
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
