package click

import (
	"fmt"
	"net/url"
)

const payBaseURL = "https://my.click.uz/services/pay"

// LinkParams carries the three values the redirect link embeds. The plan id
// travels as transaction_param (returned to us as merchant_trans_id) and the
// user id as additional_param3 (returned as param2).
type LinkParams struct {
	ServiceID  string
	MerchantID string
	Amount     int64
	PlanID     string
	UserID     string
	ReturnURL  string
}

// PaymentLink builds the outbound redirect URL for the Click checkout page.
func PaymentLink(p LinkParams) string {
	q := url.Values{}
	q.Set("service_id", p.ServiceID)
	q.Set("merchant_id", p.MerchantID)
	q.Set("amount", fmt.Sprintf("%d", p.Amount))
	q.Set("transaction_param", p.PlanID)
	q.Set("additional_param3", p.UserID)
	if p.ReturnURL != "" {
		q.Set("return_url", p.ReturnURL)
	}
	return payBaseURL + "?" + q.Encode()
}
