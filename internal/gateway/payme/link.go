package payme

import (
	"encoding/base64"
	"fmt"
)

const checkoutBaseURL = "https://checkout.paycom.uz"

// LinkParams carries the values the checkout link embeds. Amount is the plan
// price in soum; the link converts it to tiyin as the gateway expects.
type LinkParams struct {
	MerchantID string
	PlanID     string
	UserID     string
	Amount     int64
}

// PaymentLink builds the outbound checkout URL: the merchant id, account
// fields and minor-unit amount are semicolon-joined and base64-encoded into
// the path, per the Payme initialization scheme.
func PaymentLink(p LinkParams) string {
	payload := fmt.Sprintf("m=%s;ac.plan_id=%s;ac.user_id=%s;a=%d",
		p.MerchantID, p.PlanID, p.UserID, p.Amount*100)
	return checkoutBaseURL + "/" + base64.StdEncoding.EncodeToString([]byte(payload))
}
