//go:build !integration

package payme

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestPaymentLink(t *testing.T) {
	link := PaymentLink(LinkParams{
		MerchantID: "5e730e8e0b852a417aa49ceb",
		PlanID:     "plan-1",
		UserID:     "user-1",
		Amount:     49000,
	})

	if !strings.HasPrefix(link, "https://checkout.paycom.uz/") {
		t.Fatalf("unexpected base: %s", link)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(link, "https://checkout.paycom.uz/"))
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	// Amount travels in tiyin.
	want := "m=5e730e8e0b852a417aa49ceb;ac.plan_id=plan-1;ac.user_id=user-1;a=4900000"
	if string(raw) != want {
		t.Fatalf("payload = %s, want %s", raw, want)
	}
}

func TestKnownMethod(t *testing.T) {
	for _, m := range []string{
		MethodCheckPerformTransaction, MethodCreateTransaction, MethodPerformTransaction,
		MethodCancelTransaction, MethodCheckTransaction, MethodGetStatement,
	} {
		if !KnownMethod(m) {
			t.Errorf("KnownMethod(%q) = false", m)
		}
	}
	if KnownMethod("GetFiscalData") {
		t.Error(`KnownMethod("GetFiscalData") = true`)
	}
}
