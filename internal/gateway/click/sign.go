package click

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
)

// Signature computes the MD5 MAC Click attaches to every webhook call. The
// input is the ordered concatenation of the raw request fields with the
// merchant secret spliced in; merchant_prepare_id participates only on the
// complete action. Fields are used exactly as received, no normalization.
func Signature(req Request, secret string) string {
	h := md5.New()
	h.Write([]byte(req.ClickTransID))
	h.Write([]byte(req.ServiceID))
	h.Write([]byte(secret))
	h.Write([]byte(req.MerchantTransID))
	if req.Action == "1" { // complete
		h.Write([]byte(req.MerchantPrepareID))
	}
	h.Write([]byte(req.Amount))
	h.Write([]byte(req.Action))
	h.Write([]byte(req.SignTime))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks the sign_string on a request. A mismatch is a hard
// rejection; there is no partial trust or fallback.
func VerifySignature(req Request, secret string) bool {
	want := Signature(req, secret)
	return subtle.ConstantTimeCompare([]byte(want), []byte(req.SignString)) == 1
}
