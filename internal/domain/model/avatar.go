package model

import "time"

// Avatar is a purchasable premium avatar. Users spend coins on it via the
// premium-upgrade flow; the image itself lives in external storage.
type Avatar struct {
	ID        string
	Name      string
	URL       string
	Price     int64 // in coins
	CreatedAt time.Time
}
