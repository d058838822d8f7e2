// Package qrcode generates QR code images as raw PNG bytes or as data-URI
// strings that can be embedded directly into HTML pages.
//
// It is a thin wrapper around github.com/skip2/go-qrcode that adds input
// validation and sensible defaults. StreamVault uses it to render checkout
// links as scannable codes so a subscription started on a TV can be paid
// for on a phone.
//
//	png, err := qrcode.Generate("https://checkout.stripe.com/c/pay/cs_123", 256)
//	if err != nil {
//	    return err
//	}
//
// Sentinel errors are exported for comparison with errors.Is.
package qrcode
