// Package upc normalizes and validates UPC/EAN barcodes.
//
// Accepted lengths are 8 (EAN-8), 12 (UPC-A) and 13 (EAN-13) digits after
// stripping spaces and hyphens. Only UPC-A codes get check-digit
// verification; 8- and 13-digit codes are accepted on length alone.
package upc

import "strings"

// ErrorKind classifies why a barcode was rejected.
type ErrorKind string

const (
	KindEmpty    ErrorKind = "empty"
	KindNonDigit ErrorKind = "non_digit"
	KindLength   ErrorKind = "length"
	KindChecksum ErrorKind = "checksum"
)

// Error is a barcode validation failure. Message is safe to surface to API
// clients.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Normalize strips spaces and hyphens. Other characters are left in place
// for Validate to reject.
func Normalize(raw string) string {
	s := strings.ReplaceAll(raw, " ", "")
	return strings.ReplaceAll(s, "-", "")
}

// Validate checks a raw barcode string and returns its normalized form.
// Failures are returned as *Error with a kind from the constants above.
func Validate(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", &Error{Kind: KindEmpty, Message: "Barcode cannot be empty"}
	}

	code := Normalize(raw)
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", &Error{Kind: KindNonDigit, Message: "Invalid UPC format: must contain only digits"}
		}
	}

	switch len(code) {
	case 8, 13:
		return code, nil
	case 12:
		if checkDigit(code[:11]) != int(code[11]-'0') {
			return "", &Error{Kind: KindChecksum, Message: "Invalid UPC: checksum verification failed"}
		}
		return code, nil
	default:
		return "", &Error{Kind: KindLength, Message: "Invalid UPC length: must be 8, 12, or 13 digits"}
	}
}

// checkDigit computes the UPC-A check digit over the leading 11 digits.
// Digits at odd positions counted from the right (check digit excluded)
// weigh 3, even positions weigh 1; the check digit brings the weighted sum
// up to a multiple of 10.
func checkDigit(body string) int {
	var odd, even int
	for i := 0; i < len(body); i++ {
		d := int(body[i] - '0')
		if (len(body)-i)%2 == 1 {
			odd += d
		} else {
			even += d
		}
	}
	return (10 - (3*odd+even)%10) % 10
}
