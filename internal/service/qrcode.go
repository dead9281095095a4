package service

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const (
	qrPrefix     = "QR"
	qrSuffixLen  = 9
	base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// CodeFunc produces a candidate ticket code.  Uniqueness is enforced by
// the store; callers retry on collision.
type CodeFunc func() (string, error)

// NewQRCode returns "QR" followed by the current time in nanoseconds and a
// random suffix, both in base 36, uppercased.
func NewQRCode() (string, error) {
	return newQRCodeAt(time.Now())
}

func newQRCodeAt(now time.Time) (string, error) {
	buf := make([]byte, qrSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(qrPrefix) + 13 + qrSuffixLen)
	b.WriteString(qrPrefix)
	b.WriteString(strconv.FormatInt(now.UnixNano(), 36))
	for _, c := range buf {
		b.WriteByte(base36Digits[int(c)%len(base36Digits)])
	}
	return strings.ToUpper(b.String()), nil
}
