package sales

import (
	"regexp"
	"testing"
	"time"
)

var saleIDPattern = regexp.MustCompile(`^WSALE-\d+-\d{4}$`)

func TestFormatSaleID(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	if got := formatSaleID(at, 7); got != "WSALE-1700000000000-0007" {
		t.Fatalf("unexpected sale id %q", got)
	}
	if got := formatSaleID(at, 9999); got != "WSALE-1700000000000-9999" {
		t.Fatalf("unexpected sale id %q", got)
	}
}

func TestNewSaleIDShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := newSaleID()
		if !saleIDPattern.MatchString(id) {
			t.Fatalf("sale id %q does not match the expected shape", id)
		}
	}
}
