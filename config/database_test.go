package config

import (
	"strings"
	"testing"
	"time"
)

func TestDatabaseDSNSetsIsolationOnEveryConnection(t *testing.T) {
	cases := []struct {
		name, host, port string
		wantAddr         string
	}{
		{"tcp", "10.0.0.5", "3306", "@tcp(10.0.0.5:3306)/kitchen?"},
		{"cloud sql socket", "/cloudsql/p:r:i", "", "@unix(/cloudsql/p:r:i)/kitchen?"},
	}
	for _, tc := range cases {
		dsn := databaseDSN("app", "secret", tc.host, tc.port, "kitchen")
		if !strings.HasPrefix(dsn, "app:secret") || !strings.Contains(dsn, tc.wantAddr) {
			t.Fatalf("%s: unexpected dsn %q", tc.name, dsn)
		}
		if !strings.Contains(dsn, "transaction_isolation=%27READ-COMMITTED%27") {
			t.Fatalf("%s: dsn %q does not set READ COMMITTED", tc.name, dsn)
		}
		if !strings.Contains(dsn, "parseTime=true") || !strings.Contains(dsn, "loc=UTC") {
			t.Fatalf("%s: dsn %q lost its time params", tc.name, dsn)
		}
	}
}

func TestRetryBackoff(t *testing.T) {
	if got := RetryBackoff(1); got != 2*time.Second {
		t.Fatalf("attempt 1: got %s", got)
	}
	if got := RetryBackoff(40); got != 30*time.Second {
		t.Fatalf("attempt 40: got %s", got)
	}
}

func TestDefaultPriceMultiplierIgnoresNonPositive(t *testing.T) {
	t.Setenv("PRICE_MULTIPLIER", "0")
	if got := DefaultPriceMultiplier(); got.String() != DefaultMultiplier {
		t.Fatalf("zero multiplier: got %s, want %s", got, DefaultMultiplier)
	}
	t.Setenv("PRICE_MULTIPLIER", "2.5")
	if got := DefaultPriceMultiplier(); got.String() != "2.5" {
		t.Fatalf("got %s, want 2.5", got)
	}
}
