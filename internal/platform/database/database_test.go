package database

import "testing"

func TestDSN(t *testing.T) {
	cases := []struct {
		url      string
		expected string
	}{
		{"pulse.db", "pulse.db?cache=shared&mode=rwc&_busy_timeout=5000"},
		{"file:pulse.db", "pulse.db?cache=shared&mode=rwc&_busy_timeout=5000"},
		{"file:/var/lib/pulse/pulse.db", "/var/lib/pulse/pulse.db?cache=shared&mode=rwc&_busy_timeout=5000"},
		// Explicit options win; nothing is appended on top of them.
		{"file:pulse.db?mode=ro", "pulse.db?mode=ro"},
		{"pulse.db?_busy_timeout=100&cache=private", "pulse.db?_busy_timeout=100&cache=private"},
	}

	for _, tc := range cases {
		if got := dsn(tc.url); got != tc.expected {
			t.Errorf("dsn(%q) = %q, expected %q", tc.url, got, tc.expected)
		}
	}
}
