package workflow

import "testing"

func TestValidateSigner(t *testing.T) {
	if err := ValidateSigner("Jean", "Dupont", "jean@x.com"); err != nil {
		t.Errorf("valid signer rejected: %v", err)
	}

	cases := []struct {
		name               string
		first, last, email string
	}{
		{"blank first name", "", "Dupont", "jean@x.com"},
		{"whitespace first name", "   ", "Dupont", "jean@x.com"},
		{"blank last name", "Jean", "", "jean@x.com"},
		{"missing at", "Jean", "Dupont", "jean.x.com"},
		{"missing tld", "Jean", "Dupont", "jean@x"},
		{"space in address", "Jean", "Dupont", "jean @x.com"},
	}
	for _, tc := range cases {
		if err := ValidateSigner(tc.first, tc.last, tc.email); err == nil {
			t.Errorf("%s: expected a validation error", tc.name)
		}
	}
}
