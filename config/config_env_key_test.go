package config

import "testing"

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"paystack": map[string]any{
			"secretKey":   "",
			"emailDomain": "",
		},
		"twilio": map[string]any{
			"accountSid": "",
			"fromNumber": "",
		},
		"commerce": map[string]any{
			"deliveryFeeKobo": 0,
			"plans": map[string]any{
				"lifetime": 0,
			},
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "PAYSTACK_SECRETKEY", want: "paystack.secretKey"},
		{envKey: "PAYSTACK_EMAILDOMAIN", want: "paystack.emailDomain"},
		{envKey: "TWILIO_ACCOUNTSID", want: "twilio.accountSid"},
		{envKey: "COMMERCE_DELIVERYFEEKOBO", want: "commerce.deliveryFeeKobo"},
		{envKey: "COMMERCE_PLANS_LIFETIME", want: "commerce.plans.lifetime"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}
