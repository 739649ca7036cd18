package domain

import "testing"

func TestReportStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to ReportStatus
		want     bool
	}{
		{ReportStatusPending, ReportStatusGenerating, true},
		{ReportStatusPending, ReportStatusExpired, true},
		{ReportStatusPending, ReportStatusCompleted, false},
		{ReportStatusPending, ReportStatusFailed, false},

		{ReportStatusGenerating, ReportStatusCompleted, true},
		{ReportStatusGenerating, ReportStatusFailed, true},
		{ReportStatusGenerating, ReportStatusExpired, true},
		{ReportStatusGenerating, ReportStatusPending, false},

		{ReportStatusCompleted, ReportStatusExpired, true},
		{ReportStatusCompleted, ReportStatusGenerating, false},
		{ReportStatusCompleted, ReportStatusPending, false},

		// failed may be retried
		{ReportStatusFailed, ReportStatusGenerating, true},
		{ReportStatusFailed, ReportStatusExpired, true},
		{ReportStatusFailed, ReportStatusCompleted, false},

		// expired is terminal in the forward direction
		{ReportStatusExpired, ReportStatusPending, false},
		{ReportStatusExpired, ReportStatusGenerating, false},
		{ReportStatusExpired, ReportStatusCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestPaymentStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentStatusPending, PaymentStatusSucceeded, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusRefunded, false},

		{PaymentStatusSucceeded, PaymentStatusRefunded, true},
		{PaymentStatusSucceeded, PaymentStatusFailed, false},
		{PaymentStatusSucceeded, PaymentStatusPending, false},

		{PaymentStatusFailed, PaymentStatusSucceeded, false},
		{PaymentStatusRefunded, PaymentStatusSucceeded, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
