package models

import "testing"

func TestCanAdvanceBounds(t *testing.T) {
	cases := []struct {
		name string
		iv   Interview
		want bool
	}{
		{"first of six", Interview{IsActive: true, TotalQuestions: 6, CurrentQuestionIndex: 0}, true},
		{"penultimate", Interview{IsActive: true, TotalQuestions: 6, CurrentQuestionIndex: 4}, true},
		{"final question", Interview{IsActive: true, TotalQuestions: 6, CurrentQuestionIndex: 5}, false},
		{"inactive", Interview{IsActive: false, TotalQuestions: 6, CurrentQuestionIndex: 2}, false},
		{"single question", Interview{IsActive: true, TotalQuestions: 1, CurrentQuestionIndex: 0}, false},
	}
	for _, tc := range cases {
		if got := tc.iv.CanAdvance(); got != tc.want {
			t.Errorf("%s: CanAdvance() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanGoBackBounds(t *testing.T) {
	cases := []struct {
		name string
		iv   Interview
		want bool
	}{
		{"first question", Interview{IsActive: true, TotalQuestions: 6, CurrentQuestionIndex: 0}, false},
		{"mid session", Interview{IsActive: true, TotalQuestions: 6, CurrentQuestionIndex: 3}, true},
	}
	for _, tc := range cases {
		if got := tc.iv.CanGoBack(); got != tc.want {
			t.Errorf("%s: CanGoBack() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
