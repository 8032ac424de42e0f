package metrics

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLookupTotal(t *testing.T) {
	before := testutil.ToFloat64(LookupTotal.WithLabelValues("test-driver", ResultSuccess))
	LookupTotal.WithLabelValues("test-driver", ResultSuccess).Inc()
	after := testutil.ToFloat64(LookupTotal.WithLabelValues("test-driver", ResultSuccess))

	if after-before != 1 {
		t.Errorf("LookupTotal delta = %v, want 1", after-before)
	}
}

func TestOutcome(t *testing.T) {
	errKnown := errors.New("known")
	recoverable := func(err error) bool { return errors.Is(err, errKnown) }

	tests := []struct {
		name        string
		err         error
		recoverable func(error) bool
		want        string
	}{
		{"success", nil, recoverable, ResultSuccess},
		{"recoverable", errKnown, recoverable, ResultFailure},
		{"wrapped recoverable", fmt.Errorf("dial: %w", errKnown), recoverable, ResultFailure},
		{"fatal", errors.New("boom"), recoverable, ResultError},
		{"no classifier", errKnown, nil, ResultError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Outcome(tt.err, tt.recoverable); got != tt.want {
				t.Errorf("Outcome(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	StartTLSTotal.WithLabelValues("smtp", ResultSuccess).Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "certshow_starttls_total") {
		t.Error("response does not contain certshow_starttls_total")
	}
}
