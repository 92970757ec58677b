package payfast

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPConfirmer_Confirm(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		delay       time.Duration
		expectedErr bool
	}{
		{name: "valid", status: http.StatusOK, body: "VALID"},
		{name: "valid with trailing line break", status: http.StatusOK, body: "VALID\r\n"},
		{name: "invalid", status: http.StatusOK, body: "INVALID", expectedErr: true},
		{name: "leading line break", status: http.StatusOK, body: "\r\nVALID", expectedErr: true},
		{name: "lowercase", status: http.StatusOK, body: "valid", expectedErr: true},
		{name: "server error", status: http.StatusInternalServerError, body: "VALID", expectedErr: true},
		{name: "timeout", status: http.StatusOK, body: "VALID", delay: 300 * time.Millisecond, expectedErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				mu                      sync.Mutex
				gotBody, gotContentType string
			)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				raw, _ := io.ReadAll(r.Body)
				mu.Lock()
				gotBody = string(raw)
				gotContentType = r.Header.Get("Content-Type")
				mu.Unlock()
				if tt.delay > 0 {
					select {
					case <-time.After(tt.delay):
					case <-r.Context().Done():
						return
					}
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			confirmer := NewHTTPConfirmer(srv.Client(), 100*time.Millisecond)
			payload := Decode([]byte("m_payment_id=abc&signature=deadbeef&item_name=Order+1&payment_status=COMPLETE"))

			err := confirmer.Confirm(context.Background(), srv.URL+"/eng/query/validate", payload)
			if tt.expectedErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tt.delay == 0 {
				mu.Lock()
				defer mu.Unlock()
				require.Equal(t, "m_payment_id=abc&item_name=Order+1&payment_status=COMPLETE", gotBody)
				require.Equal(t, "application/x-www-form-urlencoded", gotContentType)
			}
		})
	}
}

func TestHTTPConfirmer_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTPConfirmer(nil, time.Second).Confirm(context.Background(), url, NewPayload())
	require.Error(t, err)
}

func TestSettings_ValidateURL(t *testing.T) {
	require.Equal(t, "https://sandbox.payfast.co.za/eng/query/validate", Settings{UseSandbox: true}.ValidateURL())
	require.Equal(t, "https://www.payfast.co.za/eng/query/validate", Settings{}.ValidateURL())
}
