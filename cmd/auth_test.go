package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/calagent/internal/google"
)

func TestRunAuth(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"access","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	conf := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example.com/auth",
			TokenURL: tokenServer.URL,
		},
	}

	tests := []struct {
		name    string
		account string
		code    string
		stdin   string
		wantErr bool
		wantOut []string
	}{
		{
			name:    "code from stdin",
			account: "work",
			stdin:   "good-code\n",
			wantOut: []string{"https://accounts.example.com/auth?", "state=work", `Token saved for account "work"`},
		},
		{
			name:    "code from flag",
			account: "default",
			code:    "good-code",
			wantOut: []string{`Token saved for account "default"`},
		},
		{
			name:    "empty stdin",
			account: "default",
			stdin:   "",
			wantErr: true,
		},
		{
			name:    "rejected code",
			account: "default",
			code:    "bad-code",
			wantErr: true,
		},
		{
			name:    "invalid account",
			account: "a/b",
			code:    "good-code",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &google.FileTokenProvider{Dir: t.TempDir()}
			var out bytes.Buffer

			err := runAuth(context.Background(), strings.NewReader(tt.stdin), &out, conf, store, tt.account, tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, store.HasTokenForAccount(tt.account))
				return
			}

			require.NoError(t, err)
			assert.True(t, store.HasTokenForAccount(tt.account))
			for _, want := range tt.wantOut {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}
