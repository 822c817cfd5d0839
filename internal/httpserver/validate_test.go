package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// registerPayload mirrors the tag set of the cluster RegisterRequest, which
// is the main validated body in the API.
type registerPayload struct {
	Name         string `json:"name" validate:"required,min=1"`
	APIServerURL string `json:"api_server_url" validate:"required,url"`
	BearerToken  string `json:"bearer_token" validate:"required"`
	CACertData   string `json:"ca_cert_data"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid JSON",
			body:    `{"name":"staging","api_server_url":"https://10.0.0.1:6443","bearer_token":"tok"}`,
			wantErr: false,
		},
		{
			name:    "CA bundle payload",
			body:    `{"name":"prod","api_server_url":"https://k8s.example.com:6443","bearer_token":"tok","ca_cert_data":"LS0tLS1CRUdJTiBDRVJUSUZJQ0FURS0tLS0t"}`,
			wantErr: false,
		},
		{
			name:    "empty body",
			body:    "",
			wantErr: true,
			errMsg:  "request body is empty",
		},
		{
			name:    "invalid JSON",
			body:    `{invalid}`,
			wantErr: true,
			errMsg:  "invalid JSON",
		},
		{
			name:    "unknown field",
			body:    `{"name":"staging","kubeconfig":"..."}`,
			wantErr: true,
			errMsg:  "invalid JSON",
		},
		{
			name:    "trailing data",
			body:    `{"name":"staging"}{"extra":true}`,
			wantErr: true,
			errMsg:  "request body must contain a single JSON object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p registerPayload
			err := Decode(r, &p)
			if (err != nil) != tt.wantErr {
				t.Errorf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != nil && tt.errMsg != "" {
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %q, want to contain %q", err.Error(), tt.errMsg)
				}
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := registerPayload{
		Name:         "staging",
		APIServerURL: "https://10.0.0.1:6443",
		BearerToken:  "sa-token",
	}

	tests := []struct {
		name      string
		mutate    func(p *registerPayload)
		wantCount int
	}{
		{
			name:      "valid payload",
			mutate:    func(p *registerPayload) {},
			wantCount: 0,
		},
		{
			name: "everything missing",
			mutate: func(p *registerPayload) {
				*p = registerPayload{}
			},
			wantCount: 3, // name, api_server_url, bearer_token
		},
		{
			name: "api server url is not a url",
			mutate: func(p *registerPayload) {
				p.APIServerURL = "not a url"
			},
			wantCount: 1,
		},
		{
			name: "missing bearer token",
			mutate: func(p *registerPayload) {
				p.BearerToken = ""
			},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			errs := Validate(p)
			if len(errs) != tt.wantCount {
				t.Errorf("Validate() returned %d errors, want %d: %+v", len(errs), tt.wantCount, errs)
			}
		})
	}
}

func TestValidate_FieldNamesAreSnakeCase(t *testing.T) {
	errs := Validate(registerPayload{Name: "x", BearerToken: "t"})
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %+v", len(errs), errs)
	}
	field := errs[0].Field
	if strings.Contains(field, ".") || strings.ContainsAny(field, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		t.Errorf("field = %q, want a lowercased name without the struct prefix", field)
	}
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
	}{
		{
			name:   "valid request",
			body:   `{"name":"staging","api_server_url":"https://10.0.0.1:6443","bearer_token":"tok"}`,
			wantOK: true,
		},
		{
			name:       "invalid JSON",
			body:       `{bad}`,
			wantOK:     false,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing credentials",
			body:       `{"name":"staging"}`,
			wantOK:     false,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var p registerPayload
			ok := DecodeAndValidate(w, r, &p)
			if ok != tt.wantOK {
				t.Errorf("DecodeAndValidate() = %v, want %v", ok, tt.wantOK)
			}
			if !ok && w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Name", "name"},
		{"BearerToken", "bearer_token"},
		{"CACertData", "c_a_cert_data"},
		{"lowercase", "lowercase"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := toSnakeCase(tt.in)
			if got != tt.want {
				t.Errorf("toSnakeCase(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
