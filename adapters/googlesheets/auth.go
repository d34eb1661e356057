package googlesheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/tablekit/go-datagrid/adapters/snapshot"
	"github.com/tablekit/go-datagrid/celltype"
)

// NewWithJSONKeyFile creates an adapter authenticated by a service-account
// JSON key file. An empty path falls back to the
// GOOGLE_APPLICATION_CREDENTIALS environment variable.
func NewWithJSONKeyFile(ctx context.Context, config *Config, types *celltype.Registry, jsonPath string) (*snapshot.Adapter, error) {
	if jsonPath == "" {
		jsonPath = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
		if jsonPath == "" {
			return nil, fmt.Errorf("no JSON key file path provided and GOOGLE_APPLICATION_CREDENTIALS not set")
		}
	}
	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read JSON key file: %w", err)
	}
	return NewWithJSONKeyData(ctx, config, types, jsonData)
}

// NewWithJSONKeyData creates an adapter authenticated by service-account
// JSON key data.
func NewWithJSONKeyData(ctx context.Context, config *Config, types *celltype.Registry, jsonData []byte) (*snapshot.Adapter, error) {
	creds, err := google.CredentialsFromJSON(ctx, jsonData, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return New(ctx, config, types, option.WithCredentials(creds))
}

// NewWithDefaultCredentials creates an adapter using Application Default
// Credentials: the GOOGLE_APPLICATION_CREDENTIALS variable, gcloud
// application-default credentials, or the GCE metadata service.
func NewWithDefaultCredentials(ctx context.Context, config *Config, types *celltype.Registry) (*snapshot.Adapter, error) {
	tokenSource, err := google.DefaultTokenSource(ctx, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("get default token source: %w", err)
	}
	return New(ctx, config, types, option.WithTokenSource(tokenSource))
}
