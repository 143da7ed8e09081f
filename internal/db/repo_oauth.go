package db

import (
	"fmt"

	"gorm.io/gorm"
)

// GetOAuthAppCredentials returns the OAuth app config for a provider.
// Decrypts encrypted_client_secret into the in-memory ClientSecret field.
// Used by TokenBroker for token refresh.
func GetOAuthAppCredentials(db *gorm.DB, provider string) (*OAuthApp, error) {
	var app OAuthApp
	if err := db.Where("provider = ? AND enabled = true", provider).First(&app).Error; err != nil {
		return nil, fmt.Errorf("oauth app not found for provider %s: %w", provider, err)
	}
	if app.EncryptedClientSecret == nil || *app.EncryptedClientSecret == "" {
		return nil, fmt.Errorf("no encrypted client_secret for provider %s", provider)
	}
	plain, err := decrypt(*app.EncryptedClientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt client_secret for provider %s: %w", provider, err)
	}
	app.ClientSecret = string(plain)
	return &app, nil
}
