package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/salinaworks/salina-go/config"
	"github.com/salinaworks/salina-go/internal/adapters/authroles"
	"github.com/salinaworks/salina-go/internal/adapters/oidc"
	"github.com/salinaworks/salina-go/internal/ports"
)

// BuildRoleMapper creates the group-to-role mapper from configuration.
func BuildRoleMapper(cfg config.RoleGroupsConfig) authroles.StaticRoleMapper {
	return authroles.StaticRoleMapper{
		SuperAdminGroup:  cfg.SuperAdmin,
		AdminGroup:       cfg.Admin,
		SaltSocietyGroup: cfg.SaltSociety,
		SellerGroup:      cfg.Seller,
		LandownerGroup:   cfg.Landowner,
	}
}

// BuildAuthProvider creates the SSO provider for AuthModeOAuth. It fails
// rather than silently disabling SSO when the mode is selected but the
// provider is misconfigured.
//
//nolint:ireturn // the provider is chosen by configuration
func BuildAuthProvider(cfg config.AuthConfig, logger *slog.Logger) (ports.AuthProvider, error) {
	if cfg.Mode != config.AuthModeOAuth {
		return nil, fmt.Errorf("auth mode %q does not use an SSO provider", cfg.Mode)
	}

	oauth := cfg.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		return nil, fmt.Errorf("oauth mode selected but provider config incomplete"+
			" (discovery_url_empty=%t client_id_empty=%t client_secret_empty=%t)",
			oauth.DiscoveryURL == "", oauth.ClientID == "", oauth.ClientSecret == "")
	}

	provider, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
	})
	if err != nil {
		return nil, fmt.Errorf("build oidc provider: %w", err)
	}

	logger.Info("sso provider configured", "client_id", oauth.ClientID)
	return provider, nil
}
