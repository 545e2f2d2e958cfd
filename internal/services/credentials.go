package services

import (
	"context"
	"errors"
	"fmt"

	"channel-bridge-service/internal/encryption"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/platform"
	"channel-bridge-service/internal/secrets"
)

// errNoCredentialBackend is returned when neither a secret store nor a token
// encryptor is configured.
var errNoCredentialBackend = errors.New("no credential backend configured: set GCP_PROJECT_ID or TOKEN_ENCRYPTION_KEY")

// SecretStore is the credential backend contract satisfied by
// secrets.GCPSecretManager.
type SecretStore interface {
	BuildSecretName(kind, connectionID string) string
	GetSecret(ctx context.Context, secretName string) (*secrets.ConnectionSecret, error)
	CreateOrUpdateSecret(ctx context.Context, secretName string, secret *secrets.ConnectionSecret) error
	DeleteSecret(ctx context.Context, secretName string) error
	InvalidateCache(secretName string)
}

// CredentialService resolves and stores platform access tokens. Secret
// Manager is preferred when configured; otherwise tokens are kept encrypted
// in the connection row itself.
type CredentialService struct {
	store     SecretStore
	encryptor *encryption.TokenEncryptor
}

// NewCredentialService creates a credential service. store may be nil when no
// secret manager is configured.
func NewCredentialService(store SecretStore, encryptor *encryption.TokenEncryptor) *CredentialService {
	return &CredentialService{store: store, encryptor: encryptor}
}

// ShopToken resolves the access token for a shop
func (s *CredentialService) ShopToken(ctx context.Context, shop *models.Shop) (string, error) {
	return s.resolve(ctx, shop.SecretReference, shop.TokenCiphertext)
}

// ChannelToken resolves the access token for a channel
func (s *CredentialService) ChannelToken(ctx context.Context, channel *models.Channel) (string, error) {
	return s.resolve(ctx, channel.SecretReference, channel.TokenCiphertext)
}

func (s *CredentialService) resolve(ctx context.Context, secretRef string, ciphertext []byte) (string, error) {
	if secretRef != "" && s.store != nil {
		secret, err := s.store.GetSecret(ctx, secretRef)
		if err != nil {
			return "", fmt.Errorf("failed to resolve credential: %w", err)
		}
		return secret.AccessToken, nil
	}
	if len(ciphertext) == 0 {
		return "", fmt.Errorf("no credential configured")
	}
	if s.encryptor == nil {
		return "", errNoCredentialBackend
	}
	return s.encryptor.Decrypt(string(ciphertext))
}

// StoreShopToken persists a shop's access token and updates the shop's
// credential fields in place. The caller saves the shop row.
func (s *CredentialService) StoreShopToken(ctx context.Context, shop *models.Shop, token string) error {
	if s.store != nil {
		secretName := s.store.BuildSecretName("shop", shop.ID.String())
		err := s.store.CreateOrUpdateSecret(ctx, secretName, &secrets.ConnectionSecret{
			PlatformType: string(shop.Type),
			Domain:       shop.Domain,
			AccessToken:  token,
		})
		if err != nil {
			return err
		}
		shop.SecretReference = secretName
		shop.TokenCiphertext = nil
		return nil
	}

	if s.encryptor == nil {
		return errNoCredentialBackend
	}
	ciphertext, err := s.encryptor.Encrypt(token)
	if err != nil {
		return err
	}
	shop.TokenCiphertext = []byte(ciphertext)
	return nil
}

// StoreChannelToken persists a channel's access token, mirroring StoreShopToken
func (s *CredentialService) StoreChannelToken(ctx context.Context, channel *models.Channel, token string) error {
	if s.store != nil {
		secretName := s.store.BuildSecretName("channel", channel.ID.String())
		err := s.store.CreateOrUpdateSecret(ctx, secretName, &secrets.ConnectionSecret{
			PlatformType: string(channel.Type),
			Domain:       channel.Domain,
			AccessToken:  token,
		})
		if err != nil {
			return err
		}
		channel.SecretReference = secretName
		channel.TokenCiphertext = nil
		return nil
	}

	if s.encryptor == nil {
		return errNoCredentialBackend
	}
	ciphertext, err := s.encryptor.Encrypt(token)
	if err != nil {
		return err
	}
	channel.TokenCiphertext = []byte(ciphertext)
	return nil
}

// InvalidateShopCredentials drops any cached credential for a shop. Link
// creation calls this so the next dispatch resolves fresh credentials.
func (s *CredentialService) InvalidateShopCredentials(shop *models.Shop) {
	if s.store != nil && shop.SecretReference != "" {
		s.store.InvalidateCache(shop.SecretReference)
	}
}

// DeleteShopCredentials removes a shop's stored secret, if any
func (s *CredentialService) DeleteShopCredentials(ctx context.Context, shop *models.Shop) error {
	if s.store != nil && shop.SecretReference != "" {
		return s.store.DeleteSecret(ctx, shop.SecretReference)
	}
	return nil
}

// ShopConfig builds the merged platform config for a shop
func (s *CredentialService) ShopConfig(ctx context.Context, shop *models.Shop) (*platform.Config, error) {
	token, err := s.ShopToken(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("shop %s: %w", shop.ID, err)
	}
	return platform.NewConfig(shop.Platform, shop.Type, shop.Domain, token), nil
}

// ChannelConfig builds the merged platform config for a channel
func (s *CredentialService) ChannelConfig(ctx context.Context, channel *models.Channel) (*platform.Config, error) {
	token, err := s.ChannelToken(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", channel.ID, err)
	}
	return platform.NewConfig(channel.Platform, channel.Type, channel.Domain, token), nil
}
