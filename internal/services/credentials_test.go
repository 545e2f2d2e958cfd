package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"channel-bridge-service/internal/models"
)

func TestCredentialServiceWithoutBackend(t *testing.T) {
	service := NewCredentialService(nil, nil)

	shop := &models.Shop{ID: uuid.New(), Type: models.PlatformShopify, Domain: "example.myshopify.com"}
	err := service.StoreShopToken(context.Background(), shop, "shop-token")
	require.ErrorIs(t, err, errNoCredentialBackend)
	assert.Empty(t, shop.TokenCiphertext)

	channel := &models.Channel{ID: uuid.New(), Type: models.PlatformShopify, Domain: "supplier.myshopify.com"}
	err = service.StoreChannelToken(context.Background(), channel, "channel-token")
	require.ErrorIs(t, err, errNoCredentialBackend)
	assert.Empty(t, channel.TokenCiphertext)

	// A row carrying ciphertext from an earlier deployment cannot be read
	// either; the error names the missing configuration.
	shop.TokenCiphertext = []byte("opaque")
	_, err = service.ShopToken(context.Background(), shop)
	require.ErrorIs(t, err, errNoCredentialBackend)
	assert.Contains(t, err.Error(), "GCP_PROJECT_ID")
}

func TestCredentialServiceEncryptorFallbackRoundTrip(t *testing.T) {
	service := NewCredentialService(nil, newTestEncryptor(t))

	shop := &models.Shop{ID: uuid.New(), Type: models.PlatformShopify, Domain: "example.myshopify.com"}
	require.NoError(t, service.StoreShopToken(context.Background(), shop, "shop-token"))
	require.NotEmpty(t, shop.TokenCiphertext)

	token, err := service.ShopToken(context.Background(), shop)
	require.NoError(t, err)
	assert.Equal(t, "shop-token", token)
}
