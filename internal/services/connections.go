package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"channel-bridge-service/internal/auth"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/platform"
	"channel-bridge-service/internal/repository"
)

// ConnectionService manages platform records and the shop and channel
// connections built on them.
type ConnectionService struct {
	platformRepo repository.PlatformRepositoryInterface
	registry     *platform.Registry
	credentials  *CredentialService
	dispatcher   *platform.Dispatcher
}

// NewConnectionService creates a connection service
func NewConnectionService(
	platformRepo repository.PlatformRepositoryInterface,
	registry *platform.Registry,
	credentials *CredentialService,
	dispatcher *platform.Dispatcher,
) *ConnectionService {
	return &ConnectionService{
		platformRepo: platformRepo,
		registry:     registry,
		credentials:  credentials,
		dispatcher:   dispatcher,
	}
}

// CreatePlatform validates and persists a platform record. Operation strings
// naming unknown local adapter slugs are rejected here, at save time, rather
// than failing later at dispatch time.
func (s *ConnectionService) CreatePlatform(ctx context.Context, session auth.Session, p *models.Platform) error {
	if err := s.registry.ValidateOperations(p.Operations()); err != nil {
		return err
	}
	p.UserID = session.UserID
	return s.platformRepo.CreatePlatform(ctx, p)
}

// UpdatePlatform validates and saves changes to a platform record
func (s *ConnectionService) UpdatePlatform(ctx context.Context, session auth.Session, p *models.Platform) error {
	if err := s.registry.ValidateOperations(p.Operations()); err != nil {
		return err
	}
	if _, err := s.platformRepo.GetPlatformByID(ctx, session, p.ID); err != nil {
		return err
	}
	return s.platformRepo.UpdatePlatform(ctx, p)
}

// CreateShop persists a shop, storing its access token through the credential
// service.
func (s *ConnectionService) CreateShop(ctx context.Context, session auth.Session, shop *models.Shop, accessToken string) error {
	shop.UserID = session.UserID
	if err := s.platformRepo.CreateShop(ctx, shop); err != nil {
		return err
	}
	if accessToken != "" {
		if err := s.credentials.StoreShopToken(ctx, shop, accessToken); err != nil {
			return fmt.Errorf("failed to store shop token: %w", err)
		}
		return s.platformRepo.UpdateShop(ctx, shop)
	}
	return nil
}

// CreateChannel persists a channel, storing its access token through the
// credential service.
func (s *ConnectionService) CreateChannel(ctx context.Context, session auth.Session, channel *models.Channel, accessToken string) error {
	channel.UserID = session.UserID
	if err := s.platformRepo.CreateChannel(ctx, channel); err != nil {
		return err
	}
	if accessToken != "" {
		if err := s.credentials.StoreChannelToken(ctx, channel, accessToken); err != nil {
			return fmt.Errorf("failed to store channel token: %w", err)
		}
		return s.platformRepo.UpdateChannel(ctx, channel)
	}
	return nil
}

// CreateLink creates a shop-to-channel link. Both endpoints must be visible
// to the session. Creating a link invalidates the shop's cached credentials
// so the next dispatch resolves them fresh.
func (s *ConnectionService) CreateLink(ctx context.Context, session auth.Session, link *models.Link) error {
	shop, err := s.platformRepo.GetShopByID(ctx, session, link.ShopID)
	if err != nil {
		return fmt.Errorf("shop not found: %w", err)
	}
	if _, err := s.platformRepo.GetChannelByID(ctx, session, link.ChannelID); err != nil {
		return fmt.Errorf("channel not found: %w", err)
	}

	link.UserID = session.UserID
	if err := s.platformRepo.CreateLink(ctx, link); err != nil {
		return err
	}

	s.credentials.InvalidateShopCredentials(shop)
	return nil
}

// StartShopOAuth builds the platform authorization URL for a shop through
// its oAuthFunction operation.
func (s *ConnectionService) StartShopOAuth(ctx context.Context, session auth.Session, shopID uuid.UUID, args map[string]interface{}) (string, error) {
	shop, err := s.platformRepo.GetShopByID(ctx, session, shopID)
	if err != nil {
		return "", err
	}

	// Token may not exist yet during install; the config only needs domain
	// and operations for this call.
	cfg := platform.NewConfig(shop.Platform, shop.Type, shop.Domain, "")
	result, err := s.dispatcher.Invoke(ctx, cfg, platform.OpOAuth, args)
	if err != nil {
		return "", err
	}
	url, _ := result["url"].(string)
	if url == "" {
		return "", fmt.Errorf("oauth operation returned no url")
	}
	return url, nil
}

// CompleteShopOAuth exchanges the callback code for an access token through
// the shop's oAuthCallbackFunction operation and stores the token.
func (s *ConnectionService) CompleteShopOAuth(ctx context.Context, session auth.Session, shopID uuid.UUID, args map[string]interface{}) error {
	shop, err := s.platformRepo.GetShopByID(ctx, session, shopID)
	if err != nil {
		return err
	}

	cfg := platform.NewConfig(shop.Platform, shop.Type, shop.Domain, "")
	result, err := s.dispatcher.Invoke(ctx, cfg, platform.OpOAuthCallback, args)
	if err != nil {
		return err
	}

	token, _ := result["accessToken"].(string)
	if token == "" {
		return fmt.Errorf("oauth callback returned no access token")
	}
	if err := s.credentials.StoreShopToken(ctx, shop, token); err != nil {
		return err
	}
	return s.platformRepo.UpdateShop(ctx, shop)
}

// DeleteShop removes a shop and its stored credentials
func (s *ConnectionService) DeleteShop(ctx context.Context, session auth.Session, id uuid.UUID) error {
	shop, err := s.platformRepo.GetShopByID(ctx, session, id)
	if err != nil {
		return err
	}
	if err := s.credentials.DeleteShopCredentials(ctx, shop); err != nil {
		return fmt.Errorf("failed to delete shop credentials: %w", err)
	}
	return s.platformRepo.DeleteShop(ctx, session, id)
}
