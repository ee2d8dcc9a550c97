// Handler wiring.
//
// Handlers are transport-thin: they validate input, call application
// services through narrow interfaces, and translate results into HTTP
// responses. The interfaces are defined here, on the consumer side, so the
// HTTP layer can be exercised against small fakes in tests.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/services"
)

// ChatService defines the chat operations consumed by HTTP handlers.
// Implementations must be safe for concurrent use and honor the context.
type ChatService interface {
	// Send delivers a message, creating or refreshing the pair's chat first.
	Send(ctx context.Context, in services.SendInput) (string, error)
	// ListChats returns the viewer's chats, most recently active first.
	ListChats(ctx context.Context, viewerEmail string) ([]domain.Chat, error)
	// Messages returns a chat's messages in send order.
	Messages(ctx context.Context, chatID string) ([]domain.Message, error)
}

// AnimalService defines the catalog operations consumed by HTTP handlers.
type AnimalService interface {
	List(ctx context.Context, species string) ([]domain.Animal, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]domain.Animal, error)
	Get(ctx context.Context, id string) (*domain.Animal, error)
	Create(ctx context.Context, a domain.Animal) (string, error)
	Delete(ctx context.Context, id, ownerEmail string) error
	AddFavorite(ctx context.Context, userID string, a domain.Animal) error
}

// UserService defines the profile operations consumed by HTTP handlers.
type UserService interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByNickname(ctx context.Context, nickname string) (*domain.User, error)
	Register(ctx context.Context, id, email, nickname string) (*domain.User, error)
	UpdateNickname(ctx context.Context, id, nickname string) error
	UpdateBio(ctx context.Context, id, bio string) error
	UpdateProfileImageURL(ctx context.Context, id, url string) error
}

// FavoritesChecker validates and serves one user's favorites list.
type FavoritesChecker interface {
	Fetch(ctx context.Context) error
	Partition() (valid, orphaned []domain.Animal)
	Remove(ctx context.Context, animalID string) error
}

// SpeciesCatalog fetches the external species reference list.
type SpeciesCatalog interface {
	Fetch(ctx context.Context) ([]domain.Species, error)
}

// Uploader stores an image blob and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, path, contentType string) (string, error)
}

// Handlers groups the HTTP endpoints for users, animals, favorites, chats,
// and the species catalog.
type Handlers struct {
	chatSvc   ChatService
	animalSvc AnimalService
	userSvc   UserService
	catalog   SpeciesCatalog
	uploader  Uploader

	// favoritesFor builds the per-user favorites checker; checkers hold
	// per-user state and are created per request.
	favoritesFor func(userID string) FavoritesChecker

	// feedFor builds the per-connection live chat feed for the websocket
	// endpoint.
	feedFor func(viewerEmail string) *services.ChatFeed
}

// New constructs a Handlers instance bound to the given services.
func New(
	chatSvc ChatService,
	animalSvc AnimalService,
	userSvc UserService,
	catalog SpeciesCatalog,
	uploader Uploader,
	favoritesFor func(userID string) FavoritesChecker,
	feedFor func(viewerEmail string) *services.ChatFeed,
) *Handlers {
	return &Handlers{
		chatSvc:      chatSvc,
		animalSvc:    animalSvc,
		userSvc:      userSvc,
		catalog:      catalog,
		uploader:     uploader,
		favoritesFor: favoritesFor,
		feedFor:      feedFor,
	}
}

// userID extracts the authenticated backend uid from the Gin context, set by
// the auth middleware.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// userEmail extracts the authenticated account email from the Gin context.
func userEmail(c *gin.Context) string {
	if v, ok := c.Get("userEmail"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
