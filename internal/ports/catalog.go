package ports

import (
	"context"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// CatalogClient queries a remote music catalog.
type CatalogClient interface {
	// Search returns at most limit tracks matching query.
	Search(ctx context.Context, query string, limit int) ([]domain.RemoteTrack, error)
}
