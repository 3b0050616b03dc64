package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/internal/models"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
)

type directoryRepository interface {
	SearchRecipients(ctx context.Context, filter models.RecipientFilter) ([]models.User, error)
}

// DirectoryService looks up forwarding recipients. It exists so the forward
// form can offer a recipient picker scoped to the chosen target sector.
type DirectoryService struct {
	repo   directoryRepository
	logger *zap.Logger
}

// NewDirectoryService constructs the service.
func NewDirectoryService(repo directoryRepository, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{repo: repo, logger: logger}
}

// SearchRecipients returns active users matching the filter. A sector filter
// is canonicalized before it reaches storage; an unknown sector yields an
// empty list, not an error.
func (s *DirectoryService) SearchRecipients(ctx context.Context, filter models.RecipientFilter) ([]dto.UserInfo, error) {
	if filter.Sector != "" {
		filter.Sector = models.NormalizeSector(filter.Sector)
	}

	users, err := s.repo.SearchRecipients(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "recipient search failed")
	}

	results := make([]dto.UserInfo, 0, len(users))
	for _, user := range users {
		info := dto.UserInfo{
			ID:       user.ID,
			Login:    user.Login,
			FullName: user.FullName,
			Role:     string(user.Role),
		}
		if user.Sector != nil {
			info.Sector = models.NormalizeSector(*user.Sector)
		}
		results = append(results, info)
	}
	return results, nil
}
