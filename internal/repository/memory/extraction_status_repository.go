package memory

import (
	"time"

	"ai-knowledge-hub/internal/entity"

	"github.com/patrickmn/go-cache"
)

type ExtractionStatusRepository struct {
	cache *cache.Cache
}

func NewExtractionStatusRepository() *ExtractionStatusRepository {
	// Statuses are only interesting while extraction is in flight or
	// recently finished; expired entries are purged every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ExtractionStatusRepository{
		cache: c,
	}
}

func (r *ExtractionStatusRepository) Save(status *entity.ExtractionStatus) {
	r.cache.Set(status.DocumentId.String(), status, cache.DefaultExpiration)
}

func (r *ExtractionStatusRepository) Get(documentId string) (*entity.ExtractionStatus, bool) {
	if x, found := r.cache.Get(documentId); found {
		return x.(*entity.ExtractionStatus), true
	}
	return nil, false
}

func (r *ExtractionStatusRepository) Delete(documentId string) {
	r.cache.Delete(documentId)
}
