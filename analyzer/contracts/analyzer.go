package contracts

import (
	"context"

	"github.com/TingjiaInFuture/pixrep/analyzer/models"
)

// IAnalysisEngine enriches scanned file records with semantic maps and
// lint issues. EnrichRepo never fails: worst case is degraded or empty
// annotations on individual files.
type IAnalysisEngine interface {
	EnrichRepo(ctx context.Context)
	ClearCache() error
	CacheStats() models.CacheStats
}
