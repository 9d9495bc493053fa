package reporter

import (
	"context"
	"fmt"

	"github.com/kpaschen/fcmerge/lib/merge"
	"go.uber.org/zap"
)

// Publish stores the result table of a merge run and, for fingerprint runs
// with associationFile set, dumps the association matrix next to it.
func Publish(ctx context.Context, store TableStore, out *merge.Output, associationFile string, logger *zap.Logger) error {
	if out.Table == nil {
		return fmt.Errorf("merge run %s produced no table", out.RunID)
	}
	if err := store.Store(ctx, out.Table); err != nil {
		return fmt.Errorf("storing table %s: %w", out.Table.Name, err)
	}
	if associationFile != "" && out.AssociationMatrix != nil {
		if err := WriteAssociationMatrix(associationFile, out.MatrixIDs, out.AssociationMatrix); err != nil {
			return fmt.Errorf("writing association matrix: %w", err)
		}
		logger.Info("wrote association matrix", zap.String("path", associationFile),
			zap.Int("clusters", len(out.MatrixIDs)))
	}
	return nil
}
