package implementation

import (
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/contract"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/repository/specification"

	"gorm.io/gorm"
)

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

var errStaleRow = contract.ErrStaleRow

// guarded turns an update that matched no rows into contract.ErrStaleRow.
func guarded(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errStaleRow
	}
	return nil
}
