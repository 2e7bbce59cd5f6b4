// Package access decides whether a principal may obtain tokens for an MCP.
package access

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/d4l-data4life/go-svc/pkg/logging"

	"github.com/lazaroMB/mcp-to-api/pkg/models"
)

// CanAccess reports whether userID may access the given resource.
// Public resources are open to everyone, owners always pass, and everyone
// else needs a non-revoked, non-expired grant scoped to exactly this
// (resource, principal) pair.
func CanAccess(db *gorm.DB, mcp *models.MCP, userID uuid.UUID) (bool, error) {
	if mcp.IsPublic() {
		return true, nil
	}
	if userID == uuid.Nil {
		return false, nil
	}
	if mcp.OwnerID == userID {
		return true, nil
	}

	var grant models.AccessGrant
	err := db.
		Where("mcp_id = ? AND user_id = ? AND revoked_at IS NULL", mcp.ID, userID).
		Where("expires_at IS NULL OR expires_at > CURRENT_TIMESTAMP").
		Order("granted_at DESC").
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		logging.LogErrorf(err, "Failed to look up access grant for mcp %s", mcp.ID)
		return false, errors.Wrap(err, "grant lookup failed")
	}
	return true, nil
}
