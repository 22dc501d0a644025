package access

import (
	"context"
	"errors"

	"github.com/vendorwatch/evidence-api/internal/auth"
	"github.com/vendorwatch/evidence-api/internal/evidence"
)

// RecordPolicy builds the default authorization predicate over the evidence
// repository and case directory. The caller may read a file when any of:
//   - they hold a moderator or admin role,
//   - they submitted the case the file belongs to,
//   - the case has been published as an approved complaint.
//
// Unknown keys and unknown cases answer false rather than erroring, so the
// issuer's denial stays indistinguishable from not-found.
func RecordPolicy(records evidence.Repository, cases evidence.CaseDirectory) Policy {
	return func(ctx context.Context, identity auth.Identity, filePath string) (bool, error) {
		if identity.UserID == "" {
			return false, nil
		}
		if identity.CanModerate() {
			return true, nil
		}

		record, err := records.FindByPath(ctx, filePath)
		if errors.Is(err, evidence.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		c, err := cases.FindCase(ctx, record.CaseID)
		if errors.Is(err, evidence.ErrCaseNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		if c.SubmitterID == identity.UserID {
			return true, nil
		}
		return c.Published, nil
	}
}
