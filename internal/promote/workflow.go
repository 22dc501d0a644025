// Package promote migrates a case's evidence between buckets when a
// moderation decision is recorded: approval moves every file from the
// temporary to the permanent bucket; rejection leaves the files for the
// provider's lifecycle rule to expire.
package promote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vendorwatch/evidence-api/internal/evidence"
	"github.com/vendorwatch/evidence-api/internal/objectstore"
)

// Decision is a moderation outcome for a case.
type Decision string

const (
	// DecisionApprove publishes the case; its evidence moves to the
	// permanent bucket.
	DecisionApprove Decision = "approve"
	// DecisionReject leaves the evidence in the temp bucket to expire.
	DecisionReject Decision = "reject"
)

// lifecycleMessage tells the moderator what happens to rejected evidence.
// The temp bucket carries a 7-day lifecycle rule on the provider side.
const lifecycleMessage = "Evidence will be automatically deleted after 7 days"

// Static errors for the workflow.
var (
	// ErrInvalidDecision is returned for an unknown action value.
	ErrInvalidDecision = errors.New("promote: invalid decision")
	// ErrPromotionInProgress is returned when another promotion run for the
	// same case holds the in-progress flag.
	ErrPromotionInProgress = errors.New("promote: promotion already in progress for case")
)

// Result summarizes one promotion run.
type Result struct {
	// Promoted counts files whose copy, delete and record update all
	// succeeded in this run.
	Promoted int
	// Failed counts files that hit an error and remain temporary.
	Failed int
	// Message is the human-readable summary returned to the moderator.
	Message string
}

// Workflow performs the copy-then-delete migration. The ordering favors
// never losing a file: a failure between the two legs leaves the object
// present in both buckets until a later run or manual sweep.
type Workflow struct {
	store      objectstore.Store
	records    evidence.Repository
	guard      evidence.PromotionGuard
	tempBucket string
	permBucket string
	logger     *slog.Logger
}

// NewWorkflow creates a promotion workflow between the two buckets.
func NewWorkflow(store objectstore.Store, records evidence.Repository, guard evidence.PromotionGuard, tempBucket, permBucket string, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		store:      store,
		records:    records,
		guard:      guard,
		tempBucket: tempBucket,
		permBucket: permBucket,
		logger:     logger,
	}
}

// Process applies a moderation decision to every evidence file of a case.
// The caller's moderator role must already be verified.
//
// On approve, files are migrated one at a time; a single file's failure is
// logged and counted but never aborts the rest of the batch. Files already
// marked permanent are skipped, so re-invoking approval for a case is a
// safe no-op for everything the first run migrated.
func (w *Workflow) Process(ctx context.Context, caseID string, decision Decision) (*Result, error) {
	switch decision {
	case DecisionApprove:
		return w.approve(ctx, caseID)
	case DecisionReject:
		return &Result{Message: lifecycleMessage}, nil
	default:
		return nil, ErrInvalidDecision
	}
}

func (w *Workflow) approve(ctx context.Context, caseID string) (*Result, error) {
	acquired, err := w.guard.Acquire(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("promote: acquire guard for case %s: %w", caseID, err)
	}
	if !acquired {
		return nil, ErrPromotionInProgress
	}
	defer func() {
		if err := w.guard.Release(ctx, caseID); err != nil {
			w.logger.Error("release promotion guard failed",
				slog.String("case_id", caseID),
				slog.String("error", err.Error()),
			)
		}
	}()

	files, err := w.records.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("promote: list evidence for case %s: %w", caseID, err)
	}

	result := &Result{}
	for _, file := range files {
		if file.Location == evidence.LocationPermanent {
			continue
		}
		if err := w.promoteFile(ctx, file); err != nil {
			result.Failed++
			w.logger.Error("evidence promotion failed",
				slog.String("case_id", caseID),
				slog.String("file_path", file.FilePath),
				slog.String("error", err.Error()),
			)
			continue
		}
		result.Promoted++
	}

	result.Message = fmt.Sprintf("Moved %d files to permanent storage", result.Promoted)

	w.logger.Info("evidence promotion finished",
		slog.String("case_id", caseID),
		slog.Int("promoted", result.Promoted),
		slog.Int("failed", result.Failed),
	)

	return result, nil
}

// promoteFile migrates one file. The record only flips to permanent after
// both storage legs succeed; a file stuck mid-migration stays temporary and
// is retried by a later approval run.
func (w *Workflow) promoteFile(ctx context.Context, file *evidence.Record) error {
	if err := w.store.Copy(ctx, w.permBucket, file.FilePath, w.tempBucket); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if err := w.store.Delete(ctx, w.tempBucket, file.FilePath); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	if err := w.records.MarkPermanent(ctx, file.ID); err != nil {
		return fmt.Errorf("mark permanent: %w", err)
	}
	return nil
}
