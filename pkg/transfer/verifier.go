package transfer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/vectorstore"
)

// LedgerCounter counts committed records per target
type LedgerCounter interface {
	Count(target model.CollectionTarget) int
}

// VerificationReport compares the ledger with the index for one target
type VerificationReport struct {
	Target           model.CollectionTarget
	Collection       string
	VerificationTime time.Time
	CollectionExists bool
	LedgerCount      int64
	PointCount       int64
	CountMatches     bool
	Error            string
	Duration         time.Duration
}

// Difference returns points minus ledger entries. A positive value means the
// index holds points the ledger does not know about, e.g. after a full run.
func (r VerificationReport) Difference() int64 {
	return r.PointCount - r.LedgerCount
}

// Verifier checks that every committed record has a point in the index
type Verifier struct {
	store   vectorstore.Store
	router  *Router
	logger  *zap.Logger
	timeout time.Duration
}

// NewVerifier creates a new verifier
func NewVerifier(store vectorstore.Store, router *Router, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		store:   store,
		router:  router,
		logger:  logger.Named("verifier"),
		timeout: time.Minute * 5, // Default 5-minute timeout
	}
}

// WithTimeout sets a custom timeout for verification operations
func (v *Verifier) WithTimeout(timeout time.Duration) *Verifier {
	v.timeout = timeout
	return v
}

// VerifyTarget compares the ledger count of target with its collection's point count
func (v *Verifier) VerifyTarget(ctx context.Context, target model.CollectionTarget, ledger LedgerCounter) (report VerificationReport) {
	start := time.Now()
	collection, _ := v.router.Collection(target)
	report = VerificationReport{
		Target:           target,
		Collection:       collection,
		VerificationTime: start,
		LedgerCount:      int64(ledger.Count(target)),
	}
	defer func() { report.Duration = time.Since(start) }()

	if collection == "" {
		report.Error = fmt.Sprintf("no collection configured for target %s", target)
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	exists, err := v.store.CollectionExists(ctx, collection)
	if err != nil {
		report.Error = fmt.Sprintf("failed to check collection: %v", err)
		return report
	}
	report.CollectionExists = exists

	if exists {
		count, err := v.store.Count(ctx, collection)
		if err != nil {
			report.Error = fmt.Sprintf("failed to count points: %v", err)
			return report
		}
		report.PointCount = count
	}

	report.CountMatches = report.PointCount == report.LedgerCount
	if report.CountMatches {
		v.logger.Info("Collection verification successful",
			zap.String("collection", collection),
			zap.Int64("count", report.PointCount))
	} else {
		v.logger.Warn("Point count mismatch",
			zap.String("collection", collection),
			zap.Int64("ledgerCount", report.LedgerCount),
			zap.Int64("pointCount", report.PointCount),
			zap.Int64("difference", report.Difference()))
	}

	return report
}

// VerifyAll verifies every target in routing order
func (v *Verifier) VerifyAll(ctx context.Context, ledger LedgerCounter) []VerificationReport {
	targets := v.router.registry.Targets()
	reports := make([]VerificationReport, 0, len(targets))
	for _, target := range targets {
		report := v.VerifyTarget(ctx, target, ledger)
		if report.Error != "" {
			v.logger.Error("Verification failed",
				zap.String("target", target.String()),
				zap.String("error", report.Error))
		}
		reports = append(reports, report)
	}
	return reports
}

// GenerateVerificationReport renders reports as text
func (v *Verifier) GenerateVerificationReport(reports []VerificationReport) string {
	var sb strings.Builder
	sb.WriteString("Verification Report\n===================\n")

	mismatches := 0
	for _, r := range reports {
		status := "OK"
		switch {
		case r.Error != "":
			status = "ERROR: " + r.Error
			mismatches++
		case !r.CollectionExists:
			status = "MISSING"
			if r.LedgerCount > 0 {
				mismatches++
			}
		case !r.CountMatches:
			status = fmt.Sprintf("MISMATCH (%+d)", r.Difference())
			mismatches++
		}
		sb.WriteString(fmt.Sprintf("- %s [%s]: ledger=%d points=%d %s\n",
			r.Collection, r.Target, r.LedgerCount, r.PointCount, status))
	}

	sb.WriteString(fmt.Sprintf("\n%d of %d collections with discrepancies\n", mismatches, len(reports)))
	return sb.String()
}
