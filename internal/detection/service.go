// Package detection orchestrates the integrity checks: hash-chain
// verification for both ledgers, duplicate identity matching, and pattern
// anomaly detection, aggregated into one severity-classified report.
package detection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"scrutiny/internal/anomaly"
	"scrutiny/internal/detection/metrics"
	"scrutiny/internal/ledger"
	"scrutiny/internal/register"
	"scrutiny/pkg/domain"
	dErrors "scrutiny/pkg/domain-errors"
	"scrutiny/pkg/requestcontext"
)

// Source is the read-only view of the durable record store this engine
// scans. Implementations must serve a consistent snapshot bounded by the
// time pinned in the context.
type Source interface {
	ListVoters(ctx context.Context, scope domain.Scope) ([]domain.VoterRecord, error)
	ListVotes(ctx context.Context, scope domain.Scope) ([]domain.VoteRecord, error)
	ListElections(ctx context.Context) ([]domain.ElectionRecord, error)
	ListCandidates(ctx context.Context) ([]domain.CandidateRecord, error)
	ListDeathRecords(ctx context.Context) ([]domain.DeathRecord, error)
	ListLedgerRecords(ctx context.Context, chain domain.ChainType) ([]domain.LedgerRecord, error)
}

// Sink persists completed reports. The engine's only write.
type Sink interface {
	SaveReport(ctx context.Context, report *Report) error
}

// StatsCache holds the latest statistics snapshot for cheap dashboard polls.
type StatsCache interface {
	SaveStats(ctx context.Context, stats Stats) error
	LatestStats(ctx context.Context) (Stats, bool, error)
}

// Service wires the detectors to the record source and report sink. Each
// detector receives its dependencies at construction; there is no shared
// module-level state.
type Service struct {
	source     Source
	sink       Sink
	statsCache StatsCache
	verifier   *ledger.Verifier
	matcher    *register.Matcher
	detector   *anomaly.Detector
	cfg        Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithSink sets the report sink. Without one, reports are returned but not
// persisted.
func WithSink(sink Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithStatsCache sets the statistics cache.
func WithStatsCache(cache StatsCache) Option {
	return func(s *Service) { s.statsCache = cache }
}

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the detection service. Configuration is validated here so
// an invalid threshold fails fast, before any scan begins.
func New(source Source, verifier *ledger.Verifier, matcher *register.Matcher, detector *anomaly.Detector, cfg Config, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "record source is required")
	}
	if verifier == nil || matcher == nil || detector == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "all detectors are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		source:   source,
		verifier: verifier,
		matcher:  matcher,
		detector: detector,
		cfg:      cfg,
		tracer:   otel.Tracer("scrutiny/detection"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// VerifyLedgerIntegrity walks one chain and reports every break found.
func (s *Service) VerifyLedgerIntegrity(ctx context.Context, chain domain.ChainType) (ledger.Result, error) {
	if !chain.IsValid() {
		return ledger.Result{}, dErrors.New(dErrors.CodeInvalidInput, "invalid chain type")
	}

	ctx, span := s.tracer.Start(ctx, "detection.verify_ledger",
		trace.WithAttributes(attribute.String("chain", chain.String())))
	defer span.End()
	start := time.Now()

	records, err := s.source.ListLedgerRecords(ctx, chain)
	if err != nil {
		span.RecordError(err)
		return ledger.Result{}, dErrors.Wrap(dErrors.CodeUnavailable, "read ledger records", err)
	}

	result, err := s.verifier.Verify(ctx, records)
	if err != nil {
		span.RecordError(err)
		return ledger.Result{}, err
	}

	s.metrics.ObserveCheckDuration(string(checkForChain(chain)), time.Since(start))
	s.metrics.AddFindings(string(domain.CategoryBrokenChain), len(result.Breaks))
	if s.logger != nil {
		s.logger.InfoContext(ctx, "ledger verified",
			"chain", chain,
			"records", result.RecordsScanned,
			"breaks", len(result.Breaks),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return result, nil
}

// DetectDuplicates scans the scoped voter set with all three strategies.
func (s *Service) DetectDuplicates(ctx context.Context, scope domain.Scope, mode domain.MatchMode) ([]register.DuplicateFinding, error) {
	if !mode.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid match mode")
	}

	ctx, span := s.tracer.Start(ctx, "detection.detect_duplicates",
		trace.WithAttributes(
			attribute.String("region", scope.Region),
			attribute.String("mode", mode.String()),
		))
	defer span.End()
	start := time.Now()

	voters, err := s.source.ListVoters(ctx, scope)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "read voter records", err)
	}

	findings, err := s.matcher.Detect(ctx, voters, mode)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.ObserveCheckDuration(string(CheckDuplicates), time.Since(start))
	s.metrics.AddFindings("duplicate", len(findings))
	if s.logger != nil {
		s.logger.InfoContext(ctx, "duplicate scan complete",
			"voters", len(voters),
			"mode", mode,
			"findings", len(findings),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return findings, nil
}

// DetectAnomalies evaluates every pattern rule over a fresh snapshot,
// returning findings grouped by category.
func (s *Service) DetectAnomalies(ctx context.Context) (map[domain.FindingCategory][]anomaly.Finding, error) {
	findings, err := s.detectAnomalies(ctx, domain.Scope{})
	if err != nil {
		return nil, err
	}
	return anomaly.GroupByCategory(findings), nil
}

func (s *Service) detectAnomalies(ctx context.Context, scope domain.Scope) ([]anomaly.Finding, error) {
	ctx, span := s.tracer.Start(ctx, "detection.detect_anomalies")
	defer span.End()
	start := time.Now()

	snap, err := s.loadSnapshot(ctx, scope)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	findings, err := s.detector.Detect(ctx, snap)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.ObserveCheckDuration(string(CheckAnomalies), time.Since(start))
	if s.logger != nil {
		s.logger.InfoContext(ctx, "anomaly scan complete",
			"votes", len(snap.Votes),
			"findings", len(findings),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return findings, nil
}

// loadSnapshot reads all collections a pattern scan needs, in parallel with
// shared cancellation. Unlike the four top-level checks, snapshot loading is
// fail-fast: without a complete snapshot no rule result is trustworthy.
func (s *Service) loadSnapshot(ctx context.Context, scope domain.Scope) (anomaly.Snapshot, error) {
	snap := anomaly.Snapshot{TakenAt: requestcontext.Now(ctx)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		voters, err := s.source.ListVoters(ctx, scope)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeUnavailable, "read voter records", err)
		}
		snap.Voters = voters
		return nil
	})
	g.Go(func() error {
		votes, err := s.source.ListVotes(ctx, scope)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeUnavailable, "read vote records", err)
		}
		snap.Votes = votes
		return nil
	})
	g.Go(func() error {
		elections, err := s.source.ListElections(ctx)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeUnavailable, "read election records", err)
		}
		snap.Elections = elections
		return nil
	})
	g.Go(func() error {
		candidates, err := s.source.ListCandidates(ctx)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeUnavailable, "read candidate records", err)
		}
		snap.Candidates = candidates
		return nil
	})
	g.Go(func() error {
		deaths, err := s.source.ListDeathRecords(ctx)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeUnavailable, "read death records", err)
		}
		snap.Deaths = deaths
		return nil
	})

	if err := g.Wait(); err != nil {
		return anomaly.Snapshot{}, err
	}
	return snap, nil
}

// RunFullDetection runs all four checks concurrently against the same
// point-in-time snapshot and aggregates their outputs. Checks are
// gather-all: a failing check does not cancel its siblings, and any failure
// surfaces as a PartialReportError naming exactly which checks are
// trustworthy.
func (s *Service) RunFullDetection(ctx context.Context) (*Report, error) {
	start := time.Now()
	// Pin the snapshot bound so all checks read the same point in time.
	ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))

	ctx, span := s.tracer.Start(ctx, "detection.run_full")
	defer span.End()

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		outcomes   = make(map[CheckName]error, 4)
		chains     = make(map[domain.ChainType]ledger.Result, 2)
		duplicates []register.DuplicateFinding
		anomalies  []anomaly.Finding
	)

	run := func(name CheckName, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := fn()
			mu.Lock()
			outcomes[name] = err
			mu.Unlock()
		}()
	}

	run(CheckLedgerVotes, func() error {
		result, err := s.VerifyLedgerIntegrity(ctx, domain.ChainVotes)
		if err != nil {
			return err
		}
		mu.Lock()
		chains[domain.ChainVotes] = result
		mu.Unlock()
		return nil
	})
	run(CheckLedgerAudit, func() error {
		result, err := s.VerifyLedgerIntegrity(ctx, domain.ChainAudit)
		if err != nil {
			return err
		}
		mu.Lock()
		chains[domain.ChainAudit] = result
		mu.Unlock()
		return nil
	})
	run(CheckDuplicates, func() error {
		findings, err := s.DetectDuplicates(ctx, domain.Scope{}, s.cfg.DefaultMatchMode)
		if err != nil {
			return err
		}
		mu.Lock()
		duplicates = findings
		mu.Unlock()
		return nil
	})
	run(CheckAnomalies, func() error {
		findings, err := s.detectAnomalies(ctx, domain.Scope{})
		if err != nil {
			return err
		}
		mu.Lock()
		anomalies = findings
		mu.Unlock()
		return nil
	})

	wg.Wait()

	for _, name := range checkNames() {
		if outcomes[name] != nil {
			partial := &PartialReportError{Outcomes: outcomes}
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "detection run incomplete",
					"failed_checks", partial.FailedChecks(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}
			span.RecordError(partial)
			return nil, partial
		}
	}

	report := aggregate(s.cfg, requestcontext.Now(ctx), chains, duplicates, anomalies, Provenance{
		OperatorID: requestcontext.OperatorID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
	})

	for category, findings := range report.FindingsByCategory {
		if category != domain.CategoryBrokenChain { // counted by the ledger checks
			s.metrics.AddFindings(string(category), len(findings))
		}
	}
	s.metrics.IncrementRun(string(report.Severity))
	s.metrics.ObserveRunDuration(time.Since(start))

	if s.sink != nil {
		if err := s.sink.SaveReport(ctx, report); err != nil {
			span.RecordError(err)
			return nil, dErrors.Wrap(dErrors.CodeUnavailable, "persist report", err)
		}
	}
	if s.statsCache != nil {
		if err := s.statsCache.SaveStats(ctx, statsFromReport(report)); err != nil && s.logger != nil {
			// Cache misses are tolerable; the next stats poll recomputes.
			s.logger.WarnContext(ctx, "stats cache update failed", "error", err)
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "detection run complete",
			"report_id", report.ReportID,
			"total_findings", report.TotalFindingCount,
			"severity", report.Severity,
			"operator_id", report.Provenance.OperatorID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return report, nil
}

func checkForChain(chain domain.ChainType) CheckName {
	if chain == domain.ChainAudit {
		return CheckLedgerAudit
	}
	return CheckLedgerVotes
}
