package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/modelstore"
	"github.com/wonny/aegis-nse/internal/predictions"
	"github.com/wonny/aegis-nse/internal/s0_data"
	"github.com/wonny/aegis-nse/internal/s0_data/gaps"
	"github.com/wonny/aegis-nse/internal/s0_data/quality"
	"github.com/wonny/aegis-nse/internal/s1_features"
	"github.com/wonny/aegis-nse/internal/s2_labels"
	"github.com/wonny/aegis-nse/internal/selection"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
	"github.com/wonny/aegis-nse/internal/training"
	"github.com/wonny/aegis-nse/pkg/config"
	"github.com/wonny/aegis-nse/pkg/database"
	"github.com/wonny/aegis-nse/pkg/logger"
	"github.com/wonny/aegis-nse/pkg/metrics"
	"github.com/wonny/aegis-nse/pkg/redis"
)

// Pipeline wires the stages into the post-market (train) and pre-market (predict) routines
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Pipeline struct {
	cfg        *config.Config
	strategy   *strategyconfig.Config
	snapshot   *strategyconfig.Snapshot
	configHash string

	loader    *s0_data.Loader
	checker   *quality.Checker
	features  contracts.FeatureBuilder
	labels    *s2_labels.Generator
	trainer   *training.Trainer
	store     *modelstore.Store
	predictor *selection.Predictor

	// 선택 저장소 (DATABASE_URL 없으면 nil)
	qualityRepo *quality.Repository
	repo        *predictions.Repository
	cache       *redis.Cache

	metrics *metrics.Recorder
	logger  *logger.Logger
	now     func() time.Time

	// ⭐ 루틴은 한 번에 하나: API 트리거와 스케줄러가 같은 잠금을 공유
	running sync.Mutex
}

// Deps 선택 인프라 핸들 (zero value면 해당 기능 비활성)
type Deps struct {
	DB           *database.DB
	Cache        *redis.Cache
	Metrics      *metrics.Recorder
	StrategyYAML []byte // source of the strategy config; nil re-encodes it
}

// RunOptions 실행 1회 옵션
type RunOptions struct {
	PanelFile string // overrides PANEL_FILE
	Force     bool   // continue despite critical quality issues
	TopN      int    // 0 = ranking.top_n
}

// New creates a pipeline
func New(cfg *config.Config, strategy *strategyconfig.Config, deps Deps, log *logger.Logger) (*Pipeline, error) {
	snap, err := strategyconfig.NewSnapshot(strategy, deps.StrategyYAML)
	if err != nil {
		return nil, fmt.Errorf("snapshot strategy config: %w", err)
	}

	store := modelstore.New(cfg.Paths.ModelDir, log.Zerolog())
	p := &Pipeline{
		cfg:        cfg,
		strategy:   strategy,
		snapshot:   snap,
		configHash: snap.ConfigHash,
		loader:     s0_data.NewLoader(log.Zerolog()),
		checker:    quality.NewChecker(log.Zerolog()),
		features:   s1_features.NewComputer(cfg.Workers, log.Zerolog()),
		labels:     s2_labels.NewGenerator(log.Zerolog()),
		trainer:    training.NewTrainer(strategy, log.Zerolog()),
		store:      store,
		predictor:  selection.NewPredictor(strategy, store, log),
		cache:      deps.Cache,
		metrics:    deps.Metrics,
		logger:     log,
		now:        time.Now,
	}
	if deps.DB != nil {
		p.qualityRepo = quality.NewRepository(deps.DB.Pool)
		p.repo = predictions.NewRepository(deps.DB.Pool)
	}
	if p.metrics == nil {
		p.metrics = metrics.New()
	}

	return p, nil
}

// acquire 대기 없이 실행 잠금 획득, 호출자는 반환된 release를 반드시 호출
func (p *Pipeline) acquire() (func(), error) {
	if !p.running.TryLock() {
		return nil, contracts.ErrBusy
	}
	return p.running.Unlock, nil
}

// ConfigHash 이 파이프라인이 쓰는 전략 설정 해시
func (p *Pipeline) ConfigHash() string {
	return p.configHash
}

// Store exposes the model store
func (p *Pipeline) Store() *modelstore.Store {
	return p.store
}

// Prepared is the output of the shared load → quality → gaps → features stages
type Prepared struct {
	Panel    *contracts.Panel
	Quality  *contracts.DataQualitySnapshot
	Gaps     *gaps.Report
	Features []contracts.FeatureRow
}

// Check 패널 로드 + 품질 검사만 실행
func (p *Pipeline) Check(ctx context.Context, opts RunOptions) (*s0_data.Raw, *contracts.DataQualitySnapshot, error) {
	raw, err := p.loader.Load(ctx, p.panelFile(opts))
	if err != nil {
		p.metrics.RecordError("load")
		return nil, nil, err
	}
	p.metrics.RecordRows("load", len(raw.Rows))

	snap, err := p.checker.Check(ctx, raw)
	if err != nil {
		return raw, nil, err
	}

	if p.qualityRepo != nil && !snap.LatestDate.IsZero() {
		if err := p.qualityRepo.SaveSnapshot(ctx, snap); err != nil {
			p.metrics.RecordError("db")
			p.logger.WithError(err).Warn("Failed to save quality snapshot")
		}
	}

	return raw, snap, nil
}

// Prepare runs load → quality → missing days → features
func (p *Pipeline) Prepare(ctx context.Context, opts RunOptions) (*Prepared, error) {
	defer p.metrics.Time("prepare", time.Now())

	raw, snap, err := p.Check(ctx, opts)
	if err != nil {
		return nil, err
	}
	if !snap.Passed() {
		if !opts.Force {
			p.metrics.RecordError("quality")
			return nil, fmt.Errorf("%w: %s", contracts.ErrQualityFailed, strings.Join(snap.Issues, "; "))
		}
		p.logger.WithField("issues", snap.Issues).Warn("Continuing despite quality issues")
	}

	panel, err := raw.Panel()
	if err != nil {
		p.metrics.RecordError("schema")
		return nil, err
	}

	report := gaps.Detect(panel)
	strategy := p.strategy.Data.MissingStrategy()
	if len(report.MissingDates) > 0 || len(report.Incomplete()) > 0 {
		p.logger.WithFields(map[string]interface{}{
			"missing_dates":      len(report.MissingDates),
			"incomplete_symbols": len(report.Incomplete()),
			"strategy":           strategy,
		}).Warn("Missing trading days detected")
	}
	panel, err = gaps.Apply(panel, report, strategy)
	if err != nil {
		return nil, err
	}

	rows, err := p.features.Compute(ctx, panel)
	if err != nil {
		p.metrics.RecordError("features")
		return nil, err
	}
	p.metrics.RecordRows("features", len(rows))

	return &Prepared{Panel: panel, Quality: snap, Gaps: report, Features: rows}, nil
}

func (p *Pipeline) panelFile(opts RunOptions) string {
	if opts.PanelFile != "" {
		return opts.PanelFile
	}
	return p.cfg.Paths.PanelFile
}
