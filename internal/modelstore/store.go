package modelstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/model"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
)

const timestampLayout = "20060102_150405"

// Artifact is a persisted per-horizon classifier plus training metadata
type Artifact struct {
	Horizon    string            `json:"horizon"`
	TrainedAt  time.Time         `json:"trained_at"`
	ConfigHash string            `json:"config_hash,omitempty"`
	Rows       int               `json:"rows"`
	CVAUC      *float64          `json:"cv_auc,omitempty"` // nil when CV produced no score
	Model      *model.Classifier `json:"model"`
}

// Store keeps model artifacts as JSON files:
// <name>_<timestamp>.json per training run and <name>_latest.json for serving.
// ⭐ SSOT: 모델 파일 입출력은 여기서만
type Store struct {
	dir string
	now func() time.Time
	log zerolog.Logger
}

// New dir 기반 저장소 생성 (디렉터리는 첫 저장 시 생성)
func New(dir string, log zerolog.Logger) *Store {
	return &Store{
		dir: dir,
		now: time.Now,
		log: log.With().Str("component", "modelstore").Logger(),
	}
}

// Name 호라이즌의 아티팩트 기본 이름
func Name(horizon string) string {
	return "gbdt_" + horizon
}

// Save writes the timestamped artifact and replaces the latest one.
// Returns the timestamped path.
func (s *Store) Save(a *Artifact) (string, error) {
	if a == nil || a.Model == nil {
		return "", fmt.Errorf("save model: nothing to save")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("save model: %w", err)
	}
	if a.TrainedAt.IsZero() {
		a.TrainedAt = s.now()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", " ")
	if err := enc.Encode(a); err != nil {
		return "", fmt.Errorf("save model %s: %w", a.Horizon, err)
	}

	name := Name(a.Horizon)
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", name, a.TrainedAt.Format(timestampLayout)))
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("save model %s: %w", a.Horizon, err)
	}
	if err := writeAtomic(s.latestPath(a.Horizon), buf.Bytes()); err != nil {
		return "", fmt.Errorf("save model %s: %w", a.Horizon, err)
	}

	s.log.Info().Str("horizon", a.Horizon).Str("path", path).Msg("model saved")
	return path, nil
}

// Load reads the latest artifact of a horizon.
// A missing file yields contracts.ErrMissingModel.
func (s *Store) Load(horizon string) (*Artifact, error) {
	data, err := os.ReadFile(s.latestPath(horizon))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("horizon %s: %w", horizon, contracts.ErrMissingModel)
	}
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", horizon, err)
	}

	var raw struct {
		Artifact
		Model json.RawMessage `json:"model"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("load model %s: %w", horizon, err)
	}
	clf, err := model.Decode(bytes.NewReader(raw.Model))
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", horizon, err)
	}

	a := raw.Artifact
	a.Model = clf
	return &a, nil
}

// Versions 호라이즌의 타임스탬프 아티팩트 목록 (오래된 것부터)
func (s *Store) Versions(horizon string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, Name(horizon)+"_*.json"))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range matches {
		if strings.HasSuffix(m, "_latest.json") {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// Prune 최신 keep개만 남기고 타임스탬프 아티팩트 삭제
// _latest 파일은 건드리지 않음
func (s *Store) Prune(horizon string, keep int) (int, error) {
	versions, err := s.Versions(horizon)
	if err != nil {
		return 0, err
	}
	if keep < 1 {
		keep = 1
	}
	if len(versions) <= keep {
		return 0, nil
	}

	removed := 0
	for _, path := range versions[:len(versions)-keep] {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("prune %s: %w", path, err)
		}
		removed++
	}
	s.log.Info().Str("horizon", horizon).Int("removed", removed).Msg("old models pruned")
	return removed, nil
}

// SaveSnapshot writes the strategy a model was trained with, keyed by config hash.
// An existing snapshot of the same hash is left alone.
func (s *Store) SaveSnapshot(snap *strategyconfig.Snapshot) (string, error) {
	path := s.snapshotPath(snap.ConfigHash)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("save strategy snapshot: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", " ")
	if err != nil {
		return "", fmt.Errorf("save strategy snapshot: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return "", fmt.Errorf("save strategy snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads the strategy snapshot of a config hash (fs.ErrNotExist when absent)
func (s *Store) LoadSnapshot(hash string) (*strategyconfig.Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(hash))
	if err != nil {
		return nil, err
	}
	var snap strategyconfig.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("load strategy snapshot: %w", err)
	}
	return &snap, nil
}

func (s *Store) snapshotPath(hash string) string {
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return filepath.Join(s.dir, "strategy_"+hash+".json")
}

func (s *Store) latestPath(horizon string) string {
	return filepath.Join(s.dir, Name(horizon)+"_latest.json")
}

// writeAtomic 같은 디렉터리 임시 파일에 쓴 뒤 rename
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
