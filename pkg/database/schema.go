package database

// schema is applied in order by Migrate; every statement is idempotent.
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS ranking`,

	`CREATE TABLE IF NOT EXISTS ranking.training_runs (
		run_id        UUID PRIMARY KEY,
		horizon       TEXT NOT NULL,
		config_hash   TEXT NOT NULL,
		model_path    TEXT,
		rows_used     INTEGER NOT NULL,
		positive_rate DOUBLE PRECISION,
		cv_auc_mean   DOUBLE PRECISION,
		cv_auc_std    DOUBLE PRECISION,
		fold_aucs     JSONB,
		importances   JSONB,
		error         TEXT,
		trained_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_training_runs_horizon
		ON ranking.training_runs (horizon, trained_at DESC)`,

	`CREATE TABLE IF NOT EXISTS ranking.predictions (
		horizon      TEXT NOT NULL,
		pred_date    DATE NOT NULL,
		rank         INTEGER NOT NULL,
		symbol       TEXT NOT NULL,
		close        DOUBLE PRECISION,
		delivery_pct DOUBLE PRECISION,
		fii_net_ma5  DOUBLE PRECISION,
		dii_net_ma5  DOUBLE PRECISION,
		probability  DOUBLE PRECISION NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (horizon, pred_date, symbol)
	)`,

	`CREATE TABLE IF NOT EXISTS ranking.quality_snapshots (
		latest_date   DATE PRIMARY KEY,
		checked_at    TIMESTAMPTZ NOT NULL,
		source        TEXT,
		total_rows    INTEGER NOT NULL,
		total_symbols INTEGER NOT NULL,
		first_date    DATE,
		coverage      JSONB,
		issues        JSONB,
		warnings      JSONB,
		passed        BOOLEAN NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
