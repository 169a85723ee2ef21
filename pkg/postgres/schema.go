package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/hydromon/pump-gateway/pkg/models"
)

// EnsureSchema creates the backend tables if they do not exist yet. Safe to run
// on every start.
func (c *Client) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS telemetria_atual (
			id_bomba TEXT PRIMARY KEY,
			mancal DOUBLE PRECISION NOT NULL DEFAULT 0,
			oleo DOUBLE PRECISION NOT NULL DEFAULT 0,
			vx DOUBLE PRECISION NOT NULL DEFAULT 0,
			vy DOUBLE PRECISION NOT NULL DEFAULT 0,
			vz DOUBLE PRECISION NOT NULL DEFAULT 0,
			rms DOUBLE PRECISION NOT NULL DEFAULT 0,
			pressao_bar DOUBLE PRECISION NOT NULL DEFAULT 0,
			ultima_atualizacao TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS historico_bombas (
			id BIGSERIAL PRIMARY KEY,
			id_bomba TEXT NOT NULL,
			mancal DOUBLE PRECISION NOT NULL DEFAULT 0,
			oleo DOUBLE PRECISION NOT NULL DEFAULT 0,
			vx DOUBLE PRECISION NOT NULL DEFAULT 0,
			vy DOUBLE PRECISION NOT NULL DEFAULT 0,
			vz DOUBLE PRECISION NOT NULL DEFAULT 0,
			rms DOUBLE PRECISION NOT NULL DEFAULT 0,
			pressao_bar DOUBLE PRECISION NOT NULL DEFAULT 0,
			criado_em TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_historico_bombas_device_time
			ON historico_bombas (id_bomba, criado_em DESC)`,
		`CREATE TABLE IF NOT EXISTS alertas (
			id UUID PRIMARY KEY,
			id_bomba TEXT NOT NULL,
			sensor TEXT NOT NULL,
			tipo TEXT NOT NULL,
			mensagem TEXT NOT NULL,
			valor DOUBLE PRECISION NOT NULL DEFAULT 0,
			criado_em TIMESTAMPTZ NOT NULL DEFAULT now(),
			reconhecido BOOLEAN NOT NULL DEFAULT FALSE,
			reconhecido_por TEXT,
			reconhecido_em TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS configuracoes (
			chave TEXT PRIMARY KEY,
			valor TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	logrus.Info("Backend schema is in place")
	return nil
}

// SeedDefaults writes the default thresholds and access secret into the
// configuration table without overwriting values an operator already set.
func (c *Client) SeedDefaults(ctx context.Context, thresholds models.ThresholdConfig, secret string) error {
	entries := map[string]string{
		keyMaxBearingTemp:  strconv.FormatFloat(thresholds.MaxBearingTemp, 'f', -1, 64),
		keyMaxOilTemp:      strconv.FormatFloat(thresholds.MaxOilTemp, 'f', -1, 64),
		keyMaxVibrationRMS: strconv.FormatFloat(thresholds.MaxVibrationRMS, 'f', -1, 64),
		keyMaxPressure:     strconv.FormatFloat(thresholds.MaxPressure, 'f', -1, 64),
		keyMinPressure:     strconv.FormatFloat(thresholds.MinPressure, 'f', -1, 64),
		SecretConfigKey:    secret,
	}

	for key, value := range entries {
		_, err := c.pool.Exec(ctx, `
			INSERT INTO configuracoes (chave, valor) VALUES ($1, $2)
			ON CONFLICT (chave) DO NOTHING
		`, key, value)
		if err != nil {
			return fmt.Errorf("failed to seed configuration %s: %w", key, err)
		}
	}
	return nil
}
