package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/hydromon/pump-gateway/pkg/config"
	"github.com/hydromon/pump-gateway/pkg/models"
)

// Table names in the hosted backend. They keep the names the deployed sensors
// and dashboards already use.
const (
	LatestTable     = "telemetria_atual"
	HistoryTable    = "historico_bombas"
	AlertsTable     = "alertas"
	ConfigTable     = "configuracoes"
	SecretConfigKey = "senha_acesso"
)

// Configuration keys for threshold values in the config table
const (
	keyMaxBearingTemp  = "temp_mancal"
	keyMaxOilTemp      = "temp_oleo"
	keyMaxVibrationRMS = "vib_rms"
	keyMaxPressure     = "pressao_max_bar"
	keyMinPressure     = "pressao_min_bar"
)

// Client wraps a pgx connection pool against the hosted Postgres backend
type Client struct {
	pool *pgxpool.Pool
}

// NewClient connects to Postgres and verifies the connection
func NewClient(ctx context.Context, cfg *config.PostgresConfig) (*Client, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.MaxConns,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &Client{pool: pool}, nil
}

// Close releases the connection pool
func (c *Client) Close() {
	c.pool.Close()
}

// Ping verifies the backend is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// UpsertLatest overwrites the one latest-telemetry row for the sample's device
func (c *Client) UpsertLatest(ctx context.Context, sample models.Sample) error {
	query := `
		INSERT INTO telemetria_atual
			(id_bomba, mancal, oleo, vx, vy, vz, rms, pressao_bar, ultima_atualizacao)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id_bomba) DO UPDATE SET
			mancal = EXCLUDED.mancal,
			oleo = EXCLUDED.oleo,
			vx = EXCLUDED.vx,
			vy = EXCLUDED.vy,
			vz = EXCLUDED.vz,
			rms = EXCLUDED.rms,
			pressao_bar = EXCLUDED.pressao_bar,
			ultima_atualizacao = EXCLUDED.ultima_atualizacao
	`
	_, err := c.pool.Exec(ctx, query,
		sample.DeviceID,
		sample.BearingTemp,
		sample.OilTemp,
		sample.Vx,
		sample.Vy,
		sample.Vz,
		sample.VibrationRMS,
		sample.Pressure,
		sample.ReceivedAt,
	)
	return err
}

// InsertHistory appends one row to the append-only history table
func (c *Client) InsertHistory(ctx context.Context, sample models.Sample) error {
	query := `
		INSERT INTO historico_bombas
			(id_bomba, mancal, oleo, vx, vy, vz, rms, pressao_bar, criado_em)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := c.pool.Exec(ctx, query,
		sample.DeviceID,
		sample.BearingTemp,
		sample.OilTemp,
		sample.Vx,
		sample.Vy,
		sample.Vz,
		sample.VibrationRMS,
		sample.Pressure,
		sample.ReceivedAt,
	)
	return err
}

// ListLatest returns the latest sample per device
func (c *Client) ListLatest(ctx context.Context) ([]models.Sample, error) {
	query := `
		SELECT id_bomba, mancal, oleo, vx, vy, vz, rms, pressao_bar, ultima_atualizacao
		FROM telemetria_atual
	`
	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest telemetry: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// ListHistory returns up to limit history rows for a device, newest first
func (c *Client) ListHistory(ctx context.Context, deviceID string, limit int) ([]models.Sample, error) {
	query := `
		SELECT id_bomba, mancal, oleo, vx, vy, vz, rms, pressao_bar, criado_em
		FROM historico_bombas
		WHERE id_bomba = $1
		ORDER BY criado_em DESC
		LIMIT $2
	`
	rows, err := c.pool.Query(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", deviceID, err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

func scanSamples(rows pgx.Rows) ([]models.Sample, error) {
	var samples []models.Sample
	for rows.Next() {
		var s models.Sample
		if err := rows.Scan(
			&s.DeviceID,
			&s.BearingTemp,
			&s.OilTemp,
			&s.Vx,
			&s.Vy,
			&s.Vz,
			&s.VibrationRMS,
			&s.Pressure,
			&s.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sample row: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// InsertAlert appends one alert row to the audit trail
func (c *Client) InsertAlert(ctx context.Context, alert models.Alert) error {
	query := `
		INSERT INTO alertas
			(id, id_bomba, sensor, tipo, mensagem, valor, criado_em, reconhecido)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := c.pool.Exec(ctx, query,
		alert.ID,
		alert.DeviceID,
		alert.Metric,
		string(alert.Kind),
		alert.Message,
		alert.Value,
		alert.TriggeredAt,
		alert.Acknowledged,
	)
	return err
}

// ListAlerts returns alerts for a device, newest first. An empty device id
// returns every device's alerts.
func (c *Client) ListAlerts(ctx context.Context, deviceID string) ([]models.Alert, error) {
	query := `
		SELECT id, id_bomba, sensor, tipo, mensagem, valor, criado_em,
		       reconhecido, reconhecido_por, reconhecido_em
		FROM alertas
	`
	args := []interface{}{}
	if deviceID != "" {
		query += " WHERE id_bomba = $1"
		args = append(args, deviceID)
	}
	query += " ORDER BY criado_em DESC"

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		var kind string
		var ackBy *string
		if err := rows.Scan(
			&a.ID,
			&a.DeviceID,
			&a.Metric,
			&kind,
			&a.Message,
			&a.Value,
			&a.TriggeredAt,
			&a.Acknowledged,
			&ackBy,
			&a.AcknowledgedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		a.Kind = models.ViolationKind(kind)
		if ackBy != nil {
			a.AcknowledgedBy = *ackBy
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// AcknowledgeAlert marks one alert row as acknowledged
func (c *Client) AcknowledgeAlert(ctx context.Context, alertID, acknowledgedBy string, at time.Time) error {
	query := `
		UPDATE alertas
		SET reconhecido = TRUE, reconhecido_por = $2, reconhecido_em = $3
		WHERE id = $1 AND reconhecido = FALSE
	`
	_, err := c.pool.Exec(ctx, query, alertID, acknowledgedBy, at)
	return err
}

// GetThresholds reads the active threshold configuration from the config table.
// Keys that are missing or unparsable keep their zero value; the caller decides
// whether to fall back to defaults.
func (c *Client) GetThresholds(ctx context.Context) (models.ThresholdConfig, error) {
	var thresholds models.ThresholdConfig

	rows, err := c.pool.Query(ctx, "SELECT chave, valor FROM configuracoes")
	if err != nil {
		return thresholds, fmt.Errorf("failed to query configuration: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return thresholds, fmt.Errorf("failed to scan configuration row: %w", err)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			if key != SecretConfigKey {
				logrus.Warnf("Skipping non-numeric configuration value for %s", key)
			}
			continue
		}
		switch key {
		case keyMaxBearingTemp:
			thresholds.MaxBearingTemp = v
		case keyMaxOilTemp:
			thresholds.MaxOilTemp = v
		case keyMaxVibrationRMS:
			thresholds.MaxVibrationRMS = v
		case keyMaxPressure:
			thresholds.MaxPressure = v
		case keyMinPressure:
			thresholds.MinPressure = v
		}
	}
	return thresholds, rows.Err()
}

// SetThresholds replaces the stored threshold values
func (c *Client) SetThresholds(ctx context.Context, thresholds models.ThresholdConfig) error {
	entries := map[string]float64{
		keyMaxBearingTemp:  thresholds.MaxBearingTemp,
		keyMaxOilTemp:      thresholds.MaxOilTemp,
		keyMaxVibrationRMS: thresholds.MaxVibrationRMS,
		keyMaxPressure:     thresholds.MaxPressure,
		keyMinPressure:     thresholds.MinPressure,
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for key, value := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO configuracoes (chave, valor) VALUES ($1, $2)
			ON CONFLICT (chave) DO UPDATE SET valor = EXCLUDED.valor
		`, key, strconv.FormatFloat(value, 'f', -1, 64))
		if err != nil {
			return fmt.Errorf("failed to store configuration %s: %w", key, err)
		}
	}
	return tx.Commit(ctx)
}

// GetSecret reads the plaintext access secret that gates configuration writes
func (c *Client) GetSecret(ctx context.Context) (string, error) {
	var secret string
	err := c.pool.QueryRow(ctx,
		"SELECT valor FROM configuracoes WHERE chave = $1", SecretConfigKey,
	).Scan(&secret)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read access secret: %w", err)
	}
	return secret, nil
}
