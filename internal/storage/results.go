package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ResultRecord is one persisted simulation run: the sizes it ran with and the
// statistics the simulation service returned.
type ResultRecord struct {
	ID                   int       `json:"id"`
	ConfigurationName    string    `json:"configuration_name,omitempty"`
	DeckSize             int       `json:"deck_size"`
	HandSize             int       `json:"hand_size"`
	Simulations          int       `json:"simulations"`
	SuccessRate          float64   `json:"success_rate"`
	BrickRate            float64   `json:"brick_rate"`
	SuccessCount         int       `json:"success_count"`
	BrickCount           int       `json:"brick_count"`
	TimeTaken            float64   `json:"time_taken"`
	MaxDepthReachedCount int       `json:"max_depth_reached_count"`
	Warnings             []string  `json:"warnings"`
	CreatedAt            time.Time `json:"created_at"`
}

// ResultRepository handles database operations for simulation result history.
type ResultRepository struct {
	db *sql.DB
}

// NewResultRepository creates a new result repository.
func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Insert stores a result record and fills in its ID and CreatedAt.
func (r *ResultRepository) Insert(record *ResultRecord) error {
	now := time.Now().UTC()

	warnings := "[]"
	if record.Warnings != nil {
		data, err := json.Marshal(record.Warnings)
		if err != nil {
			return fmt.Errorf("marshal warnings: %w", err)
		}
		warnings = string(data)
	}

	result, err := r.db.Exec(`
		INSERT INTO simulation_results (
			configuration_name, deck_size, hand_size, simulations,
			success_rate, brick_rate, success_count, brick_count,
			time_taken, max_depth_reached_count, warnings, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ConfigurationName, record.DeckSize, record.HandSize, record.Simulations,
		record.SuccessRate, record.BrickRate, record.SuccessCount, record.BrickCount,
		record.TimeTaken, record.MaxDepthReachedCount, warnings, now.Format(sqliteTimeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert simulation result: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get result id: %w", err)
	}
	record.ID = int(id)
	record.CreatedAt = now
	return nil
}

// Recent returns up to limit results, newest first.
func (r *ResultRepository) Recent(limit int) ([]*ResultRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, configuration_name, deck_size, hand_size, simulations,
			success_rate, brick_rate, success_count, brick_count,
			time_taken, max_depth_reached_count, warnings, created_at
		FROM simulation_results
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query simulation results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*ResultRecord
	for rows.Next() {
		record, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulation results: %w", err)
	}
	return records, nil
}

func scanResult(rows *sql.Rows) (*ResultRecord, error) {
	var record ResultRecord
	var configName sql.NullString
	var warnings, createdAt string

	err := rows.Scan(
		&record.ID, &configName, &record.DeckSize, &record.HandSize, &record.Simulations,
		&record.SuccessRate, &record.BrickRate, &record.SuccessCount, &record.BrickCount,
		&record.TimeTaken, &record.MaxDepthReachedCount, &warnings, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan simulation result: %w", err)
	}

	record.ConfigurationName = configName.String
	if err := json.Unmarshal([]byte(warnings), &record.Warnings); err != nil {
		record.Warnings = []string{}
	}
	if record.CreatedAt, err = time.Parse(sqliteTimeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &record, nil
}
