package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pharmadocs/pi-extraction-service/internal/models"
)

// Record is one persisted extraction: the reconciled data, the
// per-source diagnostics and pointers to the stored source files.
type Record struct {
	ID            uuid.UUID            `json:"id"`
	InvoiceNo     string               `json:"invoice_no"`
	InvoiceDate   string               `json:"invoice_date"`
	ExporterName  string               `json:"exporter_name"`
	BuyerName     string               `json:"buyer_name"`
	Status        string               `json:"status"`
	Data          models.ExtractedData `json:"data"`
	ExtractionLog models.ExtractionLog `json:"extraction_log,omitempty"`
	PIURL         string               `json:"pi_url,omitempty"`
	MSDSURL       string               `json:"msds_url,omitempty"`
	SpecURL       string               `json:"specification_url,omitempty"`
	OperatorID    uuid.UUID            `json:"operator_id"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     *time.Time           `json:"updated_at,omitempty"`
}

// RecordSummary is the list-view projection.
type RecordSummary struct {
	ID           uuid.UUID `json:"id"`
	InvoiceNo    string    `json:"invoice_no"`
	InvoiceDate  string    `json:"invoice_date"`
	ExporterName string    `json:"exporter_name"`
	BuyerName    string    `json:"buyer_name"`
	Status       string    `json:"status"`
	Positions    int       `json:"positions"`
	CreatedAt    time.Time `json:"created_at"`
}

// Record statuses.
const (
	StatusExtracted = "extracted"
	StatusReviewed  = "reviewed"
	StatusGenerated = "documents_generated"
)

func SaveRecord(ctx context.Context, rec *Record) error {
	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal record data: %w", err)
	}
	logJSON, err := json.Marshal(rec.ExtractionLog)
	if err != nil {
		return fmt.Errorf("failed to marshal extraction log: %w", err)
	}

	query := `
		INSERT INTO extraction_records (
			invoice_no, invoice_date, exporter_name, buyer_name,
			status, data, extraction_log,
			pi_url, msds_url, specification_url, operator_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	return Pool.QueryRow(ctx, query,
		rec.InvoiceNo, rec.InvoiceDate, rec.ExporterName, rec.BuyerName,
		rec.Status, dataJSON, logJSON,
		rec.PIURL, rec.MSDSURL, rec.SpecURL, rec.OperatorID,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func ListRecords(ctx context.Context, limit int) ([]RecordSummary, error) {
	query := `
		SELECT id, COALESCE(invoice_no, ''), COALESCE(invoice_date, ''),
		       COALESCE(exporter_name, ''), COALESCE(buyer_name, ''),
		       COALESCE(status, ''), COALESCE(jsonb_array_length(data->'positions'), 0),
		       created_at
		FROM extraction_records
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RecordSummary
	for rows.Next() {
		var rec RecordSummary
		err := rows.Scan(
			&rec.ID, &rec.InvoiceNo, &rec.InvoiceDate,
			&rec.ExporterName, &rec.BuyerName,
			&rec.Status, &rec.Positions, &rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// GetRecordByID retrieves a single record with the full data payload.
func GetRecordByID(ctx context.Context, recordID string) (*Record, error) {
	query := `
		SELECT id, COALESCE(invoice_no, ''), COALESCE(invoice_date, ''),
		       COALESCE(exporter_name, ''), COALESCE(buyer_name, ''),
		       COALESCE(status, ''), data, COALESCE(extraction_log, '{}'::jsonb),
		       COALESCE(pi_url, ''), COALESCE(msds_url, ''), COALESCE(specification_url, ''),
		       COALESCE(operator_id, '00000000-0000-0000-0000-000000000000'::uuid),
		       created_at, updated_at
		FROM extraction_records
		WHERE id = $1
	`

	var rec Record
	var dataJSON, logJSON []byte
	err := Pool.QueryRow(ctx, query, recordID).Scan(
		&rec.ID, &rec.InvoiceNo, &rec.InvoiceDate,
		&rec.ExporterName, &rec.BuyerName,
		&rec.Status, &dataJSON, &logJSON,
		&rec.PIURL, &rec.MSDSURL, &rec.SpecURL,
		&rec.OperatorID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dataJSON, &rec.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record data: %w", err)
	}
	if err := json.Unmarshal(logJSON, &rec.ExtractionLog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extraction log: %w", err)
	}
	return &rec, nil
}

// UpdateRecordData replaces the reviewed data payload and refreshes
// the denormalized summary columns.
func UpdateRecordData(ctx context.Context, recordID string, data models.ExtractedData, status string) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal record data: %w", err)
	}

	query := `
		UPDATE extraction_records
		SET data = $1, invoice_no = $2, invoice_date = $3,
		    exporter_name = $4, buyer_name = $5, status = $6, updated_at = $7
		WHERE id = $8
	`
	_, err = Pool.Exec(ctx, query,
		dataJSON, data.InvoiceNo, data.InvoiceDate,
		data.ExporterName, data.BuyerName, status, time.Now(), recordID,
	)
	return err
}

// updatableColumns guards the dynamic UPDATE against arbitrary column
// names from the request body.
var updatableColumns = map[string]bool{
	"status":            true,
	"pi_url":            true,
	"msds_url":          true,
	"specification_url": true,
}

// UpdateRecordFields updates scalar columns by name.
func UpdateRecordFields(ctx context.Context, recordID string, updates map[string]interface{}) error {
	sets := []string{}
	args := []interface{}{}
	i := 1
	for key, value := range updates {
		if !updatableColumns[key] {
			return fmt.Errorf("column %s is not updatable", key)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", key, i))
		args = append(args, value)
		i++
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", i))
	args = append(args, time.Now())
	i++

	args = append(args, recordID)

	query := fmt.Sprintf("UPDATE extraction_records SET %s WHERE id = $%d",
		strings.Join(sets, ", "), i)

	_, err := Pool.Exec(ctx, query, args...)
	return err
}

// DeleteRecord removes a record.
func DeleteRecord(ctx context.Context, recordID string) error {
	_, err := Pool.Exec(ctx, "DELETE FROM extraction_records WHERE id = $1", recordID)
	return err
}
