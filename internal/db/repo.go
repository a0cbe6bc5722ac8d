package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"trialfunnel/pkg"
)

// Repository wraps database access for the trial reference data.  The data
// is written once (by the importer) and read once at process start; the
// request path never touches the database.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// LoadTrials reads the full trial catalog.
func (r *Repository) LoadTrials(ctx context.Context) ([]pkg.Trial, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT nct_id, conditions, title FROM trials ORDER BY nct_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var trials []pkg.Trial
	for rows.Next() {
		var t pkg.Trial
		var title string
		if err := rows.Scan(&t.ID, &t.Conditions, &title); err != nil {
			return nil, err
		}
		if title != "" {
			t.Fields = map[string]string{"title": title}
		}
		trials = append(trials, t)
	}
	return trials, rows.Err()
}

// LoadEligibility reads all eligibility relations.  The relation payload is
// kept serialized; decoding happens at evaluation time.
func (r *Repository) LoadEligibility(ctx context.Context) ([]pkg.EligibilityRow, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT nct_id, question, variable_type, relation
         FROM eligibility_relations
         ORDER BY nct_id, question`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []pkg.EligibilityRow
	for rows.Next() {
		var row pkg.EligibilityRow
		var vt, relation string
		if err := rows.Scan(&row.TrialID, &row.Question, &vt, &relation); err != nil {
			return nil, err
		}
		row.Relation = pkg.EligibilityRelation{
			VariableType: pkg.VariableType(vt),
			Payload:      json.RawMessage(relation),
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ImportTrials upserts trial records, used by the CLI importer.
func (r *Repository) ImportTrials(ctx context.Context, trials []pkg.Trial) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trials (nct_id, conditions, title)
         VALUES ($1, $2, $3)
         ON CONFLICT (nct_id) DO UPDATE
         SET conditions = EXCLUDED.conditions, title = EXCLUDED.title`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, t := range trials {
		if _, err := stmt.ExecContext(ctx, t.ID, t.Conditions, t.Fields["title"]); err != nil {
			return fmt.Errorf("importing trial %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// ImportEligibility upserts eligibility relations, used by the CLI importer.
func (r *Repository) ImportEligibility(ctx context.Context, rows []pkg.EligibilityRow) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO eligibility_relations (nct_id, question, variable_type, relation)
         VALUES ($1, $2, $3, $4)
         ON CONFLICT (nct_id, question) DO UPDATE
         SET variable_type = EXCLUDED.variable_type, relation = EXCLUDED.relation`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.TrialID, row.Question,
			string(row.Relation.VariableType), string(row.Relation.Payload)); err != nil {
			return fmt.Errorf("importing relation for %s: %w", row.TrialID, err)
		}
	}
	return tx.Commit()
}
