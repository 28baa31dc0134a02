package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"herd-reproduction/internal/domain/animals"
)

// Esquema esperado:
//
//	animals(id text pk, farm_id, name, tag_id, gender, breed,
//	        birth_date date, status, sire_id, dam_id, notes,
//	        created_at, updated_at)
//	reproduction_records(id text pk, animal_id fk, seq int, date date, type,
//	        mate_id, notes, heat_intensity, offspring_count, outcome,
//	        ultrasound_result)
//	health_records(id text pk, animal_id fk, seq int, date date, kind,
//	        description, notes)
//	weight_records(id text pk, animal_id fk, seq int, date date, kg)
//
// seq preserva el orden de inserción del array embebido del documento
// original; las filas por animal son la vista relacional de ese array.
type AnimalsRepo struct {
	db *sql.DB
}

func NewAnimalsRepo(db *sql.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO animals (
			id, farm_id, name, tag_id, gender, breed,
			birth_date, status, sire_id, dam_id, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		a.ID, a.FarmID, a.Name, a.TagID, string(a.Gender), a.Breed,
		a.BirthDate, string(a.Status), a.SireID, a.DamID, a.Notes,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertReproduction(ctx, tx, a.ID, a.ReproductionRecords); err != nil {
		return err
	}
	if err := insertHealth(ctx, tx, a.ID, a.HealthRecords); err != nil {
		return err
	}
	if err := insertWeights(ctx, tx, a.ID, a.WeightRecords); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.Animal{}, animals.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, farm_id, name, tag_id, gender, breed,
		       birth_date, status, sire_id, dam_id, notes,
		       created_at, updated_at
		FROM animals
		WHERE id = $1
	`, id)

	a, err := scanAnimal(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return animals.Animal{}, animals.ErrNotFound
		}
		return animals.Animal{}, err
	}

	if a.ReproductionRecords, err = r.loadReproduction(ctx, id); err != nil {
		return animals.Animal{}, err
	}
	if a.HealthRecords, err = r.loadHealth(ctx, id); err != nil {
		return animals.Animal{}, err
	}
	if a.WeightRecords, err = r.loadWeights(ctx, id); err != nil {
		return animals.Animal{}, err
	}

	return a, nil
}

func (r *AnimalsRepo) List(ctx context.Context, filter animals.ListFilter) ([]animals.Animal, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT id, farm_id, name, tag_id, gender, breed,
		       birth_date, status, sire_id, dam_id, notes,
		       created_at, updated_at
		FROM animals
		WHERE 1=1
	`)

	args := []any{}
	argN := 1

	if filter.Status != "" {
		sb.WriteString(fmt.Sprintf(" AND status = $%d", argN))
		args = append(args, string(filter.Status))
		argN++
	}
	if filter.Gender != "" {
		sb.WriteString(fmt.Sprintf(" AND gender = $%d", argN))
		args = append(args, string(filter.Gender))
		argN++
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		sb.WriteString(fmt.Sprintf(" AND (name ILIKE $%d OR tag_id ILIKE $%d)", argN, argN))
		args = append(args, "%"+q+"%")
		argN++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	sb.WriteString(" ORDER BY created_at ASC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// El listado no carga historiales (solo conteos tendría sentido;
	// hoy el handler solo muestra longitudes, que quedan en 0 acá).
	// Las lecturas de detalle usan GetByID.
	return out, nil
}

// Update aplica el merge parcial. Los arrays incluidos se reemplazan
// completos (delete + insert en una transacción): mismo contrato de
// full-array replace que el documento embebido.
func (r *AnimalsRepo) Update(ctx context.Context, id string, fields animals.UpdateFields) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	sets := []string{}
	args := []any{}
	argN := 1

	addSet := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argN))
		args = append(args, v)
		argN++
	}

	if fields.Name != nil {
		addSet("name", *fields.Name)
	}
	if fields.Status != nil {
		addSet("status", string(*fields.Status))
	}
	if fields.Breed != nil {
		addSet("breed", *fields.Breed)
	}
	if fields.Notes != nil {
		addSet("notes", *fields.Notes)
	}
	if fields.SireID != nil {
		addSet("sire_id", *fields.SireID)
	}
	if fields.DamID != nil {
		addSet("dam_id", *fields.DamID)
	}
	if fields.UpdatedAt != nil {
		addSet("updated_at", *fields.UpdatedAt)
	}

	if len(sets) > 0 {
		query := fmt.Sprintf("UPDATE animals SET %s WHERE id = $%d", strings.Join(sets, ", "), argN)
		args = append(args, id)

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return animals.ErrNotFound
		}
	} else {
		// Solo arrays: igual verificamos que el animal exista.
		var exists string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM animals WHERE id = $1`, id).Scan(&exists); err != nil {
			if err == sql.ErrNoRows {
				return animals.ErrNotFound
			}
			return err
		}
	}

	if fields.ReproductionRecords != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM reproduction_records WHERE animal_id = $1`, id); err != nil {
			return err
		}
		if err := insertReproduction(ctx, tx, id, *fields.ReproductionRecords); err != nil {
			return err
		}
	}
	if fields.HealthRecords != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM health_records WHERE animal_id = $1`, id); err != nil {
			return err
		}
		if err := insertHealth(ctx, tx, id, *fields.HealthRecords); err != nil {
			return err
		}
	}
	if fields.WeightRecords != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM weight_records WHERE animal_id = $1`, id); err != nil {
			return err
		}
		if err := insertWeights(ctx, tx, id, *fields.WeightRecords); err != nil {
			return err
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnimal(row rowScanner) (animals.Animal, error) {
	var a animals.Animal
	var gender, status string

	err := row.Scan(
		&a.ID, &a.FarmID, &a.Name, &a.TagID, &gender, &a.Breed,
		&a.BirthDate, &status, &a.SireID, &a.DamID, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return animals.Animal{}, err
	}

	a.Gender = animals.Gender(gender)
	a.Status = animals.Status(status)
	a.BirthDate = a.BirthDate.UTC()
	return a, nil
}

func (r *AnimalsRepo) loadReproduction(ctx context.Context, animalID string) ([]animals.ReproductionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, type, mate_id, notes,
		       heat_intensity, offspring_count, outcome, ultrasound_result
		FROM reproduction_records
		WHERE animal_id = $1
		ORDER BY seq ASC
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.ReproductionRecord, 0)
	for rows.Next() {
		var rec animals.ReproductionRecord
		var typ, heat, ultrasound string

		if err := rows.Scan(
			&rec.ID, &rec.Date, &typ, &rec.MateID, &rec.Notes,
			&heat, &rec.OffspringCount, &rec.Outcome, &ultrasound,
		); err != nil {
			return nil, err
		}

		rec.Type = animals.RecordType(typ)
		rec.HeatIntensity = animals.HeatIntensity(heat)
		rec.UltrasoundResult = animals.UltrasoundResult(ultrasound)
		rec.Date = rec.Date.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *AnimalsRepo) loadHealth(ctx context.Context, animalID string) ([]animals.HealthRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, kind, description, notes
		FROM health_records
		WHERE animal_id = $1
		ORDER BY seq ASC
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.HealthRecord, 0)
	for rows.Next() {
		var rec animals.HealthRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Kind, &rec.Description, &rec.Notes); err != nil {
			return nil, err
		}
		rec.Date = rec.Date.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *AnimalsRepo) loadWeights(ctx context.Context, animalID string) ([]animals.WeightRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, kg
		FROM weight_records
		WHERE animal_id = $1
		ORDER BY seq ASC
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.WeightRecord, 0)
	for rows.Next() {
		var rec animals.WeightRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Kg); err != nil {
			return nil, err
		}
		rec.Date = rec.Date.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func insertReproduction(ctx context.Context, tx *sql.Tx, animalID string, records []animals.ReproductionRecord) error {
	for i, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reproduction_records (
				id, animal_id, seq, date, type, mate_id, notes,
				heat_intensity, offspring_count, outcome, ultrasound_result
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			rec.ID, animalID, i, rec.Date, string(rec.Type), rec.MateID, rec.Notes,
			string(rec.HeatIntensity), rec.OffspringCount, rec.Outcome, string(rec.UltrasoundResult),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertHealth(ctx context.Context, tx *sql.Tx, animalID string, records []animals.HealthRecord) error {
	for i, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO health_records (id, animal_id, seq, date, kind, description, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, rec.ID, animalID, i, rec.Date, rec.Kind, rec.Description, rec.Notes)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertWeights(ctx context.Context, tx *sql.Tx, animalID string, records []animals.WeightRecord) error {
	for i, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO weight_records (id, animal_id, seq, date, kg)
			VALUES ($1,$2,$3,$4,$5)
		`, rec.ID, animalID, i, rec.Date, rec.Kg)
		if err != nil {
			return err
		}
	}
	return nil
}
