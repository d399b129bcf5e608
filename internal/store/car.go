package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/driveline-motors/apiserver/types"
)

// CarRepository handles persistence for catalog listings.
type CarRepository struct {
	db *sql.DB
}

func NewCarRepository(db *sql.DB) *CarRepository {
	return &CarRepository{db: db}
}

const carColumns = `id, model, brand, type, manufacture_year, price, engine_capacity,
		wheel_drive_type, engine_type, transmission_type, condition, description,
		images, created_at, updated_at`

func scanCar(scan func(dest ...any) error) (types.Car, error) {
	var car types.Car
	var imagesJSON []byte
	err := scan(
		&car.ID,
		&car.Model,
		&car.Brand,
		&car.Type,
		&car.ManufactureYear,
		&car.Price,
		&car.EngineCapacity,
		&car.WheelDriveType,
		&car.EngineType,
		&car.TransmissionType,
		&car.Condition,
		&car.Description,
		&imagesJSON,
		&car.CreatedAt,
		&car.UpdatedAt,
	)
	if err != nil {
		return types.Car{}, err
	}
	_ = json.Unmarshal(imagesJSON, &car.Images)
	return car, nil
}

func (r *CarRepository) collect(rows *sql.Rows) ([]types.Car, error) {
	defer rows.Close()

	var cars []types.Car
	for rows.Next() {
		car, err := scanCar(rows.Scan)
		if err != nil {
			return nil, err
		}
		cars = append(cars, car)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cars, nil
}

// List returns all listings, newest first.
func (r *CarRepository) List(ctx context.Context) ([]types.Car, error) {
	const query = `
		SELECT ` + carColumns + `
		FROM cars
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// Recent returns the n most recently created listings, newest first.
func (r *CarRepository) Recent(ctx context.Context, n int) ([]types.Car, error) {
	const query = `
		SELECT ` + carColumns + `
		FROM cars
		ORDER BY created_at DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// Search returns listings whose model, brand, type, engine type, transmission
// type, wheel drive type, or condition contains the query, case-insensitively.
func (r *CarRepository) Search(ctx context.Context, q string) ([]types.Car, error) {
	const query = `
		SELECT ` + carColumns + `
		FROM cars
		WHERE model ILIKE $1
			OR brand ILIKE $1
			OR type ILIKE $1
			OR engine_type ILIKE $1
			OR transmission_type ILIKE $1
			OR wheel_drive_type ILIKE $1
			OR condition ILIKE $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, "%"+q+"%")
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *CarRepository) Get(ctx context.Context, id int) (types.Car, error) {
	const query = `
		SELECT ` + carColumns + `
		FROM cars
		WHERE id = $1`
	car, err := scanCar(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Car{}, ErrNotFound
		}
		return types.Car{}, err
	}
	return car, nil
}

func (r *CarRepository) Create(ctx context.Context, car types.Car) (types.Car, error) {
	now := time.Now()
	car.CreatedAt = now
	car.UpdatedAt = now

	imagesJSON, err := json.Marshal(car.Images)
	if err != nil {
		return types.Car{}, err
	}

	const query = `
		INSERT INTO cars (model, brand, type, manufacture_year, price, engine_capacity,
			wheel_drive_type, engine_type, transmission_type, condition, description,
			images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		car.Model,
		car.Brand,
		car.Type,
		car.ManufactureYear,
		car.Price,
		car.EngineCapacity,
		car.WheelDriveType,
		car.EngineType,
		car.TransmissionType,
		car.Condition,
		car.Description,
		imagesJSON,
		car.CreatedAt,
		car.UpdatedAt,
	).Scan(&car.ID); err != nil {
		return types.Car{}, err
	}
	return car, nil
}

func (r *CarRepository) Update(ctx context.Context, car types.Car) (types.Car, error) {
	car.UpdatedAt = time.Now()

	imagesJSON, err := json.Marshal(car.Images)
	if err != nil {
		return types.Car{}, err
	}

	const query = `
		UPDATE cars
		SET model = $1,
			brand = $2,
			type = $3,
			manufacture_year = $4,
			price = $5,
			engine_capacity = $6,
			wheel_drive_type = $7,
			engine_type = $8,
			transmission_type = $9,
			condition = $10,
			description = $11,
			images = $12,
			updated_at = $13
		WHERE id = $14`
	result, err := r.db.ExecContext(
		ctx,
		query,
		car.Model,
		car.Brand,
		car.Type,
		car.ManufactureYear,
		car.Price,
		car.EngineCapacity,
		car.WheelDriveType,
		car.EngineType,
		car.TransmissionType,
		car.Condition,
		car.Description,
		imagesJSON,
		car.UpdatedAt,
		car.ID,
	)
	if err != nil {
		return types.Car{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Car{}, err
	}
	if affected == 0 {
		return types.Car{}, ErrNotFound
	}
	return car, nil
}

func (r *CarRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM cars WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
