package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

type TeacherRepository struct {
	db *sql.DB
}

func NewTeacherRepository(db *sql.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

func (r *TeacherRepository) GetProfile(ctx context.Context, teacherID string) (*domain.TeacherProfile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, COALESCE(name, ''), grade, subject, location, COALESCE(crp_id, ''), last_active
FROM teachers
WHERE id = $1
`, teacherID)

	var profile domain.TeacherProfile
	var lastActive sql.NullTime

	err := row.Scan(
		&profile.ID, &profile.Name, &profile.Grade, &profile.Subject,
		&profile.Location, &profile.CRPID, &lastActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("teacher not found: %s", teacherID)
		}
		return nil, fmt.Errorf("scan teacher profile: %w", err)
	}
	if lastActive.Valid {
		t := lastActive.Time
		profile.LastActive = &t
	}
	return &profile, nil
}
