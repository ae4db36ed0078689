package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/subject"
)

const subjectCols = `s.id, s.name, s.teacher_id, s.status, s.created_at, s.updated_at`

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(db *sql.DB) *subjectRepository {
	return &subjectRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	query := `
	INSERT INTO subjects (name, teacher_id, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id`

	var id int
	err := repo.db.GetContext(ctx, &id, query,
		subj.Name, subj.TeacherID, subj.Status, subj.CreatedAt, subj.UpdatedAt,
	)
	if err != nil {
		return subject.Subject{}, trapConstraintErr(err, subject.ErrNameExists, "inserting subject")
	}
	return repo.GetSubjectByID(ctx, id)
}

func (repo *subjectRepository) GetSubjectByID(ctx context.Context, id int) (subject.Subject, error) {
	query := `SELECT ` + subjectCols + ` FROM subjects s WHERE s.id = $1`

	var subj subject.Subject
	if err := repo.db.GetContext(ctx, &subj, query, id); err != nil {
		return subject.Subject{}, trapNoRowsErr(err, subject.ErrNotFound, "selecting subject by id")
	}
	return subj, nil
}

func (repo *subjectRepository) QuerySubjects(ctx context.Context, args core.ListArgs) ([]subject.Subject, int, error) {
	whereClause, vals := buildWhere("s", args.Where)

	countQuery, countArgs, err := bindQuery(repo.db, `SELECT count(*) FROM subjects s`+whereClause, vals)
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "counting subjects")
	}

	query := `SELECT ` + subjectCols + ` FROM subjects s` + whereClause + ` ORDER BY s.id` + pageClause(args)
	query, queryArgs, err := bindQuery(repo.db, query, vals)
	if err != nil {
		return nil, 0, err
	}

	subjs := make([]subject.Subject, 0)
	if err := repo.db.SelectContext(ctx, &subjs, query, queryArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "querying subjects")
	}
	return subjs, count, nil
}

func (repo *subjectRepository) RenameSubject(ctx context.Context, id int, name string) (subject.Subject, error) {
	query := `UPDATE subjects SET name = $1, updated_at = now() WHERE id = $2 RETURNING id`

	var updatedID int
	if err := repo.db.GetContext(ctx, &updatedID, query, name, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, trapConstraintErr(err, subject.ErrNameExists, "renaming subject")
	}
	return repo.GetSubjectByID(ctx, updatedID)
}

func (repo *subjectRepository) ArchiveSubject(ctx context.Context, id int) (subject.Subject, error) {
	query := `
	UPDATE subjects
	SET status = $1, teacher_id = NULL, updated_at = now()
	WHERE id = $2
	RETURNING id`

	var updatedID int
	if err := repo.db.GetContext(ctx, &updatedID, query, subject.StatusArchived, id); err != nil {
		return subject.Subject{}, trapNoRowsErr(err, subject.ErrNotFound, "archiving subject")
	}
	return repo.GetSubjectByID(ctx, updatedID)
}

// AssignTeacher relies on the database for the race: the update only matches
// an empty teacher slot, so concurrent assigns cannot both win.
func (repo *subjectRepository) AssignTeacher(ctx context.Context, id, teacherID int) (subject.Subject, error) {
	query := `
	UPDATE subjects
	SET teacher_id = $1, status = $2, updated_at = now()
	WHERE id = $3 AND teacher_id IS NULL
	RETURNING id`

	var updatedID int
	err := repo.db.GetContext(ctx, &updatedID, query, teacherID, subject.StatusLive, id)
	if err == nil {
		return repo.GetSubjectByID(ctx, updatedID)
	}
	if errors.Cause(err) != sql.ErrNoRows {
		return subject.Subject{}, trapConstraintErr(err, subject.ErrNameExists, "assigning teacher")
	}

	// no row matched: either the subject is missing or the slot is taken
	if _, err := repo.GetSubjectByID(ctx, id); err != nil {
		return subject.Subject{}, err
	}
	return subject.Subject{}, subject.ErrTeacherAlreadySet
}

func (repo *subjectRepository) ReassignTeacher(ctx context.Context, id, teacherID int) (subject.Subject, error) {
	query := `
	UPDATE subjects
	SET teacher_id = $1, status = $2, updated_at = now()
	WHERE id = $3
	RETURNING id`

	var updatedID int
	if err := repo.db.GetContext(ctx, &updatedID, query, teacherID, subject.StatusLive, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, trapConstraintErr(err, subject.ErrNameExists, "reassigning teacher")
	}
	return repo.GetSubjectByID(ctx, updatedID)
}
