package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/exam"
)

const examCols = `e.id, e.exam_date, e.grade, e.subject_id, e.student_id, e.created_by, e.status, e.created_at, e.updated_at`

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *sql.DB) *examRepository {
	return &examRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo *examRepository) CreateExam(ctx context.Context, exm exam.Exam) (exam.Exam, error) {
	query := `
	INSERT INTO exams (exam_date, grade, subject_id, student_id, created_by, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`

	var id int
	err := repo.db.GetContext(ctx, &id, query,
		exm.ExamDate, exm.Grade, exm.SubjectID, exm.StudentID, exm.CreatedBy, exm.Status, exm.CreatedAt, exm.UpdatedAt,
	)
	if err != nil {
		return exam.Exam{}, trapConstraintErr(err, exam.ErrDuplicate, "inserting exam")
	}
	return repo.GetExamByID(ctx, id)
}

// GetExamByID joins the subject so the record carries the subject's current
// teacher for ownership checks.
func (repo *examRepository) GetExamByID(ctx context.Context, id int) (exam.Exam, error) {
	query := `
	SELECT ` + examCols + `, s.teacher_id AS subject_teacher_id
	FROM exams e
	JOIN subjects s ON s.id = e.subject_id
	WHERE e.id = $1`

	var exm exam.Exam
	if err := repo.db.GetContext(ctx, &exm, query, id); err != nil {
		return exam.Exam{}, trapNoRowsErr(err, exam.ErrNotFound, "selecting exam by id")
	}
	return exm, nil
}

func (repo *examRepository) QueryExams(ctx context.Context, args core.ListArgs) ([]exam.Exam, int, error) {
	whereClause, vals := buildWhere("e", args.Where)

	countQuery, countArgs, err := bindQuery(repo.db, `SELECT count(*) FROM exams e`+whereClause, vals)
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "counting exams")
	}

	query := `SELECT ` + examCols + ` FROM exams e` + whereClause + ` ORDER BY e.id` + pageClause(args)
	query, queryArgs, err := bindQuery(repo.db, query, vals)
	if err != nil {
		return nil, 0, err
	}

	exms := make([]exam.Exam, 0)
	if err := repo.db.SelectContext(ctx, &exms, query, queryArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "querying exams")
	}
	return exms, count, nil
}

func (repo *examRepository) UpdateExamGrade(ctx context.Context, id int, grade string) (exam.Exam, error) {
	query := `UPDATE exams SET grade = $1, updated_at = now() WHERE id = $2 RETURNING id`

	var updatedID int
	if err := repo.db.GetContext(ctx, &updatedID, query, grade, id); err != nil {
		return exam.Exam{}, trapNoRowsErr(err, exam.ErrNotFound, "updating exam grade")
	}
	return repo.GetExamByID(ctx, updatedID)
}

func (repo *examRepository) CancelExam(ctx context.Context, id int) (exam.Exam, error) {
	query := `UPDATE exams SET status = $1, updated_at = now() WHERE id = $2 RETURNING id`

	var updatedID int
	if err := repo.db.GetContext(ctx, &updatedID, query, exam.StatusCancelled, id); err != nil {
		return exam.Exam{}, trapNoRowsErr(err, exam.ErrNotFound, "cancelling exam")
	}
	return repo.GetExamByID(ctx, updatedID)
}

func (repo *examRepository) SubjectIDsByTeacher(ctx context.Context, teacherID int) ([]int, error) {
	ids := make([]int, 0)
	err := repo.db.SelectContext(ctx, &ids, `SELECT id FROM subjects WHERE teacher_id = $1 ORDER BY id`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting subjects by teacher")
	}
	return ids, nil
}
