package dummydb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/exam"
)

type examRepository struct {
	db *DB
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *DB) *examRepository {
	return &examRepository{db: db}
}

func (repo *examRepository) CreateExam(ctx context.Context, exm exam.Exam) (exam.Exam, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, cur := range repo.db.exams {
		if cur.SubjectID == exm.SubjectID && cur.StudentID == exm.StudentID && cur.ExamDate.Equal(exm.ExamDate) {
			return exam.Exam{}, exam.ErrDuplicate
		}
	}
	if _, ok := repo.db.subjects[exm.SubjectID]; !ok {
		return exam.Exam{}, core.NewForeignKeyError(fmt.Sprintf("referenced record does not exist (subject %d)", exm.SubjectID))
	}
	if _, ok := repo.db.users[exm.StudentID]; !ok {
		return exam.Exam{}, core.NewForeignKeyError(fmt.Sprintf("referenced record does not exist (student %d)", exm.StudentID))
	}

	repo.db.examSeq++
	exm.ID = repo.db.examSeq
	repo.db.exams[exm.ID] = exm
	return repo.withSubjectTeacher(exm), nil
}

func (repo *examRepository) GetExamByID(ctx context.Context, id int) (exam.Exam, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	exm, ok := repo.db.exams[id]
	if !ok {
		return exam.Exam{}, exam.ErrNotFound
	}
	return repo.withSubjectTeacher(exm), nil
}

func (repo *examRepository) QueryExams(ctx context.Context, args core.ListArgs) ([]exam.Exam, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	all := make([]exam.Exam, 0, len(repo.db.exams))
	for _, exm := range repo.db.exams {
		exm := exm
		if matches(args.Where, func(key string) interface{} {
			switch key {
			case "id":
				return exm.ID
			case "status":
				return string(exm.Status)
			case "grade":
				return exm.Grade
			case "subject_id":
				return exm.SubjectID
			case "student_id":
				return exm.StudentID
			case "created_by":
				return exm.CreatedBy
			}
			return nil
		}) {
			all = append(all, exm)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	lo, hi := pageBounds(len(all), args)
	return all[lo:hi], len(all), nil
}

func (repo *examRepository) UpdateExamGrade(ctx context.Context, id int, grade string) (exam.Exam, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	exm, ok := repo.db.exams[id]
	if !ok {
		return exam.Exam{}, exam.ErrNotFound
	}

	exm.Grade = grade
	exm.UpdatedAt = time.Now().UTC()
	repo.db.exams[id] = exm
	return repo.withSubjectTeacher(exm), nil
}

func (repo *examRepository) CancelExam(ctx context.Context, id int) (exam.Exam, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	exm, ok := repo.db.exams[id]
	if !ok {
		return exam.Exam{}, exam.ErrNotFound
	}

	exm.Status = exam.StatusCancelled
	exm.UpdatedAt = time.Now().UTC()
	repo.db.exams[id] = exm
	return repo.withSubjectTeacher(exm), nil
}

func (repo *examRepository) SubjectIDsByTeacher(ctx context.Context, teacherID int) ([]int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ids := make([]int, 0)
	for _, subj := range repo.db.subjects {
		if subj.TeacherID.Valid && subj.TeacherID.Int == teacherID {
			ids = append(ids, subj.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// withSubjectTeacher resolves the subject's current teacher onto the record,
// like the sql join does.
func (repo *examRepository) withSubjectTeacher(exm exam.Exam) exam.Exam {
	exm.SubjectTeacherID = null.Int{}
	if subj, ok := repo.db.subjects[exm.SubjectID]; ok && subj.TeacherID.Valid {
		exm.SubjectTeacherID = null.IntFrom(subj.TeacherID.Int)
	}
	return exm
}
