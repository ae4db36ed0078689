package dummydb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/subject"
)

type subjectRepository struct {
	db *DB
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(db *DB) *subjectRepository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkNameUniqueness(subj.Name, 0); err != nil {
		return subject.Subject{}, err
	}
	if subj.TeacherID.Valid {
		if _, ok := repo.db.users[subj.TeacherID.Int]; !ok {
			return subject.Subject{}, core.NewForeignKeyError(
				fmt.Sprintf("referenced record does not exist (teacher %d)", subj.TeacherID.Int))
		}
	}

	repo.db.subjectSeq++
	subj.ID = repo.db.subjectSeq
	repo.db.subjects[subj.ID] = subj
	return subj, nil
}

func (repo *subjectRepository) checkNameUniqueness(name string, exclID int) error {
	for _, subj := range repo.db.subjects {
		if subj.ID != exclID && subj.Name == name {
			return subject.ErrNameExists
		}
	}
	return nil
}

func (repo *subjectRepository) GetSubjectByID(ctx context.Context, id int) (subject.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subj, ok := repo.db.subjects[id]
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	return subj, nil
}

func (repo *subjectRepository) QuerySubjects(ctx context.Context, args core.ListArgs) ([]subject.Subject, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	all := make([]subject.Subject, 0, len(repo.db.subjects))
	for _, subj := range repo.db.subjects {
		subj := subj
		if matches(args.Where, func(key string) interface{} {
			switch key {
			case "id":
				return subj.ID
			case "name":
				return subj.Name
			case "status":
				return string(subj.Status)
			case "teacher_id":
				return subj.TeacherID.Int // zero when unset, like the dropped filter
			}
			return nil
		}) {
			all = append(all, subj)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	lo, hi := pageBounds(len(all), args)
	return all[lo:hi], len(all), nil
}

func (repo *subjectRepository) RenameSubject(ctx context.Context, id int, name string) (subject.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	subj, ok := repo.db.subjects[id]
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	if err := repo.checkNameUniqueness(name, id); err != nil {
		return subject.Subject{}, err
	}

	subj.Name = name
	subj.UpdatedAt = time.Now().UTC()
	repo.db.subjects[id] = subj
	return subj, nil
}

func (repo *subjectRepository) ArchiveSubject(ctx context.Context, id int) (subject.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	subj, ok := repo.db.subjects[id]
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}

	subj.Status = subject.StatusArchived
	subj.TeacherID = null.Int{}
	subj.UpdatedAt = time.Now().UTC()
	repo.db.subjects[id] = subj
	return subj, nil
}

func (repo *subjectRepository) AssignTeacher(ctx context.Context, id, teacherID int) (subject.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	subj, ok := repo.db.subjects[id]
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	if subj.TeacherID.Valid {
		return subject.Subject{}, subject.ErrTeacherAlreadySet
	}
	return repo.setTeacher(subj, teacherID)
}

func (repo *subjectRepository) ReassignTeacher(ctx context.Context, id, teacherID int) (subject.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	subj, ok := repo.db.subjects[id]
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	return repo.setTeacher(subj, teacherID)
}

func (repo *subjectRepository) setTeacher(subj subject.Subject, teacherID int) (subject.Subject, error) {
	if _, ok := repo.db.users[teacherID]; !ok {
		return subject.Subject{}, core.NewForeignKeyError(
			fmt.Sprintf("referenced record does not exist (teacher %d)", teacherID))
	}

	subj.TeacherID = null.IntFrom(teacherID)
	subj.Status = subject.StatusLive
	subj.UpdatedAt = time.Now().UTC()
	repo.db.subjects[subj.ID] = subj
	return subj, nil
}
