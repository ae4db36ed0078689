package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/shule/core/exam"
	"github.com/mwalimu/shule/core/policy"
	"github.com/mwalimu/shule/core/subject"
	"github.com/mwalimu/shule/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, lastName, email, pwd string,
	role policy.Role,
) user.User {
	t.Helper()
	ctx := context.Background()

	r, err := repo.GetRoleByName(ctx, role)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}

	now := time.Now().UTC()
	usr := user.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		RoleID:    r.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
	}
	usr, err = repo.CreateUser(ctx, usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func CreateSubject(t *testing.T, repo subject.Repository, name string, teacherID int) subject.Subject {
	t.Helper()

	now := time.Now().UTC()
	subj := subject.Subject{
		Name:      name,
		Status:    subject.StatusValidation,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if teacherID > 0 {
		subj.TeacherID = null.IntFrom(teacherID)
		subj.Status = subject.StatusLive
	}
	subj, err := repo.CreateSubject(context.Background(), subj)
	if err != nil {
		t.Fatalf("CreateSubject(): %v", err)
	}
	return subj
}

func CreateExam(
	t *testing.T,
	repo exam.Repository,
	examDate time.Time,
	grade string,
	subjectID, studentID, createdBy int,
	status exam.Status,
) exam.Exam {
	t.Helper()

	now := time.Now().UTC()
	exm := exam.Exam{
		ExamDate:  examDate,
		Grade:     grade,
		SubjectID: subjectID,
		StudentID: studentID,
		CreatedBy: createdBy,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	exm, err := repo.CreateExam(context.Background(), exm)
	if err != nil {
		t.Fatalf("CreateExam(): %v", err)
	}
	return exm
}
