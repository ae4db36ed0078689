package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/mwalimu/shule/core/exam"
	"github.com/mwalimu/shule/core/policy"
	testutil "github.com/mwalimu/shule/tests"
)

func Test_examApi_create(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "Musa", "admin@shule.cd", "", policy.RoleAdmin)
	teacher := testutil.CreateUser(t, usrRepo, "Teach", "Amani", "teach@shule.cd", "", policy.RoleTeacher)
	idle := testutil.CreateUser(t, usrRepo, "Idle", "Kwete", "idle@shule.cd", "", policy.RoleTeacher) // teaches nothing
	student := testutil.CreateUser(t, usrRepo, "Hero", "Mwema", "hero@shule.cd", "", policy.RoleStudent)
	maths := testutil.CreateSubject(t, subjRepo, "Maths", teacher.ID)
	physics := testutil.CreateSubject(t, subjRepo, "Physics", 0)

	examDate := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)
	body := func(grade string, subjectID, studentID int, status string) []byte {
		return marchallObj(t, exam.NewExam{
			ExamDate:  examDate,
			Grade:     grade,
			SubjectID: subjectID,
			StudentID: studentID,
			Status:    status,
		})
	}

	tests := []httpTest{
		{name: "Auth required", body: body("A", maths.ID, student.ID, ""), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required (student)", token: getToken(t, student), body: body("A", maths.ID, student.ID, ""),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Teacher required (admin)", token: getToken(t, admin), body: body("A", maths.ID, student.ID, ""),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "teacher with no subjects", token: getToken(t, idle), body: body("A", maths.ID, student.ID, ""),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: fmt.Sprintf("no subjects found for teacher %d", idle.ID)}),
		},
		{
			name: "not the subject's teacher", token: getToken(t, teacher), body: body("A", physics.ID, student.ID, ""),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: fmt.Sprintf("only the teacher of subject %d may add an exam record for it", physics.ID)}),
		},
		{name: "invalid grade", token: getToken(t, teacher), body: body("F", maths.ID, student.ID, ""), wantCode: http.StatusBadRequest},
		{name: "invalid status", token: getToken(t, teacher), body: body("A", maths.ID, student.ID, "pending"), wantCode: http.StatusBadRequest},
		{name: "ok", token: getToken(t, teacher), body: body("B", maths.ID, student.ID, ""), wantCode: http.StatusCreated},
		{
			name: "duplicate student/subject/date", token: getToken(t, teacher), body: body("A", maths.ID, student.ID, ""),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "an exam for this student, subject and date already exists"}),
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/exams", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusCreated {
				var respData exam.Exam
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				// the author is always the acting teacher, never the payload
				if respData.CreatedBy != teacher.ID {
					t.Errorf("failed! createdBy = %v; want %v", respData.CreatedBy, teacher.ID)
				}
				if respData.Status != exam.StatusValid {
					t.Errorf("failed! status = %v; want %v", respData.Status, exam.StatusValid)
				}
			}
		})
	}
}

func Test_examApi_query(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "Musa", "admin@shule.cd", "", policy.RoleAdmin)
	teacher := testutil.CreateUser(t, usrRepo, "Teach", "Amani", "teach@shule.cd", "", policy.RoleTeacher)
	student1 := testutil.CreateUser(t, usrRepo, "Hero", "Mwema", "hero@shule.cd", "", policy.RoleStudent)
	student2 := testutil.CreateUser(t, usrRepo, "King", "Zola", "king@shule.cd", "", policy.RoleStudent)
	maths := testutil.CreateSubject(t, subjRepo, "Maths", teacher.ID)

	examDate := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)
	exm1 := testutil.CreateExam(t, examRepo, examDate, "A", maths.ID, student1.ID, teacher.ID, exam.StatusValid)
	exm2 := testutil.CreateExam(t, examRepo, examDate, "C", maths.ID, student2.ID, teacher.ID, exam.StatusValid)
	exm3 := testutil.CreateExam(t, examRepo, examDate.AddDate(0, 0, 7), "B", maths.ID, student1.ID, teacher.ID, exam.StatusCancelled)

	path := func(params map[string]string) string {
		v := make(url.Values)
		for key, val := range params {
			v.Add(key, val)
		}
		if len(v) == 0 {
			return "/v1/exams"
		}
		return "/v1/exams?" + v.Encode()
	}

	tests := []httpTest{
		{name: "Auth required", path: "/v1/exams", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin sees all", path: "/v1/exams", token: getToken(t, admin),
			wantData: marchallObj(t, listData{Count: 3, Results: []exam.Exam{exm1, exm2, exm3}}),
		},
		{
			name: "teacher sees all", path: "/v1/exams", token: getToken(t, teacher),
			wantData: marchallObj(t, listData{Count: 3, Results: []exam.Exam{exm1, exm2, exm3}}),
		},
		{
			name: "student sees own only", path: "/v1/exams", token: getToken(t, student1),
			wantData: marchallObj(t, listData{Count: 2, Results: []exam.Exam{exm1, exm3}}),
		},
		{
			// the scope overrides the caller-supplied filter
			name: "student cannot filter for others", path: path(map[string]string{"studentId": fmt.Sprint(student2.ID)}), token: getToken(t, student1),
			wantData: marchallObj(t, listData{Count: 2, Results: []exam.Exam{exm1, exm3}}),
		},
		{
			name: "grade=C", path: path(map[string]string{"grade": "C"}), token: getToken(t, admin),
			wantData: marchallObj(t, listData{Count: 1, Results: []exam.Exam{exm2}}),
		},
		{
			name: "status=cancelled", path: path(map[string]string{"status": "cancelled"}), token: getToken(t, admin),
			wantData: marchallObj(t, listData{Count: 1, Results: []exam.Exam{exm3}}),
		},
		{
			name: "paginated", path: path(map[string]string{"limit": "2", "pageNo": "2"}), token: getToken(t, admin),
			wantData: marchallObj(t, listData{Count: 3, Results: []exam.Exam{exm3}}),
		},
		{name: "unknown grade rejected", path: path(map[string]string{"grade": "Z"}), token: getToken(t, admin), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		tt := tt
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_examApi_patchGrade(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teach", "Amani", "teach@shule.cd", "", policy.RoleTeacher)
	other := testutil.CreateUser(t, usrRepo, "Other", "Kwete", "other@shule.cd", "", policy.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Hero", "Mwema", "hero@shule.cd", "", policy.RoleStudent)
	maths := testutil.CreateSubject(t, subjRepo, "Maths", teacher.ID)

	examDate := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)
	exm := testutil.CreateExam(t, examRepo, examDate, "C", maths.ID, student.ID, teacher.ID, exam.StatusValid)
	path := fmt.Sprintf("/v1/exams/%d", exm.ID)
	body := marchallObj(t, exam.PatchGrade{Grade: "A"})

	tests := []httpTest{
		{name: "Auth required", path: path, body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", path: path, token: getToken(t, student), body: body,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			// a missing exam is never reported as a denial
			name: "not found before forbidden", path: "/v1/exams/999", token: getToken(t, other), body: body,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "exam not found"}),
		},
		{
			name: "not the subject's teacher", path: path, token: getToken(t, other), body: body,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: fmt.Sprintf("only the teacher of subject %d may update that exam record", maths.ID)}),
		},
		{name: "invalid grade", path: path, token: getToken(t, teacher), body: marchallObj(t, exam.PatchGrade{Grade: "F"}), wantCode: http.StatusBadRequest},
		{
			name: "ok", path: path, token: getToken(t, teacher), body: body,
			wantCode: http.StatusOK, wantData: marchallObj(t, map[string]interface{}{"id": exm.ID, "grade": "A"}),
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPatch, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusForbidden {
				// a denied request never leaves a side effect
				cur, err := examRepo.GetExamByID(context.Background(), exm.ID)
				if err != nil {
					t.Fatalf("GetExamByID(): %v", err)
				}
				if cur.Grade != "C" {
					t.Errorf("failed! grade = %v; want C (untouched)", cur.Grade)
				}
			}
		})
	}
}

func Test_examApi_patchGrade_afterReassign(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teach", "Amani", "teach@shule.cd", "", policy.RoleTeacher)
	successor := testutil.CreateUser(t, usrRepo, "Next", "Kwete", "next@shule.cd", "", policy.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Hero", "Mwema", "hero@shule.cd", "", policy.RoleStudent)
	maths := testutil.CreateSubject(t, subjRepo, "Maths", teacher.ID)

	examDate := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)
	exm := testutil.CreateExam(t, examRepo, examDate, "C", maths.ID, student.ID, teacher.ID, exam.StatusValid)

	// hand the subject over
	if _, err := subjRepo.ReassignTeacher(context.Background(), maths.ID, successor.ID); err != nil {
		t.Fatalf("ReassignTeacher(): %v", err)
	}

	path := fmt.Sprintf("/v1/exams/%d", exm.ID)

	// reassigning hands over exam management to the new teacher...
	req, rec := newAuthRequest(http.MethodPatch, path, getToken(t, successor), marchallObj(t, exam.PatchGrade{Grade: "B"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// ...and the original author keeps rights over records they created
	req, rec = newAuthRequest(http.MethodPatch, path, getToken(t, teacher), marchallObj(t, exam.PatchGrade{Grade: "A"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func Test_examApi_cancel(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teach", "Amani", "teach@shule.cd", "", policy.RoleTeacher)
	other := testutil.CreateUser(t, usrRepo, "Other", "Kwete", "other@shule.cd", "", policy.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Hero", "Mwema", "hero@shule.cd", "", policy.RoleStudent)
	maths := testutil.CreateSubject(t, subjRepo, "Maths", teacher.ID)

	examDate := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)
	exm := testutil.CreateExam(t, examRepo, examDate, "C", maths.ID, student.ID, teacher.ID, exam.StatusValid)
	path := fmt.Sprintf("/v1/exams/%d", exm.ID)
	cancelled := marchallObj(t, map[string]interface{}{"id": exm.ID, "status": exam.StatusCancelled})

	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", path: path, token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "not found", path: "/v1/exams/999", token: getToken(t, teacher),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "exam not found"}),
		},
		{
			name: "not the subject's teacher", path: path, token: getToken(t, other),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: fmt.Sprintf("only the teacher of subject %d may update that exam record", maths.ID)}),
		},
		{name: "cancelled", path: path, token: getToken(t, teacher), wantCode: http.StatusOK, wantData: cancelled},
		// cancelling an already-cancelled exam is a no-op success
		{name: "idempotent", path: path, token: getToken(t, teacher), wantCode: http.StatusOK, wantData: cancelled},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the record survives cancellation
	cur, err := examRepo.GetExamByID(context.Background(), exm.ID)
	if err != nil {
		t.Fatalf("GetExamByID(): %v", err)
	}
	if cur.Status != exam.StatusCancelled {
		t.Errorf("failed! status = %v; want %v", cur.Status, exam.StatusCancelled)
	}
}
