package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/mwalimu/shule/core/policy"
	"github.com/mwalimu/shule/core/subject"
	testutil "github.com/mwalimu/shule/tests"
)

func Test_subjectApi_create(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "Musa", "admin@shule.cd", "", policy.RoleAdmin)
	teacher := testutil.CreateUser(t, usrRepo, "Teach", "Amani", "teach@shule.cd", "", policy.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Hero", "Mwema", "hero@shule.cd", "", policy.RoleStudent)
	adminToken := getToken(t, admin)

	body := func(name string, teacherID int) []byte {
		return marchallObj(t, subject.NewSubject{Name: name, TeacherID: teacherID})
	}

	tests := []httpTest{
		{name: "Auth required", body: body("Maths", 0), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required (teacher)", token: getToken(t, teacher), body: body("Maths", 0),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Admin required (student)", token: getToken(t, student), body: body("Maths", 0),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "name required", token: adminToken, body: body("", 0), wantCode: http.StatusBadRequest},
		{name: "no teacher starts in validation", token: adminToken, body: body("Maths", 0), wantCode: http.StatusCreated, extra: subject.StatusValidation},
		{name: "teacher starts live", token: adminToken, body: body("Physics", teacher.ID), wantCode: http.StatusCreated, extra: subject.StatusLive},
		{
			name: "duplicate name", token: adminToken, body: body("Maths", 0),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "a subject with this name already exists"}),
		},
		{name: "unknown teacher", token: adminToken, body: body("Chemistry", 999), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/subjects", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusCreated {
				var respData subject.Subject
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Status != tt.extra.(subject.Status) {
					t.Errorf("failed! status = %v; want %v", respData.Status, tt.extra)
				}
			}
		})
	}
}

func Test_subjectApi_query(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "Musa", "admin@shule.cd", "", policy.RoleAdmin)
	teacher := testutil.CreateUser(t, usrRepo, "Teach", "Amani", "teach@shule.cd", "", policy.RoleTeacher)
	maths := testutil.CreateSubject(t, subjRepo, "Maths", teacher.ID)
	physics := testutil.CreateSubject(t, subjRepo, "Physics", 0)
	adminToken := getToken(t, admin)

	path := func(params map[string]string) string {
		v := make(url.Values)
		for key, val := range params {
			v.Add(key, val)
		}
		if len(v) == 0 {
			return "/v1/subjects"
		}
		return "/v1/subjects?" + v.Encode()
	}

	tests := []httpTest{
		{name: "Auth required", path: "/v1/subjects", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/subjects", token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Get all", path: "/v1/subjects", token: adminToken,
			wantData: marchallObj(t, listData{Count: 2, Results: []subject.Subject{maths, physics}}),
		},
		{
			name: "status=live", path: path(map[string]string{"status": "live"}), token: adminToken,
			wantData: marchallObj(t, listData{Count: 1, Results: []subject.Subject{maths}}),
		},
		{
			name: "teacherId", path: path(map[string]string{"teacherId": fmt.Sprint(teacher.ID)}), token: adminToken,
			wantData: marchallObj(t, listData{Count: 1, Results: []subject.Subject{maths}}),
		},
		{
			name: "name", path: path(map[string]string{"name": "Physics"}), token: adminToken,
			wantData: marchallObj(t, listData{Count: 1, Results: []subject.Subject{physics}}),
		},
		{
			// malformed values are skipped, not rejected
			name: "junk teacherId dropped", path: path(map[string]string{"teacherId": "lol"}), token: adminToken,
			wantData: marchallObj(t, listData{Count: 2, Results: []subject.Subject{maths, physics}}),
		},
		{
			// unknown params are ignored
			name: "unknown param ignored", path: path(map[string]string{"bogus": "x"}), token: adminToken,
			wantData: marchallObj(t, listData{Count: 2, Results: []subject.Subject{maths, physics}}),
		},
		{name: "unknown status rejected", path: path(map[string]string{"status": "defunct"}), token: adminToken, wantCode: http.StatusBadRequest},
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

func Test_subjectApi_rename(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "Musa", "admin@shule.cd", "", policy.RoleAdmin)
	teacher := testutil.CreateUser(t, usrRepo, "Teach", "Amani", "teach@shule.cd", "", policy.RoleTeacher)
	maths := testutil.CreateSubject(t, subjRepo, "Maths", teacher.ID)
	testutil.CreateSubject(t, subjRepo, "Physics", 0)
	adminToken := getToken(t, admin)

	body := marchallObj(t, subject.RenameSubject{Name: "Applied Maths"})

	tests := []httpTest{
		{name: "Auth required", path: fmt.Sprintf("/v1/subjects/%d", maths.ID), body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: fmt.Sprintf("/v1/subjects/%d", maths.ID), token: getToken(t, teacher), body: body,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "not found", path: "/v1/subjects/999", token: adminToken, body: body,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "subject not found"}),
		},
		{name: "name required", path: fmt.Sprintf("/v1/subjects/%d", maths.ID), token: adminToken, body: marchallObj(t, subject.RenameSubject{}), wantCode: http.StatusBadRequest},
		{
			name: "name taken", path: fmt.Sprintf("/v1/subjects/%d", maths.ID), token: adminToken, body: marchallObj(t, subject.RenameSubject{Name: "Physics"}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "a subject with this name already exists"}),
		},
		{name: "ok", path: fmt.Sprintf("/v1/subjects/%d", maths.ID), token: adminToken, body: body, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPatch, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusOK {
				var respData subject.Subject
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Name != "Applied Maths" {
					t.Errorf("failed! name = %v; want Applied Maths", respData.Name)
				}
				// rename never touches status or teacher
				if respData.Status != subject.StatusLive {
					t.Errorf("failed! status = %v; want %v", respData.Status, subject.StatusLive)
				}
				if !respData.TeacherID.Valid || respData.TeacherID.Int != teacher.ID {
					t.Errorf("failed! teacherID = %v; want %v", respData.TeacherID, teacher.ID)
				}
			}
		})
	}
}

func Test_subjectApi_archive(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "Musa", "admin@shule.cd", "", policy.RoleAdmin)
	teacher := testutil.CreateUser(t, usrRepo, "Teach", "Amani", "teach@shule.cd", "", policy.RoleTeacher)
	maths := testutil.CreateSubject(t, subjRepo, "Maths", teacher.ID)
	adminToken := getToken(t, admin)
	path := fmt.Sprintf("/v1/subjects/%d", maths.ID)

	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: path, token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "not found", path: "/v1/subjects/999", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "subject not found"}),
		},
		{name: "archived and teacher cleared", path: path, token: adminToken, wantCode: http.StatusOK},
		// archiving an archived subject is a no-op success
		{name: "idempotent", path: path, token: adminToken, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusOK {
				var respData subject.Subject
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Status != subject.StatusArchived {
					t.Errorf("failed! status = %v; want %v", respData.Status, subject.StatusArchived)
				}
				if respData.TeacherID.Valid {
					t.Errorf("failed! teacherID = %v; want cleared", respData.TeacherID)
				}
			}
		})
	}
}

func Test_subjectApi_assign(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "Musa", "admin@shule.cd", "", policy.RoleAdmin)
	teacher1 := testutil.CreateUser(t, usrRepo, "Teach", "Amani", "teach@shule.cd", "", policy.RoleTeacher)
	teacher2 := testutil.CreateUser(t, usrRepo, "Other", "Kwete", "other@shule.cd", "", policy.RoleTeacher)
	maths := testutil.CreateSubject(t, subjRepo, "Maths", 0)
	adminToken := getToken(t, admin)
	path := fmt.Sprintf("/v1/subjects/%d/assign", maths.ID)

	body := func(teacherID int) []byte {
		return marchallObj(t, subject.AssignTeacher{TeacherID: teacherID})
	}

	t.Run("empty slot assigned, subject goes live", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, adminToken, body(teacher1.ID))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var respData subject.Subject
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !respData.TeacherID.Valid || respData.TeacherID.Int != teacher1.ID {
			t.Errorf("failed! teacherID = %v; want %v", respData.TeacherID, teacher1.ID)
		}
		if respData.Status != subject.StatusLive {
			t.Errorf("failed! status = %v; want %v", respData.Status, subject.StatusLive)
		}
	})

	t.Run("taken slot is an accepted no-op with both ids", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, adminToken, body(teacher2.ID))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusAccepted, rec.Body.String())
		}
		var respData struct {
			Message            string `json:"message"`
			SubjectID          int    `json:"subject_id"`
			TeacherID          int    `json:"teacher_id"`
			RequestedTeacherID int    `json:"requested_teacher_id"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if respData.SubjectID != maths.ID || respData.TeacherID != teacher1.ID || respData.RequestedTeacherID != teacher2.ID {
			t.Errorf("failed! ids = %+v; want subject %d holder %d requested %d", respData, maths.ID, teacher1.ID, teacher2.ID)
		}
		if respData.Message == "" {
			t.Error("failed! empty message")
		}

		// current assignment untouched
		subj, err := subjRepo.GetSubjectByID(context.Background(), maths.ID)
		if err != nil {
			t.Fatalf("GetSubjectByID(): %v", err)
		}
		if subj.TeacherID.Int != teacher1.ID {
			t.Errorf("failed! teacherID = %v; want %v", subj.TeacherID, teacher1.ID)
		}
	})

	t.Run("reassign overwrites the slot", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/subjects/%d/reassign", maths.ID), adminToken, body(teacher2.ID))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var respData subject.Subject
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !respData.TeacherID.Valid || respData.TeacherID.Int != teacher2.ID {
			t.Errorf("failed! teacherID = %v; want %v", respData.TeacherID, teacher2.ID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/subjects/999/assign", adminToken, body(teacher1.ID))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("teacherId required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, adminToken, body(0))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})
}
