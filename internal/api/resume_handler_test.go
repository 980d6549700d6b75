package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jkc-mycode/spa-recruit-3-layered/internal/api/middleware"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/database"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/resume"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/tasks"
)

type fakeStorage struct {
	uploaded map[string][]byte
	deleted  []string
	presign  map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		uploaded: map[string][]byte{},
		presign:  map[string]string{},
	}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	return &minio.UploadInfo{}, nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	if v, ok := s.presign[objectKey]; ok {
		return v, nil
	}
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-" + strconv.Itoa(len(f.tasks))}, nil
}

func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.User{}, &database.Resume{}, &database.ResumeHistory{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role resume.Role) database.User {
	t.Helper()
	user := database.User{
		Email:        name + "@example.com",
		PasswordHash: "x",
		Name:         name,
		Role:         string(role),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return user
}

func seedResume(t *testing.T, db *gorm.DB, ownerID uint, state resume.State) database.Resume {
	t.Helper()
	record := database.Resume{
		UserID:    ownerID,
		Title:     "seeded",
		Introduce: strings.Repeat("x", 150),
		State:     string(state),
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	return record
}

func newResumeTestHandler(db *gorm.DB) (*ResumeHandler, *fakeEnqueuer, *fakeStorage) {
	enqueuer := &fakeEnqueuer{}
	storage := newFakeStorage()
	svc := resume.NewService(resume.NewRepository(db))
	return NewResumeHandler(svc, enqueuer, storage), enqueuer, storage
}

func newJSONContext(t *testing.T, method, target string, payload any, ident resume.Identity) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, body)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.IdentityKey, ident)
	return c, w
}

func setResumeIDParam(c *gin.Context, id uint) {
	c.Params = gin.Params{{Key: "resumeId", Value: strconv.FormatUint(uint64(id), 10)}}
}

func TestCreateResume(t *testing.T) {
	db := newTestDB(t, "api_create_resume")
	owner := seedUser(t, db, "alice", resume.RoleApplicant)
	h, _, _ := newResumeTestHandler(db)

	c, w := newJSONContext(t, http.MethodPost, "/api/resumes", gin.H{
		"title":     "backend engineer",
		"introduce": strings.Repeat("x", 150),
	}, resume.Identity{UserID: owner.ID, Role: resume.RoleApplicant})

	h.CreateResume(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var stored database.Resume
	if err := db.First(&stored).Error; err != nil {
		t.Fatalf("load stored resume: %v", err)
	}
	if stored.State != string(resume.StateApply) || stored.UserID != owner.ID {
		t.Fatalf("stored resume = %+v", stored)
	}
}

func TestCreateResumeRejectsShortIntroduce(t *testing.T) {
	db := newTestDB(t, "api_create_resume_short")
	owner := seedUser(t, db, "alice", resume.RoleApplicant)
	h, _, _ := newResumeTestHandler(db)

	c, w := newJSONContext(t, http.MethodPost, "/api/resumes", gin.H{
		"title":     "backend engineer",
		"introduce": strings.Repeat("x", 149),
	}, resume.Identity{UserID: owner.ID, Role: resume.RoleApplicant})

	h.CreateResume(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), MsgIntroduceTooShort) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	var count int64
	if err := db.Model(&database.Resume{}).Count(&count).Error; err != nil {
		t.Fatalf("count resumes: %v", err)
	}
	if count != 0 {
		t.Fatalf("resume rows = %d, want 0", count)
	}
}

func TestUpdateResumeRejectsEmptyBody(t *testing.T) {
	db := newTestDB(t, "api_update_resume_empty")
	owner := seedUser(t, db, "alice", resume.RoleApplicant)
	record := seedResume(t, db, owner.ID, resume.StateApply)
	h, _, _ := newResumeTestHandler(db)

	c, w := newJSONContext(t, http.MethodPatch, "/api/resumes/1", gin.H{},
		resume.Identity{UserID: owner.ID, Role: resume.RoleApplicant})
	setResumeIDParam(c, record.ID)

	h.UpdateResume(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), MsgNoUpdateFields) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestUpdateResumeStateInvalidState(t *testing.T) {
	db := newTestDB(t, "api_state_invalid")
	recruiter := seedUser(t, db, "carol", resume.RoleRecruiter)
	h, enqueuer, _ := newResumeTestHandler(db)

	c, w := newJSONContext(t, http.MethodPatch, "/api/resumes/1/state", gin.H{
		"state":  "HIRED",
		"reason": "looks great",
	}, resume.Identity{UserID: recruiter.ID, Role: resume.RoleRecruiter})
	setResumeIDParam(c, 1)

	h.UpdateResumeState(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if len(enqueuer.tasks) != 0 {
		t.Fatalf("no task should be enqueued, got %d", len(enqueuer.tasks))
	}
}

func TestUpdateResumeStateMissingResume(t *testing.T) {
	db := newTestDB(t, "api_state_missing")
	recruiter := seedUser(t, db, "carol", resume.RoleRecruiter)
	h, enqueuer, _ := newResumeTestHandler(db)

	c, w := newJSONContext(t, http.MethodPatch, "/api/resumes/999/state", gin.H{
		"state":  "pass",
		"reason": "looks great",
	}, resume.Identity{UserID: recruiter.ID, Role: resume.RoleRecruiter})
	setResumeIDParam(c, 999)

	h.UpdateResumeState(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
	if len(enqueuer.tasks) != 0 {
		t.Fatalf("no task should be enqueued, got %d", len(enqueuer.tasks))
	}
}

func TestUpdateResumeState(t *testing.T) {
	db := newTestDB(t, "api_state_change")
	owner := seedUser(t, db, "alice", resume.RoleApplicant)
	recruiter := seedUser(t, db, "carol", resume.RoleRecruiter)
	record := seedResume(t, db, owner.ID, resume.StateApply)
	h, enqueuer, _ := newResumeTestHandler(db)

	c, w := newJSONContext(t, http.MethodPatch, "/api/resumes/1/state", gin.H{
		"state":  "pass",
		"reason": "screening ok",
	}, resume.Identity{UserID: recruiter.ID, Role: resume.RoleRecruiter})
	setResumeIDParam(c, record.ID)

	h.UpdateResumeState(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var stored database.Resume
	if err := db.First(&stored, record.ID).Error; err != nil {
		t.Fatalf("reload resume: %v", err)
	}
	if stored.State != string(resume.StatePass) {
		t.Fatalf("resume state = %q, want PASS", stored.State)
	}

	var entry database.ResumeHistory
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	if entry.OldState != string(resume.StateApply) || entry.NewState != string(resume.StatePass) || entry.RecruiterID != recruiter.ID {
		t.Fatalf("history entry = %+v", entry)
	}

	if len(enqueuer.tasks) != 1 || enqueuer.tasks[0].Type() != tasks.TypeStateChangeNotify {
		t.Fatalf("expected one state notify task, got %+v", enqueuer.tasks)
	}
}

func TestExportResume(t *testing.T) {
	db := newTestDB(t, "api_export")
	owner := seedUser(t, db, "alice", resume.RoleApplicant)
	record := seedResume(t, db, owner.ID, resume.StateApply)
	h, enqueuer, _ := newResumeTestHandler(db)

	c, w := newJSONContext(t, http.MethodPost, "/api/resumes/1/export", nil,
		resume.Identity{UserID: owner.ID, Role: resume.RoleApplicant})
	setResumeIDParam(c, record.ID)

	h.ExportResume(c)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d body=%s", w.Code, w.Body.String())
	}
	if len(enqueuer.tasks) != 1 || enqueuer.tasks[0].Type() != tasks.TypePDFExport {
		t.Fatalf("expected one pdf export task, got %+v", enqueuer.tasks)
	}
}

func TestExportResumeHiddenFromStrangers(t *testing.T) {
	db := newTestDB(t, "api_export_hidden")
	owner := seedUser(t, db, "alice", resume.RoleApplicant)
	other := seedUser(t, db, "bob", resume.RoleApplicant)
	record := seedResume(t, db, owner.ID, resume.StateApply)
	h, enqueuer, _ := newResumeTestHandler(db)

	c, w := newJSONContext(t, http.MethodPost, "/api/resumes/1/export", nil,
		resume.Identity{UserID: other.ID, Role: resume.RoleApplicant})
	setResumeIDParam(c, record.ID)

	h.ExportResume(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
	if len(enqueuer.tasks) != 0 {
		t.Fatalf("no task should be enqueued, got %d", len(enqueuer.tasks))
	}
}

func TestGetExportLinkNotReady(t *testing.T) {
	db := newTestDB(t, "api_export_link_pending")
	owner := seedUser(t, db, "alice", resume.RoleApplicant)
	record := seedResume(t, db, owner.ID, resume.StateApply)
	h, _, _ := newResumeTestHandler(db)

	c, w := newJSONContext(t, http.MethodGet, "/api/resumes/1/export-link", nil,
		resume.Identity{UserID: owner.ID, Role: resume.RoleApplicant})
	setResumeIDParam(c, record.ID)

	h.GetExportLink(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetExportLink(t *testing.T) {
	db := newTestDB(t, "api_export_link")
	owner := seedUser(t, db, "alice", resume.RoleApplicant)
	record := seedResume(t, db, owner.ID, resume.StateApply)
	objectKey := fmt.Sprintf("generated-resumes/%d/latest.pdf", record.ID)
	if err := db.Model(&database.Resume{}).Where("id = ?", record.ID).Update("pdf_url", objectKey).Error; err != nil {
		t.Fatalf("set pdf url: %v", err)
	}
	h, _, storage := newResumeTestHandler(db)
	storage.presign[objectKey] = "https://signed.example.invalid/latest.pdf"

	c, w := newJSONContext(t, http.MethodGet, "/api/resumes/1/export-link", nil,
		resume.Identity{UserID: owner.ID, Role: resume.RoleApplicant})
	setResumeIDParam(c, record.ID)

	h.GetExportLink(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "https://signed.example.invalid/latest.pdf") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestListResumesAsApplicant(t *testing.T) {
	db := newTestDB(t, "api_list_applicant")
	alice := seedUser(t, db, "alice", resume.RoleApplicant)
	bob := seedUser(t, db, "bob", resume.RoleApplicant)
	seedResume(t, db, alice.ID, resume.StateApply)
	seedResume(t, db, bob.ID, resume.StatePass)
	h, _, _ := newResumeTestHandler(db)

	c, w := newJSONContext(t, http.MethodGet, "/api/resumes?status=PASS", nil,
		resume.Identity{UserID: alice.ID, Role: resume.RoleApplicant})

	h.ListResumes(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data struct {
			Resumes []resume.View `json:"resumes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(envelope.Data.Resumes) != 1 || envelope.Data.Resumes[0].UserName != "alice" {
		t.Fatalf("applicant must only see own resumes, got %+v", envelope.Data.Resumes)
	}
}
