package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/papercraft/internal/middleware"
	"github.com/stemsi/papercraft/internal/model"
	"github.com/stemsi/papercraft/internal/repository"
	"github.com/stemsi/papercraft/internal/service"
	"github.com/stemsi/papercraft/internal/validator"
	ws "github.com/stemsi/papercraft/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type paperStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]model.PaperRecord
}

func (s *paperStore) copyOf(rec model.PaperRecord) *model.PaperRecord {
	b, _ := json.Marshal(rec.Paper)
	var p model.Paper
	_ = json.Unmarshal(b, &p)
	rec.Paper = p
	return &rec
}

func (s *paperStore) Create(_ context.Context, authorID int, p model.Paper) (*model.PaperRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := model.PaperRecord{ID: uuid.New(), AuthorID: authorID, Version: 1, Paper: p, UpdatedAt: time.Now()}
	s.records[rec.ID] = *s.copyOf(rec)
	return s.copyOf(rec), nil
}

func (s *paperStore) GetByID(_ context.Context, id uuid.UUID) (*model.PaperRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrPaperNotFound
	}
	return s.copyOf(rec), nil
}

func (s *paperStore) ListByAuthor(_ context.Context, authorID, _, _ int) ([]model.PaperSummary, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PaperSummary
	for id, rec := range s.records {
		if rec.AuthorID == authorID {
			out = append(out, model.PaperSummary{ID: id, TotalMarks: rec.Paper.TotalMarks})
		}
	}
	return out, len(out), nil
}

func (s *paperStore) Update(_ context.Context, id uuid.UUID, expectedVersion int, p model.Paper) (*model.PaperRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrPaperNotFound
	}
	if rec.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}
	rec.Version++
	rec.Paper = p
	s.records[id] = *s.copyOf(rec)
	return s.copyOf(rec), nil
}

func (s *paperStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

type nopEvents struct{}

func (nopEvents) Publish(context.Context, model.PaperEvent) error { return nil }

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	author int
}

func newTestAPI(t *testing.T) *testAPI {
	papers := service.NewPaperService(&paperStore{records: map[uuid.UUID]model.PaperRecord{}}, nopEvents{}, zerolog.Nop())
	api := &testAPI{t: t, author: 1}

	r := gin.New()
	r.GET("/catalog", NewCatalogHandler().GetCatalog)
	g := r.Group("/papers", func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{AuthorID: api.author, TokenType: service.TokenTypeAuthor})
		c.Next()
	})
	ph := NewPaperHandler(papers)
	sh := NewSectionHandler(papers)
	qh := NewQuestionHandler(papers)
	oh := NewOutputHandler(papers, "")
	g.POST("", ph.CreatePaper)
	g.GET("", ph.ListPapers)
	g.POST("/import", ph.ImportPaper)
	g.GET("/:id", ph.GetPaper)
	g.PATCH("/:id", ph.UpdatePaper)
	g.PUT("/:id/document", ph.ReplaceDocument)
	g.DELETE("/:id", ph.DeletePaper)
	g.POST("/:id/sections", sh.AddSection)
	g.PATCH("/:id/sections/:section_id", sh.UpdateSection)
	g.POST("/:id/sections/:section_id/move", sh.MoveSection)
	g.POST("/:id/sections/:section_id/questions", qh.AddQuestion)
	g.PATCH("/:id/sections/:section_id/questions/:question_id", qh.UpdateQuestion)
	g.GET("/:id/preview", oh.Preview)
	g.GET("/:id/preview.txt", oh.PreviewText)
	g.GET("/:id/print", oh.Print)
	g.GET("/:id/export.json", oh.ExportJSON)
	g.GET("/:id/export.pdf", oh.ExportPDF)
	g.GET("/:id/export.xlsx", oh.ExportXLSX)
	api.router = r
	return api
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}

type paperData struct {
	Paper    model.PaperRecord `json:"paper"`
	Question model.Question    `json:"question"`
	Section  model.Section     `json:"section"`
}

func (a *testAPI) createPaper() model.PaperRecord {
	w := a.do(http.MethodPost, "/papers", "")
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[paperData](a.t, w).Paper
}

func TestPaperEditingFlow(t *testing.T) {
	api := newTestAPI(t)
	rec := api.createPaper()
	base := "/papers/" + rec.ID.String()
	sectionID := rec.Paper.Sections[0].ID

	w := api.do(http.MethodPost, base+"/sections/"+sectionID+"/questions", `{"type":"MCQ"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	added := decode[paperData](t, w)
	assert.Equal(t, 1, added.Paper.Paper.TotalMarks)
	assert.Len(t, added.Question.Options, 4)

	w = api.do(http.MethodPatch, base+"/sections/"+sectionID+"/questions/"+added.Question.ID, `{"marks":2,"text":"Pick one"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decode[paperData](t, w).Paper.Paper.TotalMarks)

	w = api.do(http.MethodPost, base+"/sections", "")
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[paperData](t, w)
	assert.Equal(t, "Section B", second.Section.Title)

	w = api.do(http.MethodPost, base+"/sections/"+second.Section.ID+"/move", `{"index":0}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, second.Section.ID, decode[paperData](t, w).Paper.Paper.Sections[0].ID)

	w = api.do(http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[paperData](t, w).Paper
	assert.Equal(t, 5, got.Version)
	assert.Equal(t, 2, got.Paper.TotalMarks)
}

func TestUpdateQuestion_Errors(t *testing.T) {
	api := newTestAPI(t)
	rec := api.createPaper()
	base := "/papers/" + rec.ID.String() + "/sections/" + rec.Paper.Sections[0].ID

	w := api.do(http.MethodPost, base+"/questions", `{"type":"Short Answer"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	q := decode[paperData](t, w).Question

	w = api.do(http.MethodPatch, base+"/questions/"+q.ID, `{"options":["a","b"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "FIELD_NOT_APPLICABLE", errorCode(t, w))

	w = api.do(http.MethodPatch, base+"/questions/"+q.ID, `{"marks":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = api.do(http.MethodPatch, base+"/questions/q_missing", `{"text":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))

	w = api.do(http.MethodPost, base+"/questions", `{"type":"Essay"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestUpdatePaper_Metadata(t *testing.T) {
	api := newTestAPI(t)
	rec := api.createPaper()
	base := "/papers/" + rec.ID.String()

	w := api.do(http.MethodPatch, base, `{"subject":"Mathematics","duration":{"hours":2,"minutes":30}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[paperData](t, w).Paper.Paper
	assert.Equal(t, "Mathematics", p.Subject)
	assert.Equal(t, model.Duration{Hours: 2, Minutes: 30}, p.Duration)

	w = api.do(http.MethodPatch, base, `{"className":"Class XIII"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestReplaceDocument_InvalidKeepsPaper(t *testing.T) {
	api := newTestAPI(t)
	rec := api.createPaper()
	base := "/papers/" + rec.ID.String()

	w := api.do(http.MethodPut, base+"/document", `{"schoolName":"Only this"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.NotEmpty(t, env.Error.Fields["detail"])

	w = api.do(http.MethodGet, base, "")
	assert.Equal(t, rec.Paper, decode[paperData](t, w).Paper.Paper)
}

func TestExportImportRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	rec := api.createPaper()
	base := "/papers/" + rec.ID.String()
	api.do(http.MethodPost, base+"/sections/"+rec.Paper.Sections[0].ID+"/questions", `{"type":"Long Answer"}`)

	w := api.do(http.MethodGet, base+"/export.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="exam_science_class_x.json"`, w.Header().Get("Content-Disposition"))
	exported := w.Body.String()

	w = api.do(http.MethodPost, "/papers/import", exported)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	imported := decode[paperData](t, w).Paper
	assert.NotEqual(t, rec.ID, imported.ID)
	assert.Equal(t, 5, imported.Paper.TotalMarks)
}

func TestOutputs(t *testing.T) {
	api := newTestAPI(t)
	rec := api.createPaper()
	base := "/papers/" + rec.ID.String()

	w := api.do(http.MethodGet, base+"/preview", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"school_name":"School Name"`)

	w = api.do(http.MethodGet, base+"/preview.txt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "End of Question Paper")

	w = api.do(http.MethodGet, base+"/print", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))

	w = api.do(http.MethodGet, base+"/export.pdf", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "PDF_UNAVAILABLE", errorCode(t, w))

	w = api.do(http.MethodGet, base+"/export.xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestOwnershipAndIDs(t *testing.T) {
	api := newTestAPI(t)
	rec := api.createPaper()

	api.author = 2
	w := api.do(http.MethodGet, "/papers/"+rec.ID.String(), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "NOT_PAPER_AUTHOR", errorCode(t, w))

	w = api.do(http.MethodGet, "/papers/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))

	w = api.do(http.MethodGet, "/papers/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPapers(t *testing.T) {
	api := newTestAPI(t)
	api.createPaper()
	api.createPaper()

	w := api.do(http.MethodGet, "/papers?page=1&per_page=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Papers []model.PaperSummary `json:"papers"`
	}](t, w).Papers, 2)
	assert.Contains(t, w.Body.String(), `"pagination"`)
}

func TestCatalog(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodGet, "/catalog", "")
	require.Equal(t, http.StatusOK, w.Code)
	c := decode[struct {
		Catalog model.Catalog `json:"catalog"`
	}](t, w).Catalog
	assert.Len(t, c.Classes, 12)
	assert.Len(t, c.QuestionTypes, len(model.QuestionTypes))
}

func TestEventFrame(t *testing.T) {
	frame, refresh, closing := eventFrame(model.PaperEvent{Type: model.EventPaperUpdated})
	assert.Nil(t, frame)
	assert.True(t, refresh)
	assert.False(t, closing)

	frame, _, closing = eventFrame(model.PaperEvent{Type: model.EventPaperDeleted})
	assert.Equal(t, ws.PaperDeletedResponse{Event: ws.EventPaperDeleted}, frame)
	assert.True(t, closing)

	frame, refresh, _ = eventFrame(model.PaperEvent{Type: model.EventSuggestionFailed, SectionID: "sec_1", Message: "boom"})
	require.IsType(t, ws.SuggestionResponse{}, frame)
	assert.Equal(t, "boom", frame.(ws.SuggestionResponse).Message)
	assert.False(t, refresh)
}

func TestHealth(t *testing.T) {
	ok := PingerFunc(func(context.Context) error { return nil })
	down := PingerFunc(func(context.Context) error { return context.DeadlineExceeded })

	r := gin.New()
	r.GET("/up", NewHealthHandler(map[string]Pinger{"postgres": ok}, zerolog.Nop()).Health)
	r.GET("/down", NewHealthHandler(map[string]Pinger{"postgres": ok, "redis": down}, zerolog.Nop()).Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/up", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
}
