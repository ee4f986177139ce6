package student

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/aanand-mishra/roster-api/internal/roster"
	"github.com/aanand-mishra/roster-api/internal/storage/memory"
	"github.com/aanand-mishra/roster-api/internal/types"
	"github.com/aanand-mishra/roster-api/internal/utils/response"
)

type HandlerSuite struct {
	suite.Suite
	store  *memory.Store
	router *http.ServeMux
}

func (s *HandlerSuite) SetupTest() {
	s.store = memory.New()
	s.router = http.NewServeMux()
	Register(s.router, roster.New(s.store))
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decodeStudent(rec *httptest.ResponseRecorder) types.Student {
	var st types.Student
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&st))
	return st
}

func (s *HandlerSuite) decodeError(rec *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func (s *HandlerSuite) TestListEmptyIsArray() {
	rec := s.do(http.MethodGet, "/api/v1/students", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("application/json", rec.Header().Get("Content-Type"))
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *HandlerSuite) TestCreateFromRequest() {
	rec := s.do(http.MethodPost, "/api/v1/students/dto", `{"name":"Vovan","age":19,"gender":"Male"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)

	created := s.decodeStudent(rec)
	s.NotEmpty(created.ID)
	s.Equal("Vovan", created.Name)
	s.Equal(19, created.Age)
	s.Equal("Male", created.Gender)
	s.NotNil(created.CreatedAt)
	s.NotNil(created.UpdateHistory)
	s.Empty(created.UpdateHistory)

	rec = s.do(http.MethodGet, "/api/v1/students/"+created.ID, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Vovan", s.decodeStudent(rec).Name)
}

func (s *HandlerSuite) TestCreateFromRequestDuplicateGenderConflicts() {
	rec := s.do(http.MethodPost, "/api/v1/students/dto", `{"name":"Anna","age":22,"gender":"Female"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/students/dto", `{"name":"Olga","age":22,"gender":"Female"}`)
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(response.StatusError, s.decodeError(rec).Status)

	all, err := s.store.FindAll(context.Background())
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *HandlerSuite) TestCreateFromRequestValidation() {
	rec := s.do(http.MethodPost, "/api/v1/students/dto", `{"name":"","age":-1,"gender":"Male"}`)
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	resp := s.decodeError(rec)
	s.Equal(response.StatusError, resp.Status)
	s.Contains(resp.Error, "field Name is required")
	s.Contains(resp.Error, "field Age must be 0 or greater")
}

func (s *HandlerSuite) TestEmptyAndMalformedBodies() {
	rec := s.do(http.MethodPost, "/api/v1/students/dto", "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("request body is empty", s.decodeError(rec).Error)

	rec = s.do(http.MethodPut, "/api/v1/students/dto", `{"id":`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/students", `{"age":"nineteen"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestCreateFullRecordAndOverwrite() {
	rec := s.do(http.MethodPost, "/api/v1/students", `{"id":"3","name":"Borys","age":19,"gender":"Male"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)
	created := s.decodeStudent(rec)
	s.Equal("3", created.ID)
	s.Nil(created.CreatedAt)

	rec = s.do(http.MethodPut, "/api/v1/students", `{"id":"3","name":"Borysko","age":20,"gender":"Male"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Borysko", s.decodeStudent(rec).Name)

	rec = s.do(http.MethodGet, "/api/v1/students/3", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	updated := s.decodeStudent(rec)
	s.Equal(20, updated.Age)
	s.Empty(updated.UpdateHistory)
}

func (s *HandlerSuite) TestUpdateFromRequest() {
	_, err := s.store.Save(context.Background(), types.Student{ID: "10", Name: "Misha", Age: 18, Gender: "Male", UpdateHistory: []time.Time{}})
	s.Require().NoError(err)

	rec := s.do(http.MethodPut, "/api/v1/students/dto", `{"id":"10","name":"Misha","age":19,"gender":"Male"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	updated := s.decodeStudent(rec)
	s.Equal("10", updated.ID)
	s.Equal(19, updated.Age)
	s.Len(updated.UpdateHistory, 1)
}

func (s *HandlerSuite) TestUpdateFromRequestMissing() {
	rec := s.do(http.MethodPut, "/api/v1/students/dto", `{"id":"bad-id","name":"Ghost","age":30,"gender":"Other"}`)
	s.Equal(http.StatusNotFound, rec.Code)

	all, err := s.store.FindAll(context.Background())
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *HandlerSuite) TestGetMissing() {
	rec := s.do(http.MethodGet, "/api/v1/students/nonexistent-id", "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(s.decodeError(rec).Error, "nonexistent-id")
}

func (s *HandlerSuite) TestDelete() {
	_, err := s.store.Save(context.Background(), types.Student{ID: "2", Name: "Victoria", Age: 17, Gender: "Female"})
	s.Require().NoError(err)

	rec := s.do(http.MethodDelete, "/api/v1/students/2", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"deleted"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/students/2", "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/students/2", "")
	s.Equal(http.StatusOK, rec.Code)
}

// failingRoster answers every call with err.
type failingRoster struct{ err error }

func (f failingRoster) ListAll(context.Context) ([]types.Student, error) { return nil, f.err }
func (f failingRoster) GetByID(context.Context, string) (roster.Result, error) {
	return roster.Result{}, f.err
}
func (f failingRoster) CreateFromRecord(context.Context, types.Student) (types.Student, error) {
	return types.Student{}, f.err
}
func (f failingRoster) CreateFromRequest(context.Context, types.CreateRequest) (roster.Result, error) {
	return roster.Result{}, f.err
}
func (f failingRoster) UpdateFromRecord(context.Context, types.Student) (types.Student, error) {
	return types.Student{}, f.err
}
func (f failingRoster) UpdateFromRequest(context.Context, types.UpdateRequest) (roster.Result, error) {
	return roster.Result{}, f.err
}
func (f failingRoster) DeleteByID(context.Context, string) error { return f.err }

func TestStoreFailuresAre500(t *testing.T) {
	router := http.NewServeMux()
	Register(router, failingRoster{err: errors.New("store unavailable")})

	requests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/v1/students", ""},
		{http.MethodGet, "/api/v1/students/1", ""},
		{http.MethodPost, "/api/v1/students", `{"name":"A"}`},
		{http.MethodPost, "/api/v1/students/dto", `{"name":"A","age":1,"gender":"X"}`},
		{http.MethodPut, "/api/v1/students", `{"id":"1"}`},
		{http.MethodPut, "/api/v1/students/dto", `{"id":"1"}`},
		{http.MethodDelete, "/api/v1/students/1", ""},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			req := httptest.NewRequest(r.method, r.path, bytes.NewBufferString(r.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			var resp response.Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "store unavailable", resp.Error)
		})
	}
}
