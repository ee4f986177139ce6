// Package student contains the HTTP handlers for the student roster.
//
// Handlers are built by factory functions that close over the roster
// service and return the func(http.ResponseWriter, *http.Request) the
// router needs:
//
//	router.HandleFunc("GET /api/v1/students", student.List(svc))
//
// List(svc) runs once at startup; the returned closure runs per request.
package student

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/roster-api/internal/roster"
	"github.com/aanand-mishra/roster-api/internal/types"
	"github.com/aanand-mishra/roster-api/internal/utils/response"
)

// Roster is the subset of *roster.Service the handlers call.
type Roster interface {
	ListAll(ctx context.Context) ([]types.Student, error)
	GetByID(ctx context.Context, id string) (roster.Result, error)
	CreateFromRecord(ctx context.Context, student types.Student) (types.Student, error)
	CreateFromRequest(ctx context.Context, req types.CreateRequest) (roster.Result, error)
	UpdateFromRecord(ctx context.Context, student types.Student) (types.Student, error)
	UpdateFromRequest(ctx context.Context, req types.UpdateRequest) (roster.Result, error)
	DeleteByID(ctx context.Context, id string) error
}

// Register mounts every student route on mux.
//
// Route table:
//
//	GET    /api/v1/students        → list all students
//	GET    /api/v1/students/{id}   → get one student
//	POST   /api/v1/students        → store a full record as given
//	POST   /api/v1/students/dto    → governed creation
//	PUT    /api/v1/students        → overwrite a full record
//	PUT    /api/v1/students/dto    → governed update
//	DELETE /api/v1/students/{id}   → delete a student
func Register(mux *http.ServeMux, svc Roster) {
	mux.HandleFunc("GET /api/v1/students", List(svc))
	mux.HandleFunc("GET /api/v1/students/{id}", GetByID(svc))
	mux.HandleFunc("POST /api/v1/students", Create(svc))
	mux.HandleFunc("POST /api/v1/students/dto", CreateFromRequest(svc))
	mux.HandleFunc("PUT /api/v1/students", Update(svc))
	mux.HandleFunc("PUT /api/v1/students/dto", UpdateFromRequest(svc))
	mux.HandleFunc("DELETE /api/v1/students/{id}", Delete(svc))
}

// List handles GET /api/v1/students.
// Returns an empty array [] (not null) when the roster is empty.
func List(svc Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("listing students")

		students, err := svc.ListAll(r.Context())
		if err != nil {
			slog.Error("error listing students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		if students == nil {
			students = []types.Student{}
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// GetByID handles GET /api/v1/students/{id}.
//
//	200 OK         — the student
//	404 Not Found  — no student with that id
func GetByID(svc Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		result, err := svc.GetByID(r.Context(), id)
		if err != nil {
			slog.Error("error getting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		if !result.OK() {
			writeNotFound(w, id)
			return
		}

		response.WriteJSON(w, http.StatusOK, result.Student)
	}
}

// Create handles POST /api/v1/students: the record is stored exactly as
// sent, with no validation or timestamps.
func Create(svc Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student from a full record")

		var student types.Student
		if !decode(w, r, &student) {
			return
		}

		saved, err := svc.CreateFromRecord(r.Context(), student)
		if err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		slog.Info("student created", slog.String("id", saved.ID))
		response.WriteJSON(w, http.StatusCreated, saved)
	}
}

// CreateFromRequest handles POST /api/v1/students/dto.
//
// Request body (JSON):
//
//	{ "name": "Vovan", "age": 19, "gender": "Male" }
//
// Responses:
//
//	201 Created      — the new student, with createdAt and an empty updateHistory
//	400 Bad Request  — empty body, malformed JSON, empty name or negative age
//	409 Conflict     — a student with that gender is already on the roster
func CreateFromRequest(svc Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var req types.CreateRequest
		if !decode(w, r, &req) {
			return
		}

		result, err := svc.CreateFromRequest(r.Context(), req)
		if err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
				return
			}
			slog.Error("error creating student", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		if !result.OK() {
			slog.Info("student creation refused", slog.String("gender", req.Gender))
			response.WriteJSON(w, http.StatusConflict, response.Response{
				Status: response.StatusError,
				Error:  "a student with gender " + req.Gender + " already exists",
			})
			return
		}

		slog.Info("student created", slog.String("id", result.Student.ID))
		response.WriteJSON(w, http.StatusCreated, result.Student)
	}
}

// Update handles PUT /api/v1/students: the stored record is overwritten
// with the body verbatim. The update history is whatever the body says.
func Update(svc Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var student types.Student
		if !decode(w, r, &student) {
			return
		}
		slog.Info("overwriting a student", slog.String("id", student.ID))

		saved, err := svc.UpdateFromRecord(r.Context(), student)
		if err != nil {
			slog.Error("error updating student",
				slog.String("id", student.ID),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, saved)
	}
}

// UpdateFromRequest handles PUT /api/v1/students/dto.
//
// Request body (JSON):
//
//	{ "id": "10", "name": "Misha", "age": 19, "gender": "Male" }
//
// Responses:
//
//	200 OK         — the replaced student, one more updateHistory entry
//	404 Not Found  — no student with that id
func UpdateFromRequest(svc Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UpdateRequest
		if !decode(w, r, &req) {
			return
		}
		slog.Info("updating a student", slog.String("id", req.ID))

		result, err := svc.UpdateFromRequest(r.Context(), req)
		if err != nil {
			slog.Error("error updating student",
				slog.String("id", req.ID),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		if !result.OK() {
			writeNotFound(w, req.ID)
			return
		}

		slog.Info("student updated",
			slog.String("id", req.ID),
			slog.Int("history", len(result.Student.UpdateHistory)))
		response.WriteJSON(w, http.StatusOK, result.Student)
	}
}

// Delete handles DELETE /api/v1/students/{id}. Deleting an unknown id
// succeeds.
//
//	{ "status": "deleted" }
func Delete(svc Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		if err := svc.DeleteByID(r.Context(), id); err != nil {
			slog.Error("error deleting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// decode reads the JSON body into v. On failure it writes a 400 and
// returns false.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

func writeNotFound(w http.ResponseWriter, id string) {
	response.WriteJSON(w, http.StatusNotFound, response.Response{
		Status: response.StatusError,
		Error:  "no student found with id: " + id,
	})
}
