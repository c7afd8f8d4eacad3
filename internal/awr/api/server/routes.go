package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

const BaseURL = "/v1"

// Handler собирает маршруты API. Обёртки разбирают параметры пути и запроса
// и передают их обработчикам уже типизированными.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware(s.lg))

	r.Route(BaseURL, func(r chi.Router) {
		r.Post("/auth/login", s.PostLogin)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.authService))

			r.Post("/users", s.PostUser)

			r.Get("/tasks", s.getTasksWrapper)
			r.Post("/tasks", s.PostTask)
			r.Get("/tasks/{id}", s.withID(s.GetTaskID))
			r.Patch("/tasks/{id}", s.withID(s.PatchTaskID))
			r.Put("/tasks/{id}", s.withID(s.PatchTaskID))
			r.Delete("/tasks/{id}", s.withID(s.DeleteTaskID))
			r.Post("/tasks/{id}/report", s.withID(s.PostTaskReport))
			r.Get("/tasks/{id}/reports", s.withID(s.GetTaskReports))

			r.Get("/brigades", s.GetBrigades)
			r.Get("/inventory", s.GetInventory)
			r.Post("/inventory/adjust", s.PostInventoryAdjust)
			r.Post("/tools/assign", s.PostToolAssign)
			r.Post("/tools/return", s.PostToolReturn)
			r.Get("/export/inventory", s.GetExportInventory)
		})
	})

	return r
}

func (s *Server) withID(h func(w http.ResponseWriter, r *http.Request, id int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id int

		err := runtime.BindStyledParameterWithLocation("simple", false, "id", runtime.ParamLocationPath,
			chi.URLParam(r, "id"), &id)
		if err != nil {
			handleError(w, fmt.Errorf("%w: invalid format for parameter id: %w", ErrBadRequest, err))

			return
		}

		h(w, r, id)
	}
}

func (s *Server) getTasksWrapper(w http.ResponseWriter, r *http.Request) {
	var params GetTasksParams

	q := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "status", q, &params.Status); err != nil {
		handleError(w, fmt.Errorf("%w: invalid format for parameter status: %w", ErrBadRequest, err))

		return
	}

	if err := runtime.BindQueryParameter("form", true, false, "brigade_id", q, &params.BrigadeID); err != nil {
		handleError(w, fmt.Errorf("%w: invalid format for parameter brigade_id: %w", ErrBadRequest, err))

		return
	}

	if err := runtime.BindQueryParameter("form", true, false, "address", q, &params.Address); err != nil {
		handleError(w, fmt.Errorf("%w: invalid format for parameter address: %w", ErrBadRequest, err))

		return
	}

	s.GetTasks(w, r, params)
}
