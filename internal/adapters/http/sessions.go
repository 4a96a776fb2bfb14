package httpadapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/export/xlsx"
)

type resolveRequest struct {
	URL string `json:"url"`
}

type resolveResponse struct {
	Resolution resolutionView `json:"resolution"`
	Session    *sessionView   `json:"session,omitempty"`
}

type resolutionErrorResponse struct {
	Error      string         `json:"error"`
	Resolution resolutionView `json:"resolution"`
}

func (rt *Router) resolveStateless(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	_, res, err := rt.pipeline.Resolve(r.Context(), rt.pipeline.NewSession(), req.URL)
	if err != nil {
		writeResolutionError(w, r, res, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Resolution: newResolutionView(res)})
}

func (rt *Router) createSession(w http.ResponseWriter, r *http.Request) {
	s := rt.pipeline.NewSession()
	if err := rt.sessions.Create(r.Context(), s); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+s.ID)
	writeJSON(w, http.StatusCreated, newSessionView(s))
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request) {
	s, err := rt.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(s))
}

func (rt *Router) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := rt.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) resolveSession(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var res domain.Resolution
	s, err := rt.sessions.Update(r.Context(), r.PathValue("id"), func(s domain.Session) (domain.Session, error) {
		out, resolution, err := rt.pipeline.Resolve(r.Context(), s, req.URL)
		res = resolution
		return out, err
	})
	if err != nil {
		writeResolutionError(w, r, res, err)
		return
	}
	view := newSessionView(s)
	writeJSON(w, http.StatusOK, resolveResponse{Resolution: newResolutionView(res), Session: &view})
}

func (rt *Router) fetchRestaurants(w http.ResponseWriter, r *http.Request) {
	s, err := rt.sessions.Update(r.Context(), r.PathValue("id"), func(s domain.Session) (domain.Session, error) {
		return rt.pipeline.Fetch(r.Context(), s)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(s))
}

func (rt *Router) classifyNext(w http.ResponseWriter, r *http.Request) {
	var row *domain.ClassificationResult
	s, err := rt.sessions.Update(r.Context(), r.PathValue("id"), func(s domain.Session) (domain.Session, error) {
		out, next, err := rt.pipeline.ClassifyNext(r.Context(), s)
		row = next
		return out, err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	view := classifyNextView{Progress: newProgressView(s)}
	if row == nil {
		view.Done = true
		view.Message = "all restaurants classified"
	} else {
		rendered := newRowView(*row)
		view.Row = &rendered
		view.Done = s.Done()
	}
	writeJSON(w, http.StatusOK, view)
}

// classifyAll keeps whatever progress was made even when the request is
// cancelled part way through.
func (rt *Router) classifyAll(w http.ResponseWriter, r *http.Request) {
	var runErr error
	s, err := rt.sessions.Update(r.Context(), r.PathValue("id"), func(s domain.Session) (domain.Session, error) {
		out, err := rt.pipeline.ClassifyAll(r.Context(), s, nil)
		if err != nil && !isContextError(err) {
			return s, err
		}
		runErr = err
		return out, nil
	})
	if err == nil {
		err = runErr
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classifyAllView{Rows: newRowViews(s.Log), Progress: newProgressView(s)})
}

func (rt *Router) resetClassification(w http.ResponseWriter, r *http.Request) {
	s, err := rt.sessions.Update(r.Context(), r.PathValue("id"), func(s domain.Session) (domain.Session, error) {
		return rt.pipeline.ResetClassification(s), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(s))
}

func (rt *Router) exportSession(w http.ResponseWriter, r *http.Request) {
	s, err := rt.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := xlsx.Write(&buf, s.Log); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="restaurants-%s.xlsx"`, s.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeResolutionError(w http.ResponseWriter, r *http.Request, res domain.Resolution, err error) {
	if !domain.IsKind(err, domain.ErrResolutionFailure) {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, resolutionErrorResponse{
		Error:      err.Error(),
		Resolution: newResolutionView(res),
	})
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
