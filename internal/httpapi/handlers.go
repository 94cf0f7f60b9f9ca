package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"packhouse/internal"
	"packhouse/internal/pipeline"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// runView is the wire shape of a run. Artifact paths stay server-side;
// clients reach artifacts through the download endpoints.
type runView struct {
	ID        int                `json:"id"`
	TraceID   string             `json:"traceId"`
	Counts    map[string]int     `json:"counts"`
	Timings   map[string]float64 `json:"timings,omitempty"`
	Errors    []string           `json:"errors"`
	Documents int                `json:"documents"`
	CreatedAt string             `json:"createdAt,omitempty"`
}

func viewFromRecord(rec internal.RunRecord) runView {
	view := runView{ID: rec.ID, TraceID: rec.TraceID, CreatedAt: rec.CreatedAt, Errors: []string{}}
	_ = json.Unmarshal([]byte(rec.CountsJSON), &view.Counts)
	_ = json.Unmarshal([]byte(rec.TimingsJSON), &view.Timings)
	_ = json.Unmarshal([]byte(rec.ErrorsJSON), &view.Errors)
	view.Documents = len(docPathsOf(rec))
	return view
}

func viewFromResult(res pipeline.RunResult) runView {
	errs := res.FileErrors
	if errs == nil {
		errs = []string{}
	}
	return runView{
		ID:      int(res.RunID),
		TraceID: res.TraceID,
		Counts: map[string]int{
			"items":         res.Items,
			"matched":       res.Matched,
			"unmatched":     res.Unmatched,
			"planLines":     res.PlanLines,
			"ready":         res.Ready,
			"missingFnsku":  res.MissingFNSKU,
			"missingMaster": res.MissingMaster,
		},
		Errors:    errs,
		Documents: len(res.DocPaths),
	}
}

func docPathsOf(rec internal.RunRecord) []string {
	var paths []string
	_ = json.Unmarshal([]byte(rec.DocsJSON), &paths)
	return paths
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			writeError(w, http.StatusBadRequest, "limit must be 1-500")
			return
		}
		limit = parsed
	}

	records, err := s.db.ListRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]runView, 0, len(records))
	for _, rec := range records {
		views = append(views, viewFromRecord(rec))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewFromRecord(*rec))
}

func (s *Server) handlePlanDownload(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	if _, err := os.Stat(rec.PlanPath); err != nil {
		writeError(w, http.StatusNotFound, "plan artifact is gone")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="packing-plan.xlsx"`)
	http.ServeFile(w, r, rec.PlanPath)
}

func (s *Server) handleDocumentDownload(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "document number must be a positive integer")
		return
	}
	paths := docPathsOf(*rec)
	if n > len(paths) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("run has %d documents", len(paths)))
		return
	}
	path := paths[n-1]
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "document artifact is gone")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// handleCreateRun accepts a multipart upload of invoice PDFs and executes a
// run over them. Parts stream straight to disk; only .pdf file parts count.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxFileBytes > 0 {
		files := int64(s.cfg.MaxFiles)
		if files < 1 {
			files = 1
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileBytes*files)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart upload required")
		return
	}

	tmpDir, err := os.MkdirTemp(s.cfg.WorkDir, "upload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.RemoveAll(tmpDir)

	var paths []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
			return
		}
		name := filepath.Base(part.FileName())
		if name == "" || name == "." || !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		if s.cfg.MaxFiles > 0 && len(paths) >= s.cfg.MaxFiles {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d files per run", s.cfg.MaxFiles))
			return
		}
		dst := filepath.Join(tmpDir, fmt.Sprintf("%02d-%s", len(paths)+1, name))
		if err := savePart(dst, part, s.cfg.MaxFileBytes); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("%s: %v", name, err))
			return
		}
		paths = append(paths, dst)
	}
	if len(paths) == 0 {
		writeError(w, http.StatusBadRequest, "no pdf files in upload")
		return
	}

	res, err := s.runs.Execute(r.Context(), paths, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, viewFromResult(res))
}

func savePart(dst string, part io.Reader, maxBytes int64) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()

	if maxBytes <= 0 {
		_, err := io.Copy(f, part)
		return err
	}
	n, err := io.Copy(f, io.LimitReader(part, maxBytes+1))
	if err != nil {
		return err
	}
	if n > maxBytes {
		return fmt.Errorf("exceeds the %d byte limit", maxBytes)
	}
	return nil
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*internal.RunRecord, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "run id must be a positive integer")
		return nil, false
	}
	rec, err := s.db.GetRun(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	return rec, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
