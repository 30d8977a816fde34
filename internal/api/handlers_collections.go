package api

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docsections/internal/collection"
	"github.com/dgallion1/docsections/internal/pipeline"
	"github.com/dgallion1/docsections/internal/report"
)

type collectionInfo struct {
	Name      string `json:"name"`
	Documents int    `json:"documents"`
	HasOutput bool   `json:"has_output"`
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	root := s.orchestrator.Root()
	names, err := collection.ListCollections(root)
	if err != nil {
		jsonError(w, "failed to list collections: "+err.Error(), http.StatusInternalServerError)
		return
	}

	infos := []collectionInfo{}
	for _, name := range names {
		dir := filepath.Join(root, name)
		pdfs, err := collection.ListPDFs(dir)
		if err != nil {
			s.log.Warn("list pdfs failed", "collection", name, "error", err)
		}
		_, statErr := os.Stat(filepath.Join(dir, collection.OutputFile))
		infos = append(infos, collectionInfo{
			Name:      name,
			Documents: len(pdfs),
			HasOutput: statErr == nil,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": infos})
}

// handleRunCollection queues a run of one collection.
func (s *Server) handleRunCollection(w http.ResponseWriter, r *http.Request) {
	name, dir, ok := s.collectionDir(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(name, dir)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     snap.ID,
		"collection": snap.Collection,
		"status":     snap.Status,
		"poll_url":   fmt.Sprintf("/api/jobs/%s", snap.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleCollectionOutput(w http.ResponseWriter, r *http.Request) {
	_, dir, ok := s.collectionDir(w, r)
	if !ok {
		return
	}
	out, ok := s.readOutput(w, dir)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCollectionReport renders the HTML report from the current output.
func (s *Server) handleCollectionReport(w http.ResponseWriter, r *http.Request) {
	name, dir, ok := s.collectionDir(w, r)
	if !ok {
		return
	}
	out, ok := s.readOutput(w, dir)
	if !ok {
		return
	}
	page, err := report.HTML(name, out)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// collectionDir resolves the {name} URL parameter to an existing collection
// directory under the root, writing a 404 when there is none.
func (s *Server) collectionDir(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	name := chi.URLParam(r, "name")
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." || !collection.IsCollectionDir(name) {
		jsonError(w, "collection not found", http.StatusNotFound)
		return "", "", false
	}
	dir := filepath.Join(s.orchestrator.Root(), name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		jsonError(w, "collection not found", http.StatusNotFound)
		return "", "", false
	}
	return name, dir, true
}

func (s *Server) readOutput(w http.ResponseWriter, dir string) (*collection.Output, bool) {
	out, err := collection.ReadOutput(dir)
	if errors.Is(err, fs.ErrNotExist) {
		jsonError(w, "collection has not been processed", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return out, true
}
