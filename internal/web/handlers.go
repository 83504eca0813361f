package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"bucketdrop/internal/auth"
	"bucketdrop/internal/progress"
	"bucketdrop/internal/report"
	"bucketdrop/internal/upload"
)

type loginPage struct {
	Error   string
	Warning string
}

type uploadPage struct {
	Username    string
	DisplayName string
	Notice      string
	Result      *batchResult
}

type hasherPage struct {
	Hash string
}

type historyRow struct {
	Filename  string
	Key       string
	SizeLabel string
	Status    string
	Failed    bool
	CreatedAt time.Time
}

type historyPage struct {
	DisplayName string
	Records     []historyRow
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("Template rendering failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	username, ok := s.currentUser(r)
	if !ok {
		s.render(w, "login.html", loginPage{})
		return
	}

	page := uploadPage{
		Username:    username,
		DisplayName: s.resolver.DisplayName(username),
	}
	if result, ok := s.results.get(username); ok {
		page.Result = result
	}
	s.render(w, "upload.html", page)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	switch s.resolver.Verify(username, password) {
	case auth.Accepted:
		if err := s.sessions.Issue(w, username); err != nil {
			s.logger.Error("Failed to issue session", zap.String("username", username), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case auth.Rejected:
		s.render(w, "login.html", loginPage{Error: "Username/password is incorrect"})
	default:
		s.render(w, "login.html", loginPage{Warning: "Please enter your username and password"})
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if username, ok := s.currentUser(r); ok {
		s.results.clear(username)
	}
	s.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	username, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// Prior results are always cleared before a new run starts
	s.results.clear(username)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxRequestBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.renderUploadNotice(w, username, fmt.Sprintf("Could not read upload: %v", err))
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.renderUploadNotice(w, username, "Choose at least one file to upload")
		return
	}

	wantURL := r.FormValue("presign") != ""

	// Pull every file into memory up front; each File is handed to
	// exactly one upload task.
	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.renderUploadNotice(w, username, fmt.Sprintf("Could not open %s: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.renderUploadNotice(w, username, fmt.Sprintf("Could not read %s: %v", fh.Filename, err))
			return
		}
		files = append(files, upload.File{
			Name:    fh.Filename,
			Content: bytes.NewReader(data),
			Size:    int64(len(data)),
		})
	}

	tracker := s.results.tracker(username)
	tracker.Begin(len(files))
	batch := s.batcher.Run(r.Context(), username, files, wantURL, tracker.Update)
	tracker.Finish()

	result := &batchResult{
		URLs:    batch.URLs(),
		Reports: batch.Reports(),
		Elapsed: batch.Elapsed,
		When:    time.Now(),
	}
	s.results.set(username, result)

	s.render(w, "upload.html", uploadPage{
		Username:    username,
		DisplayName: s.resolver.DisplayName(username),
		Result:      result,
	})
}

func (s *Server) renderUploadNotice(w http.ResponseWriter, username, notice string) {
	s.render(w, "upload.html", uploadPage{
		Username:    username,
		DisplayName: s.resolver.DisplayName(username),
		Notice:      notice,
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	username, ok := s.currentUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	status := s.results.tracker(username).GetStatus()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	username, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	result, ok := s.results.get(username)
	if !ok || len(result.URLs) == 0 {
		http.NotFound(w, r)
		return
	}

	data, err := report.EncodeURLs(result.URLs)
	if err != nil {
		s.logger.Error("CSV encoding failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	_, _ = w.Write(data)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	username, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	page := historyPage{DisplayName: s.resolver.DisplayName(username)}

	if s.journal != nil {
		records, err := s.journal.ListByUser(username, 100)
		if err != nil {
			s.logger.Error("Failed to list upload history", zap.String("username", username), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		for _, rec := range records {
			page.Records = append(page.Records, historyRow{
				Filename:  rec.Filename,
				Key:       rec.Key,
				SizeLabel: progress.FormatBytes(rec.Size),
				Status:    string(rec.Status),
				Failed:    rec.Status == "failed",
				CreatedAt: rec.CreatedAt,
			})
		}
	}

	s.render(w, "history.html", page)
}

func (s *Server) handleHasher(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, "hasher.html", hasherPage{})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	password := strings.TrimSpace(r.PostFormValue("password"))
	if password == "" {
		s.render(w, "hasher.html", hasherPage{})
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("Password hashing failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.render(w, "hasher.html", hasherPage{Hash: hash})
}
