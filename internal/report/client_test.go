package report_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coursekit/quizflow/internal/report"
)

func TestHTTPBackendPostsResult(t *testing.T) {
	var gotPath string
	var gotRec report.Record
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotRec); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	be := report.NewHTTPBackend(report.HTTPBackendConfig{BaseURL: srv.URL})
	rec := report.Record{QuizID: "q1", QuizTitle: "T", Score: 2, TotalQuestions: 3}
	if err := be.SubmitResult(context.Background(), rec); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotPath != "/api/student/save-quiz-result" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotRec.QuizID != "q1" || gotRec.Score != 2 {
		t.Fatalf("record = %+v", gotRec)
	}
}

func TestHTTPBackendPostsCompletion(t *testing.T) {
	var gotPath string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	be := report.NewHTTPBackend(report.HTTPBackendConfig{BaseURL: srv.URL})
	err := be.CompleteActivity(context.Background(), report.Completion{
		ModuleID: "m1", QuizID: "q1", QuizScore: 75,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if gotPath != "/api/complete-activity" {
		t.Fatalf("path = %q", gotPath)
	}
	if body["moduleId"] != "m1" || body["quizScore"] != 75.0 {
		t.Fatalf("body = %+v", body)
	}
	if _, present := body["activityId"]; present {
		t.Fatalf("empty activityId should be omitted")
	}
}

func TestHTTPBackendRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	be := report.NewHTTPBackend(report.HTTPBackendConfig{BaseURL: srv.URL})
	if err := be.SubmitResult(context.Background(), report.Record{}); err == nil {
		t.Fatalf("expected error on 502")
	}
}
