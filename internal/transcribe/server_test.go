package transcribe

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"localrag/internal/domain"
)

// stubTranscriber echoes the filename into the transcript and counts calls.
type stubTranscriber struct {
	calls int
	err   error
}

func (s *stubTranscriber) Transcribe(_ context.Context, filename string, _ []byte) (domain.Transcription, error) {
	s.calls++
	if s.err != nil {
		return domain.Transcription{}, s.err
	}
	return domain.Transcription{
		Filename: filename,
		Text:     "transcript of " + filename,
		Language: "en",
		Duration: 1.5,
	}, nil
}

func buildZip(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte("fake audio bytes")); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func postZip(t *testing.T, handler http.Handler, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "audio.zip")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := form.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestTranscribeZipOfAudioFiles(t *testing.T) {
	stub := &stubTranscriber{}
	rec := postZip(t, NewHandler(stub), buildZip(t, "a.wav", "nested/b.mp3"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeResponse(t, rec)
	if len(resp.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(resp.Files))
	}
	if resp.Text != "transcript of a.wav transcript of b.mp3" {
		t.Errorf("combined text = %q", resp.Text)
	}
	if resp.Files[0].Language != "en" || resp.Files[0].Duration != 1.5 {
		t.Errorf("file result = %+v", resp.Files[0])
	}
	if stub.calls != 2 {
		t.Errorf("transcriber called %d times, want 2", stub.calls)
	}
}

func TestTranscribeSkipsArchiveNoise(t *testing.T) {
	stub := &stubTranscriber{}
	rec := postZip(t, NewHandler(stub), buildZip(t,
		"song.wav",
		"__MACOSX/song.wav",
		"._song.wav",
		".hidden.mp3",
		"notes.txt",
	))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeResponse(t, rec)
	if len(resp.Files) != 1 || resp.Files[0].Filename != "song.wav" {
		t.Errorf("files = %+v, want only song.wav", resp.Files)
	}
	if stub.calls != 1 {
		t.Errorf("transcriber called %d times, want 1", stub.calls)
	}
}

func TestTranscribeRejectsBadInput(t *testing.T) {
	t.Run("missing file field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader("nothing"))
		rec := httptest.NewRecorder()
		NewHandler(&stubTranscriber{}).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if resp := decodeResponse(t, rec); resp.Error == "" || resp.Text != "" {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("invalid zip", func(t *testing.T) {
		rec := postZip(t, NewHandler(&stubTranscriber{}), []byte("not a zip archive"))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if resp := decodeResponse(t, rec); resp.Error != "Invalid ZIP file" {
			t.Errorf("error = %q", resp.Error)
		}
	})

	t.Run("zip without audio", func(t *testing.T) {
		rec := postZip(t, NewHandler(&stubTranscriber{}), buildZip(t, "readme.md"))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("all transcriptions failing", func(t *testing.T) {
		stub := &stubTranscriber{err: errors.New("model not loaded")}
		rec := postZip(t, NewHandler(stub), buildZip(t, "a.wav"))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/transcribe", nil)
		rec := httptest.NewRecorder()
		NewHandler(&stubTranscriber{}).ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}

func TestWhisperClientTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-test" {
			t.Errorf("model = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"text":     "hello world",
			"language": "en",
			"duration": 2.25,
		})
	}))
	defer server.Close()

	client := NewWhisperClient(WhisperConfig{BaseURL: server.URL, Model: "whisper-test"})
	got, err := client.Transcribe(context.Background(), "clip.wav", []byte("audio"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	want := domain.Transcription{Filename: "clip.wav", Text: "hello world", Language: "en", Duration: 2.25}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestWhisperClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewWhisperClient(WhisperConfig{BaseURL: server.URL})
	if _, err := client.Transcribe(context.Background(), "clip.wav", nil); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
