package transcribe

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"path"
	"strings"

	"localrag/internal/domain"
)

// maxUploadBytes bounds the accepted ZIP upload size.
const maxUploadBytes = 256 << 20

var allowedAudioExts = map[string]bool{
	".wav": true,
	".mp3": true,
	".ogg": true,
	".m4a": true,
}

// Handler serves the audio transcription endpoint. It accepts a ZIP of audio
// files and returns the combined transcript plus per-file results. The
// actual speech-to-text work is delegated to the Transcriber collaborator.
type Handler struct {
	transcriber domain.Transcriber
}

// NewHandler creates the transcription handler.
func NewHandler(transcriber domain.Transcriber) *Handler {
	return &Handler{transcriber: transcriber}
}

type response struct {
	Text  string                 `json:"text"`
	Files []domain.Transcription `json:"files,omitempty"`
	Error string                 `json:"error,omitempty"`
}

// ServeHTTP handles POST requests with a multipart "file" field holding a
// ZIP archive. Bad input yields 400, internal failures 500, both with an
// empty text and an error message.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, response{Error: "Method not allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: "No file provided"})
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, response{Error: "No file selected"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{Error: "Error: " + err.Error()})
		return
	}
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: "Invalid ZIP file"})
		return
	}

	var results []domain.Transcription
	for _, entry := range archive.File {
		if entry.FileInfo().IsDir() || !allowedAudioEntry(entry.Name) {
			continue
		}
		audio, err := readZipEntry(entry)
		if err != nil {
			log.Printf("skipping %s: %v", entry.Name, err)
			continue
		}
		result, err := h.transcriber.Transcribe(r.Context(), path.Base(entry.Name), audio)
		if err != nil {
			log.Printf("transcription failed for %s: %v", entry.Name, err)
			continue
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		writeJSON(w, http.StatusBadRequest, response{Error: "No valid audio files found"})
		return
	}

	texts := make([]string, len(results))
	for i, t := range results {
		texts[i] = t.Text
	}
	writeJSON(w, http.StatusOK, response{Text: strings.Join(texts, " "), Files: results})
}

// allowedAudioEntry rejects archive noise (macOS metadata, hidden files) and
// non-audio extensions.
func allowedAudioEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX") {
		return false
	}
	base := path.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return allowedAudioExts[strings.ToLower(path.Ext(base))]
}

func readZipEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("write response: %v", err)
	}
}
