package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserver/config"
	"ragserver/internal/adapter/chunker"
	"ragserver/internal/adapter/embedding"
	"ragserver/internal/adapter/extract"
	"ragserver/internal/adapter/ratelimit"
	"ragserver/internal/adapter/vectorstore"
	"ragserver/internal/domain"
	"ragserver/internal/usecase"
)

type testLLM struct {
	reply  string
	models []string
}

func (l *testLLM) Chat(prompt, model string) (string, error) { return l.reply, nil }
func (l *testLLM) ListModels() ([]string, error)             { return l.models, nil }

type env struct {
	srv     *httptest.Server
	tracker *usecase.Tracker
}

func newEnv(t *testing.T, mutate func(cfg *config.Config)) *env {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.UploadDir = t.TempDir()
	cfg.RateLimit.UploadLimit = 100
	cfg.RateLimit.AskLimit = 100
	if mutate != nil {
		mutate(cfg)
	}

	emb := embedding.NewMockEmbedder(64)
	store := vectorstore.NewMemoryStore()
	tracker := usecase.NewTracker()
	pipeline := usecase.NewPipeline(
		chunker.New(cfg.Chunking.TargetSize, cfg.Chunking.Overlap),
		emb, store, tracker, cfg.Indexing.Workers, cfg.Indexing.QueueSize,
	)
	t.Cleanup(pipeline.Close)

	llm := &testLLM{reply: "Paragraph one. Sources: [doc_0]", models: []string{"llama3.1", "mistral"}}
	answerer := usecase.NewAnswerer(emb, store, llm)

	limiter := ratelimit.NewMemoryLimiter(ratelimit.Limits{
		Window: time.Duration(cfg.RateLimit.WindowSecs) * time.Second,
		PerClass: map[string]int{
			ratelimit.ClassUpload: cfg.RateLimit.UploadLimit,
			ratelimit.ClassAsk:    cfg.RateLimit.AskLimit,
		},
	})

	s := New(cfg, pipeline, answerer, tracker, extract.New(), llm, limiter)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &env{srv: srv, tracker: tracker}
}

func (e *env) upload(t *testing.T, filename, content string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(e.srv.URL+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (e *env) waitDone(t *testing.T, docID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(e.srv.URL + "/index/status/" + docID)
		if err != nil {
			return false
		}
		var body map[string]string
		decode(t, resp, &body)
		return body["status"] == "done"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestUploadIndexAsk(t *testing.T) {
	e := newEnv(t, nil)

	resp := e.upload(t, "notes.txt", "Paragraph one.\n\nParagraph two.")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var up struct {
		Status   string `json:"status"`
		DocID    string `json:"doc_id"`
		Indexing string `json:"indexing"`
	}
	decode(t, resp, &up)
	assert.Equal(t, "ok", up.Status)
	assert.Equal(t, "pending", up.Indexing)
	require.NotEmpty(t, up.DocID)
	assert.NotContains(t, up.DocID, "_")

	e.waitDone(t, up.DocID)

	resp, err := http.Get(e.srv.URL + "/ask?q=" + "What+is+in+paragraph+one%3F" + "&top_k=1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ans domain.Answer
	decode(t, resp, &ans)
	require.Len(t, ans.Snippets, 1)
	assert.Contains(t, ans.Snippets[0], "Paragraph one.")
	assert.Equal(t, up.DocID+"_0", ans.Sources[0])
	assert.NotEmpty(t, ans.Answer)
}

func TestUploadEmptyDocumentRejected(t *testing.T) {
	e := newEnv(t, nil)

	resp := e.upload(t, "empty.txt", "   \n\n   ")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Contains(t, body["detail"], "no text chunks generated")

	// Rejected uploads never acquire job state.
	resp, err := http.Get(e.srv.URL + "/index/status/nonexistent")
	require.NoError(t, err)
	var status map[string]string
	decode(t, resp, &status)
	assert.Equal(t, "unknown", status["status"])
}

func TestUploadUnsupportedExtension(t *testing.T) {
	e := newEnv(t, nil)

	resp := e.upload(t, "binary.exe", "content")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Contains(t, body["detail"], "Unsupported file type")
}

func TestUploadTooLarge(t *testing.T) {
	e := newEnv(t, func(cfg *config.Config) {
		cfg.Server.MaxUploadBytes = 64
	})

	resp := e.upload(t, "big.txt", strings.Repeat("x", 4096))
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestUploadRateLimit(t *testing.T) {
	e := newEnv(t, func(cfg *config.Config) {
		cfg.RateLimit.UploadLimit = 2
	})

	for i := 0; i < 2; i++ {
		resp := e.upload(t, "doc.txt", fmt.Sprintf("Document number %d.", i))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := e.upload(t, "doc.txt", "One too many.")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "Too many upload requests, try later", body["detail"])
}

func TestAskRequiresQuery(t *testing.T) {
	e := newEnv(t, nil)

	resp, err := http.Get(e.srv.URL + "/ask")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteDocumentKeepsOthers(t *testing.T) {
	e := newEnv(t, nil)

	respA := e.upload(t, "a.txt", "Alpha content.")
	var upA struct {
		DocID string `json:"doc_id"`
	}
	decode(t, respA, &upA)
	respB := e.upload(t, "b.txt", "Beta content.")
	var upB struct {
		DocID string `json:"doc_id"`
	}
	decode(t, respB, &upB)

	e.waitDone(t, upA.DocID)
	e.waitDone(t, upB.DocID)

	req, err := http.NewRequest(http.MethodDelete, e.srv.URL+"/documents/"+upA.DocID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var deleted map[string]string
	decode(t, resp, &deleted)
	assert.Equal(t, upA.DocID, deleted["deleted"])

	resp, err = http.Get(e.srv.URL + "/documents")
	require.NoError(t, err)
	var list struct {
		Documents []domain.DocumentSummary `json:"documents"`
	}
	decode(t, resp, &list)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, upB.DocID, list.Documents[0].DocID)
	assert.Equal(t, "b.txt", list.Documents[0].SampleMetadata["source_filename"])
}

func TestDeleteMissingDocument(t *testing.T) {
	e := newEnv(t, nil)

	req, err := http.NewRequest(http.MethodDelete, e.srv.URL+"/documents/nope", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "Document not found", body["detail"])
}

func TestListModels(t *testing.T) {
	e := newEnv(t, nil)

	resp, err := http.Get(e.srv.URL + "/llm/models")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Models []string `json:"models"`
	}
	decode(t, resp, &body)
	assert.Equal(t, []string{"llama3.1", "mistral"}, body.Models)
}

func TestHealth(t *testing.T) {
	e := newEnv(t, nil)

	resp, err := http.Get(e.srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	decode(t, resp, &body)
	assert.True(t, body["ok"])
}

func TestCORSAllowedOrigin(t *testing.T) {
	e := newEnv(t, nil)

	req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}
