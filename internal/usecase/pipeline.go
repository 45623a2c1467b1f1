package usecase

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"ragserver/internal/domain"
	"ragserver/internal/port"
)

// Pipeline orchestrates document indexing: chunk, embed, store, tracked
// through the job Tracker. Submissions are validated synchronously and
// indexed on a fixed pool of background workers fed by a bounded queue.
type Pipeline struct {
	chunker  port.Chunker
	embedder port.Embedder
	store    port.VectorStore
	tracker  *Tracker

	queue chan indexJob
	wg    sync.WaitGroup
	once  sync.Once
}

type indexJob struct {
	docID    string
	text     string
	metadata map[string]string
}

// NewPipeline creates a pipeline and starts its workers. queueSize
// bounds how many accepted submissions may wait for a worker; further
// submissions are rejected.
func NewPipeline(ch port.Chunker, embedder port.Embedder, store port.VectorStore, tracker *Tracker, workers, queueSize int) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	p := &Pipeline{
		chunker:  ch,
		embedder: embedder,
		store:    store,
		tracker:  tracker,
		queue:    make(chan indexJob, queueSize),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit validates a document and schedules it for background indexing.
// The tracker reports Pending when Submit returns nil; the caller polls
// it for progress. An empty document is rejected with ErrValidation
// before any job state exists; a full queue rejects with ErrRateLimited.
func (p *Pipeline) Submit(docID, text string, metadata map[string]string) error {
	if len(p.chunker.Split(text)) == 0 {
		return fmt.Errorf("%w: no text chunks generated for indexing (empty document or extraction failure)", domain.ErrValidation)
	}

	p.tracker.MarkPending(docID)
	select {
	case p.queue <- indexJob{docID: docID, text: text, metadata: metadata}:
		return nil
	default:
		p.tracker.withdraw(docID)
		return fmt.Errorf("%w: indexing queue is full", domain.ErrRateLimited)
	}
}

// Close stops accepting jobs and waits for the workers to drain the
// queue.
func (p *Pipeline) Close() {
	p.once.Do(func() { close(p.queue) })
	p.wg.Wait()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()
	for job := range p.queue {
		p.index(job)
	}
}

// index runs one document's job. Every failure, panics included, is
// captured into the tracker; nothing escapes the worker.
func (p *Pipeline) index(job indexJob) {
	defer func() {
		if r := recover(); r != nil {
			p.tracker.MarkFailed(job.docID, fmt.Sprintf("panic: %v", r))
			slog.Error("indexing worker panic", "doc_id", job.docID, "panic", r)
		}
	}()

	p.tracker.MarkIndexing(job.docID)

	chunks := p.chunker.Split(job.text)
	if len(chunks) == 0 {
		// Pre-validation should have rejected this; record it rather
		// than crash the worker.
		p.tracker.MarkFailed(job.docID, "no text chunks generated for indexing")
		return
	}

	vectors, err := p.embedder.Embed(chunks)
	if err != nil {
		p.fail(job.docID, fmt.Errorf("embed chunks: %w", err))
		return
	}
	if len(vectors) != len(chunks) {
		p.fail(job.docID, fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(vectors), len(chunks)))
		return
	}
	for i, v := range vectors {
		if len(v) == 0 {
			p.fail(job.docID, fmt.Errorf("empty embedding vector for chunk %d", i))
			return
		}
	}

	ids := make([]string, len(chunks))
	metadatas := make([]map[string]string, len(chunks))
	for i := range chunks {
		ids[i] = fmt.Sprintf("%s_%d", job.docID, i)
		metadatas[i] = job.metadata
	}

	if err := p.store.Add(ids, chunks, metadatas, vectors); err != nil {
		p.fail(job.docID, fmt.Errorf("store chunks: %w", err))
		return
	}

	p.tracker.MarkDone(job.docID)
	slog.Debug("indexing complete", "doc_id", job.docID, "chunks", len(chunks))
}

func (p *Pipeline) fail(docID string, err error) {
	p.tracker.MarkFailed(docID, err.Error())
	slog.Error("indexing failed", "doc_id", docID, "error", err)
}

// ListDocuments aggregates stored chunks into per-document summaries.
// Chunk ids have the form "{doc_id}_{i}"; everything before the first
// underscore is the document id.
func (p *Pipeline) ListDocuments() ([]domain.DocumentSummary, error) {
	entries, err := p.store.List()
	if err != nil {
		return nil, fmt.Errorf("list stored chunks: %w", err)
	}

	byDoc := make(map[string]*domain.DocumentSummary)
	for _, e := range entries {
		docID, _, _ := strings.Cut(e.ID, "_")
		summary, ok := byDoc[docID]
		if !ok {
			summary = &domain.DocumentSummary{DocID: docID}
			byDoc[docID] = summary
		}
		summary.Count++
		if summary.SampleMetadata == nil {
			summary.SampleMetadata = e.Metadata
		}
	}

	summaries := make([]domain.DocumentSummary, 0, len(byDoc))
	for _, s := range byDoc {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].DocID < summaries[j].DocID })
	return summaries, nil
}

// DeleteDocument removes every chunk belonging to the document. It
// reports whether any chunk existed.
func (p *Pipeline) DeleteDocument(docID string) (bool, error) {
	entries, err := p.store.List()
	if err != nil {
		return false, fmt.Errorf("list stored chunks: %w", err)
	}

	prefix := docID + "_"
	var ids []string
	for _, e := range entries {
		if strings.HasPrefix(e.ID, prefix) {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return false, nil
	}

	if err := p.store.Delete(ids); err != nil {
		return false, fmt.Errorf("delete chunks: %w", err)
	}
	return true, nil
}
