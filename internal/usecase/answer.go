package usecase

import (
	"fmt"
	"strings"

	"ragserver/internal/domain"
	"ragserver/internal/port"
)

// Answerer serves retrieval-augmented questions: embed the question,
// fetch the most similar chunks, and hand the assembled prompt to the
// language model.
type Answerer struct {
	embedder port.Embedder
	store    port.VectorStore
	llm      port.LLM
}

func NewAnswerer(embedder port.Embedder, store port.VectorStore, llm port.LLM) *Answerer {
	return &Answerer{embedder: embedder, store: store, llm: llm}
}

// Answer retrieves the topK chunks closest to the question and asks the
// model for a grounded answer. Retrieval failures carry ErrRetrieval,
// model failures ErrLLM.
func (a *Answerer) Answer(question string, topK int, model string) (domain.Answer, error) {
	if topK <= 0 {
		topK = 5
	}

	vectors, err := a.embedder.Embed([]string{question})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: embed question: %v", domain.ErrRetrieval, err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return domain.Answer{}, fmt.Errorf("%w: embedder returned no vector for question", domain.ErrRetrieval)
	}

	matches, err := a.store.Query(vectors[0], topK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %v", domain.ErrRetrieval, err)
	}

	ids := make([]string, len(matches))
	snippets := make([]string, len(matches))
	metadatas := make([]map[string]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
		snippets[i] = m.Text
		metadatas[i] = m.Metadata
	}

	answer, err := a.llm.Chat(buildPrompt(question, ids, snippets), model)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %v", domain.ErrLLM, err)
	}

	return domain.Answer{
		Answer:    answer,
		Sources:   ids,
		Snippets:  snippets,
		Metadatas: metadatas,
	}, nil
}

// buildPrompt formats retrieved chunks into a context block tagged with
// chunk ids so the model can cite its sources.
func buildPrompt(question string, ids, snippets []string) string {
	blocks := make([]string, len(snippets))
	for i := range snippets {
		blocks[i] = fmt.Sprintf("[%s] %s", ids[i], snippets[i])
	}
	context := strings.Join(blocks, "\n\n---\n\n")

	return "You are a helpful assistant. Answer the user's QUESTION using ONLY the provided CONTEXT. " +
		"Do NOT use external knowledge or make assumptions beyond the CONTEXT.\n\n" +
		"CONTEXT:\n" + context + "\n\n" +
		"QUESTION: " + question + "\n\n" +
		"INSTRUCTIONS:\n" +
		"- If the answer is present in the CONTEXT, answer concisely (1-4 sentences).\n" +
		"- For any factual claims, include short source references (the chunk ids) in square brackets, e.g. [docid_0].\n" +
		"- When quoting or paraphrasing from CONTEXT, keep quotes short and cite the source id.\n" +
		"- If the CONTEXT does not contain enough information to answer, reply exactly: 'I don't know based on the provided context.'\n" +
		"- If sources conflict, say so and list the source ids.\n\n" +
		"Provide the answer, then a short 'Sources:' line with the ids."
}
