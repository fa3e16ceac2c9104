package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/promptlab-ai/promptlab/internal/api"
	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/promptlab-ai/promptlab/internal/ingest"
	"github.com/promptlab-ai/promptlab/internal/llm"
	"github.com/promptlab-ai/promptlab/internal/service"
)

// RetrieverService indexes documents and answers similarity queries
type RetrieverService interface {
	Index(ctx context.Context, docID, text string, chunkSize, overlap int) (*service.IndexResult, error)
	Query(ctx context.Context, docID, query string, topK int) (*service.QueryResult, error)
}

// EmbedService is the raw embedding capability the embed stage visualizes
type EmbedService interface {
	EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error)
}

// FetchService turns a URL into plain text
type FetchService interface {
	Fetch(ctx context.Context, url string) (*ingest.FetchResult, error)
}

// GenerateService is the LLM capability the generate stage needs
type GenerateService interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error)
}

type RAGHandler struct {
	retriever RetrieverService
	embedder  EmbedService
	fetcher   FetchService
	chat      GenerateService
}

func NewRAGHandler(retriever RetrieverService, embedder EmbedService, fetcher FetchService, chat GenerateService) *RAGHandler {
	return &RAGHandler{retriever: retriever, embedder: embedder, fetcher: fetcher, chat: chat}
}

const (
	maxUploadBytes = 2 * 1024 * 1024
	defaultDocID   = "default"
	defaultTopK    = 3
)

type UploadResponse struct {
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	CharCount int    `json:"char_count"`
}

// Upload accepts a txt/md file and returns its text for later stages
func (h *RAGHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".txt", ".md", ".markdown":
	default:
		api.Error(w, http.StatusBadRequest, "only .txt and .md files are supported")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}
	content := strings.ToValidUTF8(string(raw), "")

	api.Success(w, http.StatusOK, UploadResponse{
		Filename:  header.Filename,
		Content:   content,
		CharCount: utf8.RuneCountInString(content),
	})
}

type FetchURLRequest struct {
	URL string `json:"url"`
}

// FetchURL downloads a page and reduces it to plain text
func (h *RAGHandler) FetchURL(w http.ResponseWriter, r *http.Request) {
	var req FetchURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

type ChunkRequest struct {
	Content      string `json:"content"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

type ChunkResponse struct {
	TotalChunks  int            `json:"total_chunks"`
	ChunkSize    int            `json:"chunk_size"`
	ChunkOverlap int            `json:"chunk_overlap"`
	Chunks       []domain.Chunk `json:"chunks"`
}

// Chunk splits content into overlapping windows. Out-of-range parameters are
// clamped to workable values and the effective ones echoed back.
func (h *RAGHandler) Chunk(w http.ResponseWriter, r *http.Request) {
	var req ChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	size, overlap := service.ClampChunkParams(req.ChunkSize, req.ChunkOverlap)
	chunks, err := service.ChunkText(req.Content, size, overlap)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ChunkResponse{
		TotalChunks:  len(chunks),
		ChunkSize:    size,
		ChunkOverlap: overlap,
		Chunks:       chunks,
	})
}

type EmbedRequest struct {
	Texts []string `json:"texts"`
}

type EmbedPreview struct {
	ID      int       `json:"id"`
	Preview []float32 `json:"preview"`
	Norm    float64   `json:"norm"`
}

type EmbedResponse struct {
	Count      int            `json:"count"`
	Dimensions int            `json:"dimensions"`
	Embeddings []EmbedPreview `json:"embeddings"`
}

// Embed vectorizes texts and returns truncated vector previews with norms
func (h *RAGHandler) Embed(w http.ResponseWriter, r *http.Request) {
	var req EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Texts) == 0 {
		api.Error(w, http.StatusBadRequest, "texts is required")
		return
	}

	embeddings, err := h.embedder.EmbedBatch(r.Context(), req.Texts)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	previews := make([]EmbedPreview, len(embeddings))
	for i, e := range embeddings {
		previews[i] = EmbedPreview{ID: e.ChunkID, Preview: service.PreviewVector(e.Vector), Norm: e.Norm}
	}

	dimensions := 0
	if len(embeddings) > 0 {
		dimensions = len(embeddings[0].Vector)
	}

	api.Success(w, http.StatusOK, EmbedResponse{
		Count:      len(embeddings),
		Dimensions: dimensions,
		Embeddings: previews,
	})
}

type IndexRequest struct {
	Content      string `json:"content"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	DocID        string `json:"doc_id"`
}

// Index runs the whole pipeline: chunk, embed, store
func (h *RAGHandler) Index(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocID == "" {
		req.DocID = defaultDocID
	}

	size, overlap := service.ClampChunkParams(req.ChunkSize, req.ChunkOverlap)
	result, err := h.retriever.Index(r.Context(), req.DocID, req.Content, size, overlap)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
	DocID string `json:"doc_id"`
}

// Search embeds the query and returns the top-k most similar chunks
func (h *RAGHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocID == "" {
		req.DocID = defaultDocID
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}

	result, err := h.retriever.Query(r.Context(), req.DocID, req.Query, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

type GenerateRequest struct {
	Query         string                `json:"query"`
	SearchResults []domain.SearchResult `json:"search_results"`
	Model         string                `json:"model"`
}

type GenerateResponse struct {
	AssembledPrompt string       `json:"assembled_prompt"`
	Answer          string       `json:"answer"`
	Usage           domain.Usage `json:"usage"`
}

// Generate assembles the retrieved chunks into a grounded prompt and asks the
// model to answer from them.
func (h *RAGHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	prompt := service.AssembleRAGPrompt(req.Query, req.SearchResults)
	result, err := h.chat.Chat(r.Context(), llm.ChatRequest{
		Model:    req.Model,
		Messages: []llm.Message{{Role: domain.RoleUser, Content: prompt}},
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, GenerateResponse{
		AssembledPrompt: prompt,
		Answer:          result.Content,
		Usage:           result.Usage,
	})
}
