package handler

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/newsflow/go-sanitizer-service/internal/config"
	"github.com/newsflow/go-sanitizer-service/internal/extractor"
	"github.com/newsflow/go-sanitizer-service/internal/fetcher"
	"github.com/newsflow/go-sanitizer-service/internal/json"
	"github.com/newsflow/go-sanitizer-service/internal/metrics"
	"github.com/newsflow/go-sanitizer-service/internal/service"
)

// MaxBatchDocuments 单次批量请求的文档上限
const MaxBatchDocuments = 100

// transport 指标和审计中的来源标识
const transport = "http"

// Handler HTTP 处理器
type Handler struct {
	service   *service.Service
	importer  *extractor.Importer
	metrics   *metrics.Metrics
	semaphore chan struct{}
	config    *config.Config
}

// SanitizeRequest 净化请求
type SanitizeRequest struct {
	HTML          string   `json:"html"`
	EntryID       string   `json:"entryId,omitempty"`
	AllowedTags   []string `json:"allowedTags,omitempty"`
	ForbiddenTags []string `json:"forbiddenTags,omitempty"`
}

// SanitizeResponse 净化响应
type SanitizeResponse struct {
	HTML        string   `json:"html"`
	Text        string   `json:"text"`
	Valid       bool     `json:"valid"`
	InvalidTags []string `json:"invalidTags"`
}

// ValidateResponse 校验响应
type ValidateResponse struct {
	Valid       bool     `json:"valid"`
	InvalidTags []string `json:"invalidTags"`
}

// TextResponse 纯文本响应
type TextResponse struct {
	Text string `json:"text"`
}

// ConditionalRequest 按配置净化的请求，html 可以为 null
type ConditionalRequest struct {
	HTML    *string `json:"html"`
	EntryID string  `json:"entryId,omitempty"`
}

// ConditionalResponse 按配置净化的响应
type ConditionalResponse struct {
	HTML      *string `json:"html"`
	Sanitized bool    `json:"sanitized"`
}

// ImportRequest 远程导入请求
type ImportRequest struct {
	URL     string            `json:"url"`
	Referer string            `json:"referer,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Timeout int               `json:"timeout,omitempty"` // 毫秒
}

// BatchRequest 批量净化请求
type BatchRequest struct {
	Documents []SanitizeRequest `json:"documents"`
}

// BatchResponse 批量净化响应，结果顺序与请求一致
type BatchResponse struct {
	Results  []SanitizeResponse `json:"results"`
	Duration int64              `json:"duration"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status               string `json:"status"`
	Concurrency          int    `json:"concurrency"`
	Available            int    `json:"available"`
	UntrustedContentMode bool   `json:"untrustedContentMode"`
}

// New 创建处理器；importer 为 nil 时 /import 返回 501
func New(cfg *config.Config, svc *service.Service, importer *extractor.Importer, m *metrics.Metrics) *Handler {
	return &Handler{
		service:   svc,
		importer:  importer,
		metrics:   m,
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
		config:    cfg,
	}
}

// Routes 路由
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(h.limit)
		r.Post("/sanitize", h.handleSanitize)
		r.Post("/validate", h.handleValidate)
		r.Post("/text", h.handleText)
		r.Post("/conditional", h.handleConditional)
		r.Post("/import", h.handleImport)
		r.Post("/batch", h.handleBatch)
	})

	return r
}

// limit 并发控制，满载时直接返回 503
func (h *Handler) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case h.semaphore <- struct{}{}:
			defer func() { <-h.semaphore }()
		default:
			h.writeError(w, http.StatusServiceUnavailable, "Server is busy")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth 健康检查
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:               "ok",
		Concurrency:          h.config.MaxConcurrent,
		Available:            h.config.MaxConcurrent - len(h.semaphore),
		UntrustedContentMode: h.service.Sanitizer().Enabled(),
	})
}

// handleSanitize 净化，可选自定义标签策略
func (h *Handler) handleSanitize(w http.ResponseWriter, r *http.Request) {
	var req SanitizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, http.StatusOK, h.sanitize(r.Context(), req))
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req SanitizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	res := h.service.Process(r.Context(), transport, service.OpValidate, service.Document{EntryID: req.EntryID, HTML: req.HTML})
	h.writeJSON(w, http.StatusOK, ValidateResponse{Valid: res.IsValid(), InvalidTags: res.InvalidTags})
}

func (h *Handler) handleText(w http.ResponseWriter, r *http.Request) {
	var req SanitizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	res := h.service.Process(r.Context(), transport, service.OpText, service.Document{EntryID: req.EntryID, HTML: req.HTML})
	h.writeJSON(w, http.StatusOK, TextResponse{Text: res.Text})
}

func (h *Handler) handleConditional(w http.ResponseWriter, r *http.Request) {
	var req ConditionalRequest
	if !h.decode(w, r, &req) {
		return
	}
	out, res := h.service.Conditional(r.Context(), transport, req.EntryID, req.HTML)
	h.writeJSON(w, http.StatusOK, ConditionalResponse{HTML: out, Sanitized: res != nil})
}

// handleImport 抓取远程文章并净化
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	if h.importer == nil {
		h.writeError(w, http.StatusNotImplemented, "Import is disabled")
		return
	}

	var req ImportRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		h.writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	timeout := time.Duration(req.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = h.config.RequestTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	article, err := h.importer.Import(ctx, transport, fetcher.Request{URL: req.URL, Referer: req.Referer, Headers: req.Headers})
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, extractor.ErrEmptyInput) || errors.Is(err, extractor.ErrURLRequired) || errors.Is(err, fetcher.ErrNotHTML) {
			status = http.StatusUnprocessableEntity
		}
		h.writeError(w, status, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, article)
}

// handleBatch 批量净化
func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 {
		h.writeError(w, http.StatusBadRequest, "Documents is required")
		return
	}
	if len(req.Documents) > MaxBatchDocuments {
		h.writeError(w, http.StatusBadRequest, "Maximum 100 documents per batch")
		return
	}

	start := time.Now()
	results := h.batchSanitize(r.Context(), req.Documents, runtime.NumCPU())
	h.writeJSON(w, http.StatusOK, BatchResponse{
		Results:  results,
		Duration: time.Since(start).Milliseconds(),
	})
}

func (h *Handler) sanitize(ctx context.Context, req SanitizeRequest) SanitizeResponse {
	res := h.service.Process(ctx, transport, service.OpSanitize, service.Document{
		EntryID:       req.EntryID,
		HTML:          req.HTML,
		AllowedTags:   req.AllowedTags,
		ForbiddenTags: req.ForbiddenTags,
	})
	return SanitizeResponse{
		HTML:        res.HTML,
		Text:        res.Text,
		Valid:       res.IsValid(),
		InvalidTags: res.InvalidTags,
	}
}

// batchSanitize 批量净化
func (h *Handler) batchSanitize(ctx context.Context, docs []SanitizeRequest, concurrency int) []SanitizeResponse {
	results := make([]SanitizeResponse, len(docs))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, doc := range docs {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, d SanitizeRequest) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = h.sanitize(ctx, d)
		}(i, doc)
	}

	wg.Wait()
	return results
}

// decode 读取 JSON 请求体；失败时写入错误响应并返回 false
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
