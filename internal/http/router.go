package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// only 限定请求方法
func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			methodNotAllowed(w)
			return
		}
		h(w, req)
	}
}

// RegisterHealthRoutes 注册评分与辅助功能路由
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.Handle("/healthz", only(http.MethodGet, h.Healthz))

	// scoring
	r.Handle("/api/v1/risk-score", only(http.MethodPost, h.RiskScore))
	r.Handle("/api/v1/sleep-score", only(http.MethodPost, h.SleepScore))
	r.Handle("/api/v1/symptoms", only(http.MethodPost, h.LogSymptom))
	r.Handle("/api/v1/nights", only(http.MethodPost, h.RecordNight))

	// history
	r.Handle("/api/v1/history", only(http.MethodGet, h.History))
	r.Handle("/api/v1/history/export", only(http.MethodGet, h.ExportHistory))

	// goals
	r.Handle("/api/v1/goals", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.GoalProgress(w, req)
		case http.MethodPost:
			h.AddGoal(w, req)
		default:
			methodNotAllowed(w)
		}
	})

	r.Handle("/api/v1/environment", only(http.MethodGet, h.Environment))

	// assistant
	r.Handle("/api/v1/insights", only(http.MethodPost, h.Insights))
	r.Handle("/api/v1/recommendations", only(http.MethodPost, h.Recommendations))
	r.Handle("/api/v1/future-risk", only(http.MethodPost, h.FutureRisk))
	r.Handle("/api/v1/chat", only(http.MethodPost, h.Chat))
	r.Handle("/api/v1/cough-analysis", only(http.MethodPost, h.CoughAnalysis))

	r.Handle("/api/v1/sos", only(http.MethodPost, h.SOS))
}
