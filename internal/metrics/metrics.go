package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// User Activity Metrics
	NewUsersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_new_users_total",
		Help: "Total number of users seen for the first time at social sign-in.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts (successful and failed).",
	}, []string{"kind", "status"}) // kind: "social" or "admin"; status: "success" or "failed"

	// Catalog Metrics
	ToolWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_tool_writes_total",
		Help: "Total number of tool creates, updates and deletes.",
	}, []string{"op"})
	CategoryCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_category_created_total",
		Help: "Total number of categories created.",
	})
	RatingWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_rating_writes_total",
		Help: "Total number of rating writes.",
	}, []string{"op"})
	AggregateRecomputeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_aggregate_recompute_failures_total",
		Help: "Total number of rating aggregate recomputes that failed and were skipped.",
	})
	CommentCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_comment_created_total",
		Help: "Total number of comments created.",
	}, []string{"kind"}) // kind: "top_level" or "reply"
	BookmarkTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_bookmark_toggles_total",
		Help: "Total number of bookmark toggles.",
	}, []string{"result"}) // result: "added" or "removed"

	// Cache Metrics
	CatalogCacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_catalog_cache_requests_total",
		Help: "Total number of catalog cache lookups.",
	}, []string{"result"}) // result: "hit", "miss" or "error"

	// Transfer Metrics
	ImportedToolsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_imported_tools_total",
		Help: "Total number of tools inserted by import or migration.",
	}, []string{"mode"})
)
