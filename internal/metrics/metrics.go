package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "foodgram",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	RecipeWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodgram",
		Name:      "recipe_writes_total",
		Help:      "Recipe create, update and delete operations that committed.",
	}, []string{"operation"})

	MembershipChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodgram",
		Name:      "membership_changes_total",
		Help:      "Favorite and shopping cart additions and removals.",
	}, []string{"kind", "operation"})

	ShoppingListDownloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "foodgram",
		Name:      "shopping_list_downloads_total",
		Help:      "Rendered shopping lists.",
	})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodgram",
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected by a rate limiter.",
	}, []string{"limiter"})
)
