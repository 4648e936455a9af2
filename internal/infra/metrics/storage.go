package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(kvOpsTotal) }

var kvOpsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rag_chat_kv_ops_total",
		Help: "Key-value store operations by driver, op and result.",
	},
	[]string{"driver", "op", "result"}, // e.g. driver="file", op="get", result="miss"
)

func IncKVOp(driver, op, result string) {
	kvOpsTotal.WithLabelValues(norm(driver), norm(op), norm(result)).Inc()
}
