package models

// DashboardMetrics aggregates the numbers shown on the console landing page.
// Member counts are computed against "now" via the status resolver, so a
// membership that lapsed overnight is counted as expired without any write.
type DashboardMetrics struct {
	TotalMembers    int   `json:"total_members"`
	ActiveMembers   int   `json:"active_members"`
	ExpiredMembers  int   `json:"expired_members"`
	PendingMembers  int   `json:"pending_members"`
	MonthlyRevenue  int64 `json:"monthly_revenue"`
	MonthlyExpenses int64 `json:"monthly_expenses"`
	TotalRevenue    int64 `json:"total_revenue"`
	TotalExpenses   int64 `json:"total_expenses"`
}
