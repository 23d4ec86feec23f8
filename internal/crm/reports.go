package crm

// DashboardStats is the headline rollup behind the dashboard landing page.
type DashboardStats struct {
	Leads struct {
		Total    int `json:"total"`
		Active   int `json:"active"`
		NewToday int `json:"new_today"`
	} `json:"leads"`
	Applications struct {
		Total     int `json:"total"`
		Pending   int `json:"pending"`
		Completed int `json:"completed"`
	} `json:"applications"`
	Tasks struct {
		Pending int `json:"pending"`
		Overdue int `json:"overdue"`
	} `json:"tasks"`
	ConversionRate float64 `json:"conversion_rate"`
}

// FunnelStage is one step of the conversion funnel report.
type FunnelStage struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// SourcePerformance reports conversion effectiveness per lead source.
type SourcePerformance struct {
	SourceID       int     `json:"source_id"`
	SourceName     string  `json:"source_name"`
	Category       string  `json:"category"`
	TotalLeads     int     `json:"total_leads"`
	Converted      int     `json:"converted"`
	Applications   int     `json:"applications"`
	ConversionRate float64 `json:"conversion_rate"`
}

// UserPerformance reports per-user pipeline productivity.
type UserPerformance struct {
	UserID         int     `json:"user_id"`
	UserName       string  `json:"user_name"`
	Role           Role    `json:"role"`
	LeadsAssigned  int     `json:"leads_assigned"`
	LeadsConverted int     `json:"leads_converted"`
	ConversionRate float64 `json:"conversion_rate"`
	TasksCompleted int     `json:"tasks_completed"`
	Activities     int     `json:"activities"`
}

// TrendPoint is one day of the lead-trends report.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ApplicationStatusRollup buckets applications by each sub-status axis.
type ApplicationStatusRollup struct {
	DocumentStatus  map[string]int `json:"document_status"`
	FeeStatus       map[string]int `json:"fee_status"`
	AdmissionStatus map[string]int `json:"admission_status"`
}
