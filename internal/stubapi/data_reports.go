package stubapi

import (
	"time"

	"admitcrm/internal/crm"
)

func (d *Dataset) DashboardStats() crm.DashboardStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out crm.DashboardStats
	today := time.Now().UTC().Format("2006-01-02")
	out.Leads.Total = len(d.leads)
	for _, lead := range d.leads {
		if lead.Status == crm.LeadActive {
			out.Leads.Active++
		}
		if len(lead.CreatedAt) >= len(today) && lead.CreatedAt[:len(today)] == today {
			out.Leads.NewToday++
		}
	}
	out.Applications.Total = len(d.applications)
	for _, app := range d.applications {
		switch app.OverallStatus {
		case crm.OverallCompleted:
			out.Applications.Completed++
		case crm.OverallInProgress, crm.OverallOnHold:
			out.Applications.Pending++
		}
	}
	for _, task := range d.tasks {
		if task.Status == crm.TaskPending || task.Status == crm.TaskInProgress {
			out.Tasks.Pending++
		}
		if task.IsOverdue {
			out.Tasks.Overdue++
		}
	}
	converted := 0
	for _, lead := range d.leads {
		if lead.Status == crm.LeadConverted {
			converted++
		}
	}
	if len(d.leads) > 0 {
		out.ConversionRate = float64(converted) / float64(len(d.leads)) * 100
	}
	return out
}

// ConversionFunnel counts leads at or past each lead-pipeline stage, in
// stage order.
func (d *Dataset) ConversionFunnel() []crm.FunnelStage {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []crm.FunnelStage{}
	for _, stage := range d.stages {
		if stage.Type != crm.StageLead {
			continue
		}
		count := 0
		for _, lead := range d.leads {
			for _, other := range d.stages {
				if other.ID == lead.StageID && other.Order >= stage.Order {
					count++
					break
				}
			}
		}
		out = append(out, crm.FunnelStage{Stage: stage.Name, Count: count})
	}
	return out
}

func (d *Dataset) SourcePerformance() []crm.SourcePerformance {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []crm.SourcePerformance{}
	for _, source := range d.sources {
		perf := crm.SourcePerformance{
			SourceID: source.ID, SourceName: source.Name, Category: source.Category,
		}
		for _, lead := range d.leads {
			if lead.SourceID != source.ID {
				continue
			}
			perf.TotalLeads++
			if lead.Status == crm.LeadConverted {
				perf.Converted++
			}
			if lead.HasApplication {
				perf.Applications++
			}
		}
		if perf.TotalLeads > 0 {
			perf.ConversionRate = float64(perf.Converted) / float64(perf.TotalLeads) * 100
		}
		out = append(out, perf)
	}
	return out
}

// LeadTrends buckets lead creation per day over the window, oldest first,
// with zero-filled gaps.
func (d *Dataset) LeadTrends(days int) []crm.TrendPoint {
	if days <= 0 {
		days = 30
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	counts := map[string]int{}
	for _, lead := range d.leads {
		if len(lead.CreatedAt) >= 10 {
			counts[lead.CreatedAt[:10]]++
		}
	}
	out := make([]crm.TrendPoint, 0, days)
	start := time.Now().UTC().AddDate(0, 0, -(days - 1))
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		out = append(out, crm.TrendPoint{Date: date, Count: counts[date]})
	}
	return out
}

func (d *Dataset) UserPerformance() []crm.UserPerformance {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []crm.UserPerformance{}
	for _, acct := range d.accounts {
		if acct.Role != crm.RoleExecutive && acct.Role != crm.RoleConsultant {
			continue
		}
		perf := crm.UserPerformance{UserID: acct.ID, UserName: acct.Name, Role: acct.Role}
		for _, lead := range d.leads {
			if lead.AssignedTo != acct.ID {
				continue
			}
			perf.LeadsAssigned++
			if lead.Status == crm.LeadConverted {
				perf.LeadsConverted++
			}
		}
		if perf.LeadsAssigned > 0 {
			perf.ConversionRate = float64(perf.LeadsConverted) / float64(perf.LeadsAssigned) * 100
		}
		for _, task := range d.tasks {
			if task.CompletedBy == acct.ID {
				perf.TasksCompleted++
			}
		}
		for _, a := range d.activities {
			if a.UserID == acct.ID {
				perf.Activities++
			}
		}
		out = append(out, perf)
	}
	return out
}

func (d *Dataset) ApplicationStatusRollup() crm.ApplicationStatusRollup {
	d.mu.Lock()
	defer d.mu.Unlock()
	rollup := crm.ApplicationStatusRollup{
		DocumentStatus:  map[string]int{},
		FeeStatus:       map[string]int{},
		AdmissionStatus: map[string]int{},
	}
	for _, app := range d.applications {
		rollup.DocumentStatus[string(app.DocumentStatus)]++
		rollup.FeeStatus[string(app.FeeStatus)]++
		rollup.AdmissionStatus[string(app.AdmissionStatus)]++
	}
	return rollup
}

func (d *Dataset) SystemStats() crm.SystemStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	var stats crm.SystemStats
	stats.Users.Total = len(d.accounts)
	stats.Users.ByRole = map[string]int{}
	for _, acct := range d.accounts {
		if acct.IsActive {
			stats.Users.Active++
		}
		stats.Users.ByRole[string(acct.Role)]++
	}
	stats.Leads.Total = len(d.leads)
	for _, lead := range d.leads {
		switch lead.Status {
		case crm.LeadActive:
			stats.Leads.Active++
		case crm.LeadConverted:
			stats.Leads.Converted++
		}
	}
	stats.Applications.Total = len(d.applications)
	for _, app := range d.applications {
		switch app.OverallStatus {
		case crm.OverallCompleted:
			stats.Applications.Completed++
		default:
			stats.Applications.InProgress++
		}
	}
	stats.Tasks.Total = len(d.tasks)
	for _, task := range d.tasks {
		switch task.Status {
		case crm.TaskPending, crm.TaskInProgress:
			stats.Tasks.Pending++
		case crm.TaskCompleted:
			stats.Tasks.Completed++
		}
	}
	return stats
}
