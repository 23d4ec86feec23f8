// Package reports fetches the read-only analytics panels. Reports carry no
// collection semantics, so the store is a plain cache of the last result per
// panel rather than a reducer.
package reports

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"admitcrm/internal/crm"
	"admitcrm/internal/gateway"
	"admitcrm/internal/notify"
	"admitcrm/pkg/apierror"
)

// Dashboard bundles the panels the landing page renders together.
type Dashboard struct {
	Stats        *crm.DashboardStats
	Funnel       []crm.FunnelStage
	LeadTrends   []crm.TrendPoint
	RecentMoves  []crm.Activity
	Distribution []crm.StageCount
}

type Service struct {
	gw     *gateway.Client
	notify notify.Notifier

	mu   sync.Mutex
	last Dashboard
}

func NewService(gw *gateway.Client, n notify.Notifier) *Service {
	if n == nil {
		n = notify.Discard{}
	}
	return &Service{gw: gw, notify: n}
}

// Last returns the most recent dashboard bundle, whole panels may be nil if
// never fetched.
func (s *Service) Last() Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Service) DashboardStats(ctx context.Context) (*crm.DashboardStats, error) {
	var out crm.DashboardStats
	if err := s.gw.Get(ctx, "/reports/dashboard", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch dashboard stats"))
		return nil, err
	}
	s.mu.Lock()
	s.last.Stats = &out
	s.mu.Unlock()
	return &out, nil
}

func (s *Service) ConversionFunnel(ctx context.Context) ([]crm.FunnelStage, error) {
	var out struct {
		Funnel []crm.FunnelStage `json:"funnel"`
	}
	if err := s.gw.Get(ctx, "/reports/conversion-funnel", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch conversion funnel"))
		return nil, err
	}
	s.mu.Lock()
	s.last.Funnel = out.Funnel
	s.mu.Unlock()
	return out.Funnel, nil
}

func (s *Service) SourcePerformance(ctx context.Context) ([]crm.SourcePerformance, error) {
	var out struct {
		Performance []crm.SourcePerformance `json:"performance"`
	}
	if err := s.gw.Get(ctx, "/reports/source-performance", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch source performance"))
		return nil, err
	}
	return out.Performance, nil
}

// LeadTrends returns one point per day over the given window.
func (s *Service) LeadTrends(ctx context.Context, days int) ([]crm.TrendPoint, error) {
	q := url.Values{}
	if days != 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var out struct {
		Trends []crm.TrendPoint `json:"trends"`
	}
	if err := s.gw.Get(ctx, "/reports/lead-trends", q, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch lead trends"))
		return nil, err
	}
	s.mu.Lock()
	s.last.LeadTrends = out.Trends
	s.mu.Unlock()
	return out.Trends, nil
}

func (s *Service) UserPerformance(ctx context.Context) ([]crm.UserPerformance, error) {
	var out struct {
		Performance []crm.UserPerformance `json:"performance"`
	}
	if err := s.gw.Get(ctx, "/reports/user-performance", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch user performance"))
		return nil, err
	}
	return out.Performance, nil
}

func (s *Service) StageDistribution(ctx context.Context) ([]crm.StageCount, error) {
	var out struct {
		Distribution []crm.StageCount `json:"distribution"`
	}
	if err := s.gw.Get(ctx, "/reports/stage-distribution", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch stage distribution"))
		return nil, err
	}
	s.mu.Lock()
	s.last.Distribution = out.Distribution
	s.mu.Unlock()
	return out.Distribution, nil
}

func (s *Service) ApplicationStatusRollup(ctx context.Context) (*crm.ApplicationStatusRollup, error) {
	var out crm.ApplicationStatusRollup
	if err := s.gw.Get(ctx, "/reports/application-status", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch application status report"))
		return nil, err
	}
	return &out, nil
}

func (s *Service) RecentActivities(ctx context.Context, limit int) ([]crm.Activity, error) {
	q := url.Values{}
	if limit != 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Activities []crm.Activity `json:"activities"`
	}
	if err := s.gw.Get(ctx, "/reports/recent-activities", q, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch recent activities"))
		return nil, err
	}
	s.mu.Lock()
	s.last.RecentMoves = out.Activities
	s.mu.Unlock()
	return out.Activities, nil
}

// WarmDashboard fetches every landing-page panel concurrently and returns
// the bundle. A single failing panel fails the whole warm-up; callers can
// still fall back to panel-level fetches.
func (s *Service) WarmDashboard(ctx context.Context, trendDays int) (Dashboard, error) {
	g, ctx := errgroup.WithContext(ctx)
	var out Dashboard

	g.Go(func() error {
		stats, err := s.DashboardStats(ctx)
		out.Stats = stats
		return err
	})
	g.Go(func() error {
		funnel, err := s.ConversionFunnel(ctx)
		out.Funnel = funnel
		return err
	})
	g.Go(func() error {
		trends, err := s.LeadTrends(ctx, trendDays)
		out.LeadTrends = trends
		return err
	})
	g.Go(func() error {
		moves, err := s.RecentActivities(ctx, 10)
		out.RecentMoves = moves
		return err
	})
	g.Go(func() error {
		dist, err := s.StageDistribution(ctx)
		out.Distribution = dist
		return err
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}
