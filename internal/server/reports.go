package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"opsdesk/internal/domain"
	"opsdesk/internal/export"
	"opsdesk/internal/reports"
)

type reportQuery struct {
	From      string `query:"fromDate" example:"2025-01-01"`
	To        string `query:"toDate" example:"2025-01-31"`
	UserID    string `query:"userId"`
	ProjectID string `query:"projectId"`
	ClientID  string `query:"clientId"`
	ActorID   string `header:"X-Actor-Id"`
}

func (q reportQuery) filter() (reports.Filter, error) {
	from, err := parseDate(q.From, "fromDate")
	if err != nil {
		return reports.Filter{}, err
	}
	to, err := parseDate(q.To, "toDate")
	if err != nil {
		return reports.Filter{}, err
	}
	return reports.Filter{From: from, To: to}, nil
}

// forcedOwner pins the lead analytics scope to the caller's own id when the
// caller identifies as a non-admin user. Admins and anonymous callers get the
// requested scope unchanged.
func forcedOwner(ctx context.Context, e reports.Engine, actorID, requested string) string {
	if actorID == "" {
		return requested
	}
	u, err := e.Store.GetUser(ctx, actorID)
	if err != nil {
		return requested
	}
	if !domain.IsAdmin(u.Role) {
		return u.ID
	}
	return requested
}

func registerReports(api huma.API, e reports.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "staff-performance-report",
		Method:      http.MethodGet,
		Path:        "/reports/staff-performance",
		Summary:     "Staff performance report",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *reportQuery) (*struct {
		Body ReportEnvelope[reports.StaffPerformance] `json:"body"`
	}, error) {
		f, err := input.filter()
		if err != nil {
			return nil, handleError(err)
		}
		rep, err := e.StaffPerformance(ctx, f, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportEnvelope[reports.StaffPerformance] `json:"body"`
		}{Body: okEnvelope(rep)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "project-performance-report",
		Method:      http.MethodGet,
		Path:        "/reports/project-performance",
		Summary:     "Project performance report",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *reportQuery) (*struct {
		Body ReportEnvelope[reports.ProjectPerformance] `json:"body"`
	}, error) {
		rep, err := e.ProjectPerformance(ctx, input.ProjectID, input.ClientID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportEnvelope[reports.ProjectPerformance] `json:"body"`
		}{Body: okEnvelope(rep)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "lead-analytics-report",
		Method:      http.MethodGet,
		Path:        "/reports/lead-analytics",
		Summary:     "Lead analytics report",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *reportQuery) (*struct {
		Body ReportEnvelope[reports.LeadAnalytics] `json:"body"`
	}, error) {
		f, err := input.filter()
		if err != nil {
			return nil, handleError(err)
		}
		owner := forcedOwner(ctx, e, input.ActorID, input.UserID)
		rep, err := e.LeadAnalytics(ctx, f, owner)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportEnvelope[reports.LeadAnalytics] `json:"body"`
		}{Body: okEnvelope(rep)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "dashboard-report",
		Method:      http.MethodGet,
		Path:        "/reports/dashboard",
		Summary:     "Operations dashboard",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *reportQuery) (*struct {
		Body ReportEnvelope[reports.Dashboard] `json:"body"`
	}, error) {
		f, err := input.filter()
		if err != nil {
			return nil, handleError(err)
		}
		rep, err := e.Dashboard(ctx, f)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportEnvelope[reports.Dashboard] `json:"body"`
		}{Body: okEnvelope(rep)}, nil
	})
}

// registerExports mounts the xlsx variants as plain chi routes; huma stays out
// of the binary streaming path.
func registerExports(r chi.Router, basePath string, e reports.Engine, log *logrus.Logger) {
	mount := func(name string, build func(r *http.Request) (any, *excelize.File, error)) {
		route := path.Join(basePath, "reports", name, "export")
		r.Get(route, func(w http.ResponseWriter, req *http.Request) {
			rep, f, err := build(req)
			if err != nil {
				writeAPIError(w, err)
				return
			}
			defer f.Close()
			now := time.Now().UTC()
			if e.Now != nil {
				now = e.Now()
			}
			filename := export.Filename(export.Subject(rep), now)
			w.Header().Set("Content-Type", export.ContentType)
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
			if err := f.Write(w); err != nil {
				log.WithField("report", name).WithError(err).Error("export write failed")
			}
		})
	}

	mount("staff-performance", func(req *http.Request) (any, *excelize.File, error) {
		f, err := queryFilter(req.URL.Query())
		if err != nil {
			return nil, nil, err
		}
		rep, err := e.StaffPerformance(req.Context(), f, req.URL.Query().Get("userId"))
		if err != nil {
			return nil, nil, err
		}
		wb, err := export.StaffWorkbook(rep)
		return rep, wb, err
	})

	mount("project-performance", func(req *http.Request) (any, *excelize.File, error) {
		q := req.URL.Query()
		rep, err := e.ProjectPerformance(req.Context(), q.Get("projectId"), q.Get("clientId"))
		if err != nil {
			return nil, nil, err
		}
		wb, err := export.ProjectWorkbook(rep)
		return rep, wb, err
	})

	mount("lead-analytics", func(req *http.Request) (any, *excelize.File, error) {
		q := req.URL.Query()
		f, err := queryFilter(q)
		if err != nil {
			return nil, nil, err
		}
		owner := forcedOwner(req.Context(), e, req.Header.Get("X-Actor-Id"), q.Get("userId"))
		rep, err := e.LeadAnalytics(req.Context(), f, owner)
		if err != nil {
			return nil, nil, err
		}
		wb, err := export.LeadsWorkbook(rep)
		return rep, wb, err
	})

	mount("dashboard", func(req *http.Request) (any, *excelize.File, error) {
		f, err := queryFilter(req.URL.Query())
		if err != nil {
			return nil, nil, err
		}
		rep, err := e.Dashboard(req.Context(), f)
		if err != nil {
			return nil, nil, err
		}
		wb, err := export.DashboardWorkbook(rep)
		return rep, wb, err
	})
}

func queryFilter(q url.Values) (reports.Filter, error) {
	from, err := parseDate(q.Get("fromDate"), "fromDate")
	if err != nil {
		return reports.Filter{}, err
	}
	to, err := parseDate(q.Get("toDate"), "toDate")
	if err != nil {
		return reports.Filter{}, err
	}
	return reports.Filter{From: from, To: to}, nil
}

func writeAPIError(w http.ResponseWriter, err error) {
	se := handleError(err)
	body := apiErrorBody{Code: defaultCodeForStatus(se.GetStatus()), Message: se.Error()}
	if ae, ok := se.(*apiError); ok {
		body = ae.Body
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(se.GetStatus())
	json.NewEncoder(w).Encode(map[string]any{"error": body})
}
