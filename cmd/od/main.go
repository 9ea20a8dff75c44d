package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"

	"opsdesk/internal/audit"
	"opsdesk/internal/config"
	"opsdesk/internal/db"
	"opsdesk/internal/domain"
	"opsdesk/internal/export"
	"opsdesk/internal/logger"
	"opsdesk/internal/migrate"
	"opsdesk/internal/repo"
	"opsdesk/internal/reports"
	"opsdesk/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "od",
	Short: "Opsdesk CLI",
	Long: `Opsdesk aggregates leads, projects, staff, inventory and attendance records
into performance reports. The workspace holds a single SQLite database under
.opsdesk; reports read it, record commands write it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("OD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(reportCmd())
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("base-path") {
				cfg.Server.BasePath = basePath
			}
			log, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
			if err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			handler, err := server.New(server.Config{
				Repo:     r,
				Reports:  reports.Engine{Store: r},
				Audit:    audit.Writer{DB: conn},
				Log:      log,
				BasePath: cfg.Server.BasePath,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			log.Infof("serving Opsdesk API on http://%s%s (Swagger UI at /docs)", cfg.Server.Addr, cfg.Server.BasePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				fmt.Println("database is up to date:", db.Path(viper.GetString("workspace")))
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a small demo dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := seedDemo(ctx, r); err != nil {
					return err
				}
				fmt.Println("demo dataset loaded")
				return nil
			})
		},
	}
}

func reportCmd() *cobra.Command {
	rep := &cobra.Command{Use: "report", Short: "Generate reports"}
	rep.AddCommand(reportStaffCmd())
	rep.AddCommand(reportProjectCmd())
	rep.AddCommand(reportLeadsCmd())
	rep.AddCommand(reportDashboardCmd())
	return rep
}

func reportFlags(cmd *cobra.Command, from, to *string) {
	cmd.Flags().StringVar(from, "from", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(to, "to", "", "window end (YYYY-MM-DD)")
	cmd.Flags().String("export", "", "write xlsx report to file")
}

func parseFilter(fromS, toS string) (reports.Filter, error) {
	var f reports.Filter
	if fromS != "" {
		t, err := time.Parse("2006-01-02", fromS)
		if err != nil {
			return f, fmt.Errorf("invalid --from %q: expected YYYY-MM-DD", fromS)
		}
		t = t.UTC()
		f.From = &t
	}
	if toS != "" {
		t, err := time.Parse("2006-01-02", toS)
		if err != nil {
			return f, fmt.Errorf("invalid --to %q: expected YYYY-MM-DD", toS)
		}
		t = t.UTC()
		f.To = &t
	}
	return f, nil
}

func reportStaffCmd() *cobra.Command {
	var fromS, toS, userID string
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Staff performance report",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFilter(fromS, toS)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e reports.Engine) error {
				rep, err := e.StaffPerformance(ctx, f, userID)
				if err != nil {
					return err
				}
				if file := exportTarget(cmd); file != "" {
					wb, err := export.StaffWorkbook(rep)
					if err != nil {
						return err
					}
					return saveWorkbook(wb, file)
				}
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				renderKV([][2]any{
					{"Staff", rep.StaffName},
					{"Email", rep.StaffEmail},
					{"Tasks assigned", rep.TotalTasksAssigned},
					{"Tasks completed", rep.CompletedTasks},
					{"Completion rate %", rep.CompletionRate},
					{"Avg days to complete", rep.AvgDaysToComplete},
					{"Delayed tasks", rep.DelayedTasks},
					{"Milestones managed", rep.MilestonesManaged},
					{"Files uploaded", rep.FilesUploaded},
					{"Follow-ups", rep.TotalFollowUps},
					{"Completed follow-ups", rep.CompletedFollowUps},
					{"Pending follow-ups", rep.PendingFollowUps},
					{"Avg response days", rep.AvgFollowUpResponseTime},
					{"Missed follow-ups", rep.MissedFollowUps},
				})
				return nil
			})
		},
	}
	reportFlags(cmd, &fromS, &toS)
	cmd.Flags().StringVar(&userID, "user", "", "staff user id")
	return cmd
}

func reportProjectCmd() *cobra.Command {
	var projectID, clientID string
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project performance report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e reports.Engine) error {
				rep, err := e.ProjectPerformance(ctx, projectID, clientID)
				if err != nil {
					return err
				}
				if file := exportTarget(cmd); file != "" {
					wb, err := export.ProjectWorkbook(rep)
					if err != nil {
						return err
					}
					return saveWorkbook(wb, file)
				}
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				renderKV([][2]any{
					{"Project", rep.Project.Name},
					{"Client", rep.Project.ClientName},
					{"Status", rep.Project.Status},
					{"Budget", rep.Cost.Budget},
					{"Actual cost", rep.Cost.ActualCost},
					{"Utilization %", rep.Cost.Utilization},
					{"Overrun", rep.Cost.Overrun},
					{"Tasks", rep.Tasks.Total},
					{"Task completion %", rep.Tasks.CompletionRate},
					{"Avg completion days", rep.Tasks.AvgCompletionDays},
					{"Top performer", rep.Tasks.TopPerformer},
					{"Milestones", rep.Milestones.Total},
					{"Milestones delayed", rep.Milestones.Delayed},
					{"Documents", rep.Documents.Total},
					{"Progress %", rep.Timeline.Progress},
					{"Delay risk", rep.Timeline.DelayRisk},
				})
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Resource", "Assigned", "Completed", "Load %"})
				for _, ru := range rep.Resources {
					tw.AppendRow(table.Row{ru.Name, ru.Assigned, ru.Completed, ru.Load})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().String("export", "", "write xlsx report to file")
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().StringVar(&clientID, "client", "", "client id")
	return cmd
}

func reportLeadsCmd() *cobra.Command {
	var fromS, toS, userID string
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Lead analytics report",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFilter(fromS, toS)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e reports.Engine) error {
				rep, err := e.LeadAnalytics(ctx, f, userID)
				if err != nil {
					return err
				}
				if file := exportTarget(cmd); file != "" {
					wb, err := export.LeadsWorkbook(rep)
					if err != nil {
						return err
					}
					return saveWorkbook(wb, file)
				}
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				renderKV([][2]any{
					{"Owner", rep.OwnerName},
					{"Leads", rep.TotalLeads},
					{"Converted", rep.ConvertedLeads},
					{"Conversion %", rep.ConversionRate},
					{"Follow-ups", rep.TotalFollowUps},
					{"Pending follow-ups", rep.PendingFollowUps},
					{"Missed follow-ups", rep.MissedFollowUps},
				})
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Status", "Count"})
				for _, s := range rep.ByStatus {
					tw.AppendRow(table.Row{s.Status, s.Count})
				}
				tw.Render()
				return nil
			})
		},
	}
	reportFlags(cmd, &fromS, &toS)
	cmd.Flags().StringVar(&userID, "user", "", "owner user id")
	return cmd
}

func reportDashboardCmd() *cobra.Command {
	var fromS, toS string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Operations dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFilter(fromS, toS)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e reports.Engine) error {
				rep, err := e.Dashboard(ctx, f)
				if err != nil {
					return err
				}
				if file := exportTarget(cmd); file != "" {
					wb, err := export.DashboardWorkbook(rep)
					if err != nil {
						return err
					}
					return saveWorkbook(wb, file)
				}
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				renderKV([][2]any{
					{"Projects", rep.TotalProjects},
					{"Tasks", rep.TotalTasks},
					{"Task completion %", rep.TaskCompletionRate},
					{"Milestones", rep.TotalMilestones},
					{"Milestone completion %", rep.MilestoneCompletionRate},
					{"Clients", rep.TotalClients},
					{"Leads", rep.TotalLeads},
					{"Conversion %", rep.ConversionRate},
					{"Top performer", rep.TopPerformer},
				})
				return nil
			})
		},
	}
	reportFlags(cmd, &fromS, &toS)
	return cmd
}

// --- helpers ---

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func withEngine(ctx context.Context, fn func(context.Context, reports.Engine) error) error {
	return withRepo(ctx, func(ctx context.Context, r repo.Repo) error {
		return fn(ctx, reports.Engine{Store: r})
	})
}

func exportTarget(cmd *cobra.Command) string {
	file, _ := cmd.Flags().GetString("export")
	return file
}

func saveWorkbook(wb *excelize.File, file string) error {
	defer wb.Close()
	if err := wb.SaveAs(file); err != nil {
		return err
	}
	fmt.Println("wrote", file)
	return nil
}

func renderKV(rows [][2]any) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.Render()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func seedDemo(ctx context.Context, r repo.Repo) error {
	now := time.Now().UTC()
	ago := func(days int) time.Time { return now.Add(-time.Duration(days) * 24 * time.Hour) }
	sp := func(s string) *string { return &s }
	fp := func(f float64) *float64 { return &f }
	tp := func(t time.Time) *time.Time { return &t }

	users := []domain.User{
		{ID: "u-admin", Name: "Dana Root", Email: "dana@example.com", Role: "admin", CreatedAt: ago(90), UpdatedAt: ago(90)},
		{ID: "u-asha", Name: "Asha Rao", Email: "asha@example.com", Role: "engineer", CreatedAt: ago(80), UpdatedAt: ago(80)},
		{ID: "u-femi", Name: "Femi Ade", Email: "femi@example.com", Role: "engineer", CreatedAt: ago(75), UpdatedAt: ago(75)},
	}
	for _, u := range users {
		if err := r.InsertUser(ctx, u); err != nil {
			return err
		}
	}

	leads := []domain.Lead{
		{ID: "l-1", Name: "Acme inbound", Source: "web", Status: "converted", OwnerID: sp("u-asha"), CreatedAt: ago(60), UpdatedAt: ago(40)},
		{ID: "l-2", Name: "Globex referral", Source: "referral", Status: "contacted", OwnerID: sp("u-asha"), CreatedAt: ago(30), UpdatedAt: ago(20)},
		{ID: "l-3", Name: "Initech cold", Source: "outbound", Status: "new", OwnerID: sp("u-femi"), CreatedAt: ago(10), UpdatedAt: ago(10)},
	}
	for _, l := range leads {
		if err := r.InsertLead(ctx, l); err != nil {
			return err
		}
	}

	if err := r.InsertClient(ctx, domain.Client{
		ID: "c-acme", Name: "Acme Corp", Email: "ops@acme.example.com", LeadID: sp("l-1"),
		CreatedAt: ago(40), UpdatedAt: ago(40),
	}); err != nil {
		return err
	}

	start := ago(35)
	end := now.Add(25 * 24 * time.Hour)
	if err := r.InsertProject(ctx, domain.Project{
		ID: "p-rollout", Name: "Acme Rollout", ClientID: sp("c-acme"), Status: "active",
		Budget: fp(20000), EstimatedCost: fp(18000), ActualCost: fp(12500),
		StartDate: &start, EndDate: &end, ActualStartDate: tp(ago(34)),
		CreatedAt: ago(35), UpdatedAt: ago(5),
	}); err != nil {
		return err
	}

	milestones := []domain.Milestone{
		{ID: "m-1", ProjectID: "p-rollout", Name: "Discovery", Status: "completed", StartDate: tp(ago(35)), EndDate: tp(ago(25)), ActualDate: tp(ago(23)), AssignedTo: sp("u-asha"), CreatedAt: ago(35), UpdatedAt: ago(23)},
		{ID: "m-2", ProjectID: "p-rollout", Name: "Build", Status: "in progress", StartDate: tp(ago(23)), EndDate: tp(now.Add(10 * 24 * time.Hour)), AssignedTo: sp("u-femi"), CreatedAt: ago(23), UpdatedAt: ago(2)},
	}
	for _, m := range milestones {
		if err := r.InsertMilestone(ctx, m); err != nil {
			return err
		}
	}

	tasks := []domain.Task{
		{ID: "t-1", ProjectID: sp("p-rollout"), MilestoneID: sp("m-1"), Title: "Stakeholder interviews", Status: "completed", AssignedTo: sp("u-asha"), CreatedAt: ago(34), UpdatedAt: ago(31)},
		{ID: "t-2", ProjectID: sp("p-rollout"), MilestoneID: sp("m-1"), Title: "Current-state audit", Status: "completed", AssignedTo: sp("u-asha"), CreatedAt: ago(33), UpdatedAt: ago(32)},
		{ID: "t-3", ProjectID: sp("p-rollout"), MilestoneID: sp("m-2"), Title: "Inventory sync service", Status: "in progress", DueDate: tp(ago(1)), AssignedTo: sp("u-femi"), CreatedAt: ago(20), UpdatedAt: now},
		{ID: "t-4", ProjectID: sp("p-rollout"), MilestoneID: sp("m-2"), Title: "Attendance import", Status: "pending", AssignedTo: sp("u-femi"), CreatedAt: ago(15), UpdatedAt: ago(15)},
	}
	for _, t := range tasks {
		if err := r.InsertTask(ctx, t); err != nil {
			return err
		}
	}

	attachments := []domain.Attachment{
		{ID: uuid.NewString(), ProjectID: sp("p-rollout"), FileName: "scope.pdf", FileType: "pdf", UploadedBy: sp("u-asha"), CreatedAt: ago(30), UpdatedAt: ago(30)},
		{ID: uuid.NewString(), ProjectID: sp("p-rollout"), FileName: "estimates.xlsx", FileType: "xlsx", UploadedBy: sp("u-femi"), CreatedAt: ago(12), UpdatedAt: ago(12)},
	}
	for _, a := range attachments {
		if err := r.InsertAttachment(ctx, a); err != nil {
			return err
		}
	}

	followups := []domain.Followup{
		{ID: "f-1", Status: "completed", Note: "intro call", DueDate: tp(ago(50)), CompletedDate: tp(ago(51)), AssignedTo: sp("u-asha"), LeadID: sp("l-1"), CreatedAt: ago(55), UpdatedAt: ago(51)},
		{ID: "f-2", Status: "completed", Note: "proposal sent", DueDate: tp(ago(45)), CompletedDate: tp(ago(43)), AssignedTo: sp("u-asha"), LeadID: sp("l-1"), CreatedAt: ago(47), UpdatedAt: ago(43)},
		{ID: "f-3", Status: "pending", Note: "pricing questions", DueDate: tp(now.Add(2 * 24 * time.Hour)), AssignedTo: sp("u-asha"), LeadID: sp("l-2"), CreatedAt: ago(5), UpdatedAt: ago(5)},
		{ID: "f-4", Status: "awaiting response", Note: "first touch", AssignedTo: sp("u-femi"), LeadID: sp("l-3"), CreatedAt: ago(3), UpdatedAt: ago(3)},
	}
	for _, fu := range followups {
		if err := r.InsertFollowup(ctx, fu); err != nil {
			return err
		}
	}
	return nil
}
