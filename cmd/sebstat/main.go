// Command sebstat prints the board's examination statistics to the
// terminal: dashboard totals, status by grade level, the promotion
// matrix, and the per-exam-type analyses.
//
// Usage:
//
//	sebstat [dashboard|levels|promotion|analysis|averages|all]
//
// Connection settings come from the environment (or a .env file), the
// same way the server reads them.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	_ "github.com/lib/pq"
	"github.com/olekukonko/tablewriter"

	examstore "sebexam/internal/exam/store"
	"sebexam/internal/platform/config"
	"sebexam/internal/platform/logger"
	registrantstore "sebexam/internal/registrant/store"
	statsservice "sebexam/internal/stats/service"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, "text")

	report := "all"
	if len(os.Args) > 1 {
		report = os.Args[1]
	}

	if err := run(cfg, log, report); err != nil {
		color.Red("sebstat: %v", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger, report string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	stats := statsservice.New(statsservice.Deps{
		Registrants: registrantstore.NewPostgres(db),
		Thresholds:  examstore.NewPostgresThresholds(db),
		Logger:      log,
	})

	reports := map[string]func(context.Context, *statsservice.Service) error{
		"dashboard": printDashboard,
		"levels":    printLevels,
		"promotion": printPromotion,
		"analysis":  printAnalysis,
		"averages":  printAverages,
	}

	if report == "all" {
		for _, name := range []string{"dashboard", "levels", "promotion", "analysis", "averages"} {
			if err := reports[name](ctx, stats); err != nil {
				return err
			}
		}
		return nil
	}

	printer, ok := reports[report]
	if !ok {
		return fmt.Errorf("unknown report %q (want dashboard, levels, promotion, analysis, averages or all)", report)
	}
	return printer(ctx, stats)
}

func printDashboard(ctx context.Context, stats *statsservice.Service) error {
	dashboard, err := stats.Dashboard(ctx)
	if err != nil {
		return err
	}

	color.Cyan("\n=== Registration Dashboard ===")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Count"})
	table.Append([]string{"Total registrations", strconv.Itoa(dashboard.TotalRegistrations)})
	table.Append([]string{"Passed", strconv.Itoa(dashboard.TotalPassed)})
	table.Append([]string{"Failed", strconv.Itoa(dashboard.TotalFailed)})
	table.Append([]string{"Pending", strconv.Itoa(dashboard.TotalPending)})
	table.Append([]string{"Incapacitated", strconv.Itoa(dashboard.TotalIncapacitated)})
	table.Append([]string{"Promotion exams", strconv.Itoa(dashboard.TotalPromotionExams)})
	table.Append([]string{"Conversion exams", strconv.Itoa(dashboard.TotalConversionExams)})
	table.Append([]string{"Confirmation exams", strconv.Itoa(dashboard.TotalConfirmationExams)})
	table.Render()
	return nil
}

func printLevels(ctx context.Context, stats *statsservice.Service) error {
	levels, err := stats.StatusByLevel(ctx, "")
	if err != nil {
		return err
	}

	color.Yellow("\nExam Status by Grade Level")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Level", "Passed", "Failed", "Pending"})
	for _, level := range levels {
		table.Append([]string{
			level.Level,
			strconv.Itoa(level.Passed),
			strconv.Itoa(level.Failed),
			strconv.Itoa(level.Pending),
		})
	}
	table.Render()
	return nil
}

func printPromotion(ctx context.Context, stats *statsservice.Service) error {
	matrix, err := stats.PromotionMatrix(ctx)
	if err != nil {
		return err
	}

	color.Yellow("\nPromotion Matrix (passed candidates)")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"From Level", "To Level", "Count"})
	for _, band := range matrix {
		table.Append([]string{band.PresentGradeLevel, band.ExpectedGradeLevel, strconv.Itoa(band.Count)})
	}
	table.Render()
	return nil
}

func printAnalysis(ctx context.Context, stats *statsservice.Service) error {
	analysis, err := stats.PassFailAnalysis(ctx)
	if err != nil {
		return err
	}

	color.Yellow("\nPass/Fail Analysis by Exam Type")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Type", "Pass Score", "Candidates", "Passed (score)", "Passed (status)", "Failed (status)", "Pending (status)", "Avg Score", "Pass Rate"})
	for _, row := range analysis {
		table.Append([]string{
			row.ExamType,
			formatFloat(row.PassScore),
			strconv.Itoa(row.TotalCandidates),
			strconv.Itoa(row.PassedByScore),
			strconv.Itoa(row.PassedByStatus),
			strconv.Itoa(row.FailedByStatus),
			strconv.Itoa(row.PendingByStatus),
			formatFloat(row.AvgScore),
			formatFloat(row.PassRateByScore) + "%",
		})
	}
	table.Render()
	return nil
}

func printAverages(ctx context.Context, stats *statsservice.Service) error {
	averages, err := stats.AverageScores(ctx)
	if err != nil {
		return err
	}

	color.Yellow("\nAverage Scores by Exam Type")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Type", "General", "Professional", "Interview", "Appraisal", "Seniority", "Composite", "Candidates", "Pass Rate"})
	for _, row := range averages {
		table.Append([]string{
			row.ExamType,
			formatFloat(row.AvgGeneralScore),
			formatFloat(row.AvgProfessionalScore),
			formatFloat(row.AvgInterviewScore),
			formatFloat(row.AvgAppraisalScore),
			formatFloat(row.AvgSeniorityScore),
			formatFloat(row.AvgTotalScore),
			strconv.Itoa(row.TotalCandidates),
			formatFloat(row.PassRate) + "%",
		})
	}
	table.Render()
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
