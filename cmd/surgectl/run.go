package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/surge-forecast-service/internal/config"
	"github.com/couchcryptid/surge-forecast-service/internal/domain"
	"github.com/couchcryptid/surge-forecast-service/internal/pipeline"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var validate = validator.New()

// loadEngine builds an Engine from the --params file.
func loadEngine(opts *options, engineOpts ...pipeline.EngineOption) (*pipeline.Engine, error) {
	params, err := config.LoadParams(opts.paramsFile)
	if err != nil {
		return nil, err
	}
	return pipeline.NewEngine(params, engineOpts...), nil
}

// readRequest decodes and validates a request file; "-" reads stdin.
func readRequest(cmd *cobra.Command, path string) (domain.SurgeRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.SurgeRequest{}, fmt.Errorf("reading request: %w", err)
	}

	req, err := domain.DecodeSurgeRequest(data)
	if err != nil {
		return domain.SurgeRequest{}, err
	}
	if err := validate.Struct(req); err != nil {
		return domain.SurgeRequest{}, fmt.Errorf("validate surge request: %w", err)
	}
	return req, nil
}

// prepare loads the engine and the request for a planning subcommand.
func prepare(cmd *cobra.Command, opts *options, path string) (*pipeline.Engine, domain.SurgeRequest, error) {
	if opts.format != "json" && opts.format != "text" {
		return nil, domain.SurgeRequest{}, fmt.Errorf("unknown format %q: want json or text", opts.format)
	}
	engine, err := loadEngine(opts)
	if err != nil {
		return nil, domain.SurgeRequest{}, err
	}
	req, err := readRequest(cmd, path)
	if err != nil {
		return nil, domain.SurgeRequest{}, err
	}
	return engine, req, nil
}

func runAssess(cmd *cobra.Command, opts *options, path string) error {
	engine, req, err := prepare(cmd, opts, path)
	if err != nil {
		return err
	}
	risk := engine.Assess(req.Context)
	return emit(cmd.OutOrStdout(), opts.format, risk, func(w io.Writer) { printRisk(w, risk) })
}

func runForecast(cmd *cobra.Command, opts *options, path string, days int) error {
	engine, req, err := prepare(cmd, opts, path)
	if err != nil {
		return err
	}
	if days == 0 {
		days = req.ForecastDays
	}
	forecast, err := engine.Forecast(req.Context, days)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), opts.format, forecast, func(w io.Writer) { printForecast(w, forecast) })
}

func runStaffing(cmd *cobra.Command, opts *options, path string) error {
	engine, req, err := prepare(cmd, opts, path)
	if err != nil {
		return err
	}
	plan := engine.Staffing(req.Context)
	return emit(cmd.OutOrStdout(), opts.format, plan, func(w io.Writer) { printStaffing(w, plan) })
}

func runSupplies(cmd *cobra.Command, opts *options, path string) error {
	engine, req, err := prepare(cmd, opts, path)
	if err != nil {
		return err
	}
	supplies := engine.Supplies(req.Context, req.CurrentStock)
	return emit(cmd.OutOrStdout(), opts.format, supplies, func(w io.Writer) { printSupplies(w, supplies) })
}

func runReport(cmd *cobra.Command, opts *options, path string) error {
	engine, req, err := prepare(cmd, opts, path)
	if err != nil {
		return err
	}
	report, err := engine.Report(req)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), opts.format, report, func(w io.Writer) { printReport(w, report) })
}

// check tracks pass/fail for one validation step.
type check struct {
	name string
	err  error
}

func runValidate(cmd *cobra.Command, opts *options, paths []string) error {
	checks := []check{{name: "model params"}}
	if _, err := config.LoadParams(opts.paramsFile); err != nil {
		checks[0].err = err
	}
	for _, p := range paths {
		_, err := readRequest(cmd, p)
		checks = append(checks, check{name: "request " + p, err: err})
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, c := range checks {
		if c.err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %s\n      %v\n", c.name, c.err)
			continue
		}
		fmt.Fprintf(out, "PASS  %s\n", c.name)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	fmt.Fprintf(out, "\nAll %d checks passed\n", len(checks))
	return nil
}

// sampleRequests are the fixture scenarios written by the sample subcommand.
func sampleRequests(observedAt time.Time) []domain.SurgeRequest {
	today := domain.DateOf(observedAt)
	ctx := func(mut func(*domain.PredictionContext)) domain.PredictionContext {
		c := domain.DefaultContext()
		c.ObservedAt = observedAt
		mut(&c)
		return c
	}

	return []domain.SurgeRequest{
		{
			HospitalID: "baseline-general",
			Context:    ctx(func(*domain.PredictionContext) {}),
		},
		{
			HospitalID:   "smog-city",
			ForecastDays: 3,
			Context: ctx(func(c *domain.PredictionContext) {
				c.AQI, c.PM25, c.PM10 = 350, 180, 260
			}),
			CurrentStock: map[string]int{domain.ItemOxygen: 120, domain.ItemMasks: 900},
		},
		{
			HospitalID:   "festival-district",
			ForecastDays: 7,
			Context: ctx(func(c *domain.PredictionContext) {
				c.Festivals = []domain.FestivalEvent{{Date: today.AddDays(2), Name: "Diwali"}}
				c.PatientSlope6h, c.PatientSlope24h = 1.25, 1.2
			}),
		},
		{
			HospitalID:   "outbreak-regional",
			ForecastDays: 14,
			Context: ctx(func(c *domain.PredictionContext) {
				c.EpidemicIndex, c.ICUOccupancy, c.CurrentPatients = 8, 0.9, 260
				c.TemperatureC, c.HumidityPct = 39, 88
			}),
		},
	}
}

func runSample(cmd *cobra.Command, date, out string) error {
	d, err := domain.ParseDate(date)
	if err != nil {
		return err
	}
	observedAt := d.Time().Add(9 * time.Hour)

	// A fixed clock and name-derived IDs keep the fixtures reproducible.
	engine := pipeline.NewEngine(domain.DefaultParams(),
		pipeline.WithClock(clockwork.NewFakeClockAt(observedAt)),
	)

	reqs := sampleRequests(observedAt)
	reports := make([]domain.SurgeReport, 0, len(reqs))
	for _, req := range reqs {
		report, err := engine.Report(req)
		if err != nil {
			return fmt.Errorf("sample %s: %w", req.HospitalID, err)
		}
		report.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(req.HospitalID+"/"+date))
		reports = append(reports, report)
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := writeJSONFile(filepath.Join(out, "requests.json"), reqs); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(out, "reports.json"), reports); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d requests and reports to %s\n", len(reqs), out)
	return nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// emit writes v as indented JSON or through the text printer.
func emit(w io.Writer, format string, v any, text func(io.Writer)) error {
	switch format {
	case "text":
		text(w)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return errors.New("unknown format " + format)
	}
}
