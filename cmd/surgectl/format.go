package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/surge-forecast-service/internal/domain"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printRisk(w io.Writer, r domain.RiskAssessment) {
	fmt.Fprintf(w, "Risk index: %d (%s)\n\n", r.Index, r.Level)

	tw := newTable(w)
	fmt.Fprintln(tw, "SUB-SCORE\tVALUE")
	fmt.Fprintf(tw, "aqi\t%d\n", r.Breakdown.AQI)
	fmt.Fprintf(tw, "slope\t%d\n", r.Breakdown.Slope)
	fmt.Fprintf(tw, "epidemic\t%d\n", r.Breakdown.Epidemic)
	fmt.Fprintf(tw, "festival\t%d\n", r.Breakdown.Festival)
	fmt.Fprintf(tw, "icu\t%d\n", r.Breakdown.ICU)
	fmt.Fprintf(tw, "seasonal\t%d\n", r.Breakdown.Seasonal)
	tw.Flush()

	printList(w, "Contributing factors", r.ContributingFactors)
	printList(w, "Recommendations", r.Recommendations)
	fmt.Fprintf(w, "\nBurnout: %s\n", r.BurnoutNote)
	fmt.Fprintf(w, "Epidemic: %s (%s)\n", r.Epidemic.Level, r.Epidemic.Reason)
}

func printForecast(w io.Writer, days []domain.ForecastDay) {
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tDAY\tPATIENTS\tRESP\tTRAUMA\tICU\tDOCTORS\tNURSES\tCONFIDENCE\tALERTS")
	for _, d := range days {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.0f%%\t%s\n",
			d.Date, d.DayOfWeek[:3], d.TotalPatients,
			d.Breakdown.Respiratory, d.Breakdown.Trauma, d.Breakdown.ICUCandidates,
			d.StaffDemand.Doctors, d.StaffDemand.Nurses, d.Confidence,
			strings.Join(d.Alerts, "; "))
	}
	tw.Flush()
}

func printStaffing(w io.Writer, p domain.StaffingPlan) {
	fmt.Fprintf(w, "%s, %s, %s (pressure %d)\n\n", p.Date, p.ShiftLabel, p.Department, p.Risk)

	tw := newTable(w)
	fmt.Fprintln(tw, "SEGMENT\tPATIENTS\tDOCTORS\tNURSES")
	for _, row := range []struct {
		name string
		seg  domain.SegmentStaff
	}{
		{"ICU", p.Breakdown.ICU},
		{"ER", p.Breakdown.ER},
		{"General", p.Breakdown.General},
	} {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", row.name, row.seg.Patients, row.seg.Doctors, row.seg.Nurses)
	}
	fmt.Fprintf(tw, "Total\t\t%d\t%d\n", p.Doctors, p.Nurses)
	tw.Flush()

	fmt.Fprintf(w, "\nSupport staff: %d\n", p.Support)
	printList(w, "Notes", p.Notes)
}

func printSupplies(w io.Writer, reqs []domain.SupplyRequirement) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ITEM\tREQUIRED\tSTATUS\tPRIORITY\tNOTES")
	for _, r := range reqs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", r.Item, r.Required, r.Status, r.Priority, r.Notes)
	}
	tw.Flush()
}

func printReport(w io.Writer, r domain.SurgeReport) {
	fmt.Fprintf(w, "Surge report %s for %s\n", r.ID, r.HospitalID)
	fmt.Fprintf(w, "Generated %s, peak load %d patients\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"), r.PeakPatients())

	printRisk(w, r.Risk)
	fmt.Fprintln(w)
	printForecast(w, r.Forecast)
	fmt.Fprintln(w)
	printStaffing(w, r.Staffing)
	fmt.Fprintln(w)
	printSupplies(w, r.Supplies)

	if len(r.Alerts) > 0 {
		fmt.Fprintln(w)
		tw := newTable(w)
		fmt.Fprintln(tw, "ALERT\tSEVERITY\tMESSAGE")
		for _, a := range r.Alerts {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Type, a.Severity, a.Message)
		}
		tw.Flush()
	}
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "  * %s\n", it)
	}
}
