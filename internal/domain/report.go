package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Flood-percentage thresholds selecting the report's recommendation band and
// the suggested evacuation coverage per band.
const (
	highSeverityPercent   = 30.0
	mediumSeverityPercent = 15.0

	highEvacuationShare   = 50 // percent of affected buildings
	mediumEvacuationShare = 20
)

// RenderReport formats an analysis outcome and its loss estimate into the
// printable operator report. Time enters only through generatedAt, never a
// global clock, and identical inputs produce byte-identical output.
func RenderReport(a AnalysisOutcome, loss LossEstimate, generatedAt time.Time) string {
	var b strings.Builder

	line := strings.Repeat("=", 50)
	b.WriteString(line + "\n")
	b.WriteString("              FLOOD ANALYSIS REPORT\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "Generated:        %s\n", generatedAt.UTC().Format("2006-01-02 15:04:05")+" UTC")
	fmt.Fprintf(&b, "Processing time:  %.2f s\n", a.ProcessingTime.Seconds())
	b.WriteString("\n")

	b.WriteString("--- FLOOD EXTENT ---\n")
	fmt.Fprintf(&b, "Analyzed area:    %.2f km2\n", a.Stats.AreaKm2)
	fmt.Fprintf(&b, "Flooded area:     %.2f km2\n", a.Stats.FloodedAreaKm2)
	fmt.Fprintf(&b, "Flooded share:    %.2f %%\n", a.Stats.FloodPercent())
	fmt.Fprintf(&b, "Pixels analyzed:  %d\n", a.Stats.TotalPixels)
	fmt.Fprintf(&b, "Pixels flooded:   %d\n", a.Stats.FloodedPixels)
	b.WriteString("\n")

	b.WriteString("--- BUILDING DAMAGE ---\n")
	fmt.Fprintf(&b, "Buildings affected:  %d\n", a.BuildingsAffected)
	fmt.Fprintf(&b, "  Residential:       %d\n", loss.Partition.Residential)
	fmt.Fprintf(&b, "  Commercial:        %d\n", loss.Partition.Commercial)
	fmt.Fprintf(&b, "  Industrial:        %d\n", loss.Partition.Industrial)
	b.WriteString("\n")

	b.WriteString("--- ESTIMATED LOSSES ---\n")
	fmt.Fprintf(&b, "Building damage:        %s\n", formatPLN(loss.Buildings))
	fmt.Fprintf(&b, "Infrastructure damage:  %s\n", formatPLN(loss.Infrastructure))
	fmt.Fprintf(&b, "Agricultural losses:    %s\n", formatPLN(loss.Agricultural))
	fmt.Fprintf(&b, "TOTAL:                  %s\n", formatPLN(loss.Total))
	b.WriteString("\n")

	b.WriteString("--- RECOMMENDATION ---\n")
	writeRecommendation(&b, a.Stats.FloodPercent(), a.BuildingsAffected)

	return b.String()
}

// ReportFilename names the downloadable artifact with the calendar date of
// generation.
func ReportFilename(t time.Time) string {
	return "flood_report_" + t.UTC().Format("2006-01-02") + ".txt"
}

func writeRecommendation(b *strings.Builder, floodPercent float64, buildingsAffected int) {
	switch {
	case floodPercent > highSeverityPercent:
		b.WriteString("Severity: HIGH\n")
		b.WriteString("Immediate evacuation of the flooded zone is advised.\n")
		fmt.Fprintf(b, "Suggested evacuation coverage: %d buildings (%d%% of affected).\n",
			buildingsAffected*highEvacuationShare/100, highEvacuationShare)
	case floodPercent > mediumSeverityPercent:
		b.WriteString("Severity: MEDIUM\n")
		b.WriteString("Increase monitoring and prepare evacuation resources.\n")
		fmt.Fprintf(b, "Suggested evacuation coverage: %d buildings (%d%% of affected).\n",
			buildingsAffected*mediumEvacuationShare/100, mediumEvacuationShare)
	default:
		b.WriteString("Severity: LOW\n")
		b.WriteString("Routine monitoring is sufficient.\n")
		b.WriteString("No evacuation required at this time.\n")
	}
}

// formatPLN renders a non-negative amount with space-grouped thousands and a
// fixed two-decimal convention, e.g. 3910000 -> "3 910 000.00 PLN".
func formatPLN(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	intPart, fracPart, _ := strings.Cut(s, ".")

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteRune(digit)
	}
	return grouped.String() + "." + fracPart + " PLN"
}
