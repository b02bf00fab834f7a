package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/c9s/isoforest/pkg/detector"
)

// Summary describes the score distribution of a batch.
type Summary struct {
	Count     int
	Anomalies int
	Mean      float64
	StdDev    float64
	Min       float64
	Max       float64
}

func (s Summary) String() string {
	return fmt.Sprintf("%d samples, %d anomalies, score mean %.4f stddev %.4f min %.4f max %.4f",
		s.Count, s.Anomalies, s.Mean, s.StdDev, s.Min, s.Max)
}

func Summarize(results []detector.Result) Summary {
	summary := Summary{Count: len(results)}
	if len(results) == 0 {
		return summary
	}

	scores := make([]float64, len(results))
	for i, result := range results {
		scores[i] = result.Score
		if result.Anomaly {
			summary.Anomalies++
		}
	}

	summary.Mean, summary.StdDev = stat.MeanStdDev(scores, nil)
	if len(scores) == 1 {
		summary.StdDev = 0
	}
	summary.Min = floats.Min(scores)
	summary.Max = floats.Max(scores)
	return summary
}

// PrintTable writes the results as a table followed by the summary.
// Anomalies are highlighted when withColor is set.
func PrintTable(w io.Writer, title string, results []detector.Result, withColor bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(NewScoreTableStyle())
	t.SetTitle(title)
	t.AppendHeader(table.Row{"#", "sample", "score", "anomaly"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})

	highlight := fmt.Sprint
	if withColor {
		highlight = color.New(color.FgHiRed, color.Bold).Sprint
	}

	for i, result := range results {
		anomaly := ""
		if result.Anomaly {
			anomaly = highlight("yes")
		}
		t.AppendRow(table.Row{i + 1, result.Name, strconv.FormatFloat(result.Score, 'f', 4, 64), anomaly})
	}

	summary := Summarize(results)
	t.AppendFooter(table.Row{"", "total", fmt.Sprintf("%.4f", summary.Mean), summary.Anomalies})
	t.Render()

	fmt.Fprintln(w, summary.String())
}

// WriteCSV writes name,score,anomaly records with a header row.
func WriteCSV(w io.Writer, results []detector.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"name", "score", "anomaly"}); err != nil {
		return err
	}

	for _, result := range results {
		record := []string{
			result.Name,
			strconv.FormatFloat(result.Score, 'f', -1, 64),
			strconv.FormatBool(result.Anomaly),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
