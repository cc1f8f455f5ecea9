// Package report renders enrichment results into reviewable artifacts:
// per-product qualified lead exports, multi-product opportunity lists and a
// plain-text executive summary.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/banyan-labs/lead-optimizer/internal/model"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// productColumns is the column order for per-product qualified exports.
// The score and reason columns are prefixed with the product key.
var productColumns = []string{
	"company", "score", "reason", "org_type", "is_nonprofit", "ein",
	"has_donation_page", "email", "phone", "location", "task_id",
}

// completeColumns is the column order for the full enriched export.
var completeColumns = []string{
	"task_id", "company", "website", "email", "phone", "location",
	"is_nonprofit", "ein", "nonprofit_name", "ruling_year", "revenue",
	"org_type", "org_type_confidence", "mission_statement",
	"has_donation_page", "donation_url", "best_product", "best_score",
	"data_quality_score", "enriched_at", "enrichment_version",
}

// Generator writes report files for one enrichment run.
type Generator struct {
	rules     *model.Rules
	outputDir string
	format    string
}

// NewGenerator creates a Generator writing files in the given format
// ("csv" or "xlsx") under outputDir.
func NewGenerator(rules *model.Rules, outputDir, format string) *Generator {
	if format != FormatXLSX {
		format = FormatCSV
	}
	if outputDir == "" {
		outputDir = "exports"
	}
	return &Generator{rules: rules, outputDir: outputDir, format: format}
}

// Qualified returns the leads scoring at or above the product's qualified
// threshold, sorted by score descending.
func (g *Generator) Qualified(leads []model.EnrichedLead, product model.RuleSet) []model.EnrichedLead {
	var out []model.EnrichedLead
	for _, l := range leads {
		if ps, ok := l.ProductScores[product.Key]; ok && ps.Score >= product.QualifiedThreshold {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProductScores[product.Key].Score > out[j].ProductScores[product.Key].Score
	})
	return out
}

// HighPriority returns the leads at or above the product's high-priority
// threshold.
func (g *Generator) HighPriority(leads []model.EnrichedLead, product model.RuleSet) []model.EnrichedLead {
	var out []model.EnrichedLead
	for _, l := range leads {
		if ps, ok := l.ProductScores[product.Key]; ok && ps.Score >= product.HighPriority {
			out = append(out, l)
		}
	}
	return out
}

// MultiProduct returns leads that hit the high-priority threshold for every
// configured product, sorted by total score descending. These are
// cross-selling candidates.
func (g *Generator) MultiProduct(leads []model.EnrichedLead) []model.EnrichedLead {
	if len(g.rules.Products) < 2 {
		return nil
	}
	var out []model.EnrichedLead
	for _, l := range leads {
		all := true
		for _, p := range g.rules.Products {
			ps, ok := l.ProductScores[p.Key]
			if !ok || ps.Score < p.HighPriority {
				all = false
				break
			}
		}
		if all {
			out = append(out, l)
		}
	}
	total := func(l model.EnrichedLead) float64 {
		var sum float64
		for _, ps := range l.ProductScores {
			sum += ps.Score
		}
		return sum
	}
	sort.SliceStable(out, func(i, j int) bool { return total(out[i]) > total(out[j]) })
	return out
}

// Files is the set of artifacts produced by WriteAll.
type Files struct {
	Qualified map[string]string // product key -> file path
	Multi     string
	Complete  string
	Summary   string
}

// WriteAll writes every report artifact for the run and returns the paths.
// The timestamp distinguishes concurrent runs writing to the same directory.
func (g *Generator) WriteAll(leads []model.EnrichedLead, ts time.Time) (*Files, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "report: create output dir")
	}

	stamp := ts.UTC().Format("20060102_150405")
	files := &Files{Qualified: make(map[string]string)}

	for _, p := range g.rules.Products {
		qualified := g.Qualified(leads, p)
		path := filepath.Join(g.outputDir, fmt.Sprintf("%s_qualified_%s.%s", p.Key, stamp, g.format))
		if err := g.writeTable(path, productHeader(p.Key), productRows(qualified, p.Key)); err != nil {
			return nil, err
		}
		files.Qualified[p.Key] = path
		zap.L().Info("report: qualified leads written",
			zap.String("product", p.Key),
			zap.Int("qualified", len(qualified)),
			zap.Int("high_priority", len(g.HighPriority(leads, p))),
			zap.String("file", path))
	}

	if multi := g.MultiProduct(leads); len(multi) > 0 {
		path := filepath.Join(g.outputDir, fmt.Sprintf("multi_product_opportunities_%s.%s", stamp, g.format))
		if err := g.writeTable(path, completeColumns, completeRows(multi)); err != nil {
			return nil, err
		}
		files.Multi = path
		zap.L().Info("report: multi-product opportunities written",
			zap.Int("count", len(multi)), zap.String("file", path))
	}

	completePath := filepath.Join(g.outputDir, fmt.Sprintf("enriched_complete_%s.%s", stamp, g.format))
	if err := g.writeTable(completePath, completeColumns, completeRows(leads)); err != nil {
		return nil, err
	}
	files.Complete = completePath

	summaryPath := filepath.Join(g.outputDir, fmt.Sprintf("executive_summary_%s.txt", stamp))
	summary := g.Summary(leads, ts)
	if err := os.WriteFile(summaryPath, []byte(summary.Render()), 0o644); err != nil {
		return nil, eris.Wrap(err, "report: write executive summary")
	}
	files.Summary = summaryPath

	return files, nil
}

func (g *Generator) writeTable(path string, header []string, rows [][]string) error {
	if g.format == FormatXLSX {
		return writeXLSX(path, header, rows)
	}
	return writeCSV(path, header, rows)
}

func productHeader(key string) []string {
	header := make([]string, len(productColumns))
	for i, c := range productColumns {
		switch c {
		case "score":
			header[i] = key + "_score"
		case "reason":
			header[i] = key + "_reason"
		default:
			header[i] = c
		}
	}
	return header
}

func productRows(leads []model.EnrichedLead, key string) [][]string {
	rows := make([][]string, 0, len(leads))
	for i := range leads {
		flat := leads[i].Flatten()
		row := make([]string, len(productColumns))
		for j, c := range productColumns {
			switch c {
			case "score":
				row[j] = cellString(flat[key+"_score"])
			case "reason":
				row[j] = cellString(flat[key+"_reason"])
			default:
				row[j] = cellString(flat[c])
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func completeRows(leads []model.EnrichedLead) [][]string {
	rows := make([][]string, 0, len(leads))
	for i := range leads {
		flat := leads[i].Flatten()
		row := make([]string, len(completeColumns))
		for j, c := range completeColumns {
			row[j] = cellString(flat[c])
		}
		rows = append(rows, row)
	}
	return rows
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return fmt.Sprintf("%d", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
