package plan

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Row is one flattened leaf of the tree, suitable for tabular export.
type Row struct {
	Module      string
	Task        string
	Description string
	Category    Category
	Hours       float64
	Subtask     string
}

// Rows flattens the tree into one row per subtask estimate, in tree order.
func (p Plan) Rows() []Row {
	var rows []Row
	for _, m := range p.Modules {
		for _, t := range m.Tasks {
			for _, c := range t.Categories {
				rows = append(rows, Row{
					Module:      m.Module,
					Task:        t.Task,
					Description: t.Description,
					Category:    c.Category,
					Hours:       c.Hours,
					Subtask:     c.Subtask,
				})
			}
		}
	}
	return rows
}

// Pivot reshapes the flat rows into one row per task with per-category
// hour sums and comma-joined subtask lists. Category columns are named
// "<Category>_hours" and "<Category>_subtask" and sorted by name.
func (p Plan) Pivot() ([]string, [][]string) {
	type key struct{ module, task, description string }
	type agg struct {
		hours    map[Category]float64
		subtasks map[Category][]string
	}

	var order []key
	byKey := map[key]*agg{}
	for _, r := range p.Rows() {
		k := key{r.Module, r.Task, r.Description}
		a, ok := byKey[k]
		if !ok {
			a = &agg{hours: map[Category]float64{}, subtasks: map[Category][]string{}}
			byKey[k] = a
			order = append(order, k)
		}
		a.hours[r.Category] += r.Hours
		a.subtasks[r.Category] = append(a.subtasks[r.Category], r.Subtask)
	}

	var columns []string
	for _, c := range Categories() {
		columns = append(columns, string(c)+"_hours", string(c)+"_subtask")
	}
	sort.Strings(columns)

	header := append([]string{"module", "task", "description"}, columns...)
	rows := make([][]string, 0, len(order))
	for _, k := range order {
		a := byKey[k]
		row := []string{k.module, k.task, k.description}
		for _, col := range columns {
			name, field, _ := strings.Cut(col, "_")
			c := Category(name)
			if field == "hours" {
				row = append(row, formatHours(a.hours[c]))
			} else {
				row = append(row, strings.Join(a.subtasks[c], ", "))
			}
		}
		rows = append(rows, row)
	}
	return header, rows
}

// WriteCSV writes the plan to w, flat by default or pivoted by category.
func (p Plan) WriteCSV(w io.Writer, pivot bool) error {
	cw := csv.NewWriter(w)
	if pivot {
		header, rows := p.Pivot()
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		for _, row := range rows {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
	} else {
		if err := cw.Write([]string{"module", "task", "description", "category", "hours", "subtask"}); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		for _, r := range p.Rows() {
			row := []string{r.Module, r.Task, r.Description, string(r.Category), formatHours(r.Hours), r.Subtask}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
