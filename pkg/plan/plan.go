// Package plan defines the structured project plan produced by generation:
// a tree of modules, tasks, and per-category subtask estimates.
package plan

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Category is the fixed vocabulary for subtask estimates.
type Category string

const (
	CategoryFrontend Category = "Frontend"
	CategoryBackend  Category = "Backend"
	CategoryAI       Category = "AI"
)

// Categories returns the vocabulary in presentation order.
func Categories() []Category {
	return []Category{CategoryFrontend, CategoryBackend, CategoryAI}
}

// CategoryList returns the vocabulary as a comma-separated string for
// prompt interpolation.
func CategoryList() string {
	cats := Categories()
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// SubtaskEstimate is a leaf: one subtask in one category with an hour
// estimate.
type SubtaskEstimate struct {
	Category Category `json:"category" yaml:"category" validate:"required,oneof=Frontend Backend AI"`
	Hours    float64  `json:"hours" yaml:"hours" validate:"gte=0"`
	Subtask  string   `json:"subtask" yaml:"subtask" validate:"required"`
}

// Task groups subtask estimates under one unit of work.
type Task struct {
	Task        string            `json:"task" yaml:"task" validate:"required"`
	Description string            `json:"description" yaml:"description"`
	Categories  []SubtaskEstimate `json:"categories" yaml:"categories" validate:"min=1,dive"`
}

// Hours is the sum over the task's subtask estimates. Derived, never
// stored.
func (t Task) Hours() float64 {
	var total float64
	for _, c := range t.Categories {
		total += c.Hours
	}
	return total
}

// Module groups tasks under one area of the project.
type Module struct {
	Module string `json:"module" yaml:"module" validate:"required"`
	Tasks  []Task `json:"tasks" yaml:"tasks" validate:"min=1,dive"`
}

// Hours is the sum over the module's tasks.
func (m Module) Hours() float64 {
	var total float64
	for _, t := range m.Tasks {
		total += t.Hours()
	}
	return total
}

// SubtaskCount is the number of leaf estimates under the module.
func (m Module) SubtaskCount() int {
	n := 0
	for _, t := range m.Tasks {
		n += len(t.Categories)
	}
	return n
}

// Plan is the root of the tree.
type Plan struct {
	ProjectName string   `json:"project_name" yaml:"project_name" validate:"required"`
	Modules     []Module `json:"modules" yaml:"modules" validate:"dive"`
}

// Hours is the total estimated effort across the whole plan.
func (p Plan) Hours() float64 {
	var total float64
	for _, m := range p.Modules {
		total += m.Hours()
	}
	return total
}

// SubtaskCount is the number of leaf estimates across the whole plan.
func (p Plan) SubtaskCount() int {
	n := 0
	for _, m := range p.Modules {
		n += m.SubtaskCount()
	}
	return n
}

// Slug returns a filesystem- and URL-safe label derived from the project
// name.
func (p Plan) Slug() string {
	return slugify(p.ProjectName)
}

var validate = validator.New()

// Validate checks the plan against its schema constraints.
func (p *Plan) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}
	return nil
}

// Example returns a skeleton plan used as the worked output-format example
// in the generation prompt: one module, one task, one estimate per
// category.
func Example() *Plan {
	cats := Categories()
	estimates := make([]SubtaskEstimate, len(cats))
	for i, c := range cats {
		estimates[i] = SubtaskEstimate{
			Category: c,
			Hours:    0,
			Subtask:  "Short description of the subtask",
		}
	}
	return &Plan{
		ProjectName: "Name of the project",
		Modules: []Module{{
			Module: "Name of the bigger module which the tasks are a part of",
			Tasks: []Task{{
				Task:        "Name of the task",
				Description: "Description of the task along with what to implement",
				Categories:  estimates,
			}},
		}},
	}
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
