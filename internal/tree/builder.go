// Package tree flattens task records into the ordered project/product/task
// row list returned by every tree read.
package tree

import (
	"github.com/alexanderramin/opstree/internal/domain"
)

// Empties lists every project and product for include-empty reads. A nil
// *Empties disables the fill-in pass.
type Empties struct {
	Projects []domain.Project
	Products []domain.ProductWithProject
}

// Result is the built tree plus the number of recorded nodes that could not
// be placed under an emitted parent.
type Result struct {
	domain.TreeResult
	Skipped int
}

type builder struct {
	projects *orderedIndex[int64, domain.Project]
	products *orderedIndex[int64, domain.Product]
	tasks    *orderedIndex[int64, domain.Task]

	productsOf map[int64][]int64
	tasksOf    map[int64][]int64
}

// Build accumulates records in order, optionally fills in empty projects and
// products, and emits rows depth-first. It never touches the store.
func Build(records []domain.TaskRecord, empties *Empties) Result {
	b := &builder{
		projects:   newOrderedIndex[int64, domain.Project](len(records)),
		products:   newOrderedIndex[int64, domain.Product](len(records)),
		tasks:      newOrderedIndex[int64, domain.Task](len(records)),
		productsOf: make(map[int64][]int64),
		tasksOf:    make(map[int64][]int64),
	}

	for _, rec := range records {
		b.addProject(rec.Project)
		b.addProduct(rec.Product)
		b.addTask(rec.Task)
	}
	taskCount := b.tasks.len()

	if empties != nil {
		for _, p := range empties.Projects {
			b.addProject(p)
		}
		for _, pp := range empties.Products {
			b.addProject(pp.Project)
			b.addProduct(pp.Product)
		}
	}

	return b.emit(taskCount)
}

func (b *builder) addProject(p domain.Project) {
	b.projects.upsert(p.ID, p)
}

func (b *builder) addProduct(p domain.Product) {
	if b.products.upsert(p.ID, p) {
		b.productsOf[p.ProjectID] = append(b.productsOf[p.ProjectID], p.ID)
	}
}

func (b *builder) addTask(t domain.Task) {
	if b.tasks.upsert(t.ID, t) {
		b.tasksOf[t.ProductID] = append(b.tasksOf[t.ProductID], t.ID)
	}
}

func (b *builder) emit(taskCount int) Result {
	rows := make([]domain.TreeRow, 0, b.projects.len()+b.products.len()+b.tasks.len())
	placed := 0

	for _, projectID := range b.projects.keys() {
		project, _ := b.projects.get(projectID)
		productIDs := b.productsOf[projectID]
		rows = append(rows, projectRow(project, len(productIDs) > 0))

		for _, productID := range productIDs {
			product, ok := b.products.get(productID)
			if !ok {
				continue
			}
			placed++
			taskIDs := b.tasksOf[productID]
			rows = append(rows, productRow(product, len(taskIDs) > 0))

			for _, taskID := range taskIDs {
				task, ok := b.tasks.get(taskID)
				if !ok {
					continue
				}
				placed++
				rows = append(rows, taskRow(task))
			}
		}
	}

	return Result{
		TreeResult: domain.TreeResult{Rows: rows, TaskCount: taskCount},
		Skipped:    b.products.len() + b.tasks.len() - placed,
	}
}

func projectRow(p domain.Project, hasChildren bool) domain.TreeRow {
	return domain.TreeRow{
		RowType:     domain.RowProject,
		ID:          p.ID,
		Level:       domain.RowProject.Level(),
		Name:        p.Name,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		HasChildren: hasChildren,
	}
}

func productRow(p domain.Product, hasChildren bool) domain.TreeRow {
	parent := p.ProjectID
	return domain.TreeRow{
		RowType:     domain.RowProduct,
		ID:          p.ID,
		ParentID:    &parent,
		Level:       domain.RowProduct.Level(),
		Name:        p.Name,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		HasChildren: hasChildren,
	}
}

func taskRow(t domain.Task) domain.TreeRow {
	parent := t.ProductID
	return domain.TreeRow{
		RowType:    domain.RowTask,
		ID:         t.ID,
		ParentID:   &parent,
		Level:      domain.RowTask.Level(),
		Name:       t.Title,
		Status:     t.StatusName,
		AssigneeID: t.AssigneeID,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}
