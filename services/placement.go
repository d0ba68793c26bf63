package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sretter/boardflow/database"
)

// PlacementStore is the write surface the placement engine needs.
type PlacementStore interface {
	InsertTask(ctx context.Context, t *database.Task) error
	UpdateTask(ctx context.Context, t *database.Task) error
	UpdateTaskPlacement(ctx context.Context, id int64, columnID string, categoryID *string) error
	DeleteTask(ctx context.Context, id int64) error
	GetCategory(ctx context.Context, id string) (*database.Category, error)
	InsertCategory(ctx context.Context, c *database.Category) error
	CategoryNameExists(ctx context.Context, columnID, name string) (bool, error)
	UpdateCategoryName(ctx context.Context, id, name string) error
	DeleteCategory(ctx context.Context, id string) error
}

// Placement identifies a task's location: a column, plus optionally a
// category within that column. The zero CategoryID means the task sits
// directly under the column.
type Placement struct {
	ColumnID   string
	CategoryID string
}

func DirectPlacement(columnID string) Placement {
	return Placement{ColumnID: columnID}
}

func CategoryPlacement(columnID, categoryID string) Placement {
	return Placement{ColumnID: columnID, CategoryID: categoryID}
}

func (p Placement) InCategory() bool { return p.CategoryID != "" }

func (p Placement) categoryIDPtr() *string {
	if p.CategoryID == "" {
		return nil
	}
	id := p.CategoryID
	return &id
}

// TaskDraft is the input to Create.
type TaskDraft struct {
	Title      string
	Priority   string
	Project    string
	ColumnID   string
	CategoryID string
}

// TaskUpdate carries field updates for an existing task. Nil fields
// are left untouched. Placement changes go through Move.
type TaskUpdate struct {
	Title    *string
	Priority *string
	Project  *string
}

// PlacementService owns the in-memory mirror of the assembled board
// and is its only mutator. Every operation mutates the mirror
// optimistically; the board assembler only ever replaces the mirror
// wholesale via Refresh. HTTP handlers run concurrently, so the mutex
// serializes mutations into a single queue.
type PlacementService struct {
	store  PlacementStore
	board  *BoardService
	logger *zap.Logger

	persistTimeout time.Duration

	mu     sync.Mutex
	mirror []BoardColumn
}

func NewPlacementService(store PlacementStore, board *BoardService, logger *zap.Logger) *PlacementService {
	return &PlacementService{
		store:          store,
		board:          board,
		logger:         logger,
		persistTimeout: 10 * time.Second,
	}
}

// Board returns a copy of the mirror, assembling it first when empty
// or when force is set. The copy keeps callers from observing later
// mirror mutations.
func (s *PlacementService) Board(ctx context.Context, force bool) ([]BoardColumn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if force || s.mirror == nil {
		if err := s.refreshLocked(ctx, force); err != nil {
			return nil, err
		}
	}
	return cloneBoard(s.mirror), nil
}

// Refresh replaces the mirror wholesale with a fresh assembly. This is
// the reconciliation path for drift left behind by failed background
// persistence.
func (s *PlacementService) Refresh(ctx context.Context) ([]BoardColumn, error) {
	return s.Board(ctx, true)
}

func (s *PlacementService) refreshLocked(ctx context.Context, force bool) error {
	board, err := s.board.Assemble(ctx, force)
	if err != nil {
		return err
	}
	s.mirror = board
	return nil
}

func (s *PlacementService) ensureMirrorLocked(ctx context.Context) error {
	if s.mirror == nil {
		return s.refreshLocked(ctx, false)
	}
	return nil
}

// Create validates the draft, inserts the task into the store, and on
// success mirrors it at the front of the appropriate task list. The
// mirror is untouched when the insert fails.
func (s *PlacementService) Create(ctx context.Context, draft TaskDraft) (*database.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, validationErrorf("title is required")
	}
	if draft.ColumnID == "" {
		return nil, validationErrorf("column_id is required")
	}
	priority := draft.Priority
	if priority == "" {
		priority = database.PriorityMedium
	}
	switch priority {
	case database.PriorityLow, database.PriorityMedium, database.PriorityHigh:
	default:
		return nil, validationErrorf("invalid priority %q", priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMirrorLocked(ctx); err != nil {
		return nil, err
	}

	target := Placement{ColumnID: draft.ColumnID, CategoryID: draft.CategoryID}
	if _, err := s.resolveTargetLocked(target.ColumnID, target.CategoryID, false); err != nil {
		return nil, err
	}

	task := &database.Task{
		Title:      strings.TrimSpace(draft.Title),
		Priority:   priority,
		Project:    draft.Project,
		ColumnID:   target.ColumnID,
		CategoryID: target.categoryIDPtr(),
	}
	if err := s.store.InsertTask(ctx, task); err != nil {
		return nil, storeError("failed to create task", err)
	}

	s.attachLocked(*task, target)
	return cloneTask(task), nil
}

// Move relocates a task to (targetColumnID, targetCategoryID). The
// mirror is updated synchronously and optimistically; persistence is
// background, best-effort, and never rolled back on failure. Moving a
// task onto its current placement is a no-op.
func (s *PlacementService) Move(ctx context.Context, taskID int64, targetColumnID, targetCategoryID string) (*database.Task, error) {
	if targetColumnID == "" {
		return nil, validationErrorf("column_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMirrorLocked(ctx); err != nil {
		return nil, err
	}

	loc, ok := s.findTaskLocked(taskID)
	if !ok {
		// The mirror may be stale. Refresh once and retry.
		if err := s.refreshLocked(ctx, true); err != nil {
			return nil, err
		}
		loc, ok = s.findTaskLocked(taskID)
		if !ok {
			return nil, notFoundErrorf("task %d not found", taskID)
		}
	}

	target, err := s.resolveTargetLocked(targetColumnID, targetCategoryID, true)
	if err != nil {
		return nil, err
	}

	if loc.placement == target {
		return cloneTask(loc.taskLocked(s.mirror)), nil
	}

	task := s.detachLocked(loc)
	task.ColumnID = target.ColumnID
	task.CategoryID = target.categoryIDPtr()
	task.UpdatedAt = time.Now().UTC()
	s.attachLocked(task, target)

	go s.persistPlacement(task.ID, target)

	return cloneTask(&task), nil
}

// persistPlacement writes a move to the store in the background. A
// failure is logged and accepted: the mirror keeps the optimistic
// state and the next full refresh reconciles.
func (s *PlacementService) persistPlacement(taskID int64, target Placement) {
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()
	if err := s.store.UpdateTaskPlacement(ctx, taskID, target.ColumnID, target.categoryIDPtr()); err != nil {
		s.logger.Warn("task move not persisted; mirror and store have drifted until next refresh",
			zap.Int64("task_id", taskID),
			zap.String("column_id", target.ColumnID),
			zap.String("category_id", target.CategoryID),
			zap.Error(err))
	}
}

// Update rewrites a task's non-placement fields, store first, mirror
// second.
func (s *PlacementService) Update(ctx context.Context, taskID int64, update TaskUpdate) (*database.Task, error) {
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, validationErrorf("title must not be empty")
	}
	if update.Priority != nil {
		switch *update.Priority {
		case database.PriorityLow, database.PriorityMedium, database.PriorityHigh:
		default:
			return nil, validationErrorf("invalid priority %q", *update.Priority)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMirrorLocked(ctx); err != nil {
		return nil, err
	}

	loc, ok := s.findTaskLocked(taskID)
	if !ok {
		if err := s.refreshLocked(ctx, true); err != nil {
			return nil, err
		}
		loc, ok = s.findTaskLocked(taskID)
		if !ok {
			return nil, notFoundErrorf("task %d not found", taskID)
		}
	}

	task := loc.taskLocked(s.mirror)
	updated := *cloneTask(task)
	if update.Title != nil {
		updated.Title = strings.TrimSpace(*update.Title)
	}
	if update.Priority != nil {
		updated.Priority = *update.Priority
	}
	if update.Project != nil {
		updated.Project = *update.Project
	}

	if err := s.store.UpdateTask(ctx, &updated); err != nil {
		return nil, storeError("failed to update task", err)
	}

	*task = updated
	return cloneTask(&updated), nil
}

// Delete removes a task from the store and the mirror.
func (s *PlacementService) Delete(ctx context.Context, taskID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMirrorLocked(ctx); err != nil {
		return err
	}

	loc, ok := s.findTaskLocked(taskID)
	if !ok {
		if err := s.refreshLocked(ctx, true); err != nil {
			return err
		}
		loc, ok = s.findTaskLocked(taskID)
		if !ok {
			return notFoundErrorf("task %d not found", taskID)
		}
	}

	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return storeError("failed to delete task", err)
	}
	s.detachLocked(loc)
	return nil
}

// CreateCategory adds a stored category under a column. The roster
// column's categories come from team members and cannot be created
// here.
func (s *PlacementService) CreateCategory(ctx context.Context, name, columnID string, orderIndex *int) (*database.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("name is required")
	}
	if columnID == "" {
		return nil, validationErrorf("column_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMirrorLocked(ctx); err != nil {
		return nil, err
	}

	col := s.findColumnLocked(columnID)
	if col == nil {
		return nil, notFoundErrorf("column %q not found", columnID)
	}
	if columnID == s.board.RosterColumnID() {
		return nil, protectedErrorf("categories for column %q are synthesized from the team roster", columnID)
	}

	exists, err := s.store.CategoryNameExists(ctx, columnID, name)
	if err != nil {
		return nil, storeError("failed to check category name", err)
	}
	if exists {
		return nil, conflictErrorf("category %q already exists in column %q", name, columnID)
	}

	order := len(col.Categories)
	if orderIndex != nil {
		order = *orderIndex
	}
	category := &database.Category{
		ID:         fmt.Sprintf("%s_%s_%d", columnID, slugify(name), time.Now().UnixMilli()),
		Name:       name,
		ColumnID:   columnID,
		OrderIndex: order,
	}
	if err := s.store.InsertCategory(ctx, category); err != nil {
		return nil, storeError("failed to create category", err)
	}

	col.Categories = append(col.Categories, BoardCategory{
		ID:         category.ID,
		Name:       category.Name,
		ColumnID:   category.ColumnID,
		OrderIndex: category.OrderIndex,
		Tasks:      []database.Task{},
	})
	return category, nil
}

// RenameCategory changes a stored category's name, keeping the
// same-column uniqueness rule.
func (s *PlacementService) RenameCategory(ctx context.Context, categoryID, name string) (*database.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("name is required")
	}
	if s.isSynthetic(categoryID) {
		return nil, protectedErrorf("category %q is synthesized from the team roster", categoryID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, storeError("failed to load category", err)
	}
	if category == nil {
		return nil, notFoundErrorf("category %q not found", categoryID)
	}

	if !strings.EqualFold(category.Name, name) {
		exists, err := s.store.CategoryNameExists(ctx, category.ColumnID, name)
		if err != nil {
			return nil, storeError("failed to check category name", err)
		}
		if exists {
			return nil, conflictErrorf("category %q already exists in column %q", name, category.ColumnID)
		}
	}

	if err := s.store.UpdateCategoryName(ctx, categoryID, name); err != nil {
		return nil, storeError("failed to rename category", err)
	}
	category.Name = name

	if col := s.findColumnLocked(category.ColumnID); col != nil {
		for i := range col.Categories {
			if col.Categories[i].ID == categoryID {
				col.Categories[i].Name = name
				break
			}
		}
	}
	return category, nil
}

// DeleteCategory removes a stored category. Synthesized roster
// categories are silently left alone, default categories are
// protected. Tasks of a deleted category stay in the store and surface
// as direct tasks of the column.
func (s *PlacementService) DeleteCategory(ctx context.Context, categoryID string) error {
	if s.isSynthetic(categoryID) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return storeError("failed to load category", err)
	}
	if category == nil {
		return notFoundErrorf("category %q not found", categoryID)
	}
	if category.IsDefault {
		return protectedErrorf("category %q is a default category and cannot be deleted", categoryID)
	}

	if err := s.store.DeleteCategory(ctx, categoryID); err != nil {
		return storeError("failed to delete category", err)
	}

	if col := s.findColumnLocked(category.ColumnID); col != nil {
		for i := range col.Categories {
			if col.Categories[i].ID != categoryID {
				continue
			}
			// Orphaned tasks become direct tasks of the column, so the
			// column count is unchanged.
			col.Tasks = append(col.Tasks, col.Categories[i].Tasks...)
			col.Categories = append(col.Categories[:i], col.Categories[i+1:]...)
			break
		}
	}
	return nil
}

// isSynthetic reports whether a category id denotes a synthesized
// roster category. Stored categories never live under the roster
// column, so the id prefix is unambiguous.
func (s *PlacementService) isSynthetic(categoryID string) bool {
	return strings.HasPrefix(categoryID, s.board.RosterColumnID()+"_")
}

// taskLocation pins a task inside the mirror: column index, category
// index (-1 for a direct task), task index.
type taskLocation struct {
	placement     Placement
	col, cat, idx int
}

func (l taskLocation) taskLocked(mirror []BoardColumn) *database.Task {
	if l.cat < 0 {
		return &mirror[l.col].Tasks[l.idx]
	}
	return &mirror[l.col].Categories[l.cat].Tasks[l.idx]
}

func (s *PlacementService) findTaskLocked(taskID int64) (taskLocation, bool) {
	for ci := range s.mirror {
		col := &s.mirror[ci]
		for ti := range col.Tasks {
			if col.Tasks[ti].ID == taskID {
				return taskLocation{
					placement: DirectPlacement(col.ID),
					col:       ci, cat: -1, idx: ti,
				}, true
			}
		}
		for gi := range col.Categories {
			for ti := range col.Categories[gi].Tasks {
				if col.Categories[gi].Tasks[ti].ID == taskID {
					return taskLocation{
						placement: CategoryPlacement(col.ID, col.Categories[gi].ID),
						col:       ci, cat: gi, idx: ti,
					}, true
				}
			}
		}
	}
	return taskLocation{}, false
}

func (s *PlacementService) findColumnLocked(columnID string) *BoardColumn {
	for i := range s.mirror {
		if s.mirror[i].ID == columnID {
			return &s.mirror[i]
		}
	}
	return nil
}

// resolveTargetLocked validates a requested placement against the
// mirror. A bare drop onto a column that has categories auto-assigns
// the default category (first is_default, else first by order).
func (s *PlacementService) resolveTargetLocked(columnID, categoryID string, autoAssign bool) (Placement, error) {
	col := s.findColumnLocked(columnID)
	if col == nil {
		return Placement{}, notFoundErrorf("column %q not found", columnID)
	}

	if categoryID != "" {
		for ci := range s.mirror {
			for gi := range s.mirror[ci].Categories {
				if s.mirror[ci].Categories[gi].ID != categoryID {
					continue
				}
				if s.mirror[ci].ID != columnID {
					return Placement{}, invalidPlacementErrorf(
						"category %q belongs to column %q, not %q", categoryID, s.mirror[ci].ID, columnID)
				}
				return CategoryPlacement(columnID, categoryID), nil
			}
		}
		return Placement{}, notFoundErrorf("category %q not found", categoryID)
	}

	if autoAssign && len(col.Categories) > 0 {
		def := &col.Categories[0]
		for i := range col.Categories {
			if col.Categories[i].IsDefault {
				def = &col.Categories[i]
				break
			}
		}
		return CategoryPlacement(columnID, def.ID), nil
	}
	return DirectPlacement(columnID), nil
}

// detachLocked removes the task at loc from the mirror, decrementing
// counts, and returns it.
func (s *PlacementService) detachLocked(loc taskLocation) database.Task {
	col := &s.mirror[loc.col]
	var task database.Task
	if loc.cat < 0 {
		task = col.Tasks[loc.idx]
		col.Tasks = append(col.Tasks[:loc.idx], col.Tasks[loc.idx+1:]...)
	} else {
		cat := &col.Categories[loc.cat]
		task = cat.Tasks[loc.idx]
		cat.Tasks = append(cat.Tasks[:loc.idx], cat.Tasks[loc.idx+1:]...)
		cat.Count--
	}
	col.Count--
	return task
}

// attachLocked prepends the task to the target list and increments
// counts. The target is assumed validated against the mirror.
func (s *PlacementService) attachLocked(task database.Task, target Placement) {
	col := s.findColumnLocked(target.ColumnID)
	if col == nil {
		return
	}
	if target.InCategory() {
		for i := range col.Categories {
			if col.Categories[i].ID == target.CategoryID {
				cat := &col.Categories[i]
				cat.Tasks = append([]database.Task{task}, cat.Tasks...)
				cat.Count++
				col.Count++
				return
			}
		}
		return
	}
	col.Tasks = append([]database.Task{task}, col.Tasks...)
	col.Count++
}

func slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func cloneTask(t *database.Task) *database.Task {
	c := *t
	if t.CategoryID != nil {
		id := *t.CategoryID
		c.CategoryID = &id
	}
	return &c
}

func cloneBoard(board []BoardColumn) []BoardColumn {
	out := make([]BoardColumn, len(board))
	for i, col := range board {
		out[i] = col
		out[i].Tasks = cloneTasks(col.Tasks)
		out[i].Categories = make([]BoardCategory, len(col.Categories))
		for j, cat := range col.Categories {
			out[i].Categories[j] = cat
			out[i].Categories[j].Tasks = cloneTasks(cat.Tasks)
		}
	}
	return out
}

func cloneTasks(tasks []database.Task) []database.Task {
	out := make([]database.Task, len(tasks))
	for i := range tasks {
		out[i] = *cloneTask(&tasks[i])
	}
	return out
}
