package services

import (
	"context"
	"strconv"

	"github.com/sretter/boardflow/database"
)

// DefaultRosterColumnID is the column whose categories are synthesized
// from the team roster instead of being read from the store.
const DefaultRosterColumnID = "follow-up"

// BoardStore is the read surface the assembler needs.
type BoardStore interface {
	ListColumns(ctx context.Context) ([]database.Column, error)
	ListCategories(ctx context.Context, columnID string) ([]database.Category, error)
	ListTasks(ctx context.Context, columnID string) ([]database.Task, error)
	ListTeamMembers(ctx context.Context, activeOnly bool) ([]database.TeamMember, error)
	CountTeamMembers(ctx context.Context, activeOnly bool) (int, error)
}

// BoardCategory is a category carrying its tasks in the assembled view.
type BoardCategory struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ColumnID    string          `json:"column_id"`
	OrderIndex  int             `json:"order_index"`
	IsDefault   bool            `json:"is_default"`
	Synthesized bool            `json:"synthesized,omitempty"`
	Tasks       []database.Task `json:"tasks"`
	Count       int             `json:"count"`
}

// BoardColumn is a column carrying its direct tasks and categories.
// Count covers direct tasks plus every category's tasks.
type BoardColumn struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Color      string          `json:"color"`
	OrderIndex int             `json:"order_index"`
	Tasks      []database.Task `json:"tasks"`
	Categories []BoardCategory `json:"categories"`
	Count      int             `json:"count"`
}

// categorySource yields a column's categories. Stored columns read the
// categories table; the roster column synthesizes one category per
// active team member.
type categorySource interface {
	Categories(ctx context.Context, col database.Column, force bool) ([]BoardCategory, error)
}

type storedCategorySource struct {
	store BoardStore
}

func (s *storedCategorySource) Categories(ctx context.Context, col database.Column, force bool) ([]BoardCategory, error) {
	stored, err := s.store.ListCategories(ctx, col.ID)
	if err != nil {
		return nil, err
	}
	categories := make([]BoardCategory, 0, len(stored))
	for _, c := range stored {
		categories = append(categories, BoardCategory{
			ID:         c.ID,
			Name:       c.Name,
			ColumnID:   c.ColumnID,
			OrderIndex: c.OrderIndex,
			IsDefault:  c.IsDefault,
			Tasks:      []database.Task{},
		})
	}
	return categories, nil
}

type rosterCategorySource struct {
	store BoardStore
}

func (s *rosterCategorySource) Categories(ctx context.Context, col database.Column, force bool) ([]BoardCategory, error) {
	members, err := s.store.ListTeamMembers(ctx, true)
	if err != nil {
		return nil, err
	}

	// A write to the roster can land between our read and the caller's
	// request. Re-reading once on a forced refresh, or when the active
	// list disagrees with the member count, narrows that window. This
	// is a best-effort mitigation of an accepted race, not a guarantee.
	retry := force
	if !retry {
		total, err := s.store.CountTeamMembers(ctx, false)
		if err != nil {
			return nil, err
		}
		retry = len(members) != total
	}
	if retry {
		members, err = s.store.ListTeamMembers(ctx, true)
		if err != nil {
			return nil, err
		}
	}

	categories := make([]BoardCategory, 0, len(members))
	for i, m := range members {
		categories = append(categories, BoardCategory{
			ID:          SyntheticCategoryID(col.ID, m.ID),
			Name:        m.Name,
			ColumnID:    col.ID,
			OrderIndex:  i,
			Synthesized: true,
			Tasks:       []database.Task{},
		})
	}
	return categories, nil
}

// SyntheticCategoryID builds the read-time category id for a roster
// member, e.g. "follow-up_7".
func SyntheticCategoryID(columnID string, memberID int64) string {
	return columnID + "_" + strconv.FormatInt(memberID, 10)
}

// BoardService assembles the denormalized board view: ordered columns,
// each with its direct tasks and its categories' tasks, all counted.
type BoardService struct {
	store          BoardStore
	rosterColumnID string
}

func NewBoardService(store BoardStore, rosterColumnID string) *BoardService {
	if rosterColumnID == "" {
		rosterColumnID = DefaultRosterColumnID
	}
	return &BoardService{store: store, rosterColumnID: rosterColumnID}
}

// RosterColumnID reports which column's categories come from the roster.
func (s *BoardService) RosterColumnID() string {
	return s.rosterColumnID
}

func (s *BoardService) sourceFor(columnID string) categorySource {
	if columnID == s.rosterColumnID {
		return &rosterCategorySource{store: s.store}
	}
	return &storedCategorySource{store: s.store}
}

// Assemble builds the full board. Any store failure aborts the whole
// assembly; no partial board is returned. Tasks whose category no
// longer exists in the view (a soft-deleted roster member, a deleted
// category) surface as direct tasks of their column.
func (s *BoardService) Assemble(ctx context.Context, force bool) ([]BoardColumn, error) {
	columns, err := s.store.ListColumns(ctx)
	if err != nil {
		return nil, storeError("failed to assemble board", err)
	}

	board := make([]BoardColumn, 0, len(columns))
	for _, col := range columns {
		categories, err := s.sourceFor(col.ID).Categories(ctx, col, force)
		if err != nil {
			return nil, storeError("failed to assemble board", err)
		}

		tasks, err := s.store.ListTasks(ctx, col.ID)
		if err != nil {
			return nil, storeError("failed to assemble board", err)
		}

		bc := BoardColumn{
			ID:         col.ID,
			Title:      col.Title,
			Color:      col.Color,
			OrderIndex: col.OrderIndex,
			Tasks:      []database.Task{},
			Categories: categories,
		}

		byID := make(map[string]int, len(categories))
		for i, c := range bc.Categories {
			byID[c.ID] = i
		}
		for _, t := range tasks {
			if t.CategoryID != nil {
				if i, ok := byID[*t.CategoryID]; ok {
					bc.Categories[i].Tasks = append(bc.Categories[i].Tasks, t)
					continue
				}
			}
			// Direct task, or orphaned from a category that is gone.
			bc.Tasks = append(bc.Tasks, t)
		}

		bc.Count = len(bc.Tasks)
		for i := range bc.Categories {
			bc.Categories[i].Count = len(bc.Categories[i].Tasks)
			bc.Count += bc.Categories[i].Count
		}
		board = append(board, bc)
	}

	return board, nil
}
