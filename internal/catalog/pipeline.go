// Package catalog holds the in-process list pipeline that turns the full tool
// catalog into one filtered, sorted page, plus the aggregate math shared with
// the rating service.
package catalog

import (
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"toolkithub/internal/models"
)

const (
	PageSize      = 40
	AllCategories = "all"
)

type SortOrder string

const (
	SortRatingAsc     SortOrder = "rating_asc"
	SortRatingDesc    SortOrder = "rating_desc"
	SortNameAsc       SortOrder = "name_asc"
	SortNameDesc      SortOrder = "name_desc"
	SortCreatedAtAsc  SortOrder = "createdAt_asc"
	SortCreatedAtDesc SortOrder = "createdAt_desc"
	SortUpdatedAtAsc  SortOrder = "updatedAt_asc"
	SortUpdatedAtDesc SortOrder = "updatedAt_desc"

	DefaultSort = SortUpdatedAtDesc
)

// ParseSort maps a query value to a SortOrder. Unknown values fall back to
// DefaultSort.
func ParseSort(s string) SortOrder {
	switch o := SortOrder(s); o {
	case SortRatingAsc, SortRatingDesc, SortNameAsc, SortNameDesc,
		SortCreatedAtAsc, SortCreatedAtDesc, SortUpdatedAtAsc, SortUpdatedAtDesc:
		return o
	}
	return DefaultSort
}

// Filter is the caller's view state over the catalog.
type Filter struct {
	Category       string
	Search         string
	FreeOnly       bool
	BookmarkedOnly bool
	BookmarkIDs    map[primitive.ObjectID]struct{}
	Sort           SortOrder
	Page           int
}

// WithPageReset returns f with Page set to 1 when any field other than Page
// differs from prev.
func (f Filter) WithPageReset(prev Filter) Filter {
	if f.Category != prev.Category ||
		f.Search != prev.Search ||
		f.FreeOnly != prev.FreeOnly ||
		f.BookmarkedOnly != prev.BookmarkedOnly ||
		f.Sort != prev.Sort {
		f.Page = 1
	}
	return f
}

// Apply runs the category, search, free-only and bookmark filters, sorts the
// survivors and cuts out the requested page. tools is not modified.
func Apply(tools []models.Tool, f Filter) models.ToolPage {
	filtered := FilterTools(tools, f)
	SortTools(filtered, f.Sort)

	items, page, totalPages := Paginate(filtered, f.Page)
	return models.ToolPage{
		Items:      items,
		Total:      len(filtered),
		Page:       page,
		PageSize:   PageSize,
		TotalPages: totalPages,
	}
}

// FilterTools returns a new slice holding the tools that pass every active filter.
func FilterTools(tools []models.Tool, f Filter) []models.Tool {
	if f.BookmarkedOnly && len(f.BookmarkIDs) == 0 {
		return []models.Tool{}
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	category := strings.TrimSpace(f.Category)

	out := make([]models.Tool, 0, len(tools))
	for _, t := range tools {
		if category != "" && category != AllCategories && t.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Name), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		if f.FreeOnly && t.Plan != models.PlanFree {
			continue
		}
		if f.BookmarkedOnly {
			if _, ok := f.BookmarkIDs[t.ID]; !ok {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// SortTools orders tools in place. Equal keys fall back to the tool ID so the
// result is deterministic; descending orders reverse the whole comparison,
// the ID tiebreak included.
func SortTools(tools []models.Tool, order SortOrder) {
	order = ParseSort(string(order))

	var key func(a, b models.Tool) int
	desc := false
	switch order {
	case SortRatingAsc, SortRatingDesc:
		key = func(a, b models.Tool) int { return compareFloat(a.AverageRating, b.AverageRating) }
		desc = order == SortRatingDesc
	case SortNameAsc, SortNameDesc:
		col := collate.New(language.English, collate.IgnoreCase)
		key = func(a, b models.Tool) int { return col.CompareString(a.Name, b.Name) }
		desc = order == SortNameDesc
	case SortCreatedAtAsc, SortCreatedAtDesc:
		key = func(a, b models.Tool) int { return a.CreatedAt.Compare(b.CreatedAt) }
		desc = order == SortCreatedAtDesc
	default:
		key = func(a, b models.Tool) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
		desc = order == SortUpdatedAtDesc
	}

	sort.SliceStable(tools, func(i, j int) bool {
		c := key(tools[i], tools[j])
		if c == 0 {
			c = strings.Compare(tools[i].ID.Hex(), tools[j].ID.Hex())
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// Paginate returns the slice for page (1-based, clamped into range), the page
// actually served and the total page count.
func Paginate(tools []models.Tool, page int) ([]models.Tool, int, int) {
	totalPages := (len(tools) + PageSize - 1) / PageSize
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * PageSize
	if start >= len(tools) {
		return []models.Tool{}, page, totalPages
	}
	end := start + PageSize
	if end > len(tools) {
		end = len(tools)
	}
	return tools[start:end], page, totalPages
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
