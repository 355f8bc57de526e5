package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"toolkithub/internal/cache"
	"toolkithub/internal/database"
	"toolkithub/internal/metrics"
	"toolkithub/internal/models"
	"toolkithub/internal/repositories"
	"toolkithub/internal/validation"
)

// MaxBatchSize bounds every bulk delete and insert.
const MaxBatchSize = 500

type SeedFormat string

const (
	SeedJSON SeedFormat = "json"
	SeedYAML SeedFormat = "yaml"
)

// ParseSeedFormat maps a file extension or flag value to a SeedFormat.
func ParseSeedFormat(s string) (SeedFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return SeedJSON, nil
	case "yaml", "yml":
		return SeedYAML, nil
	}
	return "", validation.Errorf("unsupported seed format %q", s)
}

type TransferService interface {
	Export(ctx context.Context) ([]models.ToolExport, error)
	// ParseImport decodes a JSON array of tools and splits it into valid
	// tools and rejected entries.
	ParseImport(data []byte) ([]models.Tool, []models.InvalidImportEntry, error)
	ParseSeed(data []byte, format SeedFormat) ([]models.Tool, []models.InvalidImportEntry, error)
	Import(ctx context.Context, data []byte, mode models.ImportMode) (*models.ImportReport, error)
	// Migrate bulk loads a seed file in append mode and derives categories
	// from the loaded tools.
	Migrate(ctx context.Context, data []byte, format SeedFormat) (*models.ImportReport, error)
	InitCollections(ctx context.Context) ([]string, error)
}

type transferServiceImpl struct {
	catalogReader
	categoryRepo repositories.CategoryRepository
	db           database.Service
}

func NewTransferService(
	toolRepo repositories.ToolRepository,
	categoryRepo repositories.CategoryRepository,
	catalogCache cache.CatalogCache,
	db database.Service,
) TransferService {
	return &transferServiceImpl{
		catalogReader: catalogReader{toolRepo: toolRepo, cache: catalogCache},
		categoryRepo:  categoryRepo,
		db:            db,
	}
}

func (s *transferServiceImpl) Export(ctx context.Context) ([]models.ToolExport, error) {
	tools, err := s.toolRepo.FindAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load tools for export")
		return nil, fmt.Errorf("failed to load tools: %w", err)
	}
	out := make([]models.ToolExport, 0, len(tools))
	for _, t := range tools {
		out = append(out, models.ToolExport{
			ID:            t.ID.Hex(),
			Name:          t.Name,
			Category:      t.Category,
			URL:           t.URL,
			Description:   t.Description,
			Memo:          t.Memo,
			Plan:          t.Plan,
			AverageRating: t.AverageRating,
			RatingCount:   t.RatingCount,
			CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:     t.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	log.Info().Int("tools", len(out)).Msg("Tools exported")
	return out, nil
}

func (s *transferServiceImpl) ParseImport(data []byte) ([]models.Tool, []models.InvalidImportEntry, error) {
	return s.ParseSeed(data, SeedJSON)
}

func (s *transferServiceImpl) ParseSeed(data []byte, format SeedFormat) ([]models.Tool, []models.InvalidImportEntry, error) {
	var entries []interface{}
	switch format {
	case SeedJSON:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, nil, validation.Errorf("import must be a JSON array of tools: %v", err)
		}
	case SeedYAML:
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, nil, validation.Errorf("seed must be a YAML list of tools: %v", err)
		}
	default:
		return nil, nil, validation.Errorf("unsupported seed format %q", format)
	}

	at := now()
	tools := make([]models.Tool, 0, len(entries))
	invalid := []models.InvalidImportEntry{}
	for i, raw := range entries {
		entry, _ := raw.(map[string]interface{})
		tool, reason := toolFromEntry(entry, at)
		if reason != "" {
			invalid = append(invalid, models.InvalidImportEntry{Index: i, Reason: reason})
			continue
		}
		tools = append(tools, tool)
	}
	return tools, invalid, nil
}

// toolFromEntry checks the required string fields of one import entry.
// Rating aggregates are not imported; they are rebuilt from ratings.
func toolFromEntry(entry map[string]interface{}, at time.Time) (models.Tool, string) {
	if entry == nil {
		return models.Tool{}, "entry is not an object"
	}
	required := map[string]string{}
	for _, field := range []string{"name", "category", "url", "description"} {
		v, ok := entry[field].(string)
		if !ok {
			return models.Tool{}, fmt.Sprintf("%s must be a string", field)
		}
		if v = strings.TrimSpace(v); v == "" {
			return models.Tool{}, fmt.Sprintf("%s must not be empty", field)
		}
		required[field] = v
	}

	tool := models.Tool{
		Name:        required["name"],
		Category:    required["category"],
		URL:         required["url"],
		Description: required["description"],
		Plan:        models.PlanNone,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	if v, present := entry["memo"]; present && v != nil {
		memo, ok := v.(string)
		if !ok {
			return models.Tool{}, "memo must be a string"
		}
		tool.Memo = memo
	}
	if v, present := entry["plan"]; present && v != nil && v != "" {
		plan, ok := v.(string)
		if !ok || !models.Plan(plan).Valid() {
			return models.Tool{}, "plan must be one of none, free, paid, enterprise"
		}
		tool.Plan = models.Plan(plan)
	}
	for field, dst := range map[string]*time.Time{"createdAt": &tool.CreatedAt, "updatedAt": &tool.UpdatedAt} {
		v, present := entry[field]
		if !present || v == nil {
			continue
		}
		switch ts := v.(type) {
		case string:
			parsed, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				return models.Tool{}, fmt.Sprintf("%s must be an ISO-8601 timestamp", field)
			}
			*dst = parsed.UTC()
		case time.Time:
			*dst = ts.UTC()
		default:
			return models.Tool{}, fmt.Sprintf("%s must be an ISO-8601 timestamp", field)
		}
	}

	// Same rules as a tool added through the API.
	body := models.AddToolRequestBody{
		Name:        tool.Name,
		Category:    tool.Category,
		URL:         tool.URL,
		Description: tool.Description,
		Memo:        tool.Memo,
		Plan:        tool.Plan,
	}
	if err := validate.Validate(body); err != nil {
		return models.Tool{}, err.Error()
	}
	if err := checkCategoryName(tool.Category); err != nil {
		return models.Tool{}, "category " + err.Error()
	}
	return tool, ""
}

func (s *transferServiceImpl) Import(ctx context.Context, data []byte, mode models.ImportMode) (*models.ImportReport, error) {
	tools, invalid, err := s.ParseImport(data)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, tools, invalid, mode)
}

func (s *transferServiceImpl) Migrate(ctx context.Context, data []byte, format SeedFormat) (*models.ImportReport, error) {
	tools, invalid, err := s.ParseSeed(data, format)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, tools, invalid, models.ImportAppend)
}

func (s *transferServiceImpl) load(ctx context.Context, tools []models.Tool, invalid []models.InvalidImportEntry, mode models.ImportMode) (*models.ImportReport, error) {
	if mode == "" {
		mode = models.ImportAppend
	}
	if mode != models.ImportAppend && mode != models.ImportReplace {
		return nil, validation.Errorf("mode must be %q or %q", models.ImportAppend, models.ImportReplace)
	}
	report := &models.ImportReport{Mode: mode, Valid: len(tools), Invalid: invalid}
	if len(tools) == 0 {
		log.Warn().Int("invalid", len(invalid)).Msg("Import has no valid entries")
		return report, validation.Errorf("import contains no valid tools")
	}

	if mode == models.ImportReplace {
		deleted, err := s.deleteAll(ctx)
		report.Deleted = deleted
		if err != nil {
			s.invalidate(ctx)
			return report, err
		}
	}

	for start := 0; start < len(tools); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(tools))
		n, err := s.toolRepo.InsertMany(ctx, tools[start:end])
		report.Inserted += n
		if err != nil {
			s.invalidate(ctx)
			log.Error().Err(err).Int("inserted", report.Inserted).Msg("Import insert failed")
			return report, fmt.Errorf("failed to insert tools: %w", err)
		}
	}
	s.invalidate(ctx)
	metrics.ImportedToolsTotal.WithLabelValues(string(mode)).Add(float64(report.Inserted))

	created, err := s.deriveCategories(ctx, tools)
	if err != nil {
		return report, err
	}

	log.Info().
		Str("mode", string(mode)).
		Int("inserted", report.Inserted).
		Int("deleted", report.Deleted).
		Int("invalid", len(invalid)).
		Int("categoriesCreated", created).
		Msg("Tools imported")
	return report, nil
}

func (s *transferServiceImpl) deleteAll(ctx context.Context) (int, error) {
	ids, err := s.toolRepo.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list existing tools: %w", err)
	}
	deleted := 0
	for start := 0; start < len(ids); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(ids))
		n, err := s.toolRepo.DeleteMany(ctx, ids[start:end])
		deleted += int(n)
		if err != nil {
			log.Error().Err(err).Int("deleted", deleted).Msg("Replace import delete failed")
			return deleted, fmt.Errorf("failed to delete existing tools: %w", err)
		}
	}
	log.Debug().Int("deleted", deleted).Msg("Existing tools deleted")
	return deleted, nil
}

// deriveCategories upserts one category per distinct tool category.
func (s *transferServiceImpl) deriveCategories(ctx context.Context, tools []models.Tool) (int, error) {
	seen := make(map[string]struct{})
	for _, t := range tools {
		seen[t.Category] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	created := 0
	for _, name := range names {
		ok, err := s.categoryRepo.Upsert(ctx, name, now())
		if err != nil {
			return created, fmt.Errorf("failed to derive category %q: %w", name, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (s *transferServiceImpl) InitCollections(ctx context.Context) ([]string, error) {
	created, err := database.EnsureCollections(ctx, s.db)
	if err != nil {
		return created, err
	}
	if err := database.EnsureIndexes(ctx, s.db); err != nil {
		return created, err
	}
	log.Info().Strs("created", created).Msg("Collections initialized")
	return created, nil
}
